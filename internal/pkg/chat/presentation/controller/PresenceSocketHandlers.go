package controller

import (
	"context"

	"go.uber.org/zap"

	"go-presence/internal/infrastructure/realtime"
	presence "go-presence/internal/pkg/presence/application/domain"
	presenceusecase "go-presence/internal/pkg/presence/application/usecase"
)

// onConnect records the session as online, subscribes it to its private
// channel and tells every other session about it.
func (ctl *ChatSocketController) onConnect(ctx context.Context, conn *realtime.Connection, log *zap.Logger) {
	if conn.UserID == "" {
		return
	}
	ctl.hub.Router().Join(presence.UserChannel(conn.UserID), conn)

	ctx, cancel := context.WithTimeout(ctx, ctl.inflightTimeout)
	defer cancel()

	res, err := ctl.connectUC.Execute(ctx, presenceusecase.ConnectUserInput{UserID: conn.UserID})
	if err != nil {
		log.Error("presence connect failed", zap.Error(err))
		return
	}
	ctl.metrics.Connected(ctx)
	if !res.Announce {
		return
	}
	if err := ctl.hub.BroadcastAll(ctx, presence.EventUserOnline, presence.UserEvent{UserID: conn.UserID}, conn.ID); err != nil {
		log.Error("user-online broadcast failed", zap.Error(err))
	}
}

// onDisconnect is the inverse of onConnect. It has no caller-visible error
// channel, so failures are logged.
func (ctl *ChatSocketController) onDisconnect(ctx context.Context, conn *realtime.Connection, log *zap.Logger) presenceusecase.DisconnectResult {
	if conn.UserID == "" {
		return presenceusecase.DisconnectResult{}
	}

	ctx, cancel := context.WithTimeout(ctx, ctl.inflightTimeout)
	defer cancel()

	res, err := ctl.disconnectUC.Execute(ctx, presenceusecase.DisconnectUserInput{UserID: conn.UserID})
	if err != nil {
		log.Error("presence disconnect failed", zap.Error(err))
	}
	ctl.metrics.Disconnected(ctx, res.Removed)
	if !res.Announce {
		return res
	}
	if err := ctl.hub.BroadcastAll(ctx, presence.EventUserOffline, presence.UserEvent{UserID: conn.UserID}, ""); err != nil {
		log.Error("user-offline broadcast failed", zap.Error(err))
	}
	return res
}

// handleGetOnlineUsers answers the requesting session only.
func (ctl *ChatSocketController) handleGetOnlineUsers(ctx context.Context, conn *realtime.Connection, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, ctl.inflightTimeout)
	defer cancel()

	ids, err := ctl.onlineUsersUC.Execute(ctx)
	if err != nil {
		log.Error("get-online-users failed", zap.Error(err))
		ctl.replyError(conn, "internal_error", "failed to read online users")
		return
	}
	ctl.metrics.RosterQueried(ctx)
	_ = ctl.hub.Emit(conn, presence.EventOnlineUsersList, ids)
}
