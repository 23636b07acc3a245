package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"go-presence/internal/infrastructure/auth"
	"go-presence/internal/infrastructure/realtime"
	"go-presence/internal/infrastructure/telemetry"
	chat "go-presence/internal/pkg/chat/application/domain"
	"go-presence/internal/pkg/chat/application/usecase"
	repository "go-presence/internal/pkg/chat/persistence/repository/port"
	presenceusecase "go-presence/internal/pkg/presence/application/usecase"
	presencerepo "go-presence/internal/pkg/presence/persistence/repository/port"
)

// Socket events handled by ChatSocketController.
const (
	EventJoinRoom       = "join-room"
	EventLeaveRoom      = "leave-room"
	EventGetOnlineUsers = "get-online-users"
	EventSendMessage    = "send-message"
	EventMarkRead       = "mark-read"

	EventConnected   = "connected"
	EventNewMessage  = "new-message"
	EventMessageRead = "message-read"
	EventError       = "error"
)

// Join acknowledgement errors.
const (
	ackConversationNotFound = "Conversation not found"
	ackNotAuthorized        = "Not authorized to join this conversation"
	ackMuted                = "You are muted in this conversation"
	ackJoinFailedPrefix     = "Failed to join room: "
)

// SocketDeps collects what the socket controller needs. Metrics may be nil.
type SocketDeps struct {
	Repo             repository.ChatRepository
	Online           presencerepo.OnlineSet
	TrackConnections bool
	Hub              *realtime.Hub
	Metrics          *telemetry.RealtimeMetrics
	Logger           *zap.Logger
	InflightTimeout  time.Duration
}

// ChatSocketController handles the websocket endpoint: presence, room
// membership and realtime messages.
type ChatSocketController struct {
	hub     *realtime.Hub
	metrics *telemetry.RealtimeMetrics
	logger  *zap.Logger

	joinRoomUC    *usecase.JoinConversationUseCase
	leaveRoomUC   *usecase.LeaveConversationUseCase
	sendMessageUC *usecase.SendMessageUseCase
	markReadUC    *usecase.MarkReadUseCase

	connectUC     *presenceusecase.ConnectUserUseCase
	disconnectUC  *presenceusecase.DisconnectUserUseCase
	onlineUsersUC *presenceusecase.GetOnlineUsersUseCase

	inflightTimeout time.Duration

	// sessions counts handlers whose disconnect handling has not finished.
	sessions sync.WaitGroup
}

func NewChatSocketController(d SocketDeps) *ChatSocketController {
	timeout := d.InflightTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatSocketController{
		hub:             d.Hub,
		metrics:         d.Metrics,
		logger:          logger,
		joinRoomUC:      usecase.NewJoinConversationUseCase(d.Repo),
		leaveRoomUC:     usecase.NewLeaveConversationUseCase(d.Repo),
		sendMessageUC:   usecase.NewSendMessageUseCase(d.Repo),
		markReadUC:      usecase.NewMarkReadUseCase(d.Repo),
		connectUC:       presenceusecase.NewConnectUserUseCase(d.Online, d.TrackConnections),
		disconnectUC:    presenceusecase.NewDisconnectUserUseCase(d.Online, d.TrackConnections),
		onlineUsersUC:   presenceusecase.NewGetOnlineUsersUseCase(d.Online),
		inflightTimeout: timeout,
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Identity comes from the bearer token, not cookies.
		return true
	},
}

type roomRequest struct {
	ConversationID string `json:"conversationId"`
}

type sendMessageFrame struct {
	ConversationID string  `json:"conversationId"`
	Body           *string `json:"body,omitempty"`
	MsgType        *int16  `json:"msgType,omitempty"`
	AttachmentURL  *string `json:"attachmentUrl,omitempty"`
	AttachmentMeta *string `json:"attachmentMeta,omitempty"`
	DedupeKey      *string `json:"dedupeKey,omitempty"`
}

type markReadFrame struct {
	ConversationID string `json:"conversationId"`
	MessageID      string `json:"messageId"`
}

type ackSuccess struct {
	Success bool        `json:"success"`
	Message interface{} `json:"message"`
}

type ackError struct {
	Error string `json:"error"`
}

type errorPayload struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

type connectedPayload struct {
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId"`
}

type messageReadPayload struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	MessageID      string `json:"messageId"`
}

// MessagePayload is the wire shape of a chat message.
type MessagePayload struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	CreatedAt      time.Time `json:"createdAt"`
	Body           *string   `json:"body,omitempty"`
	MsgType        int16     `json:"msgType"`
	AttachmentURL  *string   `json:"attachmentUrl,omitempty"`
	AttachmentMeta *string   `json:"attachmentMeta,omitempty"`
	DedupeKey      *string   `json:"dedupeKey,omitempty"`
}

const (
	defaultReadTimeout = 60 * time.Second
	maxFrameSize       = 1 << 20
)

// Wait blocks until every session handler has run its disconnect handling,
// or ctx ends. Call it after the HTTP server stopped accepting connections
// and the hub closed the open ones, and before the stores are closed.
func (ctl *ChatSocketController) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		ctl.sessions.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Handle upgrades HTTP connections to websocket and processes frames until the client disconnects.
// The route must sit behind auth.Middleware.
func (ctl *ChatSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := auth.FromContext(c)
		if !ok || id.UserID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctl.sessions.Add(1)
		defer ctl.sessions.Done()

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response.
			ctl.logger.Debug("websocket upgrade failed", zap.Error(err))
			return
		}

		conn := realtime.NewConnection(id.UserID, id.Role, ws)
		log := ctl.logger.With(zap.String("user_id", conn.UserID), zap.String("session_id", conn.ID))
		ctl.hub.Router().Attach(conn)

		ctx := c.Request.Context()
		ctl.onConnect(ctx, conn, log)
		defer func() {
			ctl.hub.Router().Detach(conn)
			ctl.onDisconnect(context.WithoutCancel(ctx), conn, log)
			conn.Close(websocket.CloseNormalClosure, "session closed")
		}()

		ws.SetReadLimit(maxFrameSize)
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		_ = ctl.hub.Emit(conn, EventConnected, connectedPayload{UserID: conn.UserID, SessionID: conn.ID})

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) &&
					!errors.Is(err, websocket.ErrCloseSent) {
					log.Debug("websocket read ended", zap.Error(err))
				}
				return
			}
			_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))

			var frame realtime.InboundFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				ctl.replyError(conn, "bad_request", "invalid payload")
				continue
			}
			ctl.dispatch(ctx, conn, frame, log)
		}
	}
}

func (ctl *ChatSocketController) dispatch(ctx context.Context, conn *realtime.Connection, frame realtime.InboundFrame, log *zap.Logger) {
	switch frame.Event {
	case EventJoinRoom:
		ctl.handleJoin(ctx, conn, frame, log)
	case EventLeaveRoom:
		ctl.handleLeave(ctx, conn, frame, log)
	case EventGetOnlineUsers:
		ctl.handleGetOnlineUsers(ctx, conn, log)
	case EventSendMessage:
		ctl.handleSendMessage(ctx, conn, frame, log)
	case EventMarkRead:
		ctl.handleMarkRead(ctx, conn, frame, log)
	default:
		ctl.replyError(conn, "unsupported_event", "unknown event "+frame.Event)
	}
}

func (ctl *ChatSocketController) handleJoin(ctx context.Context, conn *realtime.Connection, frame realtime.InboundFrame, log *zap.Logger) {
	var req roomRequest
	if err := json.Unmarshal(frame.Data, &req); err != nil || req.ConversationID == "" {
		ctl.ack(conn, frame.Ack, ackError{Error: "conversationId is required"})
		return
	}

	ctx, cancel := context.WithTimeout(ctx, ctl.inflightTimeout)
	defer cancel()

	err := ctl.joinRoomUC.Execute(ctx, usecase.JoinConversationInput{
		ConversationID: req.ConversationID,
		UserID:         conn.UserID,
	})
	if err != nil {
		msg, outcome := joinFailure(err)
		if outcome == "error" {
			log.Error("join-room failed", zap.String("conversation_id", req.ConversationID), zap.Error(err))
		}
		ctl.metrics.Joined(ctx, outcome)
		ctl.ack(conn, frame.Ack, ackError{Error: msg})
		return
	}

	if !ctl.hub.Router().Join(req.ConversationID, conn) {
		ctl.metrics.Joined(ctx, "error")
		ctl.ack(conn, frame.Ack, ackError{Error: ackJoinFailedPrefix + realtime.ErrConnectionClosed.Error()})
		return
	}
	ctl.metrics.Joined(ctx, "ok")
	ctl.ack(conn, frame.Ack, ackSuccess{Success: true, Message: "Joined conversation " + req.ConversationID})
}

func joinFailure(err error) (string, string) {
	switch {
	case errors.Is(err, chat.ErrConversationNotFound):
		return ackConversationNotFound, "not_found"
	case errors.Is(err, chat.ErrNotParticipant):
		return ackNotAuthorized, "forbidden"
	case errors.Is(err, chat.ErrMuted):
		return ackMuted, "muted"
	default:
		return ackJoinFailedPrefix + err.Error(), "error"
	}
}

// handleLeave has no acknowledgement. Failures are only logged.
func (ctl *ChatSocketController) handleLeave(ctx context.Context, conn *realtime.Connection, frame realtime.InboundFrame, log *zap.Logger) {
	var req roomRequest
	if err := json.Unmarshal(frame.Data, &req); err != nil || req.ConversationID == "" {
		log.Warn("leave-room without conversationId")
		ctl.metrics.Left(ctx, "invalid")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, ctl.inflightTimeout)
	defer cancel()

	res, err := ctl.leaveRoomUC.Execute(ctx, usecase.LeaveConversationInput{
		ConversationID: req.ConversationID,
		UserID:         conn.UserID,
	})
	if err != nil {
		log.Error("leave-room failed", zap.String("conversation_id", req.ConversationID), zap.Error(err))
		ctl.metrics.Left(ctx, "error")
		return
	}
	if !res.Allowed {
		ctl.metrics.Left(ctx, "ignored")
		return
	}
	ctl.hub.Router().Leave(req.ConversationID, conn)
	ctl.metrics.Left(ctx, "ok")
}

func (ctl *ChatSocketController) handleSendMessage(ctx context.Context, conn *realtime.Connection, frame realtime.InboundFrame, log *zap.Logger) {
	var req sendMessageFrame
	if err := json.Unmarshal(frame.Data, &req); err != nil || req.ConversationID == "" {
		ctl.ack(conn, frame.Ack, ackError{Error: "conversationId is required"})
		return
	}

	msgType := chat.MessageTypeText
	if req.MsgType != nil {
		msgType = chat.MessageType(*req.MsgType)
	}

	ctx, cancel := context.WithTimeout(ctx, ctl.inflightTimeout)
	defer cancel()

	msg, err := ctl.sendMessageUC.Execute(ctx, usecase.SendMessageInput{
		ConversationID: req.ConversationID,
		SenderID:       conn.UserID,
		Body:           req.Body,
		MsgType:        msgType,
		AttachmentURL:  req.AttachmentURL,
		AttachmentMeta: req.AttachmentMeta,
		DedupeKey:      req.DedupeKey,
	})
	if err != nil {
		ctl.ack(conn, frame.Ack, ackError{Error: ctl.useCaseErrorText(err, log)})
		return
	}

	payload := ToMessagePayload(*msg)
	if err := ctl.hub.BroadcastRoom(ctx, req.ConversationID, EventNewMessage, payload, conn.ID); err != nil {
		log.Error("new-message broadcast failed", zap.String("conversation_id", req.ConversationID), zap.Error(err))
	}
	ctl.ack(conn, frame.Ack, ackSuccess{Success: true, Message: payload})
}

func (ctl *ChatSocketController) handleMarkRead(ctx context.Context, conn *realtime.Connection, frame realtime.InboundFrame, log *zap.Logger) {
	var req markReadFrame
	if err := json.Unmarshal(frame.Data, &req); err != nil || req.ConversationID == "" || req.MessageID == "" {
		ctl.replyError(conn, "bad_request", "conversationId and messageId are required")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, ctl.inflightTimeout)
	defer cancel()

	err := ctl.markReadUC.Execute(ctx, usecase.MarkReadInput{
		ConversationID: req.ConversationID,
		UserID:         conn.UserID,
		MessageID:      req.MessageID,
	})
	if err != nil {
		ctl.replyError(conn, errorCode(err), ctl.useCaseErrorText(err, log))
		return
	}

	read := messageReadPayload{ConversationID: req.ConversationID, UserID: conn.UserID, MessageID: req.MessageID}
	if err := ctl.hub.BroadcastRoom(ctx, req.ConversationID, EventMessageRead, read, conn.ID); err != nil {
		log.Error("message-read broadcast failed", zap.String("conversation_id", req.ConversationID), zap.Error(err))
	}
}

func (ctl *ChatSocketController) useCaseErrorText(err error, log *zap.Logger) string {
	switch {
	case errors.Is(err, usecase.ErrPersistence):
		log.Error("chat use case failed", zap.Error(err))
		return "unexpected persistence error"
	case errors.Is(err, chat.ErrNotParticipant):
		return "user is not a participant in this conversation"
	case errors.Is(err, chat.ErrMuted):
		return ackMuted
	default:
		return err.Error()
	}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, usecase.ErrPersistence):
		return "internal_error"
	case errors.Is(err, chat.ErrNotParticipant), errors.Is(err, chat.ErrMuted):
		return "forbidden"
	default:
		return "bad_request"
	}
}

// ack replies only when the client asked for an acknowledgement.
func (ctl *ChatSocketController) ack(conn *realtime.Connection, ackID string, data interface{}) {
	if ackID == "" {
		return
	}
	_ = ctl.hub.Ack(conn, ackID, data)
}

func (ctl *ChatSocketController) replyError(conn *realtime.Connection, code string, message string) {
	_ = ctl.hub.Emit(conn, EventError, errorPayload{Code: code, Error: message})
}

// ToMessagePayload converts a domain message to its wire shape.
func ToMessagePayload(msg chat.Message) MessagePayload {
	return MessagePayload{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		CreatedAt:      msg.CreatedAt,
		Body:           msg.Body,
		MsgType:        int16(msg.MsgType),
		AttachmentURL:  msg.AttachmentURL,
		AttachmentMeta: msg.AttachmentMeta,
		DedupeKey:      msg.DedupeKey,
	}
}
