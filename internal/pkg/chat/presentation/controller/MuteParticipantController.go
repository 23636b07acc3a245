package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go-presence/internal/infrastructure/auth"
	chat "go-presence/internal/pkg/chat/application/domain"
	"go-presence/internal/pkg/chat/application/usecase"
	repository "go-presence/internal/pkg/chat/persistence/repository/port"
)

// MuteParticipantController lets a conversation owner mute or unmute a participant.
type MuteParticipantController struct {
	UC *usecase.MuteParticipantUseCase
}

func NewMuteParticipantController(repo repository.ChatRepository) *MuteParticipantController {
	return &MuteParticipantController{UC: usecase.NewMuteParticipantUseCase(repo)}
}

type muteRequest struct {
	Muted bool       `json:"muted"`
	Until *time.Time `json:"until"`
}

func (h *MuteParticipantController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := auth.FromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req muteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		err := h.UC.Execute(ctx, usecase.MuteParticipantInput{
			ActorID:        id.UserID,
			ConversationID: c.Param("chatId"),
			UserID:         c.Param("userId"),
			Muted:          req.Muted,
			Until:          req.Until,
		})
		if err != nil {
			status := http.StatusBadRequest
			switch {
			case errors.Is(err, usecase.ErrPersistence):
				status = http.StatusInternalServerError
			case errors.Is(err, chat.ErrNotOwner):
				status = http.StatusForbidden
			case errors.Is(err, chat.ErrNotParticipant):
				status = http.StatusNotFound
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	}
}
