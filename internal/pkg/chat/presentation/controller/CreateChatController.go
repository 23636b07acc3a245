package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go-presence/internal/infrastructure/auth"
	"go-presence/internal/pkg/chat/application/usecase"
	repository "go-presence/internal/pkg/chat/persistence/repository/port"
)

// CreateChatController handles the chat creation endpoint
// One controller per endpoint
type CreateChatController struct {
	UC *usecase.CreateChatUseCase
}

func NewCreateChatController(repo repository.ChatRepository) *CreateChatController {
	return &CreateChatController{UC: usecase.NewCreateChatUseCase(repo)}
}

type createChatRequest struct {
	TenantID       string   `json:"tenant_id" binding:"required"`
	Title          *string  `json:"title"`
	ParticipantIDs []string `json:"participant_ids"`
	AssistantID    string   `json:"assistant_id"`
}

// Handle creates a conversation owned by the caller.
func (h *CreateChatController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := auth.FromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req createChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		in := usecase.CreateChatInput{
			TenantID:       req.TenantID,
			Title:          req.Title,
			OwnerID:        id.UserID,
			ParticipantIDs: req.ParticipantIDs,
			AssistantID:    req.AssistantID,
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		conv, err := h.UC.Execute(ctx, in)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, usecase.ErrPersistence) {
				status = http.StatusInternalServerError
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"id":         conv.ID,
			"created_at": conv.CreatedAt,
			"tenant_id":  conv.TenantID,
			"title":      conv.Title,
		})
	}
}
