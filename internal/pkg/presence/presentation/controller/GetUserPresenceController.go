package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go-presence/internal/pkg/presence/application/usecase"
	repository "go-presence/internal/pkg/presence/persistence/repository/port"
)

type GetUserPresenceController struct {
	UC *usecase.GetUserPresenceUseCase
}

func NewGetUserPresenceController(set repository.OnlineSet) *GetUserPresenceController {
	return &GetUserPresenceController{UC: usecase.NewGetUserPresenceUseCase(set)}
}

func (h *GetUserPresenceController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		status, err := h.UC.Execute(ctx, usecase.GetUserPresenceInput{UserID: c.Param("userId")})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, status)
	}
}
