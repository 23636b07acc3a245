package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go-presence/internal/pkg/presence/application/usecase"
	repository "go-presence/internal/pkg/presence/persistence/repository/port"
)

// GetOnlineUsersController serves the current online roster over HTTP.
type GetOnlineUsersController struct {
	UC *usecase.GetOnlineUsersUseCase
}

func NewGetOnlineUsersController(set repository.OnlineSet) *GetOnlineUsersController {
	return &GetOnlineUsersController{UC: usecase.NewGetOnlineUsersUseCase(set)}
}

func (h *GetOnlineUsersController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		ids, err := h.UC.Execute(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": ids, "count": len(ids)})
	}
}
