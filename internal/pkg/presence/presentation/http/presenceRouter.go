package http

import (
	"github.com/gin-gonic/gin"

	repository "go-presence/internal/pkg/presence/persistence/repository/port"
	"go-presence/internal/pkg/presence/presentation/controller"
)

// RegisterRoutes registers presence endpoints under the given router group.
func RegisterRoutes(g *gin.RouterGroup, set repository.OnlineSet) {
	onlineCtl := controller.NewGetOnlineUsersController(set)
	userCtl := controller.NewGetUserPresenceController(set)

	// GET /api/v1/presence/online -> every online user id
	g.GET("/presence/online", onlineCtl.Handle())

	// GET /api/v1/presence/:userId -> online flag and last seen
	g.GET("/presence/:userId", userCtl.Handle())
}
