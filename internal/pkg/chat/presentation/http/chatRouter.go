package http

import (
	"github.com/gin-gonic/gin"

	qport "go-presence/internal/infrastructure/queue/port"
	repository "go-presence/internal/pkg/chat/persistence/repository/port"
	"go-presence/internal/pkg/chat/presentation/controller"
)

// RegisterRoutes registers chat-related HTTP endpoints under the given router group
// It constructs per-endpoint controllers and binds them directly to routes.
func RegisterRoutes(g *gin.RouterGroup, repo repository.ChatRepository, client qport.Client, socketCtl *controller.ChatSocketController) {
	createCtl := controller.NewCreateChatController(repo)
	sendMsgCtl := controller.NewSendMessageController(client)
	getMsgCtl := controller.NewGetMessageController(repo)
	listCtl := controller.NewListParticipantsController(repo)
	muteCtl := controller.NewMuteParticipantController(repo)

	// POST /api/v1/chat -> create a chat
	g.POST("/chat", createCtl.Handle())

	// POST /api/v1/chat/:chatId -> send a message into a chat
	g.POST("/chat/:chatId", sendMsgCtl.Handle())

	// GET /api/v1/chat/:chatId/messages -> fetch messages by chat id
	g.GET("/chat/:chatId/messages", getMsgCtl.Handle())

	// GET /api/v1/chat/:chatId/participants -> human participant ids
	g.GET("/chat/:chatId/participants", listCtl.Handle())

	// PUT /api/v1/chat/:chatId/participants/:userId/mute -> mute or unmute
	g.PUT("/chat/:chatId/participants/:userId/mute", muteCtl.Handle())

	// GET /api/v1/ws -> websocket endpoint for presence and realtime chat
	g.GET("/ws", socketCtl.Handle())
}
