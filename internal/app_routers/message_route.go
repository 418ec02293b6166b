package approuters

import (
	"github.com/KrushnaHarde/ChatNexus/internal/configuration"

	"github.com/gin-gonic/gin"
)

func MessageRouters(router *gin.Engine, container *configuration.Container) {
	messageRoute := router.Group("/api/messages")
	{
		messageRoute.GET("/:senderId/:recipientId", container.MessageHandler.GetHistory)
		messageRoute.GET("/unread/:recipientId/:senderId", container.MessageHandler.CountUnread)
		messageRoute.POST("/read", container.MessageHandler.MarkRead)
	}
}
