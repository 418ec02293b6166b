package approuters

import (
	"github.com/KrushnaHarde/ChatNexus/internal/configuration"

	"github.com/gin-gonic/gin"
)

func UserRouters(router *gin.Engine, container *configuration.Container) {
	userRoute := router.Group("/api/users")
	{
		userRoute.GET("", container.UserHandler.GetConnectedUsers)
		userRoute.GET("/all", container.UserHandler.GetAllUsers)
		userRoute.GET("/search", container.UserHandler.SearchUsers)
		userRoute.GET("/:username", container.UserHandler.GetUser)
		userRoute.GET("/:username/online", container.UserHandler.IsOnline)
		userRoute.POST("", container.UserHandler.CreateUser)
	}
}
