package approuters

import (
	"github.com/KrushnaHarde/ChatNexus/internal/configuration"

	"github.com/gin-gonic/gin"
)

func MonitorRouters(router *gin.Engine, container *configuration.Container) {
	monitorRoute := router.Group("/api/monitor")
	{
		monitorRoute.GET("", container.MonitorHandler.GetStats)
	}
}
