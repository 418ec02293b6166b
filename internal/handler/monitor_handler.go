package handler

import (
	"net/http"

	"github.com/KrushnaHarde/ChatNexus/internal/hub"

	"github.com/gin-gonic/gin"
)

type MonitorHandler interface {
	GetStats(c *gin.Context)
}

type monitorHandler struct {
	monitor *hub.MonitorService
}

func NewMonitorHandler(monitor *hub.MonitorService) MonitorHandler {
	return &monitorHandler{monitor: monitor}
}

func (h *monitorHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.monitor.GetStats())
}
