package handler

import (
	"net/http"
	"strconv"

	"github.com/KrushnaHarde/ChatNexus/internal/service"

	"github.com/gin-gonic/gin"
)

type MessageHandler interface {
	GetHistory(c *gin.Context)
	CountUnread(c *gin.Context)
	MarkRead(c *gin.Context)
}

type messageHandler struct {
	messages service.MessageService
}

func NewMessageHandler(messages service.MessageService) MessageHandler {
	return &messageHandler{
		messages: messages,
	}
}

// GetHistory returns the conversation between two users in send order. An
// absent conversation is an empty page, not an error.
func (h *messageHandler) GetHistory(c *gin.Context) {
	senderID := c.Param("senderId")
	recipientID := c.Param("recipientId")

	page := c.DefaultQuery("page", "1")
	pageNumber, err := strconv.ParseInt(page, 10, 64)
	if err != nil || pageNumber < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page number"})
		return
	}

	result, err := h.messages.HistoryPage(c.Request.Context(), senderID, recipientID, pageNumber)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get messages"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *messageHandler) CountUnread(c *gin.Context) {
	recipientID := c.Param("recipientId")
	senderID := c.Param("senderId")

	count, err := h.messages.CountUnread(c.Request.Context(), recipientID, senderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count unread messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

type markReadRequest struct {
	SenderID    string `json:"senderId" binding:"required"`
	RecipientID string `json:"recipientId" binding:"required"`
}

func (h *messageHandler) MarkRead(c *gin.Context) {
	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "senderId and recipientId are required"})
		return
	}

	read, err := h.messages.MarkReadAndReturn(c.Request.Context(), req.SenderID, req.RecipientID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark messages as read"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"read": read})
}
