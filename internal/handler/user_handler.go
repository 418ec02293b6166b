package handler

import (
	"net/http"

	"github.com/KrushnaHarde/ChatNexus/internal/service"

	"github.com/gin-gonic/gin"
)

type UserHandler interface {
	GetConnectedUsers(c *gin.Context)
	GetAllUsers(c *gin.Context)
	SearchUsers(c *gin.Context)
	GetUser(c *gin.Context)
	IsOnline(c *gin.Context)
	CreateUser(c *gin.Context)
}

type userHandler struct {
	presence service.PresenceService
}

func NewUserHandler(presence service.PresenceService) UserHandler {
	return &userHandler{
		presence: presence,
	}
}

func (h *userHandler) GetConnectedUsers(c *gin.Context) {
	users, err := h.presence.ConnectedUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get connected users"})
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *userHandler) GetAllUsers(c *gin.Context) {
	users, err := h.presence.AllUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get users"})
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *userHandler) SearchUsers(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	users, err := h.presence.SearchUsers(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search users"})
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *userHandler) GetUser(c *gin.Context) {
	username := c.Param("username")

	user, err := h.presence.GetUser(c.Request.Context(), username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get user"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username": user.Username,
		"fullName": user.FullName,
		"status":   user.Status,
	})
}

func (h *userHandler) IsOnline(c *gin.Context) {
	username := c.Param("username")
	c.JSON(http.StatusOK, gin.H{
		"online": h.presence.IsOnline(c.Request.Context(), username),
	})
}

type createUserRequest struct {
	Username string `json:"username" binding:"required"`
	FullName string `json:"fullName"`
}

// CreateUser records a user supplied by the identity collaborator. No
// credentials are handled here.
func (h *userHandler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}

	user, err := h.presence.Register(c.Request.Context(), req.Username, req.FullName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}
	c.JSON(http.StatusCreated, user)
}
