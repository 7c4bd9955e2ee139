package handlers

import (
	"net/http"

	"github.com/blacklisthub/blacklisthub-backend/internal/middleware"
	"github.com/blacklisthub/blacklisthub-backend/internal/models"
	"github.com/blacklisthub/blacklisthub-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// UserHandler handles contributor account requests
type UserHandler struct {
	authService *services.AuthService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(authService *services.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

// CreateUser handles POST /users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	user, err := h.authService.CreateUser(c.Request.Context(), &req, middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}
