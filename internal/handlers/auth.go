package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/smart-task-api/internal/dto"
	apierrors "github.com/yukikurage/smart-task-api/internal/errors"
	"github.com/yukikurage/smart-task-api/internal/middleware"
)

// AuthHandler exposes the identity resolved from the bearer credential.
type AuthHandler struct{}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// GetCurrentUser returns the authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	identity, exists := middleware.GetIdentity(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	c.JSON(http.StatusOK, dto.ToIdentityDTO(*identity))
}
