// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/maihouses/leadradar-go/internal/application/services"
	"github.com/maihouses/leadradar-go/internal/infrastructure/observability/logging"
)

// AuthHandlers contains all authentication-related HTTP handlers
type AuthHandlers struct {
	authService *services.AuthService
	logger      *logging.ChanneledLogger
}

// NewAuthHandlers creates auth handlers with injected dependencies
func NewAuthHandlers(authService *services.AuthService, logger *logging.ChanneledLogger) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		logger:      logger,
	}
}

// PostToken handles POST /api/v1/auth/token - agent credential authentication
func (h *AuthHandlers) PostToken(c *gin.Context) {
	start := time.Now()

	var req struct {
		Identity string `json:"identity" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	result, err := h.authService.IssueToken(c.Request.Context(), req.Identity, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		h.logger.Auth().Error("Token issuance failed", "error", err.Error(), "duration", time.Since(start))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Authentication unavailable"})
		return
	}

	h.logger.Auth().Info("Agent token issued", "identity", result.Identity, "role", result.Role, "duration", time.Since(start))
	c.JSON(http.StatusOK, result)
}
