package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/you/otams/domain"
	"github.com/you/otams/internal/logging"
)

// AdminHandlers serves the admin-only user and policy endpoints
type AdminHandlers struct {
	authSvc   domain.AuthService
	policySvc domain.PolicyService
	logger    *slog.Logger
}

// NewAdminHandlers creates new admin handlers
func NewAdminHandlers(authSvc domain.AuthService, policySvc domain.PolicyService, logger *slog.Logger) *AdminHandlers {
	if logger == nil {
		logger = logging.Discard()
	}
	return &AdminHandlers{
		authSvc:   authSvc,
		policySvc: policySvc,
		logger:    logger.With("component", "admin_handlers"),
	}
}

// ListUsers returns every user
func (h *AdminHandlers) ListUsers(c *gin.Context) {
	users, err := h.authSvc.ListUsers(c.Request.Context())
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "failed to list users", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
		return
	}

	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		out = append(out, userResponse(u))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// RevokeAllForUser revokes every refresh token of the user named in the path
func (h *AdminHandlers) RevokeAllForUser(c *gin.Context) {
	userID := c.Param("id")

	count, err := h.authSvc.RevokeAllForUser(c.Request.Context(), userID, c.ClientIP())
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveTokens) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No active tokens found"})
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "failed to revoke tokens", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to revoke tokens"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "All refresh tokens revoked", "revoked": count}})
}

// Policies lists the seeded role to operation lines
func (h *AdminHandlers) Policies(c *gin.Context) {
	policies, err := h.policySvc.Policies()
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "failed to list policies", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list policies"})
		return
	}
	out := make([]gin.H, 0, len(policies))
	for _, p := range policies {
		if len(p) < 2 {
			continue
		}
		out = append(out, gin.H{"role": p[0], "operation": p[1]})
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}
