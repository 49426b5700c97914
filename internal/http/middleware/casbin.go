package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/you/otams/domain"
	"github.com/you/otams/internal/logging"
)

// PolicyMW gates routes through the casbin-backed policy service
type PolicyMW struct {
	policy domain.PolicyService
	logger *slog.Logger
}

// NewPolicyMW creates new policy middleware wrapper
func NewPolicyMW(policy domain.PolicyService, logger *slog.Logger) *PolicyMW {
	if logger == nil {
		logger = logging.Discard()
	}
	return &PolicyMW{policy: policy, logger: logger}
}

// Require returns middleware admitting only roles allowed to perform op.
// It must run after AuthMW.WithJWT.
func (mw *PolicyMW) Require(op domain.Operation) gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		if err := mw.policy.Authorize(claims.Role, op); err != nil {
			if errors.Is(err, domain.ErrForbidden) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access Denied"})
				return
			}
			mw.logger.ErrorContext(c.Request.Context(), "authorization check failed", "operation", op, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Authorization check failed"})
			return
		}

		c.Next()
	})
}
