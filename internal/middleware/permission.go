package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/mailforge/mailforge/internal/permissions"
	"github.com/mailforge/mailforge/pkg/errors"
	"github.com/mailforge/mailforge/pkg/metrics"
	"github.com/mailforge/mailforge/pkg/response"
)

// RequirePermission checks that the authenticated user's role grants the
// provided permission ID. It must be mounted after Auth.
func RequirePermission(checker *permissions.Checker, permissionID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(CtxRoleKey)
		if role == "" {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		allowed, err := checker.Check(role, permissionID)
		if err != nil {
			metrics.PermissionChecks.WithLabelValues(permissionID, "error").Inc()
			response.Error(c, errors.ErrInternalServer.WithInternal(err))
			c.Abort()
			return
		}
		if !allowed {
			metrics.PermissionChecks.WithLabelValues(permissionID, "denied").Inc()
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}

		metrics.PermissionChecks.WithLabelValues(permissionID, "allowed").Inc()
		c.Next()
	}
}
