package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/mailforge/mailforge/internal/middleware"
	"github.com/mailforge/mailforge/internal/services"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// currentOrgID returns the organization bound to the caller's token.
func currentOrgID(c *gin.Context) string {
	return c.GetString(middleware.CtxOrgIDKey)
}

// currentActor identifies the caller for audit attribution.
func currentActor(c *gin.Context) services.Actor {
	return services.Actor{
		UserID:    c.GetString(middleware.CtxUserIDKey),
		IPAddress: c.ClientIP(),
	}
}
