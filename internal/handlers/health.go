package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mailforge/mailforge/pkg/response"
)

// Health returns a status payload useful for readiness checks.
func Health(environment, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		response.JSON(c, http.StatusOK, gin.H{
			"status":      "ok",
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"environment": environment,
			"version":     version,
		})
	}
}
