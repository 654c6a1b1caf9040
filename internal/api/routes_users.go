package api

import (
	"github.com/gin-gonic/gin"

	"github.com/mailforge/mailforge/internal/handlers"
	"github.com/mailforge/mailforge/internal/middleware"
	"github.com/mailforge/mailforge/internal/permissions"
)

func registerUserRoutes(api *gin.RouterGroup, requireAuth gin.HandlerFunc, checker *permissions.Checker, h *handlers.UserHandler) {
	users := api.Group("/users")
	users.Use(requireAuth, middleware.RequirePermission(checker, permissions.ManageUsers))
	{
		users.GET("", h.List)
		users.POST("/invite", h.Invite)
		users.PUT("/:id/role", h.UpdateRole)
		users.PUT("/:id/deactivate", h.Deactivate)
		users.GET("/invitations", h.ListInvitations)
		users.DELETE("/invitations/:id", h.CancelInvitation)
	}
}
