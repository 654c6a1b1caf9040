package api

import (
	"github.com/gin-gonic/gin"

	"github.com/mailforge/mailforge/internal/handlers"
	"github.com/mailforge/mailforge/internal/middleware"
	"github.com/mailforge/mailforge/internal/permissions"
)

func registerContactRoutes(api *gin.RouterGroup, requireAuth gin.HandlerFunc, checker *permissions.Checker, h *handlers.ContactHandler) {
	contacts := api.Group("/contacts")
	contacts.Use(requireAuth)
	{
		contacts.GET("", middleware.RequirePermission(checker, permissions.ViewContacts), h.List)
		contacts.POST("", middleware.RequirePermission(checker, permissions.ManageContacts), h.Create)
		contacts.PUT("/:id", middleware.RequirePermission(checker, permissions.ManageContacts), h.Update)
		contacts.DELETE("/:id", middleware.RequirePermission(checker, permissions.ManageContacts), h.Delete)
	}
}
