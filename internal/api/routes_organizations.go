package api

import (
	"github.com/gin-gonic/gin"

	"github.com/mailforge/mailforge/internal/handlers"
	"github.com/mailforge/mailforge/internal/middleware"
	"github.com/mailforge/mailforge/internal/permissions"
)

func registerOrganizationRoutes(api *gin.RouterGroup, requireAuth gin.HandlerFunc, checker *permissions.Checker, h *handlers.OrganizationHandler) {
	orgs := api.Group("/organizations")
	orgs.Use(requireAuth)
	{
		orgs.GET("", h.Get)
		orgs.PUT("", middleware.RequirePermission(checker, permissions.ManageOrganization), h.Update)
		orgs.GET("/settings", middleware.RequirePermission(checker, permissions.ManageOrganization), h.Settings)
		orgs.PUT("/settings", middleware.RequirePermission(checker, permissions.ManageOrganization), h.UpdateSettings)
		orgs.GET("/usage", middleware.RequirePermission(checker, permissions.ViewAnalytics), h.Usage)
		orgs.GET("/audit-logs", middleware.RequirePermission(checker, permissions.ViewAuditLogs), h.AuditLogs)
	}
}
