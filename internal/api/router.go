package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/mailforge/mailforge/internal/app"
	iauth "github.com/mailforge/mailforge/internal/auth"
	"github.com/mailforge/mailforge/internal/handlers"
	"github.com/mailforge/mailforge/internal/middleware"
	"github.com/mailforge/mailforge/internal/permissions"
	"github.com/mailforge/mailforge/internal/services"
	"github.com/mailforge/mailforge/pkg/mail"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// NewRouter builds the Gin engine, constructs the service layer and registers
// every route with its permission gate.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, mailer mail.Mailer) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	auditSvc, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	userSvc, err := services.NewUserService(db, auditSvc)
	if err != nil {
		return nil, err
	}
	orgSvc, err := services.NewOrganizationService(db, auditSvc)
	if err != nil {
		return nil, err
	}
	inviteSvc, err := services.NewInviteService(db, auditSvc, mailer, cfg.Auth.BcryptCost,
		services.WithInviteBaseURL(cfg.Server.FrontendURL))
	if err != nil {
		return nil, err
	}
	contactSvc, err := services.NewContactService(db, auditSvc)
	if err != nil {
		return nil, err
	}
	dashboardSvc, err := services.NewDashboardService(db)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.FrontendURL))
	r.Use(middleware.RateLimit(
		middleware.NewMemoryRateStore(),
		cfg.RateLimit.MaxRequests,
		cfg.RateLimit.EffectiveWindow(),
	))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	checker := permissions.NewChecker()
	requireAuth := middleware.Auth(jwt)

	authHandler := handlers.NewAuthHandler(userSvc, jwt)
	userHandler := handlers.NewUserHandler(userSvc, inviteSvc)
	orgHandler := handlers.NewOrganizationHandler(orgSvc, auditSvc)
	contactHandler := handlers.NewContactHandler(contactSvc)
	dashboardHandler := handlers.NewDashboardHandler(dashboardSvc)

	api := r.Group("/api")

	// Public routes
	api.GET("/health", handlers.Health(cfg.Server.Env, Version))
	api.POST("/auth/login", authHandler.Login)
	api.POST("/users/accept-invitation", userHandler.AcceptInvitation)

	// Authenticated routes
	api.GET("/auth/me", requireAuth, authHandler.Me)
	api.GET("/dashboard", requireAuth,
		middleware.RequirePermission(checker, permissions.ViewAnalytics),
		dashboardHandler.Overview)

	registerOrganizationRoutes(api, requireAuth, checker, orgHandler)
	registerUserRoutes(api, requireAuth, checker, userHandler)
	registerContactRoutes(api, requireAuth, checker, contactHandler)

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
