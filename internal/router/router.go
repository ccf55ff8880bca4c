package router

import (
	"log/slog"

	"github.com/anonto42/spotlight/backend/internal/handlers"
	"github.com/anonto42/spotlight/backend/internal/middleware"
	"github.com/anonto42/spotlight/backend/internal/services"
	"github.com/anonto42/spotlight/backend/pkg/config"
	"github.com/anonto42/spotlight/backend/pkg/firebase"
	"github.com/labstack/echo/v4"
)

// SetupRoutes configures all application routes on top of the service registry
func SetupRoutes(e *echo.Echo, cfg *config.Config, svc *services.Registry, verifier firebase.TokenVerifier) error {
	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck(cfg.ServiceName))

	webhookHandler, err := handlers.NewWebhookHandler(cfg.WebhookSecret, svc.Users, svc.Accounts, svc.Dedup)
	if err != nil {
		return err
	}
	webhookHandler.RegisterWebhookRoutes(e)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	handlers.NewAuthHandler(svc.Users, verifier, cfg.JWTSecret, cfg.JWTTTL).RegisterAuthRoutes(authGroup)

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))

	handlers.NewUserHandler(svc.Users, svc.Posts).RegisterUserRoutes(api)
	handlers.NewPostHandler(svc.Posts).RegisterPostRoutes(api)
	handlers.NewEngagementHandler(svc.Engagement).RegisterEngagementRoutes(api)
	handlers.NewFollowHandler(svc.Graph).RegisterFollowRoutes(api)
	handlers.NewNotificationHandler(svc.Notifications).RegisterNotificationRoutes(api)
	handlers.NewStoryHandler(svc.Stories).RegisterStoryRoutes(api)

	slog.Info("routes configured", "routes", len(e.Routes()))
	return nil
}
