package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/case-sla-service/internal/api/http/handlers"
	"github.com/spec-kit/case-sla-service/internal/auth"
	"github.com/spec-kit/case-sla-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Cases          *handlers.CasesHandler
	SLA            *handlers.SLAHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Auth.Login)

	cases := app.Group("/cases", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	cases.Post("", cfg.Cases.CreateCase)
	cases.Get("", cfg.Cases.ListCases)
	cases.Get("/:id", cfg.Cases.GetCase)
	cases.Post("/:id/notes", cfg.Cases.AddNote)
	cases.Patch("/:id/status", cfg.Cases.UpdateStatus)
	cases.Get("/:id/notifications", cfg.Cases.ListNotifications)

	internal := app.Group("/internal", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.AdminRoleAdmin))
	internal.Post("/sla/run", cfg.SLA.Run)
}
