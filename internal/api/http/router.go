package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-tracker/internal/api/http/handlers"
	"github.com/spec-kit/sla-tracker/internal/auth"
	"github.com/spec-kit/sla-tracker/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	SLA            *handlers.SLAHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	sla := app.Group("/sla", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleViewer, domain.RoleAdmin))
	sla.Post("/evaluate", cfg.SLA.Evaluate)
	sla.Get("/snapshots", cfg.SLA.ListSnapshots)
	sla.Get("/snapshots/latest", cfg.SLA.LatestSnapshot)
	sla.Get("/snapshots/:id", cfg.SLA.GetSnapshot)

	adminOnly := auth.RequireRole(domain.RoleAdmin)
	sla.Post("/runs", adminOnly, cfg.SLA.Run)
	sla.Get("/metrics", adminOnly, cfg.SLA.Metrics)
}
