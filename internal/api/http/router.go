package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/shiftmarket/suspension-service/internal/api/http/handlers"
	"github.com/shiftmarket/suspension-service/internal/auth"
	"github.com/shiftmarket/suspension-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Suspensions    *handlers.SuspensionsHandler
	Appeals        *handlers.AppealsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	adminOnly := auth.RequireAdminRole()
	reviewerOnly := auth.RequireAdminRole(domain.AdminRoleReviewer, domain.AdminRoleSuper)

	suspensions := app.Group("/suspensions", cfg.AuthMiddleware.Handle)
	suspensions.Post("", adminOnly, cfg.Suspensions.Issue)
	suspensions.Get("", adminOnly, cfg.Suspensions.List)
	suspensions.Get("/suggestion", adminOnly, cfg.Suspensions.Suggest)
	suspensions.Get("/analytics", adminOnly, cfg.Suspensions.Analytics)
	suspensions.Get("/export.csv", adminOnly, cfg.Suspensions.ExportCSV)
	suspensions.Get("/:id", auth.RequireAnyRole(), cfg.Suspensions.Get)
	suspensions.Post("/:id/lift", adminOnly, cfg.Suspensions.Lift)
	suspensions.Get("/:id/remaining", auth.RequireAnyRole(), cfg.Suspensions.Remaining)
	suspensions.Get("/:id/history", adminOnly, cfg.Suspensions.History)
	suspensions.Post("/:id/appeals", auth.RequireAnyRole(), cfg.Appeals.Submit)

	workers := app.Group("/workers", cfg.AuthMiddleware.Handle, adminOnly)
	workers.Get("/:id", cfg.Suspensions.GetWorker)
	workers.Get("/:id/suspended", cfg.Suspensions.SuspendedFlag)
	workers.Get("/:id/history", cfg.Suspensions.WorkerHistory)
	workers.Post("/:id/strikes/reset", cfg.Suspensions.ResetStrikes)

	me := app.Group("/me", cfg.AuthMiddleware.Handle, auth.RequireWorker())
	me.Get("/suspensions", cfg.Suspensions.MySuspensions)

	appeals := app.Group("/appeals", cfg.AuthMiddleware.Handle)
	appeals.Get("", adminOnly, cfg.Appeals.List)
	appeals.Get("/export.csv", adminOnly, cfg.Appeals.ExportCSV)
	appeals.Get("/:id", auth.RequireAnyRole(), cfg.Appeals.Get)
	appeals.Post("/:id/review", reviewerOnly, cfg.Appeals.StartReview)
	appeals.Post("/:id/decision", reviewerOnly, cfg.Appeals.Decide)
}
