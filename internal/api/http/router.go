package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/coordination-service/internal/api/http/handlers"
	"github.com/spec-kit/coordination-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Work           *handlers.WorkHandler
	Tickets        *handlers.TicketsHandler
	Orders         *handlers.OrdersHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())

	work := protected.Group("/work")
	work.Get("/stage/:stageKey", cfg.Work.ListStage)
	work.Post("/stage/:stageKey/next", cfg.Work.ClaimNext)
	work.Post("/orders/:id/stage/:stageKey/claim", cfg.Work.ClaimSpecific)
	work.Post("/orders/:id/stage/:stageKey/start", cfg.Work.Start)
	work.Post("/orders/:id/stage/:stageKey/complete", cfg.Work.Complete)

	tickets := protected.Group("/tickets")
	tickets.Post("", cfg.Tickets.Create)
	tickets.Post("/next", cfg.Tickets.ClaimNext)
	tickets.Get("/waiting", cfg.Tickets.ListWaiting)
	tickets.Post("/:id/start", cfg.Tickets.Start)
	tickets.Post("/:id/close", cfg.Tickets.Close)
	tickets.Post("/:id/skip", auth.RequireRole(auth.RoleSupervisor), cfg.Tickets.Skip)

	protected.Post("/orders", cfg.Orders.Create)
}
