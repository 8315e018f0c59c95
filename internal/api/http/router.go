package http

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/flight-marketplace/internal/api/http/handlers"
	"github.com/spec-kit/flight-marketplace/internal/auth"
	"github.com/spec-kit/flight-marketplace/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	MasterTickets  *handlers.MasterTicketsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/password/reset/request", cfg.Users.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Users.ConfirmPasswordReset)

	protectedAuth := authGroup.Group("", cfg.AuthMiddleware.Handle)
	protectedAuth.Post("/logout", cfg.Users.Logout)
	protectedAuth.Post("/password/change", cfg.Users.ChangePassword)
	protectedAuth.Get("/me", cfg.Users.Me)

	agency := app.Group("/agency/tickets", cfg.AuthMiddleware.Handle, auth.RequireActiveAgency())
	agency.Post("/", cfg.Tickets.Create)
	agency.Get("/", cfg.Tickets.ListOwn)
	agency.Get("/:refId", cfg.Tickets.Get)
	agency.Put("/:refId/resubmit", cfg.Tickets.Resubmit)
	agency.Post("/:refId/edit-request", cfg.Tickets.RequestEdit)
	agency.Delete("/:refId/edit-request", cfg.Tickets.WithdrawEdit)
	agency.Patch("/:refId/status", cfg.Tickets.ToggleStatus)
	agency.Delete("/:refId", cfg.Tickets.Delete)
	agency.Get("/:refId/history", cfg.Tickets.History)

	master := app.Group("/master", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleMaster))
	master.Get("/tickets", cfg.MasterTickets.List)
	master.Get("/tickets/:refId", cfg.MasterTickets.Get)
	master.Patch("/tickets/:refId/status", cfg.MasterTickets.SetStatus)
	master.Post("/tickets/:refId/edit-response", cfg.MasterTickets.RespondToEdit)
	master.Get("/tickets/:refId/history", cfg.MasterTickets.History)
	master.Get("/users", cfg.Users.ListUsers)
	master.Patch("/users/:id/status", cfg.Users.SetUserStatus)

	affiliate := app.Group("/tickets", cfg.AuthMiddleware.Handle,
		auth.RequireRole(domain.RoleAffiliate, domain.RoleMaster))
	affiliate.Get("/", cfg.Tickets.Search)
}
