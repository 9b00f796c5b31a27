package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/campus-it/helpdesk/internal/api/http/handlers"
	"github.com/campus-it/helpdesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	StaffTickets   *handlers.StaffTicketsHandler
	Assets         *handlers.AssetsHandler
	Settings       *handlers.SettingsHandler
	Staff          *handlers.StaffHandler
	AuthMiddleware *auth.AuthMiddleware
	// Metrics is mounted at /metrics when set.
	Metrics fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics)
	}

	tickets := app.Group("/tickets")
	tickets.Post("/", cfg.Tickets.SubmitTicket)
	tickets.Post("/access", cfg.Tickets.AccessTicket)
	tickets.Post("/:number/messages", cfg.Tickets.AddMessage)
	tickets.Post("/:number/attachments/:id", cfg.Tickets.DownloadAttachment)

	app.Post("/auth/staff/login", cfg.Staff.Login)

	staff := app.Group("/staff", cfg.AuthMiddleware.Handle, auth.RequireStaffRole())
	staff.Get("/me", cfg.Staff.Me)
	staff.Put("/me/password", cfg.Staff.ChangePassword)

	staff.Get("/tickets", cfg.StaffTickets.ListStaffTickets)
	staff.Get("/tickets/:number", cfg.StaffTickets.GetStaffTicket)
	staff.Get("/tickets/:number/attachments/:id", cfg.StaffTickets.DownloadAttachment)
	staff.Put("/tickets/:number/status", cfg.StaffTickets.UpdateStatus)
	staff.Put("/tickets/:number/assignee", cfg.StaffTickets.Assign)
	staff.Post("/tickets/:number/self-assign", cfg.StaffTickets.SelfAssign)
	staff.Post("/tickets/:number/messages", cfg.StaffTickets.AddStaffMessage)
	staff.Post("/tickets/:number/acknowledge", cfg.StaffTickets.Acknowledge)
	staff.Post("/tickets/:number/assets", cfg.StaffTickets.LinkAsset)
	staff.Delete("/tickets/:number/assets/:assetID", cfg.StaffTickets.UnlinkAsset)

	staff.Get("/assets", cfg.Assets.List)
	staff.Post("/assets", cfg.Assets.Create)
	staff.Get("/assets/:inventory", cfg.Assets.Get)
	staff.Put("/assets/:inventory", cfg.Assets.Update)
	staff.Delete("/assets/:inventory", cfg.Assets.Delete)

	staff.Get("/settings", cfg.Settings.Get)
	staff.Put("/settings", auth.RequireSystemManager(), cfg.Settings.Update)

	staff.Get("/technicians", cfg.Staff.ListTechnicians)
	staff.Post("/technicians", auth.RequireSystemManager(), cfg.Staff.CreateTechnician)
	staff.Put("/technicians/:id/active", auth.RequireSystemManager(), cfg.Staff.SetActive)
	staff.Post("/system-managers", auth.RequireSystemManager(), cfg.Staff.CreateSystemManager)
}
