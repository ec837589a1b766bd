package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/commerce-desk/internal/api/http/handlers"
	"github.com/spec-kit/commerce-desk/internal/auth"
	"github.com/spec-kit/commerce-desk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Tickets   *handlers.TicketsHandler
	Quotes    *handlers.QuotesHandler
	Orders    *handlers.OrdersHandler
	Webhook   *handlers.WebhookHandler
	Refunds   *handlers.RefundsHandler
	Users     *handlers.UsersHandler
	Downloads *handlers.DownloadsHandler
	Audit     *handlers.AuditHandler
	Auth      *auth.Middleware
}

// RegisterRoutes wires HTTP routes. The payment webhook authenticates by
// signature and the download route by signed token, so both sit outside the
// gateway key check.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/v1/payments/webhook", cfg.Webhook.Receive)
	app.Get("/v1/downloads", cfg.Downloads.Fetch)

	v1 := app.Group("/v1", cfg.Auth.RequireGateway, cfg.Auth.RequireActor)

	tickets := v1.Group("/tickets")
	tickets.Post("", cfg.Tickets.Create)
	tickets.Get("", cfg.Tickets.List)
	tickets.Post("/close/confirm", cfg.Tickets.ConfirmClose)
	tickets.Post("/close/cancel", cfg.Tickets.CancelClose)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Post("/:id/responses", cfg.Tickets.RecordResponses)
	tickets.Post("/:id/claim", cfg.Auth.RequireCapability(domain.CapabilitySupport, domain.CapabilityAdmin), cfg.Tickets.Claim)
	tickets.Post("/:id/reassign", cfg.Auth.RequireCapability(domain.CapabilityAdmin), cfg.Tickets.Reassign)
	tickets.Post("/:id/progress", cfg.Auth.RequireCapability(domain.CapabilitySupport, domain.CapabilityAdmin), cfg.Tickets.StartProgress)
	tickets.Post("/:id/close", cfg.Tickets.RequestClose)
	tickets.Post("/:id/preserve", cfg.Auth.RequireCapability(domain.CapabilityAdmin), cfg.Tickets.Preserve)

	quotes := v1.Group("/quotes")
	quotes.Post("", cfg.Auth.RequireCapability(domain.CapabilitySupport, domain.CapabilityAdmin), cfg.Quotes.Create)
	quotes.Get("", cfg.Quotes.List)
	quotes.Post("/:id/accept", cfg.Quotes.Accept)
	quotes.Post("/:id/reject", cfg.Quotes.Reject)

	v1.Post("/checkout", cfg.Orders.Checkout)
	v1.Get("/orders/:id", cfg.Orders.Get)

	refunds := v1.Group("/refunds", cfg.Auth.RequireCapability(domain.CapabilityAdmin))
	refunds.Post("", cfg.Refunds.Request)
	refunds.Post("/confirm", cfg.Refunds.Confirm)
	refunds.Post("/cancel", cfg.Refunds.Cancel)

	users := v1.Group("/users")
	users.Post("/sync", cfg.Users.Sync)
	users.Get("/me", cfg.Users.Me)
	users.Get("/:platform_id", cfg.Auth.RequireCapability(domain.CapabilitySupport, domain.CapabilityAdmin), cfg.Users.Get)
	users.Put("/:platform_id/vip", cfg.Auth.RequireCapability(domain.CapabilityAdmin), cfg.Users.SetVIPTier)

	v1.Get("/audit", cfg.Auth.RequireCapability(domain.CapabilityAdmin), cfg.Audit.List)
}
