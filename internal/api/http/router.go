package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/skilllink-support/internal/api/http/handlers"
	"github.com/spec-kit/skilllink-support/internal/auth"
	"github.com/spec-kit/skilllink-support/internal/observability"
)

// SupportRoutes bundles dependencies for the support API.
type SupportRoutes struct {
	Health    *handlers.HealthHandler
	Tickets   *handlers.TicketsHandler
	Knowledge *handlers.KnowledgeHandler
	Chat      *handlers.ChatHandler
	// RateLimit guards the public write endpoints; nil disables it.
	RateLimit fiber.Handler
	Metrics   *observability.Metrics
}

// PassportRoutes bundles dependencies for the passport API.
type PassportRoutes struct {
	Health   *handlers.HealthHandler
	Passport *handlers.PassportHandler
	// AuthMiddleware guards /api/admin; nil leaves it open.
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// NewApp builds a fiber app whose request values stay valid after the handler
// returns. Ticket events, view-count updates and metric labels all retain strings
// taken from the request.
func NewApp(name string) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:   name,
		Immutable: true,
	})
}

// RegisterSupportRoutes wires the support API.
func RegisterSupportRoutes(app *fiber.App, cfg SupportRoutes) {
	registerMetrics(app, cfg.Metrics)

	api := app.Group("/api")
	api.Get("/health", cfg.Health.Live)
	api.Get("/health/ready", cfg.Health.Ready)

	limited := passthrough(cfg.RateLimit)

	tickets := api.Group("/tickets")
	tickets.Post("", limited, cfg.Tickets.CreateTicket)
	tickets.Get("/stats/summary", cfg.Tickets.StatusSummary)
	tickets.Get("/:ticketNumber", cfg.Tickets.GetTicket)
	tickets.Get("/:ticketNumber/history", cfg.Tickets.History)
	tickets.Patch("/:ticketNumber/status", cfg.Tickets.UpdateStatus)

	api.Get("/faqs", cfg.Knowledge.FAQs)
	kb := api.Group("/knowledge-base")
	kb.Get("/categories", cfg.Knowledge.Categories)
	kb.Get("/category/:category", cfg.Knowledge.ArticlesByCategory)
	kb.Get("/search", cfg.Knowledge.Search)

	chat := api.Group("/chat")
	chat.Post("/messages", limited, cfg.Chat.AppendMessage)
	chat.Get("/messages/:session_id", cfg.Chat.Transcript)

	RegisterFallback(app)
}

// RegisterPassportRoutes wires the passport API.
func RegisterPassportRoutes(app *fiber.App, cfg PassportRoutes) {
	registerMetrics(app, cfg.Metrics)

	app.Get("/", cfg.Passport.Root)

	api := app.Group("/api")
	api.Get("/health", cfg.Health.Live)
	api.Get("/health/ready", cfg.Health.Ready)

	api.Post("/passport/mint", cfg.Passport.Mint)
	api.Get("/user/:id", cfg.Passport.Profile)
	api.Get("/user/:id/passports", cfg.Passport.Passports)
	api.Get("/recruiter/students", cfg.Passport.Students)

	admin := api.Group("/admin")
	if cfg.AuthMiddleware != nil {
		admin.Use(cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	}
	admin.Get("/stats", cfg.Passport.AdminStats)

	RegisterFallback(app)
}

func registerMetrics(app *fiber.App, metrics *observability.Metrics) {
	if metrics == nil {
		return
	}
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
}

func passthrough(h fiber.Handler) fiber.Handler {
	if h != nil {
		return h
	}
	return func(c *fiber.Ctx) error { return c.Next() }
}
