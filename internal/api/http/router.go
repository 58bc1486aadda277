package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fix-it/marketplace/internal/api/http/handlers"
	"github.com/fix-it/marketplace/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Catalog        *handlers.CatalogHandler
	Handymen       *handlers.HandymenHandler
	Orders         *handlers.OrdersHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/forgot-password", cfg.Auth.ForgotPassword)
	authGroup.Post("/verify-code", cfg.Auth.VerifyCode)
	authGroup.Post("/resend-code", cfg.Auth.ResendCode)
	authGroup.Post("/complete-registration", cfg.Auth.CompleteRegistration)
	authGroup.Post("/reset-password", cfg.Auth.ResetPassword)

	protectedAuth := authGroup.Group("", cfg.AuthMiddleware.Handle)
	protectedAuth.Get("/me", cfg.Auth.Me)
	protectedAuth.Post("/change-password", cfg.Auth.ChangePassword)

	catalog := app.Group("/catalog")
	catalog.Get("/categories", cfg.Catalog.ListCategories)
	catalog.Get("/services", cfg.Catalog.ListServices)

	handymen := app.Group("/handymen")
	handymen.Get("/", cfg.Handymen.List)
	handymen.Get("/:id", cfg.Handymen.Get)

	orders := app.Group("/orders", cfg.AuthMiddleware.Handle)
	orders.Post("/", auth.RequireCustomer(), cfg.Orders.Create)
	orders.Get("/", cfg.Orders.List)
	orders.Get("/:id", cfg.Orders.Get)
	orders.Post("/:id/accept", auth.RequireHandyman(), cfg.Orders.Accept)
	orders.Post("/:id/start", auth.RequireHandyman(), cfg.Orders.Start)
	orders.Post("/:id/complete", auth.RequireHandyman(), cfg.Orders.Complete)
	orders.Post("/:id/cancel", cfg.Orders.Cancel)
	orders.Post("/:id/rate", auth.RequireCustomer(), cfg.Orders.Rate)
}
