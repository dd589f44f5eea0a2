package handlers

import (
	"github.com/assetshare/backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	Auth    *middleware.AuthMiddleware
	Users   *UsersHandler
	Assets  *AssetsHandler
	Payment *PaymentHandler
}

// Register mounts every route on app. The server and the handler tests share it.
func (r *Router) Register(app *fiber.App) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")
	api.Get("/version", GetVersion)

	users := api.Group("/users")
	users.Post("/", r.Users.Register)
	users.Post("/login", r.Users.Login)
	users.Get("/profile", r.Auth.RequireAuth, r.Users.Profile)
	users.Get("/code/:code", r.Auth.RequireAuth, r.Users.GetBySharingCode)
	users.Put("/regenerate-code", r.Auth.RequireAuth, r.Users.RegenerateSharingCode)

	assets := api.Group("/assets", r.Auth.RequireAuth)
	assets.Post("/", r.Assets.Upload)
	assets.Get("/", r.Assets.List)
	assets.Get("/:id/download", r.Assets.Download)
	assets.Post("/:id/share", r.Assets.Share)
	assets.Post("/:id/unshare", r.Assets.Unshare)
	assets.Get("/:id", r.Assets.Get)
	assets.Put("/:id", r.Assets.Update)
	assets.Delete("/:id", r.Assets.Delete)

	payment := api.Group("/payment", r.Auth.RequireAuth)
	payment.Post("/initiate", r.Payment.Initiate)
	payment.Post("/verify", r.Payment.Verify)
}
