package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"storefront/internal/auth"
	applog "storefront/internal/log"
)

type Options struct {
	// Storage backs the rate limiters; nil keeps counters in memory.
	Storage     fiber.Storage
	CORSOrigins string
	// GlobalMax requests per minute per IP. Zero means 120.
	GlobalMax int
	// LoginMax attempts per 10 minutes per IP on login and signup. Zero means 5.
	LoginMax int
	// AccessLog enables the per-request logger middleware.
	AccessLog bool
}

// Register mounts middleware and every route on app.
func Register(app *fiber.App, d *Deps, opts Options) {
	if opts.GlobalMax <= 0 {
		opts.GlobalMax = 120
	}
	if opts.LoginMax <= 0 {
		opts.LoginMax = 5
	}
	if opts.CORSOrigins == "" {
		opts.CORSOrigins = "*"
	}

	app.Use(requestid.New())
	if opts.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
		}))
	}
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: opts.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        opts.GlobalMax,
		Expiration: time.Minute,
		Storage:    opts.Storage,
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/healthz"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return fail(c, fiber.StatusTooManyRequests, "too_many_requests", "rate limit exceeded, retry soon")
		},
	}))

	loginLimiter := limiter.New(limiter.Config{
		Max:        opts.LoginMax,
		Expiration: 10 * time.Minute,
		Storage:    opts.Storage,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|auth"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return fail(c, fiber.StatusTooManyRequests, "too_many_requests", "too many attempts, please try again later")
		},
	})

	need := func(perms ...auth.Permission) fiber.Handler {
		return RequirePermission(d.Policy, perms...)
	}
	authed := Authenticate(d.Auth)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"service": "storefront", "status": "ok"})
	})
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	app.Post("/auth/signup", loginLimiter, d.AuthHandler.Signup)
	app.Post("/auth/login", loginLimiter, d.AuthHandler.Login)
	app.Get("/me", authed, d.AuthHandler.Me)

	// Catalog
	app.Get("/categories", d.CategoryHandler.List)
	app.Post("/categories", authed, need(auth.PermCatalog), d.CategoryHandler.Create)
	app.Get("/products", d.ProductHandler.List)
	app.Get("/products/:id", d.ProductHandler.Get)
	app.Post("/products", authed, need(auth.PermCatalog), d.ProductHandler.Create)
	app.Put("/products/:id", authed, need(auth.PermCatalog), d.ProductHandler.Update)
	app.Delete("/products/:id", authed, need(auth.PermDeleteItem), d.ProductHandler.Delete)
	app.Post("/products/:id/variants", authed, need(auth.PermCatalog), d.ProductHandler.AddVariant)
	app.Post("/products/:id/images", authed, need(auth.PermCatalog), d.ProductHandler.AddImage)
	app.Put("/variants/:id/stock", authed, need(auth.PermStock), d.ProductHandler.SetStock)

	// Cart. authed is attached per route so unknown paths still reach the 404 below.
	cart := app.Group("/cart")
	cart.Get("/", authed, need(auth.PermUseCart), d.CartHandler.View)
	cart.Post("/", authed, need(auth.PermUseCart), d.CartHandler.Add)
	cart.Post("/checkout", authed, need(auth.PermPlaceOrder), d.CartHandler.Checkout)
	cart.Delete("/:variantId", authed, need(auth.PermUseCart), d.CartHandler.Remove)

	// Orders
	orders := app.Group("/orders")
	orders.Post("/", authed, need(auth.PermPlaceOrder), d.OrderHandler.Place)
	orders.Get("/", authed, d.OrderHandler.List)
	orders.Get("/:id", authed, d.OrderHandler.Get)
	orders.Put("/:id", authed, need(auth.PermUpdateOrder), d.OrderHandler.Update)

	// Users
	users := app.Group("/users")
	users.Get("/", authed, need(auth.PermUsers), d.UserHandler.List)
	users.Get("/:id", authed, d.UserHandler.Get)
	users.Put("/:id", authed, d.UserHandler.Update)
	users.Delete("/:id", authed, need(auth.PermUsers), d.UserHandler.Deactivate)

	app.Use(func(c *fiber.Ctx) error {
		return fail(c, fiber.StatusNotFound, "not_found", "route not found")
	})
}
