package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/qolzam/mailer/internal/metrics"
	"github.com/qolzam/mailer/internal/middleware/requestid"
	"github.com/qolzam/mailer/internal/pkg/log"
	platformconfig "github.com/qolzam/mailer/internal/platform/config"
)

// HealthChecker reports whether the backing services are reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// NewApp creates the fiber app with the shared middleware, /health and the metrics endpoint.
// Feature routes are registered on top of it.
func NewApp(cfg *platformconfig.Config, health HealthChecker) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowCredentials: cfg.Server.CORSOrigins != "*",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
	}))
	if cfg.Metrics.Enabled {
		app.Use(metrics.Middleware())
		app.Get(cfg.Metrics.Path, metrics.Handler())
	}

	app.Get("/health", healthHandler(health))
	return app
}

func healthHandler(health HealthChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		if health != nil {
			if err := health.HealthCheck(ctx); err != nil {
				log.WarnWithContext(c.UserContext(), "[Health] database check failed: %v", err)
				return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{
					"status":   "unavailable",
					"database": "down",
				})
			}
		}
		return c.JSON(fiber.Map{
			"status":   "ok",
			"database": "up",
		})
	}
}

// errorHandler keeps responses already written by handlers and renders the rest as JSON.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	if code >= fiber.StatusInternalServerError {
		log.ErrorWithContext(c.UserContext(), "[ErrorHandler] Path: %s, Error: %v, Code: %d", c.Path(), err, code)
	}

	if len(c.Response().Body()) > 0 {
		return nil
	}

	return c.Status(code).JSON(fiber.Map{
		"code":    http.StatusText(code),
		"message": err.Error(),
	})
}
