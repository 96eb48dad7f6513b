package messages

import (
	"github.com/gofiber/fiber/v2"
	"github.com/qolzam/mailer/internal/cache"
	"github.com/qolzam/mailer/internal/middleware/authjwt"
	"github.com/qolzam/mailer/internal/middleware/constraints"
	platformconfig "github.com/qolzam/mailer/internal/platform/config"
	"github.com/qolzam/mailer/messages/handlers"
)

type Handlers struct {
	MessageHandler *handlers.MessageHandler

	// Revoked is the cache consulted for logged-out tokens. May be nil.
	Revoked *cache.GenericCacheService
}

// RegisterRoutes wires message endpoints.
func RegisterRoutes(app *fiber.App, handlers *Handlers, cfg *platformconfig.Config) {
	authMiddleware := authjwt.New(authjwt.Config{
		PublicKey:    cfg.JWT.PublicKey,
		CacheService: handlers.Revoked,
	})

	group := app.Group("/messages", authMiddleware)

	group.Post("/", handlers.MessageHandler.Create)
	group.Get("/", handlers.MessageHandler.List)
	group.Get("/:id", constraints.RequireUUID("id"), handlers.MessageHandler.Get)
	group.Put("/:id", constraints.RequireUUID("id"), handlers.MessageHandler.Update)
	group.Delete("/:id", constraints.RequireUUID("id"), handlers.MessageHandler.Delete)
}
