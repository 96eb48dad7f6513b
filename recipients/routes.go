package recipients

import (
	"github.com/gofiber/fiber/v2"
	"github.com/qolzam/mailer/internal/cache"
	"github.com/qolzam/mailer/internal/middleware/authjwt"
	"github.com/qolzam/mailer/internal/middleware/constraints"
	platformconfig "github.com/qolzam/mailer/internal/platform/config"
	"github.com/qolzam/mailer/recipients/handlers"
)

type Handlers struct {
	RecipientHandler *handlers.RecipientHandler

	// Revoked is the cache consulted for logged-out tokens. May be nil.
	Revoked *cache.GenericCacheService
}

// RegisterRoutes wires recipient endpoints.
func RegisterRoutes(app *fiber.App, handlers *Handlers, cfg *platformconfig.Config) {
	authMiddleware := authjwt.New(authjwt.Config{
		PublicKey:    cfg.JWT.PublicKey,
		CacheService: handlers.Revoked,
	})

	group := app.Group("/recipients", authMiddleware)

	group.Post("/", handlers.RecipientHandler.Create)
	group.Get("/", handlers.RecipientHandler.List)
	group.Get("/:id", constraints.RequireUUID("id"), handlers.RecipientHandler.Get)
	group.Put("/:id", constraints.RequireUUID("id"), handlers.RecipientHandler.Update)
	group.Delete("/:id", constraints.RequireUUID("id"), handlers.RecipientHandler.Delete)
}
