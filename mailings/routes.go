package mailings

import (
	"github.com/gofiber/fiber/v2"
	"github.com/qolzam/mailer/internal/cache"
	"github.com/qolzam/mailer/internal/middleware/authjwt"
	"github.com/qolzam/mailer/internal/middleware/constraints"
	platformconfig "github.com/qolzam/mailer/internal/platform/config"
	"github.com/qolzam/mailer/mailings/handlers"
)

type Handlers struct {
	MailingHandler *handlers.MailingHandler

	// Revoked is the cache consulted for logged-out tokens. May be nil.
	Revoked *cache.GenericCacheService
}

// RegisterRoutes wires mailing endpoints.
// Disable validates the id itself so a malformed id is reported as 400 rather than 404.
func RegisterRoutes(app *fiber.App, handlers *Handlers, cfg *platformconfig.Config) {
	authMiddleware := authjwt.New(authjwt.Config{
		PublicKey:    cfg.JWT.PublicKey,
		CacheService: handlers.Revoked,
	})

	group := app.Group("/mailings", authMiddleware)

	group.Post("/", handlers.MailingHandler.Create)
	group.Get("/", handlers.MailingHandler.List)
	group.Post("/disable", handlers.MailingHandler.Disable)
	group.Get("/:id", constraints.RequireUUID("id"), handlers.MailingHandler.Get)
	group.Put("/:id", constraints.RequireUUID("id"), handlers.MailingHandler.Update)
	group.Delete("/:id", constraints.RequireUUID("id"), handlers.MailingHandler.Delete)
	group.Post("/:id/send", constraints.RequireUUID("id"), handlers.MailingHandler.Send)
	group.Post("/:id/disable", handlers.MailingHandler.Disable)
}
