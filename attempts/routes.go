package attempts

import (
	"github.com/gofiber/fiber/v2"
	"github.com/qolzam/mailer/attempts/handlers"
	"github.com/qolzam/mailer/internal/cache"
	"github.com/qolzam/mailer/internal/middleware/authjwt"
	platformconfig "github.com/qolzam/mailer/internal/platform/config"
)

type Handlers struct {
	AttemptHandler *handlers.AttemptHandler
	Revoked        *cache.GenericCacheService
}

// RegisterRoutes wires the statistics endpoint.
func RegisterRoutes(app *fiber.App, handlers *Handlers, cfg *platformconfig.Config) {
	group := app.Group("/attempts", authjwt.New(authjwt.Config{
		PublicKey:    cfg.JWT.PublicKey,
		CacheService: handlers.Revoked,
	}))
	group.Get("/", handlers.AttemptHandler.Statistics)
}
