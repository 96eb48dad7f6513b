package profile

import (
	"github.com/gofiber/fiber/v2"
	"github.com/qolzam/mailer/internal/cache"
	"github.com/qolzam/mailer/internal/middleware/authjwt"
	platformconfig "github.com/qolzam/mailer/internal/platform/config"
	"github.com/qolzam/mailer/profile/handlers"
)

type Handlers struct {
	ProfileHandler *handlers.ProfileHandler

	// Revoked is the cache consulted for logged-out tokens. May be nil.
	Revoked *cache.GenericCacheService
}

func RegisterRoutes(app *fiber.App, handlers *Handlers, cfg *platformconfig.Config) {
	authMiddleware := authjwt.New(authjwt.Config{
		PublicKey:    cfg.JWT.PublicKey,
		CacheService: handlers.Revoked,
	})

	app.Get("/profile", authMiddleware, handlers.ProfileHandler.Dashboard)
}
