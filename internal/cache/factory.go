package cache

import (
	"fmt"

	platformconfig "github.com/qolzam/mailer/internal/platform/config"
	"github.com/qolzam/mailer/internal/pkg/log"
)

// CreateCache creates a cache backend based on the provided configuration
func CreateCache(config *CacheConfig) (Cache, error) {
	if config == nil {
		config = DefaultCacheConfig()
	}

	switch config.Backend {
	case CacheTypeMemory:
		return NewMemoryCache(config), nil
	case CacheTypeRedis:
		return NewRedisCache(config)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidCacheType, config.Backend)
	}
}

// FromPlatformConfig maps the service configuration onto a CacheConfig.
func FromPlatformConfig(cfg platformconfig.CacheConfig) *CacheConfig {
	return &CacheConfig{
		Enabled:         cfg.Enabled,
		TTL:             cfg.TTL,
		Prefix:          cfg.Prefix,
		Backend:         CacheType(cfg.Backend),
		MaxMemory:       cfg.MaxMemory,
		CleanupInterval: cfg.CleanupInterval,
		Redis: RedisConfig{
			Address:      cfg.Redis.Address,
			Password:     cfg.Redis.Password,
			Database:     cfg.Redis.Database,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		},
	}
}

// NewServiceFromConfig builds the shared cache service. A disabled cache yields a
// service whose reads always miss. An unreachable redis falls back to memory.
func NewServiceFromConfig(cfg platformconfig.CacheConfig) *GenericCacheService {
	config := FromPlatformConfig(cfg)
	if !config.Enabled {
		return NewGenericCacheService(nil, config)
	}

	backend, err := CreateCache(config)
	if err != nil {
		log.Warn("cache backend %s unavailable, using memory: %v", config.Backend, err)
		backend = NewMemoryCache(config)
	}
	return NewGenericCacheService(backend, config)
}
