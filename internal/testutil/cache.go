package testutil

import (
	"testing"

	"github.com/qolzam/mailer/internal/cache"
)

// NewMemoryCacheService returns an in-memory cache service closed on cleanup.
func NewMemoryCacheService(t *testing.T) *cache.GenericCacheService {
	t.Helper()
	config := cache.DefaultCacheConfig()
	svc := cache.NewGenericCacheService(cache.NewMemoryCache(config), config)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}
