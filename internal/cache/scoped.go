package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/qolzam/mailer/internal/types"
)

// ScopedKeys builds cache keys of the form "<prefix>:<owner|all>:<hash>" so that a
// write by or for one owner can drop that owner's entries together with the global ones.
type ScopedKeys struct {
	svc    *GenericCacheService
	prefix string
}

// NewScopedKeys returns a key builder for prefix on top of svc. svc may be nil.
func NewScopedKeys(svc *GenericCacheService, prefix string) *ScopedKeys {
	return &ScopedKeys{svc: svc, prefix: prefix}
}

// Service returns the underlying cache service.
func (k *ScopedKeys) Service() *GenericCacheService {
	return k.svc
}

// Key returns the cache key for scope and query params.
func (k *ScopedKeys) Key(scope types.Scope, params map[string]interface{}) string {
	return k.svc.GenerateHashKey(fmt.Sprintf("%s:%s", k.prefix, scope.Segment()), params)
}

// Invalidate removes every entry cached for ownerID and for the global scope.
func (k *ScopedKeys) Invalidate(ctx context.Context, ownerID uuid.UUID) error {
	if !k.svc.IsEnabled() {
		return nil
	}
	var errs []error
	for _, segment := range []string{ownerID.String(), types.Scope{All: true}.Segment()} {
		if err := k.svc.InvalidatePattern(ctx, fmt.Sprintf("%s:%s:*", k.prefix, segment)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
