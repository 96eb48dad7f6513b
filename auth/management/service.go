package management

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/gofrs/uuid"
	authErrors "github.com/qolzam/mailer/auth/errors"
	"github.com/qolzam/mailer/auth/models"
	"github.com/qolzam/mailer/auth/repository"
	"github.com/qolzam/mailer/auth/security"
	"github.com/qolzam/mailer/internal/cache"
	"github.com/qolzam/mailer/internal/middleware/authjwt"
	"github.com/qolzam/mailer/internal/pkg/log"
	"github.com/qolzam/mailer/internal/types"
)

// UserManagementService lists users and toggles their active flag
type UserManagementService struct {
	repo         repository.UserRepository
	cacheService *cache.GenericCacheService
	tokenTTL     time.Duration
}

var _ UserManagement = (*UserManagementService)(nil)

// NewUserManagementService creates the service. cacheSvc is the revoked-token cache; blocking a
// user rejects their outstanding tokens for tokenTTL when it is enabled.
func NewUserManagementService(repo repository.UserRepository, cacheSvc *cache.GenericCacheService, tokenTTL time.Duration) *UserManagementService {
	return &UserManagementService{repo: repo, cacheService: cacheSvc, tokenTTL: tokenTTL}
}

func (s *UserManagementService) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", authErrors.ErrDatabaseError, err)
	}
	out := make([]models.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out, nil
}

// SetUserActive blocks (active=false) or unblocks a user. Callers cannot change themselves.
func (s *UserManagementService) SetUserActive(ctx context.Context, actor types.UserContext, userID uuid.UUID, active bool) error {
	if !actor.HasPermission(types.PermBlockUsers) {
		return authErrors.ErrPermissionDenied
	}
	if actor.UserID == userID {
		return authErrors.ErrCannotModifySelf
	}

	if err := s.repo.SetActive(ctx, userID, active); err != nil {
		if errors.Is(err, authErrors.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", authErrors.ErrDatabaseError, err)
	}

	// Invalidate all sessions of a blocked user
	var err error
	if active {
		err = authjwt.Unblock(ctx, s.cacheService, userID)
	} else {
		err = authjwt.Block(ctx, s.cacheService, userID, s.tokenTTL)
	}
	if err != nil {
		log.WarnWithContext(ctx, "[Management] session cache update failed for %s: %v", userID, err)
	}

	security.LogBlockChange(actor.UserID.String(), userID.String(), "", !active)
	return nil
}
