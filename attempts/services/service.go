package services

import (
	"context"
	"fmt"
	"time"

	uuid "github.com/gofrs/uuid"
	attemptErrors "github.com/qolzam/mailer/attempts/errors"
	"github.com/qolzam/mailer/attempts/models"
	"github.com/qolzam/mailer/attempts/repository"
	"github.com/qolzam/mailer/internal/cache"
	"github.com/qolzam/mailer/internal/types"
)

// Service reads delivery statistics.
type Service interface {
	Statistics(ctx context.Context, user types.UserContext, filter models.StatisticsFilter) (*models.StatisticsResponse, error)
}

type service struct {
	repo repository.Repository
	keys *cache.ScopedKeys
	ttl  time.Duration
}

// NewService constructs the statistics service. Results are cached under keys for ttl.
func NewService(repo repository.Repository, keys *cache.ScopedKeys, ttl time.Duration) Service {
	if keys == nil {
		keys = cache.NewScopedKeys(nil, "attempts")
	}
	return &service{repo: repo, keys: keys, ttl: ttl}
}

func (s *service) Statistics(ctx context.Context, user types.UserContext, filter models.StatisticsFilter) (*models.StatisticsResponse, error) {
	scope := user.Scope()
	params := map[string]interface{}{"mailing_id": ""}
	if filter.MailingID != uuid.Nil {
		params["mailing_id"] = filter.MailingID.String()
	}

	return cache.ReadThrough(ctx, s.keys.Service(), s.keys.Key(scope, params), s.ttl, func(ctx context.Context) (*models.StatisticsResponse, error) {
		attempts, err := s.repo.List(ctx, scope, filter.MailingID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", attemptErrors.ErrDatabaseOperation, err)
		}
		return models.NewStatistics(attempts), nil
	})
}
