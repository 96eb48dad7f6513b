package services

import (
	"context"
	"fmt"
	"time"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/mailer/internal/cache"
	"github.com/qolzam/mailer/internal/pkg/log"
	"github.com/qolzam/mailer/internal/types"
	"github.com/qolzam/mailer/internal/validation"
	recipientErrors "github.com/qolzam/mailer/recipients/errors"
	"github.com/qolzam/mailer/recipients/models"
	"github.com/qolzam/mailer/recipients/repository"
)

// Service defines recipient operations. All of them act within the caller's scope.
type Service interface {
	Create(ctx context.Context, user types.UserContext, req *models.RecipientRequest) (*models.Recipient, error)
	Get(ctx context.Context, user types.UserContext, id uuid.UUID) (*models.Recipient, error)
	List(ctx context.Context, user types.UserContext) (*models.RecipientsListResponse, error)
	Update(ctx context.Context, user types.UserContext, id uuid.UUID, req *models.RecipientRequest) (*models.Recipient, error)
	Delete(ctx context.Context, user types.UserContext, id uuid.UUID) error
}

// ServiceConfig carries the optional collaborators of the service.
type ServiceConfig struct {
	Words     *validation.WordFilter
	Cache     *cache.GenericCacheService
	KeyPrefix string
	ListTTL   time.Duration
	DetailTTL time.Duration
}

type service struct {
	repo      repository.Repository
	words     *validation.WordFilter
	keys      *cache.ScopedKeys
	listTTL   time.Duration
	detailTTL time.Duration
}

// NewService constructs a recipient service.
func NewService(repo repository.Repository, cfg ServiceConfig) Service {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "recipients"
	}
	return &service{
		repo:      repo,
		words:     cfg.Words,
		keys:      cache.NewScopedKeys(cfg.Cache, cfg.KeyPrefix),
		listTTL:   cfg.ListTTL,
		detailTTL: cfg.DetailTTL,
	}
}

func (s *service) Create(ctx context.Context, user types.UserContext, req *models.RecipientRequest) (*models.Recipient, error) {
	if req == nil {
		return nil, recipientErrors.ErrInvalidRequest
	}
	if err := req.Validate(s.words); err != nil {
		return nil, err
	}

	recipient := &models.Recipient{
		OwnerID:  user.UserID,
		Email:    req.Email,
		Initials: req.Initials,
		Comment:  req.Comment,
	}
	if err := s.repo.Create(ctx, recipient); err != nil {
		return nil, fmt.Errorf("%w: %v", recipientErrors.ErrDatabaseOperation, err)
	}

	s.invalidate(ctx, recipient.OwnerID)
	return recipient, nil
}

func (s *service) Get(ctx context.Context, user types.UserContext, id uuid.UUID) (*models.Recipient, error) {
	scope := user.Scope()
	key := s.keys.Key(scope, map[string]interface{}{"id": id.String()})

	return cache.ReadThrough(ctx, s.keys.Service(), key, s.detailTTL, func(ctx context.Context) (*models.Recipient, error) {
		return s.repo.FindByID(ctx, scope, id)
	})
}

func (s *service) List(ctx context.Context, user types.UserContext) (*models.RecipientsListResponse, error) {
	scope := user.Scope()
	key := s.keys.Key(scope, map[string]interface{}{"list": true})

	return cache.ReadThrough(ctx, s.keys.Service(), key, s.listTTL, func(ctx context.Context) (*models.RecipientsListResponse, error) {
		recipients, err := s.repo.List(ctx, scope)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", recipientErrors.ErrDatabaseOperation, err)
		}
		return &models.RecipientsListResponse{Recipients: recipients, Total: len(recipients)}, nil
	})
}

func (s *service) Update(ctx context.Context, user types.UserContext, id uuid.UUID, req *models.RecipientRequest) (*models.Recipient, error) {
	if req == nil {
		return nil, recipientErrors.ErrInvalidRequest
	}
	if err := req.Validate(s.words); err != nil {
		return nil, err
	}

	recipient := &models.Recipient{
		ObjectId: id,
		Email:    req.Email,
		Initials: req.Initials,
		Comment:  req.Comment,
	}
	if err := s.repo.Update(ctx, user.Scope(), recipient); err != nil {
		return nil, err
	}

	s.invalidate(ctx, recipient.OwnerID)
	return recipient, nil
}

func (s *service) Delete(ctx context.Context, user types.UserContext, id uuid.UUID) error {
	scope := user.Scope()
	recipient, err := s.repo.FindByID(ctx, scope, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, scope, id); err != nil {
		return err
	}

	s.invalidate(ctx, recipient.OwnerID)
	return nil
}

func (s *service) invalidate(ctx context.Context, ownerID uuid.UUID) {
	if err := s.keys.Invalidate(ctx, ownerID); err != nil {
		log.WarnWithContext(ctx, "[Recipients] cache invalidation for owner %s failed: %v", ownerID, err)
	}
}
