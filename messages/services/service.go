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
	messageErrors "github.com/qolzam/mailer/messages/errors"
	"github.com/qolzam/mailer/messages/models"
	"github.com/qolzam/mailer/messages/repository"
)

// Service defines message operations within the caller's scope.
type Service interface {
	Create(ctx context.Context, user types.UserContext, req *models.MessageRequest) (*models.Message, error)
	Get(ctx context.Context, user types.UserContext, id uuid.UUID) (*models.Message, error)
	List(ctx context.Context, user types.UserContext) (*models.MessagesListResponse, error)
	Update(ctx context.Context, user types.UserContext, id uuid.UUID, req *models.MessageRequest) (*models.Message, error)
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

// NewService constructs a message service.
func NewService(repo repository.Repository, cfg ServiceConfig) Service {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "messages"
	}
	return &service{
		repo:      repo,
		words:     cfg.Words,
		keys:      cache.NewScopedKeys(cfg.Cache, cfg.KeyPrefix),
		listTTL:   cfg.ListTTL,
		detailTTL: cfg.DetailTTL,
	}
}

func (s *service) Create(ctx context.Context, user types.UserContext, req *models.MessageRequest) (*models.Message, error) {
	if req == nil {
		return nil, messageErrors.ErrInvalidRequest
	}
	if err := req.Validate(s.words); err != nil {
		return nil, err
	}

	message := &models.Message{
		OwnerID: user.UserID,
		Subject: req.Subject,
		Body:    req.Body,
	}
	if err := s.repo.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("%w: %v", messageErrors.ErrDatabaseOperation, err)
	}

	s.invalidate(ctx, message.OwnerID)
	return message, nil
}

func (s *service) Get(ctx context.Context, user types.UserContext, id uuid.UUID) (*models.Message, error) {
	scope := user.Scope()
	key := s.keys.Key(scope, map[string]interface{}{"id": id.String()})

	return cache.ReadThrough(ctx, s.keys.Service(), key, s.detailTTL, func(ctx context.Context) (*models.Message, error) {
		return s.repo.FindByID(ctx, scope, id)
	})
}

func (s *service) List(ctx context.Context, user types.UserContext) (*models.MessagesListResponse, error) {
	scope := user.Scope()
	key := s.keys.Key(scope, map[string]interface{}{"list": true})

	return cache.ReadThrough(ctx, s.keys.Service(), key, s.listTTL, func(ctx context.Context) (*models.MessagesListResponse, error) {
		messages, err := s.repo.List(ctx, scope)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", messageErrors.ErrDatabaseOperation, err)
		}
		return &models.MessagesListResponse{Messages: messages, Total: len(messages)}, nil
	})
}

func (s *service) Update(ctx context.Context, user types.UserContext, id uuid.UUID, req *models.MessageRequest) (*models.Message, error) {
	if req == nil {
		return nil, messageErrors.ErrInvalidRequest
	}
	if err := req.Validate(s.words); err != nil {
		return nil, err
	}

	message := &models.Message{
		ObjectId: id,
		Subject:  req.Subject,
		Body:     req.Body,
	}
	if err := s.repo.Update(ctx, user.Scope(), message); err != nil {
		return nil, err
	}

	s.invalidate(ctx, message.OwnerID)
	return message, nil
}

func (s *service) Delete(ctx context.Context, user types.UserContext, id uuid.UUID) error {
	scope := user.Scope()
	message, err := s.repo.FindByID(ctx, scope, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, scope, id); err != nil {
		return err
	}

	s.invalidate(ctx, message.OwnerID)
	return nil
}

func (s *service) invalidate(ctx context.Context, ownerID uuid.UUID) {
	if err := s.keys.Invalidate(ctx, ownerID); err != nil {
		log.WarnWithContext(ctx, "[Messages] cache invalidation for owner %s failed: %v", ownerID, err)
	}
}
