package services

import (
	"context"
	"fmt"
	"time"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/mailer/internal/cache"
	"github.com/qolzam/mailer/internal/metrics"
	"github.com/qolzam/mailer/internal/pkg/log"
	"github.com/qolzam/mailer/internal/types"
	"github.com/qolzam/mailer/internal/validation"
	mailingErrors "github.com/qolzam/mailer/mailings/errors"
	"github.com/qolzam/mailer/mailings/models"
	"github.com/qolzam/mailer/mailings/repository"
)

// Service defines mailing operations.
type Service interface {
	Create(ctx context.Context, user types.UserContext, req *models.MailingRequest) (*models.Mailing, error)
	Get(ctx context.Context, user types.UserContext, id uuid.UUID) (*models.Mailing, error)
	List(ctx context.Context, user types.UserContext) (*models.MailingsListResponse, error)
	Update(ctx context.Context, user types.UserContext, id uuid.UUID, req *models.MailingRequest) (*models.Mailing, error)
	Delete(ctx context.Context, user types.UserContext, id uuid.UUID) error

	// Send marks the mailing Started and hands it to the send loop.
	Send(ctx context.Context, user types.UserContext, id uuid.UUID) (*models.Mailing, error)
	// Disable finishes any mailing and stops its send loop. Requires PermDisableMailing.
	Disable(ctx context.Context, user types.UserContext, id uuid.UUID) (*models.Mailing, error)
}

// Dispatcher runs send tasks.
type Dispatcher interface {
	Start(ctx context.Context, id uuid.UUID) error
	Cancel(id uuid.UUID) bool
}

type ServiceConfig struct {
	Cache     *cache.GenericCacheService
	KeyPrefix string
	ListTTL   time.Duration
	DetailTTL time.Duration
	// Related are invalidated together with the mailing keys, e.g. statistics.
	Related []*cache.ScopedKeys
}

type service struct {
	repo       repository.Repository
	dispatcher Dispatcher
	keys       *cache.ScopedKeys
	related    []*cache.ScopedKeys
	listTTL    time.Duration
	detailTTL  time.Duration
}

// NewService constructs a mailing service.
func NewService(repo repository.Repository, dispatcher Dispatcher, cfg ServiceConfig) Service {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "mailings"
	}
	return &service{
		repo:       repo,
		dispatcher: dispatcher,
		keys:       cache.NewScopedKeys(cfg.Cache, cfg.KeyPrefix),
		related:    cfg.Related,
		listTTL:    cfg.ListTTL,
		detailTTL:  cfg.DetailTTL,
	}
}

func (s *service) Create(ctx context.Context, user types.UserContext, req *models.MailingRequest) (*models.Mailing, error) {
	form, err := s.validate(ctx, user.UserID, req)
	if err != nil {
		return nil, err
	}

	mailing := &models.Mailing{
		OwnerID:      user.UserID,
		MessageID:    form.MessageID,
		Status:       models.StatusCreated,
		StartedAt:    form.StartedAt,
		EndedAt:      form.EndedAt,
		RecipientIDs: form.RecipientIDs,
	}
	if err := s.repo.Create(ctx, mailing); err != nil {
		return nil, fmt.Errorf("%w: %v", mailingErrors.ErrDatabaseOperation, err)
	}

	s.invalidate(ctx, mailing.OwnerID)
	return mailing, nil
}

func (s *service) Get(ctx context.Context, user types.UserContext, id uuid.UUID) (*models.Mailing, error) {
	scope := user.Scope()
	key := s.keys.Key(scope, map[string]interface{}{"id": id.String()})

	return cache.ReadThrough(ctx, s.keys.Service(), key, s.detailTTL, func(ctx context.Context) (*models.Mailing, error) {
		return s.repo.FindByID(ctx, scope, id)
	})
}

func (s *service) List(ctx context.Context, user types.UserContext) (*models.MailingsListResponse, error) {
	scope := user.Scope()
	key := s.keys.Key(scope, map[string]interface{}{"list": true})

	return cache.ReadThrough(ctx, s.keys.Service(), key, s.listTTL, func(ctx context.Context) (*models.MailingsListResponse, error) {
		mailings, err := s.repo.List(ctx, scope)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", mailingErrors.ErrDatabaseOperation, err)
		}
		return &models.MailingsListResponse{Mailings: mailings, Total: len(mailings)}, nil
	})
}

func (s *service) Update(ctx context.Context, user types.UserContext, id uuid.UUID, req *models.MailingRequest) (*models.Mailing, error) {
	scope := user.Scope()
	current, err := s.repo.FindByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	// references must belong to the mailing owner, not to a privileged editor
	form, err := s.validate(ctx, current.OwnerID, req)
	if err != nil {
		return nil, err
	}

	// fields the form does not edit come from the stored row; the store may refresh them
	mailing := &models.Mailing{
		ObjectId:     id,
		OwnerID:      current.OwnerID,
		MessageID:    form.MessageID,
		Status:       current.Status,
		StartedAt:    form.StartedAt,
		EndedAt:      form.EndedAt,
		LastCycle:    current.LastCycle,
		RecipientIDs: form.RecipientIDs,
		CreatedAt:    current.CreatedAt,
	}
	if err := s.repo.Update(ctx, scope, mailing); err != nil {
		return nil, err
	}

	s.invalidate(ctx, current.OwnerID)
	return mailing, nil
}

func (s *service) Delete(ctx context.Context, user types.UserContext, id uuid.UUID) error {
	scope := user.Scope()
	mailing, err := s.repo.FindByID(ctx, scope, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, scope, id); err != nil {
		return err
	}
	if s.dispatcher != nil {
		s.dispatcher.Cancel(id)
	}

	s.invalidate(ctx, mailing.OwnerID)
	return nil
}

func (s *service) Send(ctx context.Context, user types.UserContext, id uuid.UUID) (*models.Mailing, error) {
	mailing, err := s.repo.FindByID(ctx, user.Scope(), id)
	if err != nil {
		return nil, err
	}
	if mailing.Status == models.StatusFinished {
		return nil, mailingErrors.ErrMailingFinished
	}

	started, err := s.repo.MarkStarted(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", mailingErrors.ErrDatabaseOperation, err)
	}
	if !started {
		return nil, mailingErrors.ErrMailingFinished
	}
	if mailing.Status == models.StatusCreated {
		metrics.RecordTransition(string(models.StatusStarted))
	}
	mailing.Status = models.StatusStarted
	s.invalidate(ctx, mailing.OwnerID)

	if err := s.dispatcher.Start(ctx, id); err != nil {
		return nil, err
	}
	log.InfoWithContext(ctx, "[Mailings] mailing %s started by %s", id, user.UserID)
	return mailing, nil
}

func (s *service) Disable(ctx context.Context, user types.UserContext, id uuid.UUID) (*models.Mailing, error) {
	mailing, err := s.repo.FindByID(ctx, types.Scope{All: true}, id)
	if err != nil {
		return nil, err
	}
	if !user.HasPermission(types.PermDisableMailing) {
		return nil, mailingErrors.ErrPermissionDenied
	}

	changed, err := s.repo.MarkFinished(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", mailingErrors.ErrDatabaseOperation, err)
	}
	if s.dispatcher != nil {
		s.dispatcher.Cancel(id)
	}
	if changed {
		metrics.RecordTransition(string(models.StatusFinished))
		log.InfoWithContext(ctx, "[Mailings] mailing %s disabled by %s", id, user.UserID)
	}

	mailing.Status = models.StatusFinished
	s.invalidate(ctx, mailing.OwnerID)
	return mailing, nil
}

// validate checks the request and that ownerID owns every referenced record.
func (s *service) validate(ctx context.Context, ownerID uuid.UUID, req *models.MailingRequest) (*models.MailingForm, error) {
	if req == nil {
		return nil, mailingErrors.ErrInvalidRequest
	}
	form, err := req.Validate()
	if err != nil {
		return nil, err
	}

	messageOwned, foreign, err := s.repo.ForeignReferences(ctx, ownerID, form.MessageID, form.RecipientIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", mailingErrors.ErrDatabaseOperation, err)
	}

	fieldErrs := validation.NewForm()
	fieldErrs.Check(messageOwned, "messageId", "select one of your messages")
	for _, id := range foreign {
		fieldErrs.Add("recipientIds", fmt.Sprintf("unknown recipient: %s", id))
	}
	if err := fieldErrs.Err(); err != nil {
		return nil, err
	}
	return form, nil
}

func (s *service) invalidate(ctx context.Context, ownerID uuid.UUID) {
	for _, keys := range append([]*cache.ScopedKeys{s.keys}, s.related...) {
		if err := keys.Invalidate(ctx, ownerID); err != nil {
			log.WarnWithContext(ctx, "[Mailings] cache invalidation for owner %s failed: %v", ownerID, err)
		}
	}
}
