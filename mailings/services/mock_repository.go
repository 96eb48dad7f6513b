package services

import (
	"context"
	"time"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/mailer/internal/types"
	"github.com/qolzam/mailer/mailings/models"
	"github.com/qolzam/mailer/mailings/repository"
	"github.com/stretchr/testify/mock"
)

// MockRepository is a test double for the mailing repository.
type MockRepository struct {
	mock.Mock
}

var _ repository.Repository = (*MockRepository)(nil)

func (m *MockRepository) Create(ctx context.Context, mailing *models.Mailing) error {
	args := m.Called(ctx, mailing)
	return args.Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, scope types.Scope, id uuid.UUID) (*models.Mailing, error) {
	args := m.Called(ctx, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Mailing), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, scope types.Scope) ([]models.Mailing, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Mailing), args.Error(1)
}

func (m *MockRepository) Count(ctx context.Context, scope types.Scope) (int, error) {
	args := m.Called(ctx, scope)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, scope types.Scope, mailing *models.Mailing) error {
	args := m.Called(ctx, scope, mailing)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, scope types.Scope, id uuid.UUID) error {
	args := m.Called(ctx, scope, id)
	return args.Error(0)
}

func (m *MockRepository) ForeignReferences(ctx context.Context, ownerID, messageID uuid.UUID, recipientIDs []uuid.UUID) (bool, []uuid.UUID, error) {
	args := m.Called(ctx, ownerID, messageID, recipientIDs)
	var foreign []uuid.UUID
	if v := args.Get(1); v != nil {
		foreign = v.([]uuid.UUID)
	}
	return args.Bool(0), foreign, args.Error(2)
}

func (m *MockRepository) MarkStarted(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) MarkFinished(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) AdvanceCycle(ctx context.Context, id uuid.UUID) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) FindDelivery(ctx context.Context, id uuid.UUID) (*models.Delivery, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Delivery), args.Error(1)
}

func (m *MockRepository) ListDue(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockRepository) ListExpired(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockRepository) ListStarted(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockDispatcher records Start and Cancel calls.
type MockDispatcher struct {
	mock.Mock
}

var _ Dispatcher = (*MockDispatcher)(nil)

func (m *MockDispatcher) Start(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDispatcher) Cancel(id uuid.UUID) bool {
	args := m.Called(id)
	return args.Bool(0)
}

func (m *MockDispatcher) Running(id uuid.UUID) bool {
	args := m.Called(id)
	return args.Bool(0)
}
