package services

import (
	"context"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/mailer/internal/types"
	"github.com/qolzam/mailer/messages/models"
	"github.com/qolzam/mailer/messages/repository"
	"github.com/stretchr/testify/mock"
)

// MockRepository is a test double for the message repository.
type MockRepository struct {
	mock.Mock
}

var _ repository.Repository = (*MockRepository)(nil)

func (m *MockRepository) Create(ctx context.Context, message *models.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, scope types.Scope, id uuid.UUID) (*models.Message, error) {
	args := m.Called(ctx, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, scope types.Scope) ([]models.Message, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockRepository) Count(ctx context.Context, scope types.Scope) (int, error) {
	args := m.Called(ctx, scope)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, scope types.Scope, message *models.Message) error {
	args := m.Called(ctx, scope, message)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, scope types.Scope, id uuid.UUID) error {
	args := m.Called(ctx, scope, id)
	return args.Error(0)
}
