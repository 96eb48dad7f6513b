package services

import (
	"context"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/mailer/internal/types"
	"github.com/qolzam/mailer/recipients/models"
	"github.com/qolzam/mailer/recipients/repository"
	"github.com/stretchr/testify/mock"
)

// MockRepository is a test double for the recipient repository.
type MockRepository struct {
	mock.Mock
}

var _ repository.Repository = (*MockRepository)(nil)

func (m *MockRepository) Create(ctx context.Context, recipient *models.Recipient) error {
	args := m.Called(ctx, recipient)
	return args.Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, scope types.Scope, id uuid.UUID) (*models.Recipient, error) {
	args := m.Called(ctx, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipient), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, scope types.Scope) ([]models.Recipient, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Recipient), args.Error(1)
}

func (m *MockRepository) Count(ctx context.Context, scope types.Scope) (int, error) {
	args := m.Called(ctx, scope)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, scope types.Scope, recipient *models.Recipient) error {
	args := m.Called(ctx, scope, recipient)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, scope types.Scope, id uuid.UUID) error {
	args := m.Called(ctx, scope, id)
	return args.Error(0)
}
