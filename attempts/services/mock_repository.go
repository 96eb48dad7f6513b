package services

import (
	"context"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/mailer/attempts/models"
	"github.com/qolzam/mailer/attempts/repository"
	"github.com/qolzam/mailer/internal/types"
	"github.com/stretchr/testify/mock"
)

// MockRepository is a test double for the attempt repository.
type MockRepository struct {
	mock.Mock
}

var _ repository.Repository = (*MockRepository)(nil)

func (m *MockRepository) Record(ctx context.Context, attempt *models.Attempt) (bool, error) {
	args := m.Called(ctx, attempt)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) AttemptedRecipients(ctx context.Context, mailingID uuid.UUID, cycle int) (map[uuid.UUID]bool, error) {
	args := m.Called(ctx, mailingID, cycle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]bool), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, scope types.Scope, mailingID uuid.UUID) ([]models.Attempt, error) {
	args := m.Called(ctx, scope, mailingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Attempt), args.Error(1)
}
