package repository

import (
	"context"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/mailer/internal/types"
	"github.com/qolzam/mailer/messages/models"
)

// Repository persists messages. Every read and write is limited to scope;
// a record outside it behaves as missing.
type Repository interface {
	Create(ctx context.Context, message *models.Message) error
	FindByID(ctx context.Context, scope types.Scope, id uuid.UUID) (*models.Message, error)
	List(ctx context.Context, scope types.Scope) ([]models.Message, error)
	Count(ctx context.Context, scope types.Scope) (int, error)
	Update(ctx context.Context, scope types.Scope, message *models.Message) error
	Delete(ctx context.Context, scope types.Scope, id uuid.UUID) error
}
