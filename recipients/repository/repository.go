package repository

import (
	"context"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/mailer/internal/types"
	"github.com/qolzam/mailer/recipients/models"
)

// Repository persists recipients. Every read and write is limited to scope;
// a record outside it behaves as missing.
type Repository interface {
	Create(ctx context.Context, recipient *models.Recipient) error
	FindByID(ctx context.Context, scope types.Scope, id uuid.UUID) (*models.Recipient, error)
	List(ctx context.Context, scope types.Scope) ([]models.Recipient, error)
	Count(ctx context.Context, scope types.Scope) (int, error)
	Update(ctx context.Context, scope types.Scope, recipient *models.Recipient) error
	Delete(ctx context.Context, scope types.Scope, id uuid.UUID) error
}
