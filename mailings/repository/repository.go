package repository

import (
	"context"
	"time"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/mailer/internal/types"
	"github.com/qolzam/mailer/mailings/models"
)

// Repository persists mailings and their recipient links.
type Repository interface {
	Create(ctx context.Context, mailing *models.Mailing) error
	FindByID(ctx context.Context, scope types.Scope, id uuid.UUID) (*models.Mailing, error)
	List(ctx context.Context, scope types.Scope) ([]models.Mailing, error)
	Count(ctx context.Context, scope types.Scope) (int, error)
	// Update replaces the message, schedule and recipients. Status and cycle are untouched.
	Update(ctx context.Context, scope types.Scope, mailing *models.Mailing) error
	Delete(ctx context.Context, scope types.Scope, id uuid.UUID) error

	// ForeignReferences reports whether ownerID owns messageID and returns the
	// recipient ids that ownerID does not own.
	ForeignReferences(ctx context.Context, ownerID, messageID uuid.UUID, recipientIDs []uuid.UUID) (bool, []uuid.UUID, error)

	StatusStore
	// ListDue returns Created mailings whose start time has passed.
	ListDue(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	// ListExpired returns Started mailings whose end time has passed.
	ListExpired(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	ListStarted(ctx context.Context) ([]uuid.UUID, error)
}

// StatusStore is the part of the repository the send loop depends on.
type StatusStore interface {
	// MarkStarted moves a mailing to Started unless it is Finished.
	MarkStarted(ctx context.Context, id uuid.UUID) (bool, error)
	// MarkFinished moves a mailing to Finished. It reports false when it already was.
	MarkFinished(ctx context.Context, id uuid.UUID) (bool, error)
	// AdvanceCycle increments last_cycle of a Started mailing and returns the new value.
	AdvanceCycle(ctx context.Context, id uuid.UUID) (int, error)
	// FindDelivery loads a mailing with its message and recipient addresses.
	FindDelivery(ctx context.Context, id uuid.UUID) (*models.Delivery, error)
}
