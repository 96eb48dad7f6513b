package repository

import (
	"context"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/mailer/attempts/models"
	"github.com/qolzam/mailer/internal/types"
)

// Repository stores the send attempt log. Rows are only ever inserted.
type Repository interface {
	// Record inserts attempt. It reports false when the recipient already has an
	// attempt for the same mailing and cycle.
	Record(ctx context.Context, attempt *models.Attempt) (bool, error)

	// AttemptedRecipients returns the recipients that already have an attempt in cycle.
	AttemptedRecipients(ctx context.Context, mailingID uuid.UUID, cycle int) (map[uuid.UUID]bool, error)

	// List returns attempts in scope, newest first. A nil mailingID matches every mailing.
	List(ctx context.Context, scope types.Scope, mailingID uuid.UUID) ([]models.Attempt, error)
}
