// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository

import (
	"context"
	"fmt"
	"time"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/mailer/attempts/models"
	"github.com/qolzam/mailer/internal/database/postgres"
	"github.com/qolzam/mailer/internal/types"
)

type postgresRepository struct {
	client *postgres.Client
}

// NewPostgresRepository creates an attempt repository on client.
func NewPostgresRepository(client *postgres.Client) Repository {
	return &postgresRepository{client: client}
}

func (r *postgresRepository) Record(ctx context.Context, attempt *models.Attempt) (bool, error) {
	if attempt.ObjectId == uuid.Nil {
		attempt.ObjectId = uuid.Must(uuid.NewV4())
	}
	if attempt.AttemptedAt.IsZero() {
		attempt.AttemptedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO send_attempts
			(id, mailing_id, owner_id, recipient_id, recipient_email, cycle, status, server_response, attempted_at)
		VALUES
			(:id, :mailing_id, :owner_id, :recipient_id, :recipient_email, :cycle, :status, :server_response, :attempted_at)
		ON CONFLICT DO NOTHING
	`
	result, err := r.client.Executor(ctx).NamedExecContext(ctx, query, attempt)
	if err != nil {
		return false, fmt.Errorf("insert send attempt: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *postgresRepository) AttemptedRecipients(ctx context.Context, mailingID uuid.UUID, cycle int) (map[uuid.UUID]bool, error) {
	query := `
		SELECT recipient_id
		FROM send_attempts
		WHERE mailing_id = $1 AND cycle = $2 AND recipient_id IS NOT NULL
	`

	var ids []uuid.UUID
	if err := r.client.Executor(ctx).SelectContext(ctx, &ids, query, mailingID, cycle); err != nil {
		return nil, fmt.Errorf("select attempted recipients: %w", err)
	}

	attempted := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		attempted[id] = true
	}
	return attempted, nil
}

func (r *postgresRepository) List(ctx context.Context, scope types.Scope, mailingID uuid.UUID) ([]models.Attempt, error) {
	query := `
		SELECT id, mailing_id, owner_id, recipient_id, recipient_email, cycle, status, server_response, attempted_at
		FROM send_attempts
		WHERE ($1::boolean OR owner_id = $2)
		AND ($3::uuid IS NULL OR mailing_id = $3)
		ORDER BY attempted_at DESC, id DESC
	`

	var mailingArg uuid.NullUUID
	if mailingID != uuid.Nil {
		mailingArg = uuid.NullUUID{UUID: mailingID, Valid: true}
	}

	attempts := []models.Attempt{}
	if err := r.client.Executor(ctx).SelectContext(ctx, &attempts, query, scope.All, scope.OwnerID, mailingArg); err != nil {
		return nil, fmt.Errorf("list send attempts: %w", err)
	}
	return attempts, nil
}
