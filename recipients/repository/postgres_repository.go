// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/mailer/internal/database/postgres"
	"github.com/qolzam/mailer/internal/types"
	recipientErrors "github.com/qolzam/mailer/recipients/errors"
	"github.com/qolzam/mailer/recipients/models"
)

const recipientColumns = `id, owner_id, email, initials, comment, created_at, updated_at`

type postgresRepository struct {
	client *postgres.Client
}

// NewPostgresRepository creates a recipient repository on client.
func NewPostgresRepository(client *postgres.Client) Repository {
	return &postgresRepository{client: client}
}

func (r *postgresRepository) Create(ctx context.Context, recipient *models.Recipient) error {
	if recipient.ObjectId == uuid.Nil {
		recipient.ObjectId = uuid.Must(uuid.NewV4())
	}
	now := time.Now().UTC()
	recipient.CreatedAt = now
	recipient.UpdatedAt = now

	query := `
		INSERT INTO recipients (id, owner_id, email, initials, comment, created_at, updated_at)
		VALUES (:id, :owner_id, :email, :initials, :comment, :created_at, :updated_at)
	`
	if _, err := r.client.Executor(ctx).NamedExecContext(ctx, query, recipient); err != nil {
		return fmt.Errorf("insert recipient: %w", err)
	}
	return nil
}

func (r *postgresRepository) FindByID(ctx context.Context, scope types.Scope, id uuid.UUID) (*models.Recipient, error) {
	query := `SELECT ` + recipientColumns + `
		FROM recipients
		WHERE id = $1 AND ($2::boolean OR owner_id = $3)`

	var recipient models.Recipient
	if err := r.client.Executor(ctx).GetContext(ctx, &recipient, query, id, scope.All, scope.OwnerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, recipientErrors.ErrRecipientNotFound
		}
		return nil, fmt.Errorf("find recipient: %w", err)
	}
	return &recipient, nil
}

func (r *postgresRepository) List(ctx context.Context, scope types.Scope) ([]models.Recipient, error) {
	query := `SELECT ` + recipientColumns + `
		FROM recipients
		WHERE ($1::boolean OR owner_id = $2)
		ORDER BY created_at DESC, id DESC`

	recipients := []models.Recipient{}
	if err := r.client.Executor(ctx).SelectContext(ctx, &recipients, query, scope.All, scope.OwnerID); err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	return recipients, nil
}

func (r *postgresRepository) Count(ctx context.Context, scope types.Scope) (int, error) {
	var total int
	query := `SELECT COUNT(*) FROM recipients WHERE ($1::boolean OR owner_id = $2)`
	if err := r.client.Executor(ctx).GetContext(ctx, &total, query, scope.All, scope.OwnerID); err != nil {
		return 0, fmt.Errorf("count recipients: %w", err)
	}
	return total, nil
}

func (r *postgresRepository) Update(ctx context.Context, scope types.Scope, recipient *models.Recipient) error {
	recipient.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE recipients
		SET email = $1, initials = $2, comment = $3, updated_at = $4
		WHERE id = $5 AND ($6::boolean OR owner_id = $7)
		RETURNING owner_id, created_at`

	row := r.client.Executor(ctx).QueryRowxContext(ctx, query,
		recipient.Email, recipient.Initials, recipient.Comment, recipient.UpdatedAt,
		recipient.ObjectId, scope.All, scope.OwnerID)
	if err := row.Scan(&recipient.OwnerID, &recipient.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return recipientErrors.ErrRecipientNotFound
		}
		return fmt.Errorf("update recipient: %w", err)
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, scope types.Scope, id uuid.UUID) error {
	query := `DELETE FROM recipients WHERE id = $1 AND ($2::boolean OR owner_id = $3)`

	result, err := r.client.Executor(ctx).ExecContext(ctx, query, id, scope.All, scope.OwnerID)
	if err != nil {
		return fmt.Errorf("delete recipient: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return recipientErrors.ErrRecipientNotFound
	}
	return nil
}
