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
	messageErrors "github.com/qolzam/mailer/messages/errors"
	"github.com/qolzam/mailer/messages/models"
)

const messageColumns = `id, owner_id, subject, body, created_at, updated_at`

type postgresRepository struct {
	client *postgres.Client
}

// NewPostgresRepository creates a message repository on client.
func NewPostgresRepository(client *postgres.Client) Repository {
	return &postgresRepository{client: client}
}

func (r *postgresRepository) Create(ctx context.Context, message *models.Message) error {
	if message.ObjectId == uuid.Nil {
		message.ObjectId = uuid.Must(uuid.NewV4())
	}
	now := time.Now().UTC()
	message.CreatedAt = now
	message.UpdatedAt = now

	query := `
		INSERT INTO messages (id, owner_id, subject, body, created_at, updated_at)
		VALUES (:id, :owner_id, :subject, :body, :created_at, :updated_at)
	`
	if _, err := r.client.Executor(ctx).NamedExecContext(ctx, query, message); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (r *postgresRepository) FindByID(ctx context.Context, scope types.Scope, id uuid.UUID) (*models.Message, error) {
	query := `SELECT ` + messageColumns + `
		FROM messages
		WHERE id = $1 AND ($2::boolean OR owner_id = $3)`

	var message models.Message
	if err := r.client.Executor(ctx).GetContext(ctx, &message, query, id, scope.All, scope.OwnerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, messageErrors.ErrMessageNotFound
		}
		return nil, fmt.Errorf("find message: %w", err)
	}
	return &message, nil
}

func (r *postgresRepository) List(ctx context.Context, scope types.Scope) ([]models.Message, error) {
	query := `SELECT ` + messageColumns + `
		FROM messages
		WHERE ($1::boolean OR owner_id = $2)
		ORDER BY created_at DESC, id DESC`

	messages := []models.Message{}
	if err := r.client.Executor(ctx).SelectContext(ctx, &messages, query, scope.All, scope.OwnerID); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

func (r *postgresRepository) Count(ctx context.Context, scope types.Scope) (int, error) {
	var total int
	query := `SELECT COUNT(*) FROM messages WHERE ($1::boolean OR owner_id = $2)`
	if err := r.client.Executor(ctx).GetContext(ctx, &total, query, scope.All, scope.OwnerID); err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return total, nil
}

func (r *postgresRepository) Update(ctx context.Context, scope types.Scope, message *models.Message) error {
	message.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE messages
		SET subject = $1, body = $2, updated_at = $3
		WHERE id = $4 AND ($5::boolean OR owner_id = $6)
		RETURNING owner_id, created_at`

	row := r.client.Executor(ctx).QueryRowxContext(ctx, query,
		message.Subject, message.Body, message.UpdatedAt,
		message.ObjectId, scope.All, scope.OwnerID)
	if err := row.Scan(&message.OwnerID, &message.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return messageErrors.ErrMessageNotFound
		}
		return fmt.Errorf("update message: %w", err)
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, scope types.Scope, id uuid.UUID) error {
	query := `DELETE FROM messages WHERE id = $1 AND ($2::boolean OR owner_id = $3)`

	result, err := r.client.Executor(ctx).ExecContext(ctx, query, id, scope.All, scope.OwnerID)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return messageErrors.ErrMessageNotFound
	}
	return nil
}
