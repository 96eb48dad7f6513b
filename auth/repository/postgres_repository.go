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
	"strings"
	"time"

	uuid "github.com/gofrs/uuid"
	"github.com/lib/pq"
	authErrors "github.com/qolzam/mailer/auth/errors"
	"github.com/qolzam/mailer/auth/models"
	"github.com/qolzam/mailer/internal/database/postgres"
)

const userColumns = `id, email, password_hash, is_active, token, created_at, updated_at`

// uniqueViolation is the PostgreSQL error code for unique_violation
const uniqueViolation = "23505"

// postgresUserRepository implements UserRepository using raw SQL queries
type postgresUserRepository struct {
	client *postgres.Client
}

// NewPostgresUserRepository creates a new PostgreSQL repository for accounts
func NewPostgresUserRepository(client *postgres.Client) UserRepository {
	return &postgresUserRepository{
		client: client,
	}
}

// CreateUser inserts a new account
func (r *postgresUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	if user.ObjectId == uuid.Nil {
		user.ObjectId = uuid.Must(uuid.NewV4())
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (id, email, password_hash, is_active, token, created_at, updated_at)
		VALUES (:id, :email, :password_hash, :is_active, :token, :created_at, :updated_at)`

	if _, err := r.client.Executor(ctx).NamedExecContext(ctx, query, user); err != nil {
		if isUniqueViolation(err) {
			return authErrors.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByEmail retrieves a user by email
func (r *postgresUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return r.findOne(ctx, "email", query, strings.TrimSpace(email))
}

// FindByID retrieves a user by ID
func (r *postgresUserRepository) FindByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.findOne(ctx, "id", query, userID)
}

// FindByToken retrieves the user holding tokenHash
func (r *postgresUserRepository) FindByToken(ctx context.Context, tokenHash string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE token = $1`
	user, err := r.findOne(ctx, "token", query, tokenHash)
	if errors.Is(err, authErrors.ErrUserNotFound) {
		return nil, authErrors.ErrTokenNotFound
	}
	return user, err
}

func (r *postgresUserRepository) findOne(ctx context.Context, by, query string, arg interface{}) (*models.User, error) {
	var user models.User
	if err := r.client.Executor(ctx).GetContext(ctx, &user, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authErrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by %s: %w", by, err)
	}
	return &user, nil
}

// SetToken replaces the user's pending token
func (r *postgresUserRepository) SetToken(ctx context.Context, userID uuid.UUID, tokenHash string) error {
	query := `UPDATE users SET token = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.client.Executor(ctx).ExecContext(ctx, query, tokenHash, userID)
	if err != nil {
		return fmt.Errorf("failed to set token: %w", err)
	}
	return expectOne(result, authErrors.ErrUserNotFound)
}

// ConfirmEmail activates the user holding tokenHash
func (r *postgresUserRepository) ConfirmEmail(ctx context.Context, tokenHash string) (*models.User, error) {
	query := `
		UPDATE users
		SET is_active = TRUE, token = NULL, updated_at = NOW()
		WHERE token = $1
		RETURNING ` + userColumns

	return r.updateByToken(ctx, "confirm email", query, tokenHash)
}

// ResetPassword stores passwordHash for the user holding tokenHash
func (r *postgresUserRepository) ResetPassword(ctx context.Context, tokenHash string, passwordHash []byte) (*models.User, error) {
	query := `
		UPDATE users
		SET password_hash = $2, token = NULL, updated_at = NOW()
		WHERE token = $1
		RETURNING ` + userColumns

	return r.updateByToken(ctx, "reset password", query, tokenHash, passwordHash)
}

func (r *postgresUserRepository) updateByToken(ctx context.Context, op, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	if err := r.client.Executor(ctx).QueryRowxContext(ctx, query, args...).StructScan(&user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authErrors.ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return &user, nil
}

// SetActive blocks or unblocks a user
func (r *postgresUserRepository) SetActive(ctx context.Context, userID uuid.UUID, active bool) error {
	query := `UPDATE users SET is_active = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.client.Executor(ctx).ExecContext(ctx, query, active, userID)
	if err != nil {
		return fmt.Errorf("failed to update active flag: %w", err)
	}
	return expectOne(result, authErrors.ErrUserNotFound)
}

// List returns every user in creation order
func (r *postgresUserRepository) List(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC, id ASC`

	users := []models.User{}
	if err := r.client.Executor(ctx).SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// AddToGroup adds the user to group. Adding twice is a no-op.
func (r *postgresUserRepository) AddToGroup(ctx context.Context, userID uuid.UUID, group string) error {
	query := `
		INSERT INTO user_groups (user_id, group_name)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	if _, err := r.client.Executor(ctx).ExecContext(ctx, query, userID, group); err != nil {
		return fmt.Errorf("failed to add user to group %s: %w", group, err)
	}
	return nil
}

// Permissions returns the distinct permissions granted through the user's groups
func (r *postgresUserRepository) Permissions(ctx context.Context, userID uuid.UUID) ([]string, error) {
	query := `
		SELECT DISTINCT gp.permission
		FROM user_groups ug
		JOIN group_permissions gp ON gp.group_name = ug.group_name
		WHERE ug.user_id = $1
		ORDER BY gp.permission`

	permissions := []string{}
	if err := r.client.Executor(ctx).SelectContext(ctx, &permissions, query, userID); err != nil {
		return nil, fmt.Errorf("failed to load permissions: %w", err)
	}
	return permissions, nil
}

// WithTransaction executes a function within a database transaction
func (r *postgresUserRepository) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	return r.client.WithTransaction(ctx, fn)
}

func expectOne(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}
