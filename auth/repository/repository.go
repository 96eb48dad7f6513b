// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository

import (
	"context"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/mailer/auth/models"
)

// UserRepository defines the database operations on accounts and their group permissions.
// Token arguments are always the stored hash, never the emailed plaintext.
type UserRepository interface {
	// CreateUser inserts a new account. A duplicate email returns ErrUserAlreadyExists.
	CreateUser(ctx context.Context, user *models.User) error

	// FindByEmail retrieves a user by email, case-insensitively
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByID retrieves a user by ID
	FindByID(ctx context.Context, userID uuid.UUID) (*models.User, error)

	// FindByToken retrieves the user holding a pending confirm or reset token
	FindByToken(ctx context.Context, tokenHash string) (*models.User, error)

	// SetToken replaces the user's pending token
	SetToken(ctx context.Context, userID uuid.UUID, tokenHash string) error

	// ConfirmEmail activates the user holding tokenHash and clears the token
	ConfirmEmail(ctx context.Context, tokenHash string) (*models.User, error)

	// ResetPassword stores a new password hash for the user holding tokenHash and clears the token
	ResetPassword(ctx context.Context, tokenHash string, passwordHash []byte) (*models.User, error)

	// SetActive blocks or unblocks a user
	SetActive(ctx context.Context, userID uuid.UUID, active bool) error

	// List returns every user in creation order
	List(ctx context.Context) ([]models.User, error)

	// AddToGroup adds the user to a permission group
	AddToGroup(ctx context.Context, userID uuid.UUID, group string) error

	// Permissions returns the distinct permissions granted through the user's groups
	Permissions(ctx context.Context, userID uuid.UUID) ([]string, error)

	// WithTransaction executes a function within a database transaction
	WithTransaction(ctx context.Context, fn func(context.Context) error) error
}
