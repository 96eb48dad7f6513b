package models

import (
	"time"

	"github.com/gofrs/uuid"
)

// User is an account of the service. Token holds the hash of the pending
// confirm or reset link and is empty otherwise.
type User struct {
	ObjectId     uuid.UUID `json:"objectId" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash []byte    `json:"-" db:"password_hash"`
	IsActive     bool      `json:"isActive" db:"is_active"`
	Token        *string   `json:"-" db:"token"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// UserSummary is the public view of a user returned by list endpoints.
type UserSummary struct {
	ObjectId  uuid.UUID `json:"objectId"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// Summary returns the public view of u.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ObjectId:  u.ObjectId,
		Email:     u.Email,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}
