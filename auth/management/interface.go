package management

import (
	"context"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/mailer/auth/models"
	"github.com/qolzam/mailer/internal/types"
)

// UserManagement defines the user list and the block/unblock actions
type UserManagement interface {
	ListUsers(ctx context.Context) ([]models.UserSummary, error)
	SetUserActive(ctx context.Context, actor types.UserContext, userID uuid.UUID, active bool) error
}
