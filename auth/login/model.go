package login

import (
	"time"

	"github.com/qolzam/mailer/auth/models"
)

type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`

	RemoteIpAddress string `json:"-" form:"-"`
	UserAgent       string `json:"-" form:"-"`
}

// Session is a freshly issued access token and the user it belongs to.
type Session struct {
	User        models.UserSummary `json:"user"`
	AccessToken string             `json:"accessToken"`
	TokenType   string             `json:"tokenType"`
	ExpiresAt   time.Time          `json:"expiresAt"`
	Permissions []string           `json:"permissions"`
}
