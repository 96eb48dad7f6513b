package signup

import "github.com/qolzam/mailer/auth/models"

// RegisterRequest is the registration form, accepted as JSON or form data.
type RegisterRequest struct {
	Email     string `json:"email" form:"email"`
	Password1 string `json:"password1" form:"password1"`
	Password2 string `json:"password2" form:"password2"`

	RemoteIpAddress string `json:"-" form:"-"`
}

// RegisterResponse is returned once the account exists and the confirm link is sent.
type RegisterResponse struct {
	User    models.UserSummary `json:"user"`
	Message string             `json:"message"`
}
