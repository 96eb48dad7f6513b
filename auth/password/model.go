package password

type ResetRequest struct {
	Email string `json:"email" form:"email"`
}

type ResetConfirmRequest struct {
	Password1 string `json:"password1" form:"password1"`
	Password2 string `json:"password2" form:"password2"`
}
