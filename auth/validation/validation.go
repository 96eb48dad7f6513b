// Package validation checks account form input: email addresses and new passwords.
package validation

import (
	"strings"

	gopass "github.com/nbutton23/zxcvbn-go"
	formvalidation "github.com/qolzam/mailer/internal/validation"
)

const (
	// MinPasswordLength is the shortest accepted password
	MinPasswordLength = 8
	// MinPasswordScore is the lowest accepted zxcvbn score (0-4)
	MinPasswordScore = 3
	// MinPasswordEntropy is the lowest accepted zxcvbn entropy in bits
	MinPasswordEntropy = 37
)

// StrongPassword rejects passwords zxcvbn rates as guessable.
// userInputs (such as the email) are penalised when they appear in the password.
func StrongPassword(userInputs ...string) formvalidation.Rule {
	return func(value string) string {
		strength := gopass.PasswordStrength(value, userInputs)
		if strength.Score < MinPasswordScore || strength.Entropy < MinPasswordEntropy {
			return "password is not strong enough"
		}
		return ""
	}
}

// passwordPair applies the new-password rules to password1 and the match rule to password2.
func passwordPair(form *formvalidation.Form, password1, password2 string, userInputs ...string) {
	form.Field("password1", password1,
		formvalidation.Required(),
		formvalidation.MinLen(MinPasswordLength),
		formvalidation.MaxLen(128),
		StrongPassword(userInputs...),
	)
	form.Field("password2", password2, formvalidation.Required())
	if password2 != "" {
		form.Check(password1 == password2, "password2", "the two password fields didn't match")
	}
}

// ValidateRegistration checks a registration form
func ValidateRegistration(email, password1, password2 string) error {
	form := formvalidation.NewForm()
	form.Field("email", strings.TrimSpace(email),
		formvalidation.Required(),
		formvalidation.MaxLen(254),
		formvalidation.Email(),
	)
	passwordPair(form, password1, password2, emailInputs(email)...)
	return form.Err()
}

// ValidatePasswordReset checks the new password pair of a reset confirmation
func ValidatePasswordReset(email, password1, password2 string) error {
	form := formvalidation.NewForm()
	passwordPair(form, password1, password2, emailInputs(email)...)
	return form.Err()
}

// ValidateEmail checks a single email field, as sent to the reset request
func ValidateEmail(email string) error {
	return formvalidation.NewForm().
		Field("email", strings.TrimSpace(email), formvalidation.Required(), formvalidation.Email()).
		Err()
}

// ValidateLogin checks that both credentials are present
func ValidateLogin(email, password string) error {
	return formvalidation.NewForm().
		Field("email", strings.TrimSpace(email), formvalidation.Required()).
		Field("password", password, formvalidation.Required()).
		Err()
}

func emailInputs(email string) []string {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}
	inputs := []string{email}
	if at := strings.Index(email, "@"); at > 0 {
		inputs = append(inputs, email[:at])
	}
	return inputs
}
