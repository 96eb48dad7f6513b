package security

import (
	"golang.org/x/crypto/bcrypt"
)

// HashCost is the bcrypt cost used for new password hashes. Tests lower it.
var HashCost = bcrypt.DefaultCost

// HashPassword returns the bcrypt hash of password
func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), HashCost)
}

// ComparePassword reports whether password matches hashed
func ComparePassword(hashed []byte, password string) bool {
	return bcrypt.CompareHashAndPassword(hashed, []byte(password)) == nil
}
