package tokens

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/qolzam/mailer/internal/types"
)

const (
	// ClaimKey is the top-level JWT field holding the user claim map.
	ClaimKey = "claim"
	// KeyID is written to the "kid" header of every access token.
	KeyID = "mailer-auth-key-1"
	// DefaultTTL is the access token lifetime.
	DefaultTTL = 48 * time.Hour
)

// SessionClaims is the access token envelope containing the user Claim
type SessionClaims struct {
	Name  string                 `json:"name"`
	Claim map[string]interface{} `json:"claim"`
	jwt.RegisteredClaims
}

// Issued describes a freshly signed access token.
type Issued struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// ClaimFromUser builds the claim map read back by the JWT middleware.
func ClaimFromUser(u types.UserContext) map[string]interface{} {
	permissions := u.Permissions
	if permissions == nil {
		permissions = []string{}
	}
	return map[string]interface{}{
		types.HeaderUID: u.UserID.String(),
		"username":      u.Username,
		"displayName":   u.DisplayName,
		"permissions":   permissions,
		"createdDate":   u.CreatedDate,
	}
}

// CreateTokenWithKey creates an ES256 signed JWT for the given claim.
// A zero ttl falls back to DefaultTTL.
func CreateTokenWithKey(issuer string, profile map[string]string, claim map[string]interface{}, privateKeyPEM string, ttl time.Duration) (*Issued, error) {
	privateKey, err := jwt.ParseECPrivateKeyFromPEM([]byte(privateKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("unable to parse private key: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := time.Now()
	jti := uuid.Must(uuid.NewV4()).String()
	expiresAt := now.Add(ttl)
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   profile["login"],
		},
		Name:  profile["name"],
		Claim: claim,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = KeyID

	signed, err := token.SignedString(privateKey)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Issued{Token: signed, ID: jti, ExpiresAt: expiresAt}, nil
}
