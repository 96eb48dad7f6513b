package tokens

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/qolzam/mailer/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyPair(t *testing.T) (string, *ecdsa.PublicKey) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})), &key.PublicKey
}

func TestCreateTokenWithKey(t *testing.T) {
	privPEM, pub := keyPair(t)
	user := types.UserContext{
		UserID:      uuid.Must(uuid.NewV4()),
		Username:    "owner@example.com",
		Permissions: []string{types.PermDisableMailing},
	}

	issued, err := CreateTokenWithKey("mailer", map[string]string{"login": user.Username}, ClaimFromUser(user), privPEM, time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), issued.ExpiresAt, 5*time.Second)

	parsed, err := jwt.Parse(issued.Token, func(token *jwt.Token) (interface{}, error) { return pub, nil })
	require.NoError(t, err)
	assert.Equal(t, KeyID, parsed.Header["kid"])

	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, issued.ID, claims["jti"])
	claim := claims[ClaimKey].(map[string]interface{})
	assert.Equal(t, user.UserID.String(), claim[types.HeaderUID])
	assert.Equal(t, []interface{}{types.PermDisableMailing}, claim["permissions"])
}

func TestCreateTokenWithKey_BadKey(t *testing.T) {
	_, err := CreateTokenWithKey("mailer", nil, nil, "not a key", 0)
	assert.Error(t, err)
}

func TestOpaqueToken(t *testing.T) {
	tok, err := GenerateOpaqueToken(0)
	require.NoError(t, err)
	assert.Len(t, tok.Plaintext, 32)
	assert.True(t, MatchToken(tok.Plaintext, tok.Hash))
	assert.False(t, MatchToken("deadbeef", tok.Hash))

	other, err := GenerateOpaqueToken(DefaultOpaqueLength)
	require.NoError(t, err)
	assert.NotEqual(t, tok.Plaintext, other.Plaintext)
}
