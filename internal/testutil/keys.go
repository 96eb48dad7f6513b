package testutil

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/qolzam/mailer/internal/auth/tokens"
	"github.com/qolzam/mailer/internal/types"
	"github.com/stretchr/testify/require"
)

// GenerateECDSAKeyPairPEM generates a P-256 key pair for signing test tokens.
// Returns (publicKeyPEM, privateKeyPEM).
func GenerateECDSAKeyPairPEM(t *testing.T) (string, string) {
	t.Helper()

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err, "Failed to generate ECDSA private key")

	privBytes, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err, "Failed to marshal ECDSA private key")
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privBytes})

	pubBytes, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err, "Failed to marshal ECDSA public key")
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})

	return string(pubPEM), string(privPEM)
}

// GenerateTestJWT signs a one-hour access token for userCtx.
func GenerateTestJWT(t *testing.T, privateKeyPEM string, userCtx types.UserContext) string {
	t.Helper()
	issued, err := tokens.CreateTokenWithKey("mailer-test", map[string]string{"login": userCtx.Username}, tokens.ClaimFromUser(userCtx), privateKeyPEM, time.Hour)
	require.NoError(t, err, "failed to generate test JWT")
	return issued.Token
}
