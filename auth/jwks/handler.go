package jwks

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/qolzam/mailer/auth/errors"
	"github.com/qolzam/mailer/internal/pkg/log"
)

// Handler publishes the access-token verification key
type Handler struct {
	set *JWKS
	err error
}

// JWKS represents a JSON Web Key Set
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK represents a JSON Web Key
type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
}

// NewHandler parses publicKey once. An empty keyID is derived from the DER encoding of the key.
// A bad key does not fail startup; the endpoint answers 500 instead.
func NewHandler(publicKey, keyID string) *Handler {
	set, err := buildSet(publicKey, keyID)
	if err != nil {
		log.Warn("[JWKS] verification key is unusable: %v", err)
	}
	return &Handler{set: set, err: err}
}

func buildSet(publicKey, keyID string) (*JWKS, error) {
	block, _ := pem.Decode([]byte(publicKey))
	if block == nil {
		return nil, fmt.Errorf("failed to parse public key")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	ecdsaKey, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is not ECDSA")
	}
	if keyID == "" {
		sum := sha256.Sum256(block.Bytes)
		keyID = base64.RawURLEncoding.EncodeToString(sum[:8])
	}

	size := (ecdsaKey.Curve.Params().BitSize + 7) / 8
	return &JWKS{Keys: []JWK{{
		Kty: "EC",
		Use: "sig",
		Kid: keyID,
		Alg: "ES256",
		Crv: ecdsaKey.Curve.Params().Name,
		X:   base64.RawURLEncoding.EncodeToString(ecdsaKey.X.FillBytes(make([]byte, size))),
		Y:   base64.RawURLEncoding.EncodeToString(ecdsaKey.Y.FillBytes(make([]byte, size))),
	}}}, nil
}

// Handle serves GET /.well-known/jwks.json
func (h *Handler) Handle(c *fiber.Ctx) error {
	if h.err != nil {
		return errors.HandleSystemError(c, "Verification key is not available")
	}
	c.Set(fiber.HeaderCacheControl, "public, max-age=3600")
	return c.JSON(h.set)
}
