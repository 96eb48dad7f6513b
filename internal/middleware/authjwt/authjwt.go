package authjwt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/qolzam/mailer/internal/auth/tokens"
	"github.com/qolzam/mailer/internal/cache"
	"github.com/qolzam/mailer/internal/pkg/log"
	"github.com/qolzam/mailer/internal/types"
)

const (
	// TokenIDCtxName holds the jti of the presented token.
	TokenIDCtxName = "token_id"
	// TokenExpiryCtxName holds the expiry of the presented token as time.Time.
	TokenExpiryCtxName = "token_exp"
)

var (
	ErrTokenRevoked = errors.New("token has been revoked")
	ErrUserBlocked  = errors.New("user has been blocked")
	ErrMissingJTI   = errors.New("missing token id")
)

// Config defines the config for the JWT middleware.
type Config struct {
	// The EC public key for validating ES256 tokens.
	PublicKey string
	// The claim key where the UserContext is stored.
	ClaimKey string
	// The context key to store the UserContext.
	UserCtxName string
	// Optional cache service used for the revoked-token list
	CacheService *cache.GenericCacheService
}

// Validated is the result of a successful token check.
type Validated struct {
	User      types.UserContext
	TokenID   string
	ExpiresAt time.Time
}

// New creates a new middleware handler.
func New(cfg Config) fiber.Handler {
	ecPublicKey, err := jwt.ParseECPublicKeyFromPEM([]byte(cfg.PublicKey))
	if err != nil {
		panic(fmt.Sprintf("failed to parse EC public key: %v", err))
	}
	if cfg.ClaimKey == "" {
		cfg.ClaimKey = tokens.ClaimKey
	}
	if cfg.UserCtxName == "" {
		cfg.UserCtxName = types.UserCtxName
	}

	return func(c *fiber.Ctx) error {
		tokenString := extractToken(c)
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"code":    "UNAUTHORIZED",
				"message": "Missing or invalid JWT",
			})
		}

		v, err := validate(c.UserContext(), tokenString, ecPublicKey, cfg.ClaimKey, cfg.CacheService)
		if err != nil {
			message := "Invalid token"
			if errors.Is(err, ErrTokenRevoked) || errors.Is(err, ErrUserBlocked) {
				message = "Session has been invalidated."
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"code":    "UNAUTHORIZED",
				"message": message,
				"details": err.Error(),
			})
		}

		c.Locals(cfg.UserCtxName, v.User)
		c.Locals(TokenIDCtxName, v.TokenID)
		c.Locals(TokenExpiryCtxName, v.ExpiresAt)
		return c.Next()
	}
}

// extractToken reads the Authorization bearer header first, then the access_token cookie.
func extractToken(c *fiber.Ctx) string {
	authHeader := c.Get(types.HeaderAuthorization)
	if strings.HasPrefix(authHeader, types.BearerPrefix) {
		if token := strings.TrimSpace(strings.TrimPrefix(authHeader, types.BearerPrefix)); token != "" {
			return token
		}
	}
	return c.Cookies(types.AccessTokenName)
}

// ValidateToken validates a JWT token without touching any response.
func ValidateToken(ctx context.Context, tokenString, publicKey, claimKey string, revoked *cache.GenericCacheService) (*Validated, error) {
	ecPublicKey, err := jwt.ParseECPublicKeyFromPEM([]byte(publicKey))
	if err != nil {
		return nil, fmt.Errorf("failed to parse EC public key: %w", err)
	}
	return validate(ctx, tokenString, ecPublicKey, claimKey, revoked)
}

func validate(ctx context.Context, tokenString string, publicKey interface{}, claimKey string, revoked *cache.GenericCacheService) (*Validated, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Only ES256 keys are accepted.
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claimData, ok := claims[claimKey].(map[string]interface{})
	if !ok {
		return nil, errors.New("invalid token claim format")
	}

	jti, _ := claims["jti"].(string)
	if revoked.IsEnabled() {
		if jti == "" {
			return nil, ErrMissingJTI
		}
		exists, err := revoked.Exists(ctx, RevokedKey(jti))
		if err != nil {
			// Fail closed when the revocation list cannot be read.
			log.Warn("Revoked-token check failed for jti %s: %v", jti, err)
			return nil, fmt.Errorf("session validation failed: %w", err)
		}
		if exists {
			return nil, ErrTokenRevoked
		}
	}

	userCtx, err := mapToUserContext(claimData)
	if err != nil {
		return nil, fmt.Errorf("invalid user context in token: %w", err)
	}

	if revoked.IsEnabled() {
		blocked, err := revoked.Exists(ctx, BlockedKey(userCtx.UserID))
		if err != nil {
			log.Warn("Blocked-user check failed for %s: %v", userCtx.UserID, err)
			return nil, fmt.Errorf("session validation failed: %w", err)
		}
		if blocked {
			return nil, ErrUserBlocked
		}
	}

	v := &Validated{User: userCtx, TokenID: jti}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		v.ExpiresAt = exp.Time
	}
	return v, nil
}

// RevokedKey is the cache key marking a token id as revoked.
func RevokedKey(jti string) string {
	return "revoked:" + jti
}

// Revoke records jti as revoked until expiresAt. It is a no-op when the cache is disabled
// or the token has already expired.
func Revoke(ctx context.Context, revoked *cache.GenericCacheService, jti string, expiresAt time.Time) error {
	if !revoked.IsEnabled() || jti == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return revoked.CacheData(ctx, RevokedKey(jti), true, ttl)
}

// BlockedKey is the cache key marking every token of a user as rejected.
func BlockedKey(userID uuid.UUID) string {
	return "blocked:" + userID.String()
}

// Block rejects all tokens of userID for ttl, the longest lifetime an issued token can have.
func Block(ctx context.Context, revoked *cache.GenericCacheService, userID uuid.UUID, ttl time.Duration) error {
	if !revoked.IsEnabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = tokens.DefaultTTL
	}
	return revoked.CacheData(ctx, BlockedKey(userID), true, ttl)
}

// Unblock lifts a Block. Tokens revoked individually stay revoked.
func Unblock(ctx context.Context, revoked *cache.GenericCacheService, userID uuid.UUID) error {
	if !revoked.IsEnabled() {
		return nil
	}
	return revoked.InvalidateKey(ctx, BlockedKey(userID))
}

// mapToUserContext converts claim data to UserContext
func mapToUserContext(claimData map[string]interface{}) (types.UserContext, error) {
	var userCtx types.UserContext

	userIDStr, ok := claimData[types.HeaderUID].(string)
	if !ok {
		return userCtx, errors.New("missing or invalid uid in claim")
	}
	userID, err := uuid.FromString(userIDStr)
	if err != nil {
		return userCtx, fmt.Errorf("invalid user ID: %v", err)
	}
	userCtx.UserID = userID

	if username, ok := claimData["username"].(string); ok {
		userCtx.Username = username
	}
	if displayName, ok := claimData["displayName"].(string); ok {
		userCtx.DisplayName = displayName
	}
	if perms, ok := claimData["permissions"].([]interface{}); ok {
		for _, p := range perms {
			if name, ok := p.(string); ok {
				userCtx.Permissions = append(userCtx.Permissions, name)
			}
		}
	}
	if createdDate, ok := claimData["createdDate"].(float64); ok {
		userCtx.CreatedDate = int64(createdDate)
	}

	return userCtx, nil
}
