package login

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	authErrors "github.com/qolzam/mailer/auth/errors"
	"github.com/qolzam/mailer/auth/repository"
	"github.com/qolzam/mailer/auth/security"
	"github.com/qolzam/mailer/auth/validation"
	"github.com/qolzam/mailer/internal/auth/tokens"
	"github.com/qolzam/mailer/internal/pkg/log"
	platformconfig "github.com/qolzam/mailer/internal/platform/config"
	"github.com/qolzam/mailer/internal/types"
)

type Service struct {
	repo   repository.UserRepository
	config *ServiceConfig
}

type ServiceConfig struct {
	JWTConfig platformconfig.JWTConfig
	AppConfig platformconfig.AppConfig
	// TokenTTL is the access token lifetime; zero means tokens.DefaultTTL
	TokenTTL time.Duration
}

// NewService creates a service with UserRepository injected
func NewService(repo repository.UserRepository, config *ServiceConfig) *Service {
	return &Service{
		repo:   repo,
		config: config,
	}
}

// Login checks the credentials and issues an ES256 access token carrying the user's permissions.
// Inactive users are rejected only after their password matched.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	email := strings.TrimSpace(req.Email)
	if err := validation.ValidateLogin(email, req.Password); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, authErrors.ErrUserNotFound) {
			security.LogLoginAttempt(email, "", req.RemoteIpAddress, req.UserAgent, false, authErrors.CodeUserNotFound)
			return nil, authErrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %v", authErrors.ErrDatabaseError, err)
	}

	if !security.ComparePassword(user.PasswordHash, req.Password) {
		security.LogLoginAttempt(email, user.ObjectId.String(), req.RemoteIpAddress, req.UserAgent, false, authErrors.CodeInvalidCredentials)
		return nil, authErrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		security.LogLoginAttempt(email, user.ObjectId.String(), req.RemoteIpAddress, req.UserAgent, false, authErrors.CodeUserInactive)
		return nil, authErrors.ErrUserInactive
	}

	permissions, err := s.repo.Permissions(ctx, user.ObjectId)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", authErrors.ErrDatabaseError, err)
	}

	userCtx := types.UserContext{
		UserID:      user.ObjectId,
		Username:    user.Email,
		DisplayName: user.Email,
		Permissions: permissions,
		CreatedDate: user.CreatedAt.Unix(),
	}
	profileInfo := map[string]string{
		"id":       user.ObjectId.String(),
		"login":    user.Email,
		"name":     user.Email,
		"audience": s.config.AppConfig.WebDomain,
	}

	issued, err := tokens.CreateTokenWithKey(s.config.AppConfig.Name, profileInfo,
		tokens.ClaimFromUser(userCtx), s.config.JWTConfig.PrivateKey, s.config.TokenTTL)
	if err != nil {
		log.ErrorWithContext(ctx, "[Login] token creation failed for %s: %v", user.ObjectId, err)
		return nil, fmt.Errorf("%w: %v", authErrors.ErrSystemError, err)
	}

	security.LogLoginAttempt(email, user.ObjectId.String(), req.RemoteIpAddress, req.UserAgent, true, "")
	return &Session{
		User:        user.Summary(),
		AccessToken: issued.Token,
		TokenType:   "Bearer",
		ExpiresAt:   issued.ExpiresAt,
		Permissions: permissions,
	}, nil
}
