package signup

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	authErrors "github.com/qolzam/mailer/auth/errors"
	"github.com/qolzam/mailer/auth/models"
	"github.com/qolzam/mailer/auth/notify"
	"github.com/qolzam/mailer/auth/repository"
	"github.com/qolzam/mailer/auth/security"
	"github.com/qolzam/mailer/auth/validation"
	"github.com/qolzam/mailer/internal/auth/tokens"
	"github.com/qolzam/mailer/internal/pkg/log"
	"github.com/qolzam/mailer/internal/types"
)

type Service struct {
	repo   repository.UserRepository
	mailer *notify.Mailer
}

func NewService(repo repository.UserRepository, mailer *notify.Mailer) *Service {
	return &Service{repo: repo, mailer: mailer}
}

// Register creates an inactive account in the default group and mails its confirmation link.
// The account is rolled back when the link cannot be sent.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	email := strings.TrimSpace(req.Email)
	if err := validation.ValidateRegistration(email, req.Password1, req.Password2); err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(req.Password1)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", authErrors.ErrSystemError, err)
	}
	token, err := tokens.GenerateOpaqueToken(tokens.DefaultOpaqueLength)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", authErrors.ErrSystemError, err)
	}

	user := &models.User{
		ObjectId:     uuid.Must(uuid.NewV4()),
		Email:        email,
		PasswordHash: hash,
		IsActive:     false,
		Token:        &token.Hash,
	}

	err = s.repo.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.repo.CreateUser(txCtx, user); err != nil {
			return err
		}
		if err := s.repo.AddToGroup(txCtx, user.ObjectId, types.DefaultUserGroup); err != nil {
			return err
		}
		return s.mailer.SendConfirm(txCtx, user.Email, token.Plaintext)
	})
	if err != nil {
		security.LogSignup(email, "", req.RemoteIpAddress, false, errorCode(err))
		if authErrors.IsKnown(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", authErrors.ErrDatabaseError, err)
	}

	security.LogSignup(email, user.ObjectId.String(), req.RemoteIpAddress, true, "")
	log.InfoWithContext(ctx, "[Signup] registered user %s", user.ObjectId)
	return user, nil
}

// ConfirmEmail activates the account holding the plaintext token.
func (s *Service) ConfirmEmail(ctx context.Context, token, remoteIP string) (*models.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, authErrors.ErrTokenNotFound
	}
	user, err := s.repo.ConfirmEmail(ctx, tokens.HashToken(token))
	if err != nil {
		security.LogEmailConfirm("", remoteIP, false)
		return nil, err
	}
	security.LogEmailConfirm(user.ObjectId.String(), remoteIP, true)
	return user, nil
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, authErrors.ErrUserAlreadyExists):
		return authErrors.CodeUserAlreadyExists
	case errors.Is(err, authErrors.ErrSystemError):
		return authErrors.CodeSystemError
	default:
		return authErrors.CodeDatabaseError
	}
}
