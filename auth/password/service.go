package password

import (
	"context"
	"fmt"
	"strings"

	authErrors "github.com/qolzam/mailer/auth/errors"
	"github.com/qolzam/mailer/auth/models"
	"github.com/qolzam/mailer/auth/notify"
	"github.com/qolzam/mailer/auth/repository"
	"github.com/qolzam/mailer/auth/security"
	"github.com/qolzam/mailer/auth/validation"
	"github.com/qolzam/mailer/internal/auth/tokens"
	"github.com/qolzam/mailer/internal/pkg/log"
)

type Service struct {
	repo   repository.UserRepository
	mailer *notify.Mailer
}

func NewService(repo repository.UserRepository, mailer *notify.Mailer) *Service {
	return &Service{repo: repo, mailer: mailer}
}

// RequestReset issues a new token for the account and mails the reset link.
// Any earlier pending token of the account stops working.
func (s *Service) RequestReset(ctx context.Context, email, remoteIP string) error {
	email = strings.TrimSpace(email)
	if err := validation.ValidateEmail(email); err != nil {
		return err
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		security.LogPasswordReset(email, "", remoteIP, false, false)
		return err
	}

	token, err := tokens.GenerateOpaqueToken(tokens.DefaultOpaqueLength)
	if err != nil {
		return fmt.Errorf("%w: %v", authErrors.ErrSystemError, err)
	}

	err = s.repo.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.repo.SetToken(txCtx, user.ObjectId, token.Hash); err != nil {
			return err
		}
		return s.mailer.SendReset(txCtx, user.Email, token.Plaintext)
	})
	if err != nil {
		security.LogPasswordReset(email, user.ObjectId.String(), remoteIP, false, false)
		return err
	}

	security.LogPasswordReset(email, user.ObjectId.String(), remoteIP, false, true)
	log.InfoWithContext(ctx, "[Password] reset link sent to user %s", user.ObjectId)
	return nil
}

// ConfirmReset sets a new password for the account holding the plaintext token and clears the token.
func (s *Service) ConfirmReset(ctx context.Context, token string, req ResetConfirmRequest, remoteIP string) (*models.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, authErrors.ErrTokenNotFound
	}
	tokenHash := tokens.HashToken(token)

	user, err := s.repo.FindByToken(ctx, tokenHash)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidatePasswordReset(user.Email, req.Password1, req.Password2); err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(req.Password1)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", authErrors.ErrSystemError, err)
	}

	updated, err := s.repo.ResetPassword(ctx, tokenHash, hash)
	if err != nil {
		return nil, err
	}
	security.LogPasswordReset("", updated.ObjectId.String(), remoteIP, true, true)
	return updated, nil
}
