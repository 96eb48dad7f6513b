package services

import (
	"context"
	"fmt"

	"github.com/qolzam/mailer/internal/types"
	mailingModels "github.com/qolzam/mailer/mailings/models"
	messageModels "github.com/qolzam/mailer/messages/models"
	profileErrors "github.com/qolzam/mailer/profile/errors"
	"github.com/qolzam/mailer/profile/models"
	recipientModels "github.com/qolzam/mailer/recipients/models"
)

type RecipientLister interface {
	List(ctx context.Context, user types.UserContext) (*recipientModels.RecipientsListResponse, error)
}

type MessageLister interface {
	List(ctx context.Context, user types.UserContext) (*messageModels.MessagesListResponse, error)
}

type MailingLister interface {
	List(ctx context.Context, user types.UserContext) (*mailingModels.MailingsListResponse, error)
}

// Service builds the profile dashboard from the cached list views of each record type.
type Service interface {
	Dashboard(ctx context.Context, user types.UserContext) (*models.Dashboard, error)
}

type service struct {
	recipients RecipientLister
	messages   MessageLister
	mailings   MailingLister
}

func NewService(recipients RecipientLister, messages MessageLister, mailings MailingLister) Service {
	return &service{recipients: recipients, messages: messages, mailings: mailings}
}

func (s *service) Dashboard(ctx context.Context, user types.UserContext) (*models.Dashboard, error) {
	mailings, err := s.mailings.List(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%w: mailings: %v", profileErrors.ErrDatabaseOperation, err)
	}
	recipients, err := s.recipients.List(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%w: recipients: %v", profileErrors.ErrDatabaseOperation, err)
	}
	messages, err := s.messages.List(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%w: messages: %v", profileErrors.ErrDatabaseOperation, err)
	}

	dashboard := &models.Dashboard{
		Mailings:        mailings.Mailings,
		Recipients:      recipients.Recipients,
		Messages:        messages.Messages,
		MailingsTotal:   mailings.Total,
		RecipientsTotal: recipients.Total,
		MessagesTotal:   messages.Total,
		AllOwners:       user.SeesAll(),
	}
	for _, m := range mailings.Mailings {
		if m.Status == mailingModels.StatusStarted {
			dashboard.ActiveMailings++
		}
	}
	return dashboard, nil
}
