package models

import (
	mailingModels "github.com/qolzam/mailer/mailings/models"
	messageModels "github.com/qolzam/mailer/messages/models"
	recipientModels "github.com/qolzam/mailer/recipients/models"
)

// Dashboard is the caller's overview: every record they can see, with totals.
type Dashboard struct {
	Mailings        []mailingModels.Mailing     `json:"mailings"`
	Recipients      []recipientModels.Recipient `json:"recipients"`
	Messages        []messageModels.Message     `json:"messages"`
	MailingsTotal   int                         `json:"mailingsTotal"`
	RecipientsTotal int                         `json:"recipientsTotal"`
	MessagesTotal   int                         `json:"messagesTotal"`
	// ActiveMailings counts mailings in Started status.
	ActiveMailings int  `json:"activeMailings"`
	AllOwners      bool `json:"allOwners"`
}
