// Package notify sends access notifications to provisioned users.
package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/chriswk/auth-app/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("NOTIFY")

var (
	CodeSendFailed     = ErrRegistry.Register("SEND_FAILED", errx.TypeExternal, http.StatusBadGateway, "Failed to send notification")
	CodeInvalidMessage = ErrRegistry.Register("INVALID_MESSAGE", errx.TypeValidation, http.StatusBadRequest, "Invalid notification message")
)

// EmailMessage is a single outbound email.
type EmailMessage struct {
	To       []string
	From     string
	Subject  string
	TextBody string
}

// Notifier sends a single email.
type Notifier interface {
	SendEmail(ctx context.Context, msg EmailMessage) error
}

// AccessGrantedMessage builds the notification sent when a user is granted
// access to an instance.
func AccessGrantedMessage(email, clientID string) EmailMessage {
	return EmailMessage{
		To:      []string{email},
		Subject: "You have been granted access",
		TextBody: fmt.Sprintf(
			"An administrator granted %s access to instance %s. Sign in with your work account to get started.",
			email, clientID,
		),
	}
}

// Validate checks the minimal message shape before handing it to a provider.
func (m EmailMessage) Validate() error {
	if len(m.To) == 0 {
		return ErrRegistry.New(CodeInvalidMessage).WithDetail("reason", "no recipients")
	}
	if m.Subject == "" {
		return ErrRegistry.New(CodeInvalidMessage).WithDetail("reason", "empty subject")
	}
	return nil
}
