// Package notifyconsole logs notifications instead of sending them, for
// development and tests.
package notifyconsole

import (
	"context"

	"github.com/chriswk/auth-app/pkg/logx"
	"github.com/chriswk/auth-app/pkg/notify"
)

// ConsoleNotifier implements notify.Notifier by logging the message.
type ConsoleNotifier struct{}

func NewConsoleNotifier() *ConsoleNotifier {
	return &ConsoleNotifier{}
}

func (n *ConsoleNotifier) SendEmail(_ context.Context, msg notify.EmailMessage) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	logx.WithFields(logx.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("Notification (console): " + msg.TextBody)
	return nil
}
