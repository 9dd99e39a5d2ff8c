// Package notifyses sends notifications through AWS SES.
package notifyses

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/chriswk/auth-app/pkg/notify"
)

// SESNotifier implements notify.Notifier using AWS SES.
type SESNotifier struct {
	client      *ses.Client
	fromAddress string
}

// NewSESNotifier creates an SES-backed notifier sending from fromAddress
// unless the message sets its own sender.
func NewSESNotifier(client *ses.Client, fromAddress string) *SESNotifier {
	return &SESNotifier{
		client:      client,
		fromAddress: fromAddress,
	}
}

func (n *SESNotifier) SendEmail(ctx context.Context, msg notify.EmailMessage) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	from := msg.From
	if from == "" {
		from = n.fromAddress
	}

	input := &ses.SendEmailInput{
		Source:      aws.String(from),
		Destination: &types.Destination{ToAddresses: msg.To},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(msg.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data:    aws.String(msg.TextBody),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	if _, err := n.client.SendEmail(ctx, input); err != nil {
		return notify.ErrRegistry.NewWithCause(notify.CodeSendFailed, err).
			WithDetail("to", msg.To).
			WithDetail("subject", msg.Subject)
	}
	return nil
}
