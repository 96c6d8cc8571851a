package core

import "context"

type (
	SMSMessage struct {
		To   string // E.164 number
		Body string
	}

	// SMSService is any service that can send text messages.
	SMSService interface {
		// Send makes a single blocking delivery attempt.
		Send(ctx context.Context, msg SMSMessage) error
	}
)

func (m SMSMessage) HasRecipient() bool { return CleanString(m.To) != "" }
