package smssvc

import (
	"context"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/trezcool/marksheet/core"
)

type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

type TwilioService struct {
	api  messageCreator
	from string
}

var _ core.SMSService = (*TwilioService)(nil)

func NewTwilioService(conf *core.Config) (*TwilioService, error) {
	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(conf.Twilio.AccountSID, "twilio.account_sid"),
		vala.StringNotEmpty(conf.Twilio.AuthToken, "twilio.auth_token"),
		vala.StringNotEmpty(conf.Twilio.From, "twilio.from"),
	).Check(); err != nil {
		return nil, errors.Wrap(err, "twilio")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: conf.Twilio.AccountSID,
		Password: conf.Twilio.AuthToken,
	})
	if conf.Notify.Timeout > 0 {
		client.SetTimeout(conf.Notify.Timeout)
	}
	return &TwilioService{api: client.Api, from: conf.Twilio.From}, nil
}

// Send posts one message. The client has no context support: ctx is only checked
// before the call and the request itself is bounded by the client timeout.
func (svc *TwilioService) Send(ctx context.Context, msg core.SMSMessage) error {
	if !msg.HasRecipient() {
		return errors.New("sms has no recipient")
	}
	if err := ctx.Err(); err != nil {
		return core.TransportError(err, "twilio")
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(msg.To)
	params.SetFrom(svc.from)
	params.SetBody(msg.Body)

	if _, err := svc.api.CreateMessage(params); err != nil {
		return core.TransportError(err, "twilio")
	}
	return nil
}
