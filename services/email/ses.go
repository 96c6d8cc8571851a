package emailsvc

import (
	"context"
	"net/mail"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/marksheet/core"
)

type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESService sends raw MIME messages (attachments included) through Amazon SES.
type SESService struct {
	client     sesAPI
	from       mail.Address
	subjPrefix string
}

var _ core.EmailService = (*SESService)(nil)

// NewSESService loads AWS credentials from the default chain (environment, shared config, role).
func NewSESService(ctx context.Context, conf *core.Config) (*SESService, error) {
	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(conf.SES.Region, "ses.region"),
		vala.StringNotEmpty(conf.Notify.FromEmail.Address, "notify.fromEmail"),
	).Check(); err != nil {
		return nil, errors.Wrap(err, "ses")
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(conf.SES.Region))
	if err != nil {
		return nil, errors.Wrap(err, "loading AWS config")
	}
	return newSESService(sesv2.NewFromConfig(cfg), conf), nil
}

func newSESService(client sesAPI, conf *core.Config) *SESService {
	return &SESService{
		client:     client,
		from:       conf.Notify.FromEmail,
		subjPrefix: subjectPrefix(conf.AppName),
	}
}

func (svc *SESService) Send(ctx context.Context, msg *core.EmailMessage) error {
	if !msg.HasRecipients() || !(msg.HasContent() || msg.HasAttachments()) {
		return errors.New("email has no recipient or content")
	}

	raw, err := buildMIME(svc.from, svc.subjPrefix+msg.Subject, msg, time.Now())
	if err != nil {
		return errors.Wrap(err, "building email")
	}

	_, err = svc.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(svc.from.Address),
		Destination:      &types.Destination{ToAddresses: recipients(msg)},
		Content:          &types.EmailContent{Raw: &types.RawMessage{Data: raw}},
	})
	if err != nil {
		return core.TransportError(err, "ses")
	}
	return nil
}
