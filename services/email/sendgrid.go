package emailsvc

import (
	"context"
	"net/http"
	"net/mail"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/trezcool/marksheet/core"
)

const sendgridEndpoint = "/v3/mail/send"

type SendgridService struct {
	key        string
	host       string
	from       *sgmail.Email
	subjPrefix string
	client     *rest.Client
}

var _ core.EmailService = (*SendgridService)(nil)

// NewSendgridService fails when the API key is missing.
func NewSendgridService(conf *core.Config) (*SendgridService, error) {
	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(conf.Sendgrid.APIKey, "sendgrid.api_key"),
		vala.StringNotEmpty(conf.Sendgrid.Host, "sendgrid.host"),
	).Check(); err != nil {
		return nil, errors.Wrap(err, "sendgrid")
	}

	from := conf.Notify.FromEmail
	return &SendgridService{
		key:        conf.Sendgrid.APIKey,
		host:       conf.Sendgrid.Host,
		from:       sgmail.NewEmail(from.Name, from.Address),
		subjPrefix: subjectPrefix(conf.AppName),
		client:     &rest.Client{HTTPClient: &http.Client{Timeout: conf.Notify.Timeout}},
	}, nil
}

func (svc *SendgridService) Send(ctx context.Context, msg *core.EmailMessage) error {
	if !msg.HasRecipients() || !(msg.HasContent() || msg.HasAttachments()) {
		return errors.New("email has no recipient or content")
	}

	req := sendgrid.GetRequest(svc.key, sendgridEndpoint, svc.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(svc.prepare(msg))

	res, err := svc.client.SendWithContext(ctx, req)
	if err != nil {
		return core.TransportError(err, "sendgrid")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return errors.Wrapf(core.ErrTransportFailure, "sendgrid: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

func (svc *SendgridService) prepare(msg *core.EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = svc.subjPrefix + msg.Subject

	for _, to := range msg.To {
		p.AddTos(svc.getSGEmail(to))
	}
	for _, cc := range msg.Cc {
		p.AddCCs(svc.getSGEmail(cc))
	}
	for _, bcc := range msg.Bcc {
		p.AddBCCs(svc.getSGEmail(bcc))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(svc.from)
	m.AddPersonalizations(p)

	// text/plain must come first
	m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}

	for _, a := range msg.Attachments {
		m.AddAttachment(svc.getSGAttachment(a))
	}
	return m
}

func (svc *SendgridService) getSGEmail(addr mail.Address) *sgmail.Email {
	return sgmail.NewEmail(addr.Name, addr.Address)
}

func (svc *SendgridService) getSGAttachment(at core.Attachment) *sgmail.Attachment {
	return &sgmail.Attachment{
		Content:     at.Base64(),
		Type:        at.ContentType,
		Filename:    at.Filename,
		Disposition: "attachment",
	}
}
