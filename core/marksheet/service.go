package marksheet

import (
	"bytes"
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/marksheet/core"
)

const (
	emailSubject  = "Student Marksheet"
	emailTemplate = "marksheet"
	pdfType       = "application/pdf"
)

// Channels
const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

type (
	Channel string

	// Layout holds the presentation-only inputs of the printed marksheet.
	Layout struct {
		Institute string
		Photo     []byte // PNG or JPEG
	}

	// Renderer turns a report into a printable document.
	Renderer interface {
		Render(ctx context.Context, r Report, layout Layout) ([]byte, error)
	}

	// SubmissionLog records generated marksheets. It is append-only.
	SubmissionLog interface {
		Append(ctx context.Context, r Report, at time.Time) error
	}

	Request struct {
		Submission Submission
		Layout     Layout
		Notify     []Channel
	}

	Delivery struct {
		Channel Channel `json:"channel"`
		OK      bool    `json:"ok"`
		Message string  `json:"error,omitempty"`
		Err     error   `json:"-"`
	}

	Result struct {
		Report     Report
		PDF        []byte
		Filename   string
		Deliveries []Delivery
		LogErr     error
	}

	Service struct {
		assembler *Assembler
		renderer  Renderer
		sublog    SubmissionLog
		email     core.EmailService
		sms       core.SMSService
		templates *core.Templates
		logger    core.Logger
		institute string
		timeout   time.Duration
		now       func() time.Time
	}
)

func NewService(
	conf *core.Config,
	assembler *Assembler,
	renderer Renderer,
	sublog SubmissionLog,
	email core.EmailService,
	sms core.SMSService,
	templates *core.Templates,
	logger core.Logger,
) *Service {
	institute := conf.Institute
	if institute == "" {
		institute = conf.AppName
	}
	return &Service{
		assembler: assembler,
		renderer:  renderer,
		sublog:    sublog,
		email:     email,
		sms:       sms,
		templates: templates,
		logger:    logger,
		institute: institute,
		timeout:   conf.Notify.Timeout,
		now:       time.Now,
	}
}

func (svc *Service) Assembler() *Assembler { return svc.assembler }

// Preview assembles the report without any I/O.
func (svc *Service) Preview(sub Submission) (Report, error) {
	return svc.assembler.Assemble(sub)
}

// Document assembles the report and renders its PDF.
func (svc *Service) Document(ctx context.Context, sub Submission, layout Layout) (Report, []byte, error) {
	report, err := svc.assembler.Assemble(sub)
	if err != nil {
		return Report{}, nil, err
	}
	pdf, err := svc.render(ctx, report, layout)
	if err != nil {
		return Report{}, nil, err
	}
	return report, pdf, nil
}

// Generate assembles and renders the marksheet, logs it and sends it on every requested channel.
// Log and delivery failures are reported in the Result; the document is returned regardless.
func (svc *Service) Generate(ctx context.Context, req Request) (Result, error) {
	report, pdf, err := svc.Document(ctx, req.Submission, req.Layout)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Report:   report,
		PDF:      pdf,
		Filename: core.MarksheetFilename(report.Identity.Name),
	}

	if svc.sublog != nil {
		if err := svc.sublog.Append(ctx, report, svc.now()); err != nil {
			res.LogErr = errors.Wrap(err, "appending to submission log")
			svc.logger.Error("marksheet: submission log failed", res.LogErr)
		}
	}

	seen := make(map[Channel]bool, len(req.Notify))
	for _, ch := range req.Notify {
		if seen[ch] {
			continue
		}
		seen[ch] = true

		var err error
		switch ch {
		case ChannelEmail:
			err = svc.sendEmail(ctx, res)
		case ChannelSMS:
			err = svc.sendSMS(ctx, report)
		default:
			err = errors.Errorf("unknown channel %q", ch)
		}

		d := Delivery{Channel: ch, OK: err == nil, Err: err}
		if err != nil {
			d.Message = err.Error()
			svc.logger.Warn("marksheet: delivery failed", err, map[string]interface{}{"channel": ch})
		}
		res.Deliveries = append(res.Deliveries, d)
	}
	return res, nil
}

func (svc *Service) render(ctx context.Context, report Report, layout Layout) ([]byte, error) {
	if layout.Institute == "" {
		layout.Institute = report.Identity.Institute
	}
	if layout.Institute == "" {
		layout.Institute = svc.institute
	}
	pdf, err := svc.renderer.Render(ctx, report, layout)
	if err != nil {
		return nil, errors.Wrap(err, "rendering marksheet")
	}
	return pdf, nil
}

func (svc *Service) sendEmail(ctx context.Context, res Result) error {
	to := core.CleanString(res.Report.Identity.ParentEmail)
	if to == "" {
		return errors.Wrap(ErrNoRecipient, string(ChannelEmail))
	}
	if svc.email == nil {
		return errors.Wrap(core.ErrTransportFailure, "email is not configured")
	}

	msg := &core.EmailMessage{
		To:           []mail.Address{{Address: to}},
		Subject:      emailSubject,
		TemplateName: emailTemplate,
		TemplateData: res.Report,
	}
	if err := msg.Render(svc.templates); err != nil {
		return errors.Wrap(err, "rendering email")
	}
	if err := msg.Attach(bytes.NewReader(res.PDF), res.Filename, pdfType); err != nil {
		return err
	}

	ctx, cancel := svc.deadline(ctx)
	defer cancel()
	return svc.email.Send(ctx, msg)
}

func (svc *Service) sendSMS(ctx context.Context, report Report) error {
	to := core.CleanString(report.Identity.ParentMobile)
	if to == "" {
		return errors.Wrap(ErrNoRecipient, string(ChannelSMS))
	}
	if svc.sms == nil {
		return errors.Wrap(core.ErrTransportFailure, "sms is not configured")
	}

	ctx, cancel := svc.deadline(ctx)
	defer cancel()
	return svc.sms.Send(ctx, core.SMSMessage{To: to, Body: report.Summary()})
}

// deadline bounds a single delivery attempt by notify.timeout.
func (svc *Service) deadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if svc.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, svc.timeout)
}
