package emailsvc

import (
	"context"
	"io"
	"net/mail"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/marksheet/core"
)

// ConsoleService prints every message as raw MIME instead of sending it.
type ConsoleService struct {
	from       mail.Address
	subjPrefix string
	out        io.Writer

	mu   sync.Mutex
	sent []core.EmailMessage
}

var _ core.EmailService = (*ConsoleService)(nil)

func NewConsoleService(conf *core.Config) *ConsoleService {
	return &ConsoleService{
		from:       conf.Notify.FromEmail,
		subjPrefix: subjectPrefix(conf.AppName),
		out:        os.Stdout,
	}
}

// NewConsoleServiceMock only records messages.
func NewConsoleServiceMock(conf *core.Config) *ConsoleService {
	svc := NewConsoleService(conf)
	svc.out = io.Discard
	return svc
}

func (svc *ConsoleService) Send(ctx context.Context, msg *core.EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return core.TransportError(err, "console email")
	}
	if !msg.HasRecipients() || !(msg.HasContent() || msg.HasAttachments()) {
		return errors.New("email has no recipient or content")
	}

	raw, err := buildMIME(svc.from, svc.subjPrefix+msg.Subject, msg, time.Now())
	if err != nil {
		return errors.Wrap(err, "building email")
	}
	if _, err = svc.out.Write(append(raw, '\n')); err != nil {
		return core.TransportError(err, "console email")
	}

	svc.mu.Lock()
	svc.sent = append(svc.sent, *msg)
	svc.mu.Unlock()
	return nil
}

// SentMessages returns the messages sent so far.
func (svc *ConsoleService) SentMessages() []core.EmailMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]core.EmailMessage(nil), svc.sent...)
}
