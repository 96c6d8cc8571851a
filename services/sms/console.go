package smssvc

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/marksheet/core"
)

// ConsoleService prints text messages instead of sending them.
type ConsoleService struct {
	out io.Writer

	mu   sync.Mutex
	sent []core.SMSMessage
}

var _ core.SMSService = (*ConsoleService)(nil)

func NewConsoleService() *ConsoleService {
	return &ConsoleService{out: os.Stdout}
}

// NewConsoleServiceMock only records messages.
func NewConsoleServiceMock() *ConsoleService {
	return &ConsoleService{out: io.Discard}
}

func (svc *ConsoleService) Send(ctx context.Context, msg core.SMSMessage) error {
	if err := ctx.Err(); err != nil {
		return core.TransportError(err, "console sms")
	}
	if !msg.HasRecipient() {
		return errors.New("sms has no recipient")
	}
	if _, err := fmt.Fprintf(svc.out, "To: %s\n%s\n\n", msg.To, msg.Body); err != nil {
		return core.TransportError(err, "console sms")
	}

	svc.mu.Lock()
	svc.sent = append(svc.sent, msg)
	svc.mu.Unlock()
	return nil
}

func (svc *ConsoleService) SentMessages() []core.SMSMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]core.SMSMessage(nil), svc.sent...)
}
