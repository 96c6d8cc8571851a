package emailsvc

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/pkg/errors"

	"github.com/trezcool/marksheet/core"
)

var pdf = []byte("%PDF-1.3\n%test\n")

func testConfig() *core.Config {
	return &core.Config{
		AppName: "Marksheet",
		Notify: core.NotifyConfig{
			Timeout:   time.Second,
			FromEmail: mail.Address{Name: "Marksheet", Address: "noreply@school.example"},
		},
	}
}

func testMessage(t *testing.T) *core.EmailMessage {
	t.Helper()
	msg := &core.EmailMessage{
		To:          []mail.Address{{Address: "parent@example.com"}},
		Subject:     "Student Marksheet",
		TextContent: "Please find attached your child's marksheet.",
		HTMLContent: "<p>Please find attached your child's marksheet.</p>",
	}
	if err := msg.Attach(strings.NewReader(string(pdf)), "Anu_marksheet.pdf", "application/pdf"); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	return msg
}

func TestBuildMIME(t *testing.T) {
	raw, err := buildMIME(mail.Address{Address: "noreply@school.example"}, "[Marksheet] Student Marksheet", testMessage(t), time.Now())
	if err != nil {
		t.Fatalf("buildMIME() error = %v", err)
	}

	parsed, err := mail.ReadMessage(strings.NewReader(string(raw)))
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if got := parsed.Header.Get("Subject"); got != "[Marksheet] Student Marksheet" {
		t.Errorf("Subject = %q", got)
	}
	mediaType, params, err := mime.ParseMediaType(parsed.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/mixed" {
		t.Fatalf("Content-Type = %s, %v", mediaType, err)
	}

	mr := multipart.NewReader(parsed.Body, params["boundary"])
	var types []string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("NextPart() error = %v", err)
		}
		types = append(types, strings.SplitN(p.Header.Get("Content-Type"), ";", 2)[0])
		if p.FileName() != "" && p.FileName() != "Anu_marksheet.pdf" {
			t.Errorf("FileName() = %q", p.FileName())
		}
	}
	if strings.Join(types, ",") != "multipart/alternative,application/pdf" {
		t.Errorf("parts = %v", types)
	}
}

func TestConsoleService_Send(t *testing.T) {
	svc := NewConsoleServiceMock(testConfig())
	msg := testMessage(t)

	if err := svc.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if sent := svc.SentMessages(); len(sent) != 1 || sent[0].Subject != msg.Subject {
		t.Errorf("SentMessages() = %+v", sent)
	}

	if err := svc.Send(context.Background(), &core.EmailMessage{Subject: "empty"}); err == nil {
		t.Error("Send() without recipients error = nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.Send(ctx, msg); errors.Cause(err) != core.ErrTransportFailure {
		t.Errorf("Send() with cancelled context error = %v; want %v", err, core.ErrTransportFailure)
	}
}

func TestSendgridService_Send(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{name: "accepted", status: http.StatusAccepted},
		{name: "unauthorized", status: http.StatusUnauthorized, wantErr: true},
		{name: "server error", status: http.StatusInternalServerError, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]interface{}
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != sendgridEndpoint || r.Header.Get("Authorization") != "Bearer SG.test" {
					t.Errorf("request = %s %s", r.URL.Path, r.Header.Get("Authorization"))
				}
				_ = json.NewDecoder(r.Body).Decode(&body)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			conf := testConfig()
			conf.Sendgrid = core.SendgridConfig{APIKey: "SG.test", Host: srv.URL}
			svc, err := NewSendgridService(conf)
			if err != nil {
				t.Fatalf("NewSendgridService() error = %v", err)
			}

			err = svc.Send(context.Background(), testMessage(t))
			if tt.wantErr {
				if errors.Cause(err) != core.ErrTransportFailure {
					t.Errorf("Send() error = %v; want %v", err, core.ErrTransportFailure)
				}
				return
			}
			if err != nil {
				t.Fatalf("Send() error = %v", err)
			}
			atts, _ := body["attachments"].([]interface{})
			if len(atts) != 1 {
				t.Fatalf("attachments = %v", body["attachments"])
			}
			if got := atts[0].(map[string]interface{})["content"]; got != "JVBERi0xLjMKJXRlc3QK" {
				t.Errorf("attachment content = %v", got)
			}
		})
	}
}

func TestNewSendgridService_missingKey(t *testing.T) {
	conf := testConfig()
	conf.Sendgrid.Host = "https://api.sendgrid.com"
	if _, err := NewSendgridService(conf); err == nil {
		t.Error("NewSendgridService() without api key error = nil")
	}
}

type sesStub struct {
	input *sesv2.SendEmailInput
	err   error
}

func (s *sesStub) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	s.input = in
	return &sesv2.SendEmailOutput{}, s.err
}

func TestSESService_Send(t *testing.T) {
	stub := &sesStub{}
	svc := newSESService(stub, testConfig())

	if err := svc.Send(context.Background(), testMessage(t)); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if got := stub.input.Destination.ToAddresses; len(got) != 1 || got[0] != "parent@example.com" {
		t.Errorf("ToAddresses = %v", got)
	}
	if raw := string(stub.input.Content.Raw.Data); !strings.Contains(raw, "Subject: [Marksheet] Student Marksheet") {
		t.Errorf("raw message = %q", raw)
	}

	stub.err = errors.New("MessageRejected")
	if err := svc.Send(context.Background(), testMessage(t)); errors.Cause(err) != core.ErrTransportFailure {
		t.Errorf("Send() error = %v; want %v", err, core.ErrTransportFailure)
	}
}
