package emailsvc

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/marksheet/core"
)

// buildMIME writes msg as a raw RFC 5322 message:
// multipart/mixed(multipart/alternative(text, html), attachments...) or just the alternative part.
func buildMIME(from mail.Address, subject string, msg *core.EmailMessage, date time.Time) ([]byte, error) {
	body := new(bytes.Buffer)

	// Write mail header
	_, _ = fmt.Fprintf(body, "From: %s\r\n", from.String())
	_, _ = fmt.Fprint(body, "MIME-Version: 1.0\r\n")
	_, _ = fmt.Fprintf(body, "Date: %s\r\n", date.Format(time.RFC1123Z))
	_, _ = fmt.Fprintf(body, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	_, _ = fmt.Fprintf(body, "To: %s\r\n", joinAddresses(msg.To))
	if len(msg.Cc) > 0 {
		_, _ = fmt.Fprintf(body, "Cc: %s\r\n", joinAddresses(msg.Cc))
	}

	if msg.HasAttachments() {
		mixedW := multipart.NewWriter(body)
		_, _ = fmt.Fprintf(body, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", mixedW.Boundary())

		// the alternative part is nested in the mixed one
		altBuf := new(bytes.Buffer)
		altW := multipart.NewWriter(altBuf)
		if err := writeAlternative(altW, msg); err != nil {
			return nil, err
		}
		w, err := mixedW.CreatePart(textproto.MIMEHeader{"Content-Type": {"multipart/alternative; boundary=" + altW.Boundary()}})
		if err != nil {
			return nil, errors.Wrap(err, "creating multipart/alternative part")
		}
		if _, err = w.Write(altBuf.Bytes()); err != nil {
			return nil, err
		}

		for _, at := range msg.Attachments {
			w, err = mixedW.CreatePart(textproto.MIMEHeader{
				"Content-Type":              {at.ContentType},
				"Content-Transfer-Encoding": {"base64"},
				"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": at.Filename})},
			})
			if err != nil {
				return nil, errors.Wrap(err, "creating "+at.ContentType+" part")
			}
			if err = writeBase64(w, at.Content); err != nil {
				return nil, err
			}
		}
		if err = mixedW.Close(); err != nil {
			return nil, err
		}
		return body.Bytes(), nil
	}

	altW := multipart.NewWriter(body)
	_, _ = fmt.Fprintf(body, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", altW.Boundary())
	if err := writeAlternative(altW, msg); err != nil {
		return nil, err
	}
	return body.Bytes(), nil
}

func writeAlternative(altW *multipart.Writer, msg *core.EmailMessage) error {
	w, err := altW.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/plain; charset=utf-8"}})
	if err != nil {
		return errors.Wrap(err, "creating text/plain part")
	}
	_, _ = fmt.Fprintf(w, "%s\r\n", msg.TextContent)

	if msg.HTMLContent != "" {
		w, err = altW.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/html; charset=utf-8"}})
		if err != nil {
			return errors.Wrap(err, "creating text/html part")
		}
		_, _ = fmt.Fprintf(w, "%s\r\n", msg.HTMLContent)
	}
	return altW.Close()
}

// writeBase64 wraps the encoded content at 76 columns.
func writeBase64(w io.Writer, content []byte) error {
	enc := base64.StdEncoding.EncodeToString(content)
	for len(enc) > 76 {
		if _, err := fmt.Fprintf(w, "%s\r\n", enc[:76]); err != nil {
			return err
		}
		enc = enc[76:]
	}
	_, err := fmt.Fprintf(w, "%s\r\n", enc)
	return err
}

func joinAddresses(addrs []mail.Address) string {
	toJoin := make([]string, 0, len(addrs))
	for _, a := range addrs {
		toJoin = append(toJoin, a.String())
	}
	return strings.Join(toJoin, ", ")
}

// recipients returns every To, Cc and Bcc address.
func recipients(msg *core.EmailMessage) []string {
	out := make([]string, 0, len(msg.To)+len(msg.Cc)+len(msg.Bcc))
	for _, list := range [][]mail.Address{msg.To, msg.Cc, msg.Bcc} {
		for _, a := range list {
			out = append(out, a.Address)
		}
	}
	return out
}

func subjectPrefix(appName string) string {
	if appName == "" {
		return ""
	}
	return "[" + appName + "] "
}
