package core

import (
	"bytes"
	"context"
	"encoding/base64"
	htmltmpl "html/template"
	"io"
	"io/fs"
	"net/mail"
	"os"
	"path"
	"path/filepath"
	"strings"
	texttmpl "text/template"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
)

const (
	txtExt  = ".txt"
	htmlExt = ".gohtml"
)

type (
	Attachment struct {
		Content     []byte
		ContentType string
		Filename    string
	}

	EmailMessage struct {
		To          []mail.Address
		Cc          []mail.Address
		Bcc         []mail.Address
		Subject     string
		BodyStr     string // simple text/plain, non-templated content
		Attachments []Attachment

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		AppName string
		Data    interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// Send makes a single blocking delivery attempt.
		Send(ctx context.Context, msg *EmailMessage) error
	}

	// Templates holds the parsed e-mail templates, keyed by name then extension.
	// Every template is parsed together with the `_base` file of the same extension
	// and executed through its "base" definition.
	Templates struct {
		appName string
		text    map[string]*texttmpl.Template
		html    map[string]*htmltmpl.Template
	}
)

// ParseTemplates parses every `<name>.txt` and `<name>.gohtml` in dir of fsys.
// strict makes missing keys an execution error.
func ParseTemplates(fsys fs.FS, dir, appName string, strict bool) (*Templates, error) {
	t := &Templates{
		appName: appName,
		text:    make(map[string]*texttmpl.Template),
		html:    make(map[string]*htmltmpl.Template),
	}

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, errors.Wrap(err, "reading email templates")
	}
	for _, e := range entries {
		fname := e.Name()
		ext := path.Ext(fname)
		if e.IsDir() || strings.HasPrefix(fname, "_") || !(ext == txtExt || ext == htmlExt) {
			continue
		}
		name := strings.TrimSuffix(fname, ext)
		base := path.Join(dir, "_base"+ext)

		if ext == txtExt {
			tmpl, err := texttmpl.ParseFS(fsys, base, path.Join(dir, fname))
			if err != nil {
				return nil, errors.Wrapf(err, "parsing %s", fname)
			}
			if strict {
				tmpl = tmpl.Option("missingkey=error")
			}
			t.text[name] = tmpl
		} else {
			tmpl, err := htmltmpl.ParseFS(fsys, base, path.Join(dir, fname))
			if err != nil {
				return nil, errors.Wrapf(err, "parsing %s", fname)
			}
			if strict {
				tmpl = tmpl.Option("missingkey=error")
			}
			t.html[name] = tmpl
		}
	}
	return t, nil
}

// Has reports whether a template called name exists in any format.
func (t *Templates) Has(name string) bool {
	_, txt := t.text[name]
	_, html := t.html[name]
	return txt || html
}

func (m *EmailMessage) getContextData(appName string) ContextData {
	return ContextData{AppName: appName, Data: m.TemplateData}
}

// Render fills TextContent and HTMLContent from BodyStr or the message's template.
func (m *EmailMessage) Render(t *Templates) error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
	}
	if m.TemplateName == "" {
		return nil
	}
	if t == nil || !t.Has(m.TemplateName) {
		return errors.Errorf("email template %q not found", m.TemplateName)
	}

	data := m.getContextData(t.appName)
	if tmpl, ok := t.text[m.TemplateName]; ok && m.BodyStr == "" {
		var buff bytes.Buffer
		if err := tmpl.ExecuteTemplate(&buff, "base", data); err != nil {
			return errors.Wrapf(err, "rendering %s%s", m.TemplateName, txtExt)
		}
		m.TextContent = buff.String()
	}
	if tmpl, ok := t.html[m.TemplateName]; ok {
		var buff bytes.Buffer
		if err := tmpl.ExecuteTemplate(&buff, "base", data); err != nil {
			return errors.Wrapf(err, "rendering %s%s", m.TemplateName, htmlExt)
		}
		m.HTMLContent = buff.String()
	}
	return nil
}

// Attach reads r fully and adds it as an attachment. The content type is sniffed when not given.
func (m *EmailMessage) Attach(r io.Reader, filename string, ct ...string) error {
	content, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrapf(err, "reading attachment %s", filename)
	}

	at := Attachment{Filename: filename, Content: content}
	if len(ct) > 0 && ct[0] != "" {
		at.ContentType = ct[0]
	} else {
		at.ContentType = mimetype.Detect(content).String()
	}
	m.Attachments = append(m.Attachments, at)
	return nil
}

func (m *EmailMessage) AttachFile(path string, contentType ...string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return m.Attach(f, filepath.Base(path), contentType...)
}

func (m *EmailMessage) HasRecipients() bool  { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool     { return (m.TextContent != "") || (m.HTMLContent != "") }
func (m *EmailMessage) HasAttachments() bool { return len(m.Attachments) > 0 }

// Base64 returns the attachment content encoded for transport.
func (at Attachment) Base64() string {
	return base64.StdEncoding.EncodeToString(at.Content)
}
