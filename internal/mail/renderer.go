package mail

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/campus-it/helpdesk/internal/domain"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var subjects = map[domain.NotificationKind]string{
	domain.NotifyTicketCreated:  "Ticket Created - %s",
	domain.NotifyStatusChanged:  "Ticket Status Updated - %s",
	domain.NotifyNewMessage:     "New Message on Ticket %s",
	domain.NotifyTicketAssigned: "Ticket Assignment Updated - %s",
	domain.NotifyTicketResolved: "Ticket Resolved - %s",
}

// Data is what notification templates see.
type Data struct {
	Ticket        domain.Ticket
	AccessCode    string
	OldStatus     string
	NewStatus     string
	MessageText   string
	OldTechnician string
	NewTechnician string
}

type view struct {
	Data
	StatusLabel string
	AccessURL   string
	MessageHTML htmltemplate.HTML
}

// Renderer builds notification emails. Message bodies are treated as
// markdown and sanitized before they reach the HTML part.
type Renderer struct {
	siteURL string
	text    *texttemplate.Template
	html    *htmltemplate.Template
	md      goldmark.Markdown
	policy  *bluemonday.Policy
}

// NewRenderer parses the embedded templates.
func NewRenderer(siteURL string) (*Renderer, error) {
	text, err := texttemplate.ParseFS(templateFS, "templates/notifications.txt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse text templates: %w", err)
	}
	htmlTmpl, err := htmltemplate.ParseFS(templateFS, "templates/notifications.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse html templates: %w", err)
	}
	return &Renderer{
		siteURL: siteURL,
		text:    text,
		html:    htmlTmpl,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Linkify),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		policy: bluemonday.UGCPolicy(),
	}, nil
}

// Render produces the subject and both bodies for kind.
func (r *Renderer) Render(kind domain.NotificationKind, data Data) (Message, error) {
	format, ok := subjects[kind]
	if !ok {
		return Message{}, fmt.Errorf("no template for notification %q", kind)
	}

	v := view{
		Data:        data,
		StatusLabel: data.Ticket.Status.Label(),
		AccessURL:   r.siteURL + "/tickets/access",
	}
	if data.MessageText != "" {
		rendered, err := r.markdownHTML(data.MessageText)
		if err != nil {
			return Message{}, err
		}
		v.MessageHTML = rendered
	}

	var plain, rich bytes.Buffer
	if err := r.text.ExecuteTemplate(&plain, string(kind), v); err != nil {
		return Message{}, fmt.Errorf("render %s text: %w", kind, err)
	}
	if err := r.html.ExecuteTemplate(&rich, string(kind), v); err != nil {
		return Message{}, fmt.Errorf("render %s html: %w", kind, err)
	}

	return Message{
		Subject:   fmt.Sprintf(format, data.Ticket.TicketNumber),
		PlainBody: plain.String(),
		HTMLBody:  rich.String(),
	}, nil
}

func (r *Renderer) markdownHTML(source string) (htmltemplate.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("convert message markdown: %w", err)
	}
	// sanitized output is safe to embed verbatim
	return htmltemplate.HTML(r.policy.SanitizeBytes(buf.Bytes())), nil //nolint:gosec
}
