package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	texttemplate "text/template"

	"eventlottery/internal/domain"
)

//go:embed templates/*
var templateFS embed.FS

// notificationTemplates holds every embedded template, parsed once. A message
// named n is built from n_subject.txt, n.txt and n.html.
type notificationTemplates struct {
	html *template.Template
	text *texttemplate.Template
}

// NewTemplateRenderer parses the embedded templates. It panics if they do not parse,
// which can only happen when the binary was built with a broken template.
func NewTemplateRenderer() domain.EmailTemplateRenderer {
	return &notificationTemplates{
		html: template.Must(template.ParseFS(templateFS, "templates/*.html")),
		text: texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.txt")),
	}
}

func (t *notificationTemplates) Render(name string, data any) (subject, htmlBody, textBody string, err error) {
	if subject, err = execute(t.text, name+"_subject.txt", data); err != nil {
		return "", "", "", fmt.Errorf("render %s subject: %w", name, err)
	}
	if htmlBody, err = execute(t.html, name+".html", data); err != nil {
		return "", "", "", fmt.Errorf("render %s html: %w", name, err)
	}
	if textBody, err = execute(t.text, name+".txt", data); err != nil {
		return "", "", "", fmt.Errorf("render %s text: %w", name, err)
	}
	// Notification titles are organizer input; a subject header must stay on one line.
	return strings.Join(strings.Fields(subject), " "), htmlBody, textBody, nil
}

type templateSet interface {
	ExecuteTemplate(w io.Writer, name string, data any) error
}

func execute(set templateSet, name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := set.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
