package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type notificationEmailData struct {
	Title    string
	Heading  string
	Body     string
	CTALabel string
	CTAURL   string
}

func renderEmailTemplate(data notificationEmailData) (string, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/notification.html")
	if err != nil {
		return "", fmt.Errorf("parse email template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render email template: %w", err)
	}
	return buf.String(), nil
}
