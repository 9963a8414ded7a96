// Package email delivers transactional notification emails over SMTP.
package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// Sender delivers notification emails. Implementations must be safe for
// concurrent use.
type Sender interface {
	SendCollaborationRequestEmail(ctx context.Context, toEmail, senderName, projectTitle string) error
	SendCollaborationAcceptedEmail(ctx context.Context, toEmail, accepterName string) error
	SendCollaborationRejectedEmail(ctx context.Context, toEmail, rejecterName string) error
	SendPaymentCreatedEmail(ctx context.Context, toEmail string, amountTotal int64) error
}

const (
	subjectCollaborationRequest  = "You have a new collaboration request"
	subjectCollaborationAccepted = "Your collaboration request was accepted"
	subjectCollaborationRejected = "Your collaboration request was declined"
	subjectPaymentCreated        = "A collaboration payment is pending"
)

// SMTPSender implements Sender using a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
	baseURL   string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName, baseURL string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
		baseURL:   baseURL,
	}
}

// cta links a notification email back into the app. Empty when no base URL
// is configured, which hides the button in the template.
func (s *SMTPSender) cta(path string) string {
	if s.baseURL == "" {
		return ""
	}
	return strings.TrimRight(s.baseURL, "/") + path
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendCollaborationRequestEmail(ctx context.Context, toEmail, senderName, projectTitle string) error {
	body := fmt.Sprintf("%s sent you a collaboration request.", senderName)
	if projectTitle != "" {
		body = fmt.Sprintf("%s sent you a collaboration request for %q.", senderName, projectTitle)
	}
	content, err := renderEmailTemplate(notificationEmailData{
		Title:    subjectCollaborationRequest,
		Heading:  "New collaboration request",
		Body:     body,
		CTALabel: "Review request",
		CTAURL:   s.cta("/collaboration-requests"),
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectCollaborationRequest, content)
}

func (s *SMTPSender) SendCollaborationAcceptedEmail(ctx context.Context, toEmail, accepterName string) error {
	content, err := renderEmailTemplate(notificationEmailData{
		Title:    subjectCollaborationAccepted,
		Heading:  "Collaboration accepted",
		Body:     fmt.Sprintf("%s accepted your collaboration request. You can now start working together.", accepterName),
		CTALabel: "Open conversation",
		CTAURL:   s.cta("/messages"),
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectCollaborationAccepted, content)
}

func (s *SMTPSender) SendCollaborationRejectedEmail(ctx context.Context, toEmail, rejecterName string) error {
	content, err := renderEmailTemplate(notificationEmailData{
		Title:   subjectCollaborationRejected,
		Heading: "Collaboration declined",
		Body:    fmt.Sprintf("%s declined your collaboration request.", rejecterName),
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectCollaborationRejected, content)
}

func (s *SMTPSender) SendPaymentCreatedEmail(ctx context.Context, toEmail string, amountTotal int64) error {
	content, err := renderEmailTemplate(notificationEmailData{
		Title:    subjectPaymentCreated,
		Heading:  "Payment pending",
		Body:     fmt.Sprintf("A collaboration payment of $%d has been created and is awaiting settlement.", amountTotal),
		CTALabel: "View payments",
		CTAURL:   s.cta("/payments"),
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectPaymentCreated, content)
}

// NopSender discards all emails. Used when SMTP is not configured.
type NopSender struct{}

func (NopSender) SendCollaborationRequestEmail(ctx context.Context, toEmail, senderName, projectTitle string) error {
	return nil
}

func (NopSender) SendCollaborationAcceptedEmail(ctx context.Context, toEmail, accepterName string) error {
	return nil
}

func (NopSender) SendCollaborationRejectedEmail(ctx context.Context, toEmail, rejecterName string) error {
	return nil
}

func (NopSender) SendPaymentCreatedEmail(ctx context.Context, toEmail string, amountTotal int64) error {
	return nil
}

var _ Sender = (*SMTPSender)(nil)
var _ Sender = NopSender{}
