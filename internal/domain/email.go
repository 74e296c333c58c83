package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// NotificationEmailData holds data for the notification email.
type NotificationEmailData struct {
	Email     string
	FirstName string
	Type      string
	Title     string
	Message   string
	EventID   string
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendNotification(ctx context.Context, data *NotificationEmailData) error
}
