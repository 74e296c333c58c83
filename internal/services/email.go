package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"eventlottery/internal/domain"
)

const notificationTemplate = "notification"

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendNotification sends a notification email using the "notification" template.
func (s *emailService) SendNotification(ctx context.Context, data *domain.NotificationEmailData) error {
	if data == nil {
		return fmt.Errorf("notification email data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render(notificationTemplate, data)
	if err != nil {
		return fmt.Errorf("failed to render notification template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send notification email: %w", err)
	}
	s.logger.Info("notification email sent", "to", data.Email, "type", data.Type)
	return nil
}

// NotificationMailer turns queued notification messages into emails.
type NotificationMailer struct {
	users  domain.UserRepository
	email  domain.EmailService
	logger *slog.Logger
}

func NewNotificationMailer(users domain.UserRepository, email domain.EmailService, logger *slog.Logger) *NotificationMailer {
	return &NotificationMailer{users: users, email: email, logger: logger}
}

// Handle delivers one message. Bulk messages honour the recipient's opt-out;
// lottery outcomes are always sent.
func (m *NotificationMailer) Handle(ctx context.Context, msg domain.NotificationMessage) error {
	user, err := m.users.GetByID(ctx, msg.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			m.logger.Warn("notification recipient not found", "user_id", msg.UserID, "notification_id", msg.NotificationID)
			return nil
		}
		return fmt.Errorf("get recipient: %w", err)
	}
	if user.Email == "" {
		return nil
	}
	if !user.NotificationsEnabled && isOptional(msg.Type) {
		return nil
	}
	return m.email.SendNotification(ctx, &domain.NotificationEmailData{
		Email:     user.Email,
		FirstName: user.Name,
		Type:      msg.Type,
		Title:     msg.Title,
		Message:   msg.Message,
		EventID:   msg.EventID,
	})
}

func isOptional(typ string) bool {
	return typ == domain.NotificationBulkMessage || typ == domain.NotificationWaitlistMessage
}
