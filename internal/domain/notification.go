package domain

import (
	"context"
	"time"
)

// Notification types.
const (
	NotificationLotteryWin            = "lottery_win"
	NotificationLotteryLoss           = "lottery_loss"
	NotificationReplacementDrawn      = "replacement_drawn"
	NotificationRegistrationCancelled = "registration_cancelled"
	NotificationWaitlistMessage       = "waitlist_message"
	NotificationBulkMessage           = "bulk_message"
)

// Invite response statuses recorded on a lottery_win notification.
const (
	ResponseAccepted = "accepted"
	ResponseDeclined = "declined"
)

// Notification is a message addressed to one user. Once created only Read and
// ResponseStatus change, and ResponseStatus only moves from nil to a response.
// swagger:model Notification
type Notification struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Type           string    `json:"type"`
	EventID        string    `json:"event_id"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
	Read           bool      `json:"read"`
	ResponseStatus *string   `json:"response_status"`
}

// NotificationLog is the global audit trail of notifications sent on an organizer's behalf.
type NotificationLog struct {
	ID          string    `json:"id"`
	EventID     string    `json:"event_id"`
	OrganizerID string    `json:"organizer_id"`
	RecipientID string    `json:"recipient_id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}

// NotificationRepository defines storage operations for notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	CreateLog(ctx context.Context, l *NotificationLog) error
	ListByUserID(ctx context.Context, userID string, unreadOnly bool) ([]*Notification, error)
	// MarkRead returns ErrNotFound when the notification does not belong to the user.
	MarkRead(ctx context.Context, userID, notificationID string) error
	// SetResponse records status on the user's unanswered lottery_win notifications for
	// the event and reports how many were updated.
	SetResponse(ctx context.Context, userID, eventID, status string) (int, error)
}

// Recipient groups an organizer can message.
const (
	GroupWaiting    = "waiting"
	GroupInvited    = "invited"
	GroupRegistered = "registered"
	// GroupCancelled is everyone who declined an invite or had a registration cancelled.
	GroupCancelled  = "cancelled"
)

// NotificationService exposes an entrant's inbox and organizer messaging.
type NotificationService interface {
	List(ctx context.Context, userID string, unreadOnly bool) ([]*Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	// NotifyGroup messages every opted-in member of group and returns the recipients.
	NotifyGroup(ctx context.Context, eventID, organizerID, group, title, message string) ([]string, error)
}
