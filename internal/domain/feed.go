package domain

import (
	"context"
	"time"
)

// ChangeKind names the collection a change touched.
type ChangeKind string

const (
	ChangeWaitlist     ChangeKind = "waitlist"
	ChangeInvite       ChangeKind = "invite"
	ChangeRegistration ChangeKind = "registration"
	ChangeNotification ChangeKind = "notification"
)

// ChangeEvent announces that a committed write touched an event's entrant data.
// Subscribers re-read the store; the event carries no state of its own.
type ChangeEvent struct {
	EventID string     `json:"event_id"`
	UserID  string     `json:"user_id"`
	Kind    ChangeKind `json:"kind"`
	At      time.Time  `json:"at"`
}

// ChangeFeed is the subscription mechanism consumers use to observe an event.
// Delivery may coalesce: a subscriber is guaranteed a wake-up after the last
// change, not one message per change.
type ChangeFeed interface {
	Publish(ctx context.Context, ev ChangeEvent) error
	// Subscribe returns a channel closed when ctx is done.
	Subscribe(ctx context.Context, eventID string) (<-chan ChangeEvent, error)
}

// NotificationMessage is the out-of-band delivery payload for a committed notification.
type NotificationMessage struct {
	NotificationID string    `json:"notification_id"`
	UserID         string    `json:"user_id"`
	EventID        string    `json:"event_id"`
	Type           string    `json:"type"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
}

// NotificationPublisher hands committed notifications to an external delivery channel.
type NotificationPublisher interface {
	Publish(ctx context.Context, msg NotificationMessage) error
}
