package domain

import (
	"context"
	"time"
)

// Registration is a confirmed, terminal spot in an event.
// swagger:model Registration
type Registration struct {
	EventID      string    `json:"event_id"`
	UserID       string    `json:"user_id"`
	RegisteredAt time.Time `json:"registered_at"`
}

// RegistrationRepository defines storage operations for event registrations.
type RegistrationRepository interface {
	// Create returns ErrAlreadyPresent when the entrant is already registered.
	Create(ctx context.Context, reg *Registration) error
	Get(ctx context.Context, eventID, userID string) (*Registration, error)
	Delete(ctx context.Context, eventID, userID string) (bool, error)
	ListByEventID(ctx context.Context, eventID string) ([]*Registration, error)
}

// Cancellation kinds.
const (
	CancellationDeclined           = "declined"
	CancellationOrganizerCancelled = "organizer_cancelled"
)

// Cancellation is an append-only audit record of a declined invite or a cancelled registration.
// swagger:model Cancellation
type Cancellation struct {
	ID          string    `json:"id"`
	EventID     string    `json:"event_id"`
	UserID      string    `json:"user_id"`
	Kind        string    `json:"kind"`
	Reason      string    `json:"reason"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// CancellationRepository stores cancellation audit records.
type CancellationRepository interface {
	Create(ctx context.Context, c *Cancellation) error
	ListByEventID(ctx context.Context, eventID string) ([]*Cancellation, error)
}
