package domain

import (
	"context"
	"time"
)

// Event is an organizer-owned event entrants can queue for.
// swagger:model Event
type Event struct {
	ID                   string     `json:"id"`
	OwnerID              string     `json:"owner_id"`
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	Location             string     `json:"location"`
	PriceCents           int64      `json:"price_cents"`
	EventAt              *time.Time `json:"event_at,omitempty"`
	RegistrationOpensAt  *time.Time `json:"registration_opens_at,omitempty"`
	RegistrationClosesAt *time.Time `json:"registration_closes_at,omitempty"`
	EventCapacity        int        `json:"event_capacity"`
	// WaitlistCapacity bounds the number of waiting entrants. Zero means unlimited.
	WaitlistCapacity    int       `json:"waitlist_capacity"`
	GeolocationRequired bool      `json:"geolocation_required"`
	LotteryDone         bool      `json:"lottery_done"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// CheckRegistrationWindow reports whether now falls inside [opens, closes).
// A nil bound is open-ended.
func (e *Event) CheckRegistrationWindow(now time.Time) error {
	if e.RegistrationOpensAt != nil && now.Before(*e.RegistrationOpensAt) {
		return ErrPeriodNotOpen
	}
	if e.RegistrationClosesAt != nil && !now.Before(*e.RegistrationClosesAt) {
		return ErrPeriodClosed
	}
	return nil
}

// WaitlistHasRoom reports whether one more entrant fits given the current waiting count.
func (e *Event) WaitlistHasRoom(waiting int) bool {
	if e.WaitlistCapacity <= 0 {
		return true
	}
	return waiting < e.WaitlistCapacity
}

// EventRepository defines the interface for event storage
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	// GetForUpdate reads the event and locks it until the surrounding transaction ends.
	// Every mutation of the event's waitlist goes through this lock.
	GetForUpdate(ctx context.Context, id string) (*Event, error)
	// TryAcquireLottery sets the lottery-in-progress flag if it is clear or older than ttl.
	TryAcquireLottery(ctx context.Context, eventID string, now time.Time, ttl time.Duration) (bool, error)
	ReleaseLottery(ctx context.Context, eventID string) error
	MarkLotteryDone(ctx context.Context, eventID string, at time.Time) error
}

// EventWithCount bundles an event with its live waitlist count.
type EventWithCount struct {
	Event         *Event `json:"event"`
	WaitlistCount int    `json:"waitlist_count"`
}

// EventService covers the event reads and writes the registration core needs.
// Full metadata editing lives outside this service.
type EventService interface {
	CreateEvent(ctx context.Context, event *Event) error
	GetEvent(ctx context.Context, eventID string) (*EventWithCount, error)
}
