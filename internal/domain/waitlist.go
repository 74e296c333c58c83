package domain

import (
	"context"
	"time"
)

// WaitlistStatusWaiting is the only status written by a normal join.
const WaitlistStatusWaiting = "waiting"

// LastResultNotSelected is recorded on entries that lost a draw and stay waiting.
const LastResultNotSelected = "not_selected"

// Coordinate is a latitude/longitude pair captured at join time.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the coordinate is within WGS84 bounds.
func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// WaitlistEntry is an entrant's place in an event's waiting pool, keyed by event and user.
// swagger:model WaitlistEntry
type WaitlistEntry struct {
	EventID    string      `json:"event_id"`
	UserID     string      `json:"user_id"`
	Status     string      `json:"status"`
	JoinedAt   time.Time   `json:"joined_at"`
	Coordinate *Coordinate `json:"coordinate,omitempty"`
	LastResult *string     `json:"last_result,omitempty"`
}

// NewWaitlistEntry returns a waiting entry joined at the given time.
func NewWaitlistEntry(eventID, userID string, joinedAt time.Time, coord *Coordinate) *WaitlistEntry {
	return &WaitlistEntry{
		EventID:    eventID,
		UserID:     userID,
		Status:     WaitlistStatusWaiting,
		JoinedAt:   joinedAt,
		Coordinate: coord,
	}
}

// WaitlistRepository defines storage operations for waitlist entries.
type WaitlistRepository interface {
	// Create returns ErrAlreadyPresent when the entrant already has an entry.
	Create(ctx context.Context, entry *WaitlistEntry) error
	Get(ctx context.Context, eventID, userID string) (*WaitlistEntry, error)
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, eventID, userID string) (bool, error)
	CountWaiting(ctx context.Context, eventID string) (int, error)
	// ListWaiting returns the eligible pool in join order.
	ListWaiting(ctx context.Context, eventID string) ([]*WaitlistEntry, error)
	ListByEventID(ctx context.Context, eventID string, params PaginationParams) ([]*WaitlistEntry, int, error)
	ListCoordinates(ctx context.Context, eventID string) ([]Coordinate, error)
	// LastCoordinate returns ErrNotFound when none of the user's entries has a coordinate.
	LastCoordinate(ctx context.Context, userID string) (*Coordinate, error)
	MarkNotSelected(ctx context.Context, eventID string, userIDs []string) error
}

// Locator obtains an entrant's current position when the join request carries none.
type Locator interface {
	Locate(ctx context.Context, userID string) (*Coordinate, error)
}

// AdmissionService handles an entrant's entry to and exit from the waitlist.
type AdmissionService interface {
	Join(ctx context.Context, eventID, userID string, coord *Coordinate) (*WaitlistEntry, error)
	Leave(ctx context.Context, eventID, userID string) error
	// SignUp registers an INVITED entrant directly.
	SignUp(ctx context.Context, eventID, userID string) (*Registration, error)
	WaitlistCount(ctx context.Context, eventID string) (int, error)
	ListWaitlist(ctx context.Context, eventID, organizerID string, params PaginationParams) ([]*WaitlistEntry, int, error)
	ListWaitlistCoordinates(ctx context.Context, eventID, organizerID string) ([]Coordinate, error)
}
