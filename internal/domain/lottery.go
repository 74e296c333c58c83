package domain

import (
	"context"
	"time"
)

// LotteryDraw is the audit record of one draw.
type LotteryDraw struct {
	ID          string    `json:"id"`
	EventID     string    `json:"event_id"`
	OrganizerID string    `json:"organizer_id"`
	Requested   int       `json:"requested"`
	Selected    int       `json:"selected"`
	PoolSize    int       `json:"pool_size"`
	Replacement bool      `json:"replacement"`
	DrawnAt     time.Time `json:"drawn_at"`
}

// DrawResult is returned to the organizer after a committed draw.
// swagger:model DrawResult
type DrawResult struct {
	DrawID   string   `json:"draw_id"`
	Selected []string `json:"selected"`
	Notified []string `json:"notified"`
	PoolSize int      `json:"pool_size"`
}

// LotteryRepository stores draw audit records.
type LotteryRepository interface {
	CreateDraw(ctx context.Context, d *LotteryDraw) error
	ListDrawsByEventID(ctx context.Context, eventID string) ([]*LotteryDraw, error)
}

// LotteryService runs draws over an event's waitlist.
type LotteryService interface {
	DrawWinners(ctx context.Context, eventID, organizerID string, winnerCount int) (*DrawResult, error)
	// DrawReplacement draws a single entrant to fill a declined spot.
	DrawReplacement(ctx context.Context, eventID string) (*DrawResult, error)
}

// OrganizerService holds organizer actions on confirmed registrations.
type OrganizerService interface {
	CancelRegistration(ctx context.Context, eventID, organizerID, userID, reason string) error
}
