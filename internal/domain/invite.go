package domain

import (
	"context"
	"time"
)

// InviteStatusInvited is the status of an invite awaiting the entrant's response.
const InviteStatusInvited = "invited"

// Invite is a lottery winner's pending offer of a spot, keyed by event and user.
// swagger:model Invite
type Invite struct {
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	DrawID    string    `json:"draw_id"`
	InvitedAt time.Time `json:"invited_at"`
}

// InviteRepository defines storage operations for invites.
type InviteRepository interface {
	Create(ctx context.Context, inv *Invite) error
	Get(ctx context.Context, eventID, userID string) (*Invite, error)
	Delete(ctx context.Context, eventID, userID string) (bool, error)
	ListByEventID(ctx context.Context, eventID string) ([]*Invite, error)
}

// DefaultDeclineReason is stored when the entrant gives no reason.
const DefaultDeclineReason = "declined"

// InviteService resolves an invited entrant's response.
type InviteService interface {
	Accept(ctx context.Context, eventID, userID string) (*Registration, error)
	Decline(ctx context.Context, eventID, userID, reason string) error
}
