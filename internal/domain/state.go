package domain

import "context"

// EntrantState is what an entrant currently sees for an event.
type EntrantState string

const (
	StateNone       EntrantState = "none"
	StateWaiting    EntrantState = "waiting"
	StateInvited    EntrantState = "invited"
	StateRegistered EntrantState = "registered"
)

// RegistrationFacts are the three independently stored facts for one entrant and event.
type RegistrationFacts struct {
	HasRegistration bool
	HasInvite       bool
	HasWaiting      bool
}

// Resolve maps the facts to a single state. The most advanced fact wins, so a
// transiently inconsistent tuple still resolves deterministically.
func Resolve(hasRegistration, hasInvite, hasWaiting bool) EntrantState {
	switch {
	case hasRegistration:
		return StateRegistered
	case hasInvite:
		return StateInvited
	case hasWaiting:
		return StateWaiting
	default:
		return StateNone
	}
}

// State resolves the facts.
func (f RegistrationFacts) State() EntrantState {
	return Resolve(f.HasRegistration, f.HasInvite, f.HasWaiting)
}

// StateTracker detects transitions between successive resolutions. The zero
// value starts in StateNone.
type StateTracker struct {
	last EntrantState
}

// Observe recomputes the state from the whole tuple and reports whether it differs
// from the previously observed state.
func (t *StateTracker) Observe(f RegistrationFacts) (EntrantState, bool) {
	prev := t.Current()
	next := f.State()
	t.last = next
	return next, next != prev
}

// Current returns the last observed state.
func (t *StateTracker) Current() EntrantState {
	if t.last == "" {
		return StateNone
	}
	return t.last
}

// EntrantStatus is the resolved view rendered to an entrant.
// swagger:model EntrantStatus
type EntrantStatus struct {
	EventID          string       `json:"event_id"`
	UserID           string       `json:"user_id"`
	State            EntrantState `json:"state"`
	WaitlistCount    int          `json:"waitlist_count"`
	WaitlistCapacity int          `json:"waitlist_capacity"`
	// Event is set by ListForUser so the entrant's lists can render without a second lookup.
	Event *Event `json:"event,omitempty"`
	// Facts is the tuple State was resolved from.
	Facts RegistrationFacts `json:"-"`
}

// EventFacts are one entrant's facts for one event.
type EventFacts struct {
	EventID string
	RegistrationFacts
}

// FactsReader reads the three facts for one entrant, typically inside a single transaction.
type FactsReader interface {
	Facts(ctx context.Context, eventID, userID string) (RegistrationFacts, error)
	// ListByUserID returns, ordered by event ID, every event where at least one fact holds.
	ListByUserID(ctx context.Context, userID string) ([]EventFacts, error)
}

// StateService resolves the entrant's current status from the store.
type StateService interface {
	Status(ctx context.Context, eventID, userID string) (*EntrantStatus, error)
	// ListForUser resolves the entrant's status on every event they are waiting for,
	// invited to or registered on. A non-empty state keeps only events in that state.
	ListForUser(ctx context.Context, userID string, state EntrantState) ([]*EntrantStatus, error)
}
