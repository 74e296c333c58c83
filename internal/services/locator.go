package services

import (
	"context"
	"errors"

	"eventlottery/internal/domain"
)

// LastKnownLocator answers with the coordinate the entrant shared on their newest
// waitlist entry. It never guesses a position.
type LastKnownLocator struct {
	waitlist domain.WaitlistRepository
}

func NewLastKnownLocator(waitlist domain.WaitlistRepository) *LastKnownLocator {
	return &LastKnownLocator{waitlist: waitlist}
}

// Locate returns nil, nil when the entrant never shared a position.
func (l *LastKnownLocator) Locate(ctx context.Context, userID string) (*domain.Coordinate, error) {
	c, err := l.waitlist.LastCoordinate(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}
