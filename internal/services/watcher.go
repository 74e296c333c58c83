package services

import (
	"context"
	"fmt"
	"log/slog"

	"eventlottery/internal/domain"
)

// StateWatcher pushes an entrant's status to a consumer whenever it changes.
type StateWatcher struct {
	state  domain.StateService
	feed   domain.ChangeFeed
	logger *slog.Logger
}

func NewStateWatcher(state domain.StateService, feed domain.ChangeFeed, logger *slog.Logger) *StateWatcher {
	return &StateWatcher{state: state, feed: feed, logger: logger}
}

// Watch calls fn with the current status, then again each time the resolved
// state or the waitlist count changes. Every change message triggers a full
// re-read, so missed or coalesced messages cannot leave fn with a stale view.
// Watch returns when ctx is done, the feed closes, or fn returns an error.
func (w *StateWatcher) Watch(ctx context.Context, eventID, userID string, fn func(*domain.EntrantStatus) error) error {
	// Subscribe before the first read so no change between the two is lost.
	changes, err := w.feed.Subscribe(ctx, eventID)
	if err != nil {
		return fmt.Errorf("subscribe to event changes: %w", err)
	}

	var tracker domain.StateTracker
	last, err := w.state.Status(ctx, eventID, userID)
	if err != nil {
		return err
	}
	tracker.Observe(last.Facts)
	if err := fn(last); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			next, err := w.state.Status(ctx, eventID, userID)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				w.logger.Warn("re-resolve entrant status failed", "event_id", eventID, "user_id", userID, "error", err)
				continue
			}
			_, stateChanged := tracker.Observe(next.Facts)
			if !stateChanged && next.WaitlistCount == last.WaitlistCount {
				continue
			}
			last = next
			if err := fn(next); err != nil {
				return err
			}
		}
	}
}
