package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventlottery/internal/domain"
)

func TestStateWatcher_EmitsOnTransitions(t *testing.T) {
	f := newFixture(t)
	eventID := f.addEvent(t, 0)
	watcher := NewStateWatcher(f.state, f.feed, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan *domain.EntrantStatus, 8)
	done := make(chan error, 1)
	go func() {
		done <- watcher.Watch(ctx, eventID, "A", func(s *domain.EntrantStatus) error {
			got <- s
			return nil
		})
	}()

	next := func() *domain.EntrantStatus {
		t.Helper()
		select {
		case s := <-got:
			return s
		case <-time.After(2 * time.Second):
			t.Fatal("no status emitted")
			return nil
		}
	}

	assert.Equal(t, domain.StateNone, next().State)

	f.join(t, eventID, "A")
	s := next()
	assert.Equal(t, domain.StateWaiting, s.State)
	assert.Equal(t, 1, s.WaitlistCount)

	// Another entrant changes only the count.
	f.join(t, eventID, "B")
	s = next()
	assert.Equal(t, domain.StateWaiting, s.State)
	assert.Equal(t, 2, s.WaitlistCount)

	require.NoError(t, f.admission.Leave(context.Background(), eventID, "B"))
	assert.Equal(t, 1, next().WaitlistCount)

	_, err := f.lottery.DrawWinners(context.Background(), eventID, "org", 1)
	require.NoError(t, err)
	s = next()
	assert.Equal(t, domain.StateInvited, s.State)
	assert.Zero(t, s.WaitlistCount)

	_, err = f.invites.Accept(context.Background(), eventID, "A")
	require.NoError(t, err)
	assert.Equal(t, domain.StateRegistered, next().State)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestStateWatcher_UnknownEvent(t *testing.T) {
	f := newFixture(t)
	watcher := NewStateWatcher(f.state, f.feed, discardLogger())
	err := watcher.Watch(context.Background(), "missing", "A", func(*domain.EntrantStatus) error { return nil })
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
