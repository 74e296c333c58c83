package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventlottery/internal/domain"
)

func TestStateService_Status(t *testing.T) {
	f := newFixture(t)
	eventID := f.addEvent(t, 10)
	f.join(t, eventID, "A", "B")
	ctx := context.Background()

	s, err := f.state.Status(ctx, eventID, "A")
	require.NoError(t, err)
	assert.Equal(t, domain.StateWaiting, s.State)
	assert.Equal(t, 2, s.WaitlistCount)
	assert.Equal(t, 10, s.WaitlistCapacity)

	s, err = f.state.Status(ctx, eventID, "C")
	require.NoError(t, err)
	assert.Equal(t, domain.StateNone, s.State)
}

func TestStateService_InconsistentFactsResolveToMostAdvanced(t *testing.T) {
	f := newFixture(t)
	eventID := f.addEvent(t, 0)
	ctx := context.Background()
	require.NoError(t, f.stores.Waitlist.Create(ctx, domain.NewWaitlistEntry(eventID, "A", testNow, nil)))
	require.NoError(t, f.stores.Invites.Create(ctx, &domain.Invite{EventID: eventID, UserID: "A", Status: domain.InviteStatusInvited, InvitedAt: testNow}))

	s, err := f.state.Status(ctx, eventID, "A")
	require.NoError(t, err)
	assert.Equal(t, domain.StateInvited, s.State)
}

func TestStateService_UnknownEvent(t *testing.T) {
	f := newFixture(t)
	_, err := f.state.Status(context.Background(), "missing", "A")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStateService_ListForUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	waiting, invitedTo, registered, other := f.addEvent(t, 0), f.addEvent(t, 0), f.addEvent(t, 0), f.addEvent(t, 0)

	f.join(t, waiting, "A", "B")
	f.join(t, invitedTo, "A")
	f.join(t, registered, "A")
	f.join(t, other, "B")
	for _, ev := range []string{invitedTo, registered} {
		_, err := f.lottery.DrawWinners(ctx, ev, "org", 1)
		require.NoError(t, err)
	}
	_, err := f.invites.Accept(ctx, registered, "A")
	require.NoError(t, err)

	all, err := f.state.ListForUser(ctx, "A", "")
	require.NoError(t, err)
	got := make(map[string]domain.EntrantState, len(all))
	for _, s := range all {
		got[s.EventID] = s.State
		require.NotNil(t, s.Event)
		assert.Equal(t, s.EventID, s.Event.ID)
		assert.Equal(t, "A", s.UserID)
	}
	assert.Equal(t, map[string]domain.EntrantState{
		waiting:    domain.StateWaiting,
		invitedTo:  domain.StateInvited,
		registered: domain.StateRegistered,
	}, got)

	onlyWaiting, err := f.state.ListForUser(ctx, "A", domain.StateWaiting)
	require.NoError(t, err)
	require.Len(t, onlyWaiting, 1)
	assert.Equal(t, waiting, onlyWaiting[0].EventID)
	assert.Equal(t, 2, onlyWaiting[0].WaitlistCount)
}

func TestStateService_ListForUserEmptyAndInvalid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	list, err := f.state.ListForUser(ctx, "nobody", "")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.state.ListForUser(ctx, "A", domain.StateNone)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.state.ListForUser(ctx, "A", "cancelled")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
