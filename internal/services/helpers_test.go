package services

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"eventlottery/internal/clock"
	"eventlottery/internal/domain"
	"eventlottery/internal/repository/memory"
)

var testNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

const testTimeout = 5 * time.Second

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func memoryStores(s *memory.Store) Stores {
	return Stores{
		Tx:            s.Transactor(),
		Events:        s.Events(),
		Waitlist:      s.Waitlist(),
		Invites:       s.Invites(),
		Registrations: s.Registrations(),
		Cancellations: s.Cancellations(),
		Notifications: s.Notifications(),
		Lottery:       s.Lottery(),
		Users:         s.Users(),
		Facts:         s.Facts(),
	}
}

// seededSource is a deterministic RandomSource for tests.
type seededSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

func newSeededSource(seed uint64) *seededSource {
	return &seededSource{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *seededSource) Intn(n int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n), nil
}

// recordingFeed captures published changes and fans them out to subscribers.
type recordingFeed struct {
	mu        sync.Mutex
	published []domain.ChangeEvent
	subs      map[string][]chan domain.ChangeEvent
}

func newRecordingFeed() *recordingFeed {
	return &recordingFeed{subs: make(map[string][]chan domain.ChangeEvent)}
}

func (f *recordingFeed) Publish(ctx context.Context, ev domain.ChangeEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, ev)
	for _, ch := range f.subs[ev.EventID] {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

func (f *recordingFeed) Subscribe(ctx context.Context, eventID string) (<-chan domain.ChangeEvent, error) {
	ch := make(chan domain.ChangeEvent, 1)
	f.mu.Lock()
	f.subs[eventID] = append(f.subs[eventID], ch)
	f.mu.Unlock()
	return ch, nil
}

func (f *recordingFeed) events() []domain.ChangeEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.ChangeEvent(nil), f.published...)
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []domain.NotificationMessage
	err  error
}

func (p *recordingPublisher) Publish(ctx context.Context, msg domain.NotificationMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *recordingPublisher) messages() []domain.NotificationMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.NotificationMessage(nil), p.msgs...)
}

// fixture wires every service over one in-memory store.
type fixture struct {
	store     *memory.Store
	stores    Stores
	clock     *clock.Manual
	feed      *recordingFeed
	publisher *recordingPublisher

	events       domain.EventService
	admission    domain.AdmissionService
	lottery      domain.LotteryService
	invites      domain.InviteService
	organizer    domain.OrganizerService
	notification domain.NotificationService
	state        domain.StateService
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	locator     domain.Locator
	lastKnown   bool
	autoReplace bool
	random      RandomSource
}

func withLocator(l domain.Locator) fixtureOption {
	return func(c *fixtureConfig) { c.locator = l }
}

// withLastKnownLocator wires the store-backed locator used in production.
func withLastKnownLocator() fixtureOption {
	return func(c *fixtureConfig) { c.lastKnown = true }
}

func withAutoReplace() fixtureOption {
	return func(c *fixtureConfig) { c.autoReplace = true }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	cfg := fixtureConfig{random: newSeededSource(42)}
	for _, o := range opts {
		o(&cfg)
	}

	store := memory.NewStore()
	stores := memoryStores(store)
	if cfg.lastKnown {
		cfg.locator = NewLastKnownLocator(stores.Waitlist)
	}
	clk := clock.NewManual(testNow)
	feed := newRecordingFeed()
	pub := &recordingPublisher{}
	logger := discardLogger()
	delivery := NewDelivery(feed, pub, logger)

	lottery := NewLotteryService(stores, delivery, cfg.random, clk, logger, 2*time.Minute, testTimeout)
	var replacer domain.LotteryService
	if cfg.autoReplace {
		replacer = lottery
	}
	invites := NewInviteService(stores, delivery, replacer, clk, logger, testTimeout)

	return &fixture{
		store:        store,
		stores:       stores,
		clock:        clk,
		feed:         feed,
		publisher:    pub,
		events:       NewEventService(stores, clk, testTimeout),
		admission:    NewAdmissionService(stores, cfg.locator, invites, delivery, clk, logger, testTimeout),
		lottery:      lottery,
		invites:      invites,
		organizer:    NewOrganizerService(stores, delivery, clk, logger, testTimeout),
		notification: NewNotificationService(stores, delivery, clk, logger, testTimeout),
		state:        NewStateService(stores, testTimeout),
	}
}

// addEvent creates an open event owned by "org" with the given waitlist capacity.
func (f *fixture) addEvent(t *testing.T, capacity int) string {
	t.Helper()
	opens := testNow.Add(-time.Hour)
	closes := testNow.Add(24 * time.Hour)
	ev := &domain.Event{
		OwnerID:              "org",
		Title:                "Beginner Swim",
		RegistrationOpensAt:  &opens,
		RegistrationClosesAt: &closes,
		WaitlistCapacity:     capacity,
	}
	require.NoError(t, f.events.CreateEvent(context.Background(), ev))
	return ev.ID
}

func (f *fixture) addUser(t *testing.T, id string, notifications bool) {
	t.Helper()
	require.NoError(t, f.stores.Users.Create(context.Background(), &domain.User{
		ID:                   id,
		Email:                id + "@example.com",
		Name:                 id,
		NotificationsEnabled: notifications,
	}))
}

func (f *fixture) join(t *testing.T, eventID string, users ...string) {
	t.Helper()
	for _, u := range users {
		_, err := f.admission.Join(context.Background(), eventID, u, nil)
		require.NoError(t, err)
	}
}

func (f *fixture) facts(t *testing.T, eventID, userID string) domain.RegistrationFacts {
	t.Helper()
	facts, err := f.stores.Facts.Facts(context.Background(), eventID, userID)
	require.NoError(t, err)
	return facts
}

func (f *fixture) notificationsFor(t *testing.T, userID string) []*domain.Notification {
	t.Helper()
	list, err := f.stores.Notifications.ListByUserID(context.Background(), userID, false)
	require.NoError(t, err)
	return list
}
