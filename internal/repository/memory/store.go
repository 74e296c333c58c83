// Package memory is an in-process store implementing the repository contracts.
// Transactions are serialized by one mutex and roll back by restoring a snapshot.
package memory

import (
	"context"
	"sync"
	"time"

	"eventlottery/internal/domain"
)

type pairKey struct {
	eventID string
	userID  string
}

type lotteryLock struct {
	held      bool
	startedAt time.Time
}

type state struct {
	users         map[string]domain.User
	events        map[string]domain.Event
	locks         map[string]lotteryLock
	waitlist      map[pairKey]domain.WaitlistEntry
	invites       map[pairKey]domain.Invite
	registrations map[pairKey]domain.Registration
	cancellations []domain.Cancellation
	notifications []domain.Notification
	logs          []domain.NotificationLog
	draws         []domain.LotteryDraw
}

func newState() *state {
	return &state{
		users:         make(map[string]domain.User),
		events:        make(map[string]domain.Event),
		locks:         make(map[string]lotteryLock),
		waitlist:      make(map[pairKey]domain.WaitlistEntry),
		invites:       make(map[pairKey]domain.Invite),
		registrations: make(map[pairKey]domain.Registration),
	}
}

// clone copies every table. Stored values hold no shared mutable data except
// pointer fields, which are never written in place.
func (s *state) clone() *state {
	c := &state{
		users:         make(map[string]domain.User, len(s.users)),
		events:        make(map[string]domain.Event, len(s.events)),
		locks:         make(map[string]lotteryLock, len(s.locks)),
		waitlist:      make(map[pairKey]domain.WaitlistEntry, len(s.waitlist)),
		invites:       make(map[pairKey]domain.Invite, len(s.invites)),
		registrations: make(map[pairKey]domain.Registration, len(s.registrations)),
		cancellations: append([]domain.Cancellation(nil), s.cancellations...),
		notifications: append([]domain.Notification(nil), s.notifications...),
		logs:          append([]domain.NotificationLog(nil), s.logs...),
		draws:         append([]domain.LotteryDraw(nil), s.draws...),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.events {
		c.events[k] = v
	}
	for k, v := range s.locks {
		c.locks[k] = v
	}
	for k, v := range s.waitlist {
		c.waitlist[k] = v
	}
	for k, v := range s.invites {
		c.invites[k] = v
	}
	for k, v := range s.registrations {
		c.registrations[k] = v
	}
	return c
}

// Store holds all tables behind a single mutex.
type Store struct {
	mu     sync.Mutex
	data   *state
	faults map[string]error
}

func NewStore() *Store {
	return &Store{data: newState(), faults: make(map[string]error)}
}

type txMarker struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txMarker{}).(*Store)
	return owner == s
}

// WithTx runs fn with exclusive access to the store. On error every write made
// by fn is discarded.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(context.WithValue(ctx, txMarker{}, s)); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

// run executes op against the current state, taking the lock unless ctx already
// belongs to a transaction on this store.
func (s *Store) run(ctx context.Context, op string, fn func(st *state) error) error {
	if s.inTx(ctx) {
		if err := s.fault(op); err != nil {
			return err
		}
		return fn(s.data)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(op); err != nil {
		return err
	}
	return fn(s.data)
}

func (s *Store) fault(op string) error {
	if err, ok := s.faults[op]; ok {
		delete(s.faults, op)
		return err
	}
	return nil
}

// FailNext makes the next call of op (for example "notifications.create") return err.
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	s.faults[op] = err
	s.mu.Unlock()
}

func (s *Store) Transactor() domain.Transactor { return s }

func (s *Store) Events() domain.EventRepository               { return &eventRepository{s} }
func (s *Store) Waitlist() domain.WaitlistRepository          { return &waitlistRepository{s} }
func (s *Store) Invites() domain.InviteRepository             { return &inviteRepository{s} }
func (s *Store) Registrations() domain.RegistrationRepository { return &registrationRepository{s} }
func (s *Store) Cancellations() domain.CancellationRepository { return &cancellationRepository{s} }
func (s *Store) Notifications() domain.NotificationRepository { return &notificationRepository{s} }
func (s *Store) Lottery() domain.LotteryRepository            { return &lotteryRepository{s} }
func (s *Store) Users() domain.UserRepository                 { return &userRepository{s} }
func (s *Store) Facts() domain.FactsReader                    { return &factsReader{s} }
