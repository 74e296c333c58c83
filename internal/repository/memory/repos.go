package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"eventlottery/internal/domain"
)

type eventRepository struct{ s *Store }

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	return r.s.run(ctx, "events.create", func(st *state) error {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		st.events[e.ID] = *e
		return nil
	})
}

func (r *eventRepository) get(ctx context.Context, op, id string) (*domain.Event, error) {
	var out *domain.Event
	err := r.s.run(ctx, op, func(st *state) error {
		e, ok := st.events[id]
		if !ok {
			return domain.ErrNotFound
		}
		out = &e
		return nil
	})
	return out, err
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	return r.get(ctx, "events.get", id)
}

// GetForUpdate needs no row lock: the surrounding transaction already holds the store.
func (r *eventRepository) GetForUpdate(ctx context.Context, id string) (*domain.Event, error) {
	return r.get(ctx, "events.get_for_update", id)
}

func (r *eventRepository) TryAcquireLottery(ctx context.Context, eventID string, now time.Time, ttl time.Duration) (bool, error) {
	var acquired bool
	err := r.s.run(ctx, "events.acquire_lottery", func(st *state) error {
		if _, ok := st.events[eventID]; !ok {
			return nil
		}
		l := st.locks[eventID]
		if l.held && !l.startedAt.Before(now.Add(-ttl)) {
			return nil
		}
		st.locks[eventID] = lotteryLock{held: true, startedAt: now}
		acquired = true
		return nil
	})
	return acquired, err
}

func (r *eventRepository) ReleaseLottery(ctx context.Context, eventID string) error {
	return r.s.run(ctx, "events.release_lottery", func(st *state) error {
		delete(st.locks, eventID)
		return nil
	})
}

func (r *eventRepository) MarkLotteryDone(ctx context.Context, eventID string, at time.Time) error {
	return r.s.run(ctx, "events.mark_lottery_done", func(st *state) error {
		e, ok := st.events[eventID]
		if !ok {
			return domain.ErrNotFound
		}
		e.LotteryDone = true
		e.UpdatedAt = at
		st.events[eventID] = e
		return nil
	})
}

type waitlistRepository struct{ s *Store }

func (r *waitlistRepository) Create(ctx context.Context, w *domain.WaitlistEntry) error {
	return r.s.run(ctx, "waitlist.create", func(st *state) error {
		k := pairKey{w.EventID, w.UserID}
		if _, ok := st.waitlist[k]; ok {
			return domain.ErrAlreadyPresent
		}
		st.waitlist[k] = *w
		return nil
	})
}

func (r *waitlistRepository) Get(ctx context.Context, eventID, userID string) (*domain.WaitlistEntry, error) {
	var out *domain.WaitlistEntry
	err := r.s.run(ctx, "waitlist.get", func(st *state) error {
		w, ok := st.waitlist[pairKey{eventID, userID}]
		if !ok {
			return domain.ErrNotFound
		}
		out = &w
		return nil
	})
	return out, err
}

func (r *waitlistRepository) Delete(ctx context.Context, eventID, userID string) (bool, error) {
	var removed bool
	err := r.s.run(ctx, "waitlist.delete", func(st *state) error {
		k := pairKey{eventID, userID}
		_, removed = st.waitlist[k]
		delete(st.waitlist, k)
		return nil
	})
	return removed, err
}

func waitingEntries(st *state, eventID string) []*domain.WaitlistEntry {
	out := make([]*domain.WaitlistEntry, 0)
	for k, w := range st.waitlist {
		if k.eventID == eventID && w.Status == domain.WaitlistStatusWaiting {
			out = append(out, &w)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].UserID < out[j].UserID
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out
}

func (r *waitlistRepository) CountWaiting(ctx context.Context, eventID string) (int, error) {
	var n int
	err := r.s.run(ctx, "waitlist.count", func(st *state) error {
		n = len(waitingEntries(st, eventID))
		return nil
	})
	return n, err
}

func (r *waitlistRepository) ListWaiting(ctx context.Context, eventID string) ([]*domain.WaitlistEntry, error) {
	var out []*domain.WaitlistEntry
	err := r.s.run(ctx, "waitlist.list_waiting", func(st *state) error {
		out = waitingEntries(st, eventID)
		return nil
	})
	return out, err
}

func (r *waitlistRepository) ListByEventID(ctx context.Context, eventID string, params domain.PaginationParams) ([]*domain.WaitlistEntry, int, error) {
	params = params.Normalize()
	var page []*domain.WaitlistEntry
	var total int
	err := r.s.run(ctx, "waitlist.list", func(st *state) error {
		all := waitingEntries(st, eventID)
		total = len(all)
		start := min(params.Offset(), total)
		end := min(start+params.PageSize, total)
		page = all[start:end]
		return nil
	})
	return page, total, err
}

func (r *waitlistRepository) ListCoordinates(ctx context.Context, eventID string) ([]domain.Coordinate, error) {
	coords := make([]domain.Coordinate, 0)
	err := r.s.run(ctx, "waitlist.list_coordinates", func(st *state) error {
		for _, w := range waitingEntries(st, eventID) {
			if w.Coordinate != nil {
				coords = append(coords, *w.Coordinate)
			}
		}
		return nil
	})
	return coords, err
}

func (r *waitlistRepository) LastCoordinate(ctx context.Context, userID string) (*domain.Coordinate, error) {
	var out *domain.Coordinate
	err := r.s.run(ctx, "waitlist.last_coordinate", func(st *state) error {
		var newest time.Time
		for k, w := range st.waitlist {
			if k.userID != userID || w.Coordinate == nil {
				continue
			}
			if out == nil || w.JoinedAt.After(newest) {
				c := *w.Coordinate
				out, newest = &c, w.JoinedAt
			}
		}
		if out == nil {
			return domain.ErrNotFound
		}
		return nil
	})
	return out, err
}

func (r *waitlistRepository) MarkNotSelected(ctx context.Context, eventID string, userIDs []string) error {
	return r.s.run(ctx, "waitlist.mark_not_selected", func(st *state) error {
		result := domain.LastResultNotSelected
		for _, id := range userIDs {
			k := pairKey{eventID, id}
			if w, ok := st.waitlist[k]; ok {
				w.LastResult = &result
				st.waitlist[k] = w
			}
		}
		return nil
	})
}

type inviteRepository struct{ s *Store }

func (r *inviteRepository) Create(ctx context.Context, inv *domain.Invite) error {
	return r.s.run(ctx, "invites.create", func(st *state) error {
		k := pairKey{inv.EventID, inv.UserID}
		if _, ok := st.invites[k]; ok {
			return domain.ErrAlreadyPresent
		}
		st.invites[k] = *inv
		return nil
	})
}

func (r *inviteRepository) Get(ctx context.Context, eventID, userID string) (*domain.Invite, error) {
	var out *domain.Invite
	err := r.s.run(ctx, "invites.get", func(st *state) error {
		inv, ok := st.invites[pairKey{eventID, userID}]
		if !ok {
			return domain.ErrNotFound
		}
		out = &inv
		return nil
	})
	return out, err
}

func (r *inviteRepository) Delete(ctx context.Context, eventID, userID string) (bool, error) {
	var removed bool
	err := r.s.run(ctx, "invites.delete", func(st *state) error {
		k := pairKey{eventID, userID}
		_, removed = st.invites[k]
		delete(st.invites, k)
		return nil
	})
	return removed, err
}

func (r *inviteRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Invite, error) {
	out := make([]*domain.Invite, 0)
	err := r.s.run(ctx, "invites.list", func(st *state) error {
		for k, inv := range st.invites {
			if k.eventID == eventID {
				out = append(out, &inv)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
		return nil
	})
	return out, err
}

type registrationRepository struct{ s *Store }

func (r *registrationRepository) Create(ctx context.Context, reg *domain.Registration) error {
	return r.s.run(ctx, "registrations.create", func(st *state) error {
		k := pairKey{reg.EventID, reg.UserID}
		if _, ok := st.registrations[k]; ok {
			return domain.ErrAlreadyPresent
		}
		st.registrations[k] = *reg
		return nil
	})
}

func (r *registrationRepository) Get(ctx context.Context, eventID, userID string) (*domain.Registration, error) {
	var out *domain.Registration
	err := r.s.run(ctx, "registrations.get", func(st *state) error {
		reg, ok := st.registrations[pairKey{eventID, userID}]
		if !ok {
			return domain.ErrNotFound
		}
		out = &reg
		return nil
	})
	return out, err
}

func (r *registrationRepository) Delete(ctx context.Context, eventID, userID string) (bool, error) {
	var removed bool
	err := r.s.run(ctx, "registrations.delete", func(st *state) error {
		k := pairKey{eventID, userID}
		_, removed = st.registrations[k]
		delete(st.registrations, k)
		return nil
	})
	return removed, err
}

func (r *registrationRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Registration, error) {
	out := make([]*domain.Registration, 0)
	err := r.s.run(ctx, "registrations.list", func(st *state) error {
		for k, reg := range st.registrations {
			if k.eventID == eventID {
				out = append(out, &reg)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
		return nil
	})
	return out, err
}

type cancellationRepository struct{ s *Store }

func (r *cancellationRepository) Create(ctx context.Context, c *domain.Cancellation) error {
	return r.s.run(ctx, "cancellations.create", func(st *state) error {
		st.cancellations = append(st.cancellations, *c)
		return nil
	})
}

func (r *cancellationRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Cancellation, error) {
	out := make([]*domain.Cancellation, 0)
	err := r.s.run(ctx, "cancellations.list", func(st *state) error {
		for _, c := range st.cancellations {
			if c.EventID == eventID {
				out = append(out, &c)
			}
		}
		return nil
	})
	return out, err
}

type notificationRepository struct{ s *Store }

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	return r.s.run(ctx, "notifications.create", func(st *state) error {
		st.notifications = append(st.notifications, *n)
		return nil
	})
}

func (r *notificationRepository) CreateLog(ctx context.Context, l *domain.NotificationLog) error {
	return r.s.run(ctx, "notifications.create_log", func(st *state) error {
		st.logs = append(st.logs, *l)
		return nil
	})
}

func (r *notificationRepository) ListByUserID(ctx context.Context, userID string, unreadOnly bool) ([]*domain.Notification, error) {
	out := make([]*domain.Notification, 0)
	err := r.s.run(ctx, "notifications.list", func(st *state) error {
		// Newest first.
		for i := len(st.notifications) - 1; i >= 0; i-- {
			n := st.notifications[i]
			if n.UserID != userID || (unreadOnly && n.Read) {
				continue
			}
			out = append(out, &n)
		}
		return nil
	})
	return out, err
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, notificationID string) error {
	return r.s.run(ctx, "notifications.mark_read", func(st *state) error {
		for i := range st.notifications {
			if st.notifications[i].ID == notificationID && st.notifications[i].UserID == userID {
				st.notifications[i].Read = true
				return nil
			}
		}
		return domain.ErrNotFound
	})
}

func (r *notificationRepository) SetResponse(ctx context.Context, userID, eventID, status string) (int, error) {
	var updated int
	err := r.s.run(ctx, "notifications.set_response", func(st *state) error {
		for i := range st.notifications {
			n := &st.notifications[i]
			if n.UserID == userID && n.EventID == eventID && n.Type == domain.NotificationLotteryWin && n.ResponseStatus == nil {
				s := status
				n.ResponseStatus = &s
				updated++
			}
		}
		return nil
	})
	return updated, err
}

type lotteryRepository struct{ s *Store }

func (r *lotteryRepository) CreateDraw(ctx context.Context, d *domain.LotteryDraw) error {
	return r.s.run(ctx, "lottery.create_draw", func(st *state) error {
		st.draws = append(st.draws, *d)
		return nil
	})
}

func (r *lotteryRepository) ListDrawsByEventID(ctx context.Context, eventID string) ([]*domain.LotteryDraw, error) {
	out := make([]*domain.LotteryDraw, 0)
	err := r.s.run(ctx, "lottery.list_draws", func(st *state) error {
		for _, d := range st.draws {
			if d.EventID == eventID {
				out = append(out, &d)
			}
		}
		return nil
	})
	return out, err
}

type userRepository struct{ s *Store }

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	return r.s.run(ctx, "users.create", func(st *state) error {
		if u.ID == "" {
			u.ID = uuid.NewString()
		}
		for _, existing := range st.users {
			if existing.Email == u.Email && existing.ID != u.ID {
				return domain.ErrAlreadyPresent
			}
		}
		st.users[u.ID] = *u
		return nil
	})
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var out *domain.User
	err := r.s.run(ctx, "users.get", func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return domain.ErrNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *userRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(ids))
	err := r.s.run(ctx, "users.list", func(st *state) error {
		for _, id := range ids {
			if u, ok := st.users[id]; ok {
				out = append(out, &u)
			}
		}
		return nil
	})
	return out, err
}

type factsReader struct{ s *Store }

func (r *factsReader) Facts(ctx context.Context, eventID, userID string) (domain.RegistrationFacts, error) {
	var f domain.RegistrationFacts
	err := r.s.run(ctx, "facts.read", func(st *state) error {
		k := pairKey{eventID, userID}
		_, f.HasRegistration = st.registrations[k]
		_, f.HasInvite = st.invites[k]
		if w, ok := st.waitlist[k]; ok && w.Status == domain.WaitlistStatusWaiting {
			f.HasWaiting = true
		}
		return nil
	})
	return f, err
}

func (r *factsReader) ListByUserID(ctx context.Context, userID string) ([]domain.EventFacts, error) {
	out := make([]domain.EventFacts, 0)
	err := r.s.run(ctx, "facts.list_by_user", func(st *state) error {
		byEvent := make(map[string]*domain.RegistrationFacts)
		at := func(eventID string) *domain.RegistrationFacts {
			f, ok := byEvent[eventID]
			if !ok {
				f = &domain.RegistrationFacts{}
				byEvent[eventID] = f
			}
			return f
		}
		for k := range st.registrations {
			if k.userID == userID {
				at(k.eventID).HasRegistration = true
			}
		}
		for k := range st.invites {
			if k.userID == userID {
				at(k.eventID).HasInvite = true
			}
		}
		for k, w := range st.waitlist {
			if k.userID == userID && w.Status == domain.WaitlistStatusWaiting {
				at(k.eventID).HasWaiting = true
			}
		}
		for eventID, f := range byEvent {
			out = append(out, domain.EventFacts{EventID: eventID, RegistrationFacts: *f})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].EventID < out[j].EventID })
		return nil
	})
	return out, err
}
