package services

import (
	"context"
	"log/slog"
	"time"

	"eventlottery/internal/clock"
	"eventlottery/internal/domain"
	"eventlottery/internal/metrics"
)

type admissionService struct {
	stores         Stores
	locator        domain.Locator
	invites        domain.InviteService
	delivery       *Delivery
	clock          clock.Clock
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewAdmissionService returns the waitlist admission controller. locator may be nil;
// SignUp delegates to invites.
func NewAdmissionService(
	stores Stores,
	locator domain.Locator,
	invites domain.InviteService,
	delivery *Delivery,
	clk clock.Clock,
	logger *slog.Logger,
	timeout time.Duration,
) domain.AdmissionService {
	return &admissionService{
		stores:         stores,
		locator:        locator,
		invites:        invites,
		delivery:       delivery,
		clock:          clk,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *admissionService) Join(ctx context.Context, eventID, userID string, coord *domain.Coordinate) (*domain.WaitlistEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if eventID == "" || userID == "" {
		return nil, domain.ErrInvalidInput
	}
	if coord != nil && !coord.Valid() {
		return nil, domain.ErrInvalidInput
	}
	if coord == nil {
		coord = s.locate(ctx, eventID, userID)
	}

	f := newFanout(s.stores.Notifications, s.clock.Now())
	var entry *domain.WaitlistEntry
	err := s.stores.Tx.WithTx(ctx, func(ctx context.Context) error {
		event, err := s.stores.Events.GetForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		if err := event.CheckRegistrationWindow(now); err != nil {
			return err
		}
		facts, err := s.stores.Facts.Facts(ctx, eventID, userID)
		if err != nil {
			return err
		}
		if facts.State() != domain.StateNone {
			return domain.ErrAlreadyPresent
		}
		waiting, err := s.stores.Waitlist.CountWaiting(ctx, eventID)
		if err != nil {
			return err
		}
		if !event.WaitlistHasRoom(waiting) {
			return domain.ErrWaitlistFull
		}
		entry = domain.NewWaitlistEntry(eventID, userID, now, coord)
		if err := s.stores.Waitlist.Create(ctx, entry); err != nil {
			return err
		}
		f.changed(eventID, userID, domain.ChangeWaitlist)
		return nil
	})
	metrics.WaitlistJoinsTotal.WithLabelValues(resultLabel(err)).Inc()
	if err != nil {
		return nil, wrapErr("join waitlist", err)
	}
	s.delivery.Flush(ctx, f)
	s.logger.Info("entrant joined waitlist", "event_id", eventID, "user_id", userID, "with_coordinate", coord != nil)
	return entry, nil
}

// locate looks up the entrant's position for events that want one. A failed
// lookup never blocks the join.
func (s *admissionService) locate(ctx context.Context, eventID, userID string) *domain.Coordinate {
	if s.locator == nil {
		return nil
	}
	event, err := s.stores.Events.GetByID(ctx, eventID)
	if err != nil || !event.GeolocationRequired {
		return nil
	}
	coord, err := s.locator.Locate(ctx, userID)
	if err != nil {
		s.logger.Warn("locate entrant failed, joining without coordinate", "event_id", eventID, "user_id", userID, "error", err)
		return nil
	}
	if coord != nil && !coord.Valid() {
		s.logger.Warn("locator returned invalid coordinate", "event_id", eventID, "user_id", userID)
		return nil
	}
	return coord
}

func (s *admissionService) Leave(ctx context.Context, eventID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	f := newFanout(s.stores.Notifications, s.clock.Now())
	err := s.stores.Tx.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.stores.Events.GetForUpdate(ctx, eventID); err != nil {
			return err
		}
		facts, err := s.stores.Facts.Facts(ctx, eventID, userID)
		if err != nil {
			return err
		}
		if facts.State() != domain.StateWaiting {
			return domain.ErrNotWaiting
		}
		removed, err := s.stores.Waitlist.Delete(ctx, eventID, userID)
		if err != nil {
			return err
		}
		if !removed {
			return domain.ErrNotWaiting
		}
		f.changed(eventID, userID, domain.ChangeWaitlist)
		return nil
	})
	if err != nil {
		return wrapErr("leave waitlist", err)
	}
	metrics.WaitlistLeavesTotal.Inc()
	s.delivery.Flush(ctx, f)
	s.logger.Info("entrant left waitlist", "event_id", eventID, "user_id", userID)
	return nil
}

func (s *admissionService) SignUp(ctx context.Context, eventID, userID string) (*domain.Registration, error) {
	return s.invites.Accept(ctx, eventID, userID)
}

func (s *admissionService) WaitlistCount(ctx context.Context, eventID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.stores.Events.GetByID(ctx, eventID); err != nil {
		return 0, wrapErr("get event", err)
	}
	n, err := s.stores.Waitlist.CountWaiting(ctx, eventID)
	if err != nil {
		return 0, wrapErr("count waitlist", err)
	}
	return n, nil
}

func (s *admissionService) ListWaitlist(ctx context.Context, eventID, organizerID string, params domain.PaginationParams) ([]*domain.WaitlistEntry, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := requireOwner(ctx, s.stores.Events, eventID, organizerID); err != nil {
		return nil, 0, err
	}
	entries, total, err := s.stores.Waitlist.ListByEventID(ctx, eventID, params)
	if err != nil {
		return nil, 0, wrapErr("list waitlist", err)
	}
	return entries, total, nil
}

func (s *admissionService) ListWaitlistCoordinates(ctx context.Context, eventID, organizerID string) ([]domain.Coordinate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := requireOwner(ctx, s.stores.Events, eventID, organizerID); err != nil {
		return nil, err
	}
	coords, err := s.stores.Waitlist.ListCoordinates(ctx, eventID)
	if err != nil {
		return nil, wrapErr("list coordinates", err)
	}
	return coords, nil
}

// requireOwner returns ErrForbidden unless organizerID owns the event.
func requireOwner(ctx context.Context, events domain.EventRepository, eventID, organizerID string) error {
	event, err := events.GetByID(ctx, eventID)
	if err != nil {
		return wrapErr("get event", err)
	}
	if event.OwnerID != organizerID {
		return domain.ErrForbidden
	}
	return nil
}
