package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"eventlottery/internal/clock"
	"eventlottery/internal/domain"
	"eventlottery/internal/metrics"
)

type inviteService struct {
	stores         Stores
	delivery       *Delivery
	replacer       domain.LotteryService
	clock          clock.Clock
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewInviteService returns the invite resolution handler. When replacer is set,
// every committed decline is followed by a single-entrant replacement draw.
func NewInviteService(
	stores Stores,
	delivery *Delivery,
	replacer domain.LotteryService,
	clk clock.Clock,
	logger *slog.Logger,
	timeout time.Duration,
) domain.InviteService {
	return &inviteService{
		stores:         stores,
		delivery:       delivery,
		replacer:       replacer,
		clock:          clk,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *inviteService) Accept(ctx context.Context, eventID, userID string) (*domain.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	now := s.clock.Now()
	f := newFanout(s.stores.Notifications, now)
	var reg *domain.Registration
	err := s.stores.Tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.takeInvite(ctx, eventID, userID); err != nil {
			return err
		}

		existing, err := s.stores.Registrations.Get(ctx, eventID, userID)
		switch {
		case err == nil:
			// Already registered alongside a leftover invite; keep the original row.
			reg = existing
		case errors.Is(err, domain.ErrNotFound):
			reg = &domain.Registration{EventID: eventID, UserID: userID, RegisteredAt: now}
			if err := s.stores.Registrations.Create(ctx, reg); err != nil {
				return err
			}
		default:
			return err
		}

		if _, err := s.stores.Notifications.SetResponse(ctx, userID, eventID, domain.ResponseAccepted); err != nil {
			return err
		}
		f.changed(eventID, userID, domain.ChangeRegistration)
		f.changed(eventID, userID, domain.ChangeNotification)
		return nil
	})
	if err != nil {
		return nil, wrapErr("accept invite", err)
	}
	metrics.InviteResponsesTotal.WithLabelValues(domain.ResponseAccepted).Inc()
	s.delivery.Flush(ctx, f)
	s.logger.Info("invite accepted", "event_id", eventID, "user_id", userID)
	return reg, nil
}

func (s *inviteService) Decline(ctx context.Context, eventID, userID, reason string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = domain.DefaultDeclineReason
	}

	now := s.clock.Now()
	f := newFanout(s.stores.Notifications, now)
	err := s.stores.Tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.takeInvite(ctx, eventID, userID); err != nil {
			return err
		}
		c := &domain.Cancellation{
			ID:          uuid.NewString(),
			EventID:     eventID,
			UserID:      userID,
			Kind:        domain.CancellationDeclined,
			Reason:      reason,
			CancelledAt: now,
		}
		if err := s.stores.Cancellations.Create(ctx, c); err != nil {
			return err
		}
		if _, err := s.stores.Notifications.SetResponse(ctx, userID, eventID, domain.ResponseDeclined); err != nil {
			return err
		}
		f.changed(eventID, userID, domain.ChangeInvite)
		f.changed(eventID, userID, domain.ChangeNotification)
		return nil
	})
	if err != nil {
		return wrapErr("decline invite", err)
	}
	metrics.InviteResponsesTotal.WithLabelValues(domain.ResponseDeclined).Inc()
	s.delivery.Flush(ctx, f)
	s.logger.Info("invite declined", "event_id", eventID, "user_id", userID, "reason", reason)

	s.replace(ctx, eventID)
	return nil
}

// takeInvite locks the event, consumes the entrant's invite and clears any stale
// waitlist row. It must run inside a transaction.
func (s *inviteService) takeInvite(ctx context.Context, eventID, userID string) error {
	if _, err := s.stores.Events.GetForUpdate(ctx, eventID); err != nil {
		return err
	}
	removed, err := s.stores.Invites.Delete(ctx, eventID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return domain.ErrNoActiveInvite
	}
	stale, err := s.stores.Waitlist.Delete(ctx, eventID, userID)
	if err != nil {
		return err
	}
	if stale {
		s.logger.Warn("removed waitlist entry left behind an invite", "event_id", eventID, "user_id", userID)
	}
	return nil
}

// replace runs the follow-up draw for a declined spot. Its outcome never affects
// the decline, which is already committed.
func (s *inviteService) replace(ctx context.Context, eventID string) {
	if s.replacer == nil {
		return
	}
	res, err := s.replacer.DrawReplacement(context.WithoutCancel(ctx), eventID)
	switch {
	case err == nil:
		s.logger.Info("replacement drawn", "event_id", eventID, "selected", res.Selected)
	case errors.Is(err, domain.ErrNoEligibleEntrants):
		s.logger.Info("no entrants left for replacement", "event_id", eventID)
	default:
		s.logger.Warn("replacement draw failed", "event_id", eventID, "error", err)
	}
}
