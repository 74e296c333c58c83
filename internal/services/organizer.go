package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"eventlottery/internal/clock"
	"eventlottery/internal/domain"
)

const defaultOrganizerCancelReason = "organizer_cancelled"

type organizerService struct {
	stores         Stores
	delivery       *Delivery
	clock          clock.Clock
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewOrganizerService(stores Stores, delivery *Delivery, clk clock.Clock, logger *slog.Logger, timeout time.Duration) domain.OrganizerService {
	return &organizerService{
		stores:         stores,
		delivery:       delivery,
		clock:          clk,
		logger:         logger,
		contextTimeout: timeout,
	}
}

// CancelRegistration removes a confirmed entrant. This is the only path that deletes a registration.
func (s *organizerService) CancelRegistration(ctx context.Context, eventID, organizerID, userID, reason string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := requireOwner(ctx, s.stores.Events, eventID, organizerID); err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultOrganizerCancelReason
	}

	now := s.clock.Now()
	f := newFanout(s.stores.Notifications, now)
	err := s.stores.Tx.WithTx(ctx, func(ctx context.Context) error {
		event, err := s.stores.Events.GetForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		removed, err := s.stores.Registrations.Delete(ctx, eventID, userID)
		if err != nil {
			return err
		}
		if !removed {
			return domain.ErrNotRegistered
		}
		c := &domain.Cancellation{
			ID:          uuid.NewString(),
			EventID:     eventID,
			UserID:      userID,
			Kind:        domain.CancellationOrganizerCancelled,
			Reason:      reason,
			CancelledAt: now,
		}
		if err := s.stores.Cancellations.Create(ctx, c); err != nil {
			return err
		}
		if _, err := f.notify(ctx, notice{
			UserID:      userID,
			EventID:     eventID,
			Type:        domain.NotificationRegistrationCancelled,
			Title:       "Registration cancelled",
			Message:     fmt.Sprintf("The organizer cancelled your registration for %s.", event.Title),
			OrganizerID: organizerID,
		}); err != nil {
			return err
		}
		f.changed(eventID, userID, domain.ChangeRegistration)
		return nil
	})
	if err != nil {
		return wrapErr("cancel registration", err)
	}
	s.delivery.Flush(ctx, f)
	s.logger.Info("registration cancelled by organizer", "event_id", eventID, "user_id", userID, "reason", reason)
	return nil
}
