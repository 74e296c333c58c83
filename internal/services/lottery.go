package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"eventlottery/internal/clock"
	"eventlottery/internal/domain"
	"eventlottery/internal/metrics"
)

type lotteryService struct {
	stores         Stores
	delivery       *Delivery
	random         RandomSource
	clock          clock.Clock
	logger         *slog.Logger
	lockTTL        time.Duration
	contextTimeout time.Duration
}

// NewLotteryService returns the lottery engine. lockTTL bounds how long an
// abandoned draw keeps other draws out.
func NewLotteryService(
	stores Stores,
	delivery *Delivery,
	random RandomSource,
	clk clock.Clock,
	logger *slog.Logger,
	lockTTL, timeout time.Duration,
) domain.LotteryService {
	if random == nil {
		random = NewCryptoSource()
	}
	return &lotteryService{
		stores:         stores,
		delivery:       delivery,
		random:         random,
		clock:          clk,
		logger:         logger,
		lockTTL:        lockTTL,
		contextTimeout: timeout,
	}
}

func (s *lotteryService) DrawWinners(ctx context.Context, eventID, organizerID string, winnerCount int) (*domain.DrawResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if winnerCount < 1 {
		return nil, domain.ErrInvalidInput
	}
	if err := requireOwner(ctx, s.stores.Events, eventID, organizerID); err != nil {
		return nil, err
	}
	return s.draw(ctx, eventID, organizerID, winnerCount, false)
}

func (s *lotteryService) DrawReplacement(ctx context.Context, eventID string) (*domain.DrawResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.stores.Events.GetByID(ctx, eventID)
	if err != nil {
		return nil, wrapErr("get event", err)
	}
	return s.draw(ctx, eventID, event.OwnerID, 1, true)
}

func (s *lotteryService) draw(ctx context.Context, eventID, organizerID string, winnerCount int, replacement bool) (result *domain.DrawResult, err error) {
	kind := "draw"
	if replacement {
		kind = "replacement"
	}
	start := time.Now()
	defer func() {
		metrics.LotteryDrawsTotal.WithLabelValues(kind, resultLabel(err)).Inc()
	}()

	acquired, err := s.stores.Events.TryAcquireLottery(ctx, eventID, s.clock.Now(), s.lockTTL)
	if err != nil {
		return nil, wrapErr("acquire lottery lock", err)
	}
	if !acquired {
		return nil, domain.ErrLotteryInProgress
	}
	defer func() {
		if rerr := s.stores.Events.ReleaseLottery(context.WithoutCancel(ctx), eventID); rerr != nil {
			s.logger.Error("release lottery lock failed", "event_id", eventID, "error", rerr)
		}
	}()

	now := s.clock.Now()
	f := newFanout(s.stores.Notifications, now)
	result = &domain.DrawResult{DrawID: uuid.NewString()}

	err = s.stores.Tx.WithTx(ctx, func(ctx context.Context) error {
		event, err := s.stores.Events.GetForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		pool, err := s.eligiblePool(ctx, eventID)
		if err != nil {
			return err
		}
		if len(pool) == 0 {
			return domain.ErrNoEligibleEntrants
		}

		winners, losers, err := pickWinners(s.random, pool, winnerCount)
		if err != nil {
			return err
		}

		notified := make([]string, 0, len(pool))
		for _, userID := range winners {
			inv := &domain.Invite{
				EventID:   eventID,
				UserID:    userID,
				Status:    domain.InviteStatusInvited,
				DrawID:    result.DrawID,
				InvitedAt: now,
			}
			if err := s.stores.Invites.Create(ctx, inv); err != nil {
				return fmt.Errorf("create invite: %w", err)
			}
			if _, err := f.notify(ctx, notice{
				UserID:      userID,
				EventID:     eventID,
				Type:        domain.NotificationLotteryWin,
				Title:       "You were selected!",
				Message:     fmt.Sprintf("You won the lottery for %s.", event.Title),
				OrganizerID: organizerID,
			}); err != nil {
				return fmt.Errorf("notify winner: %w", err)
			}
			if _, err := s.stores.Waitlist.Delete(ctx, eventID, userID); err != nil {
				return fmt.Errorf("remove winner from waitlist: %w", err)
			}
			f.changed(eventID, userID, domain.ChangeInvite)
			f.changed(eventID, userID, domain.ChangeWaitlist)
			notified = append(notified, userID)
		}

		// Losers stay waiting for a later draw. Replacement draws do not re-notify them.
		if !replacement && len(losers) > 0 {
			if err := s.stores.Waitlist.MarkNotSelected(ctx, eventID, losers); err != nil {
				return err
			}
			for _, userID := range losers {
				if _, err := f.notify(ctx, notice{
					UserID:      userID,
					EventID:     eventID,
					Type:        domain.NotificationLotteryLoss,
					Title:       "Not Selected This Time",
					Message:     fmt.Sprintf("You were not selected in the lottery for %s.", event.Title),
					OrganizerID: organizerID,
				}); err != nil {
					return fmt.Errorf("notify entrant not selected: %w", err)
				}
				notified = append(notified, userID)
			}
		}

		if replacement && event.OwnerID != "" {
			if _, err := f.notify(ctx, notice{
				UserID:  event.OwnerID,
				EventID: eventID,
				Type:    domain.NotificationReplacementDrawn,
				Title:   "Replacement entrant drawn",
				Message: fmt.Sprintf("A replacement entrant was drawn automatically for %q.", event.Title),
			}); err != nil {
				return fmt.Errorf("notify organizer: %w", err)
			}
		}

		draw := &domain.LotteryDraw{
			ID:          result.DrawID,
			EventID:     eventID,
			OrganizerID: organizerID,
			Requested:   winnerCount,
			Selected:    len(winners),
			PoolSize:    len(pool),
			Replacement: replacement,
			DrawnAt:     now,
		}
		if err := s.stores.Lottery.CreateDraw(ctx, draw); err != nil {
			return err
		}
		if err := s.stores.Events.MarkLotteryDone(ctx, eventID, now); err != nil {
			return err
		}

		result.Selected = winners
		result.Notified = notified
		result.PoolSize = len(pool)
		return nil
	})
	if err != nil {
		return nil, wrapErr("draw winners", err)
	}

	metrics.LotteryDrawDuration.Observe(time.Since(start).Seconds())
	metrics.LotteryWinnersTotal.Add(float64(len(result.Selected)))
	s.delivery.Flush(ctx, f)
	s.logger.Info("lottery drawn",
		"event_id", eventID,
		"draw_id", result.DrawID,
		"replacement", replacement,
		"pool_size", result.PoolSize,
		"selected", len(result.Selected),
	)
	return result, nil
}

// eligiblePool returns the waiting entrants, skipping (and cleaning up) any who
// already hold an invite or registration.
func (s *lotteryService) eligiblePool(ctx context.Context, eventID string) ([]string, error) {
	entries, err := s.stores.Waitlist.ListWaiting(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	invites, err := s.stores.Invites.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	regs, err := s.stores.Registrations.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	advanced := make(map[string]bool, len(invites)+len(regs))
	for _, inv := range invites {
		advanced[inv.UserID] = true
	}
	for _, reg := range regs {
		advanced[reg.UserID] = true
	}

	pool := make([]string, 0, len(entries))
	for _, e := range entries {
		if advanced[e.UserID] {
			if _, err := s.stores.Waitlist.Delete(ctx, eventID, e.UserID); err != nil {
				return nil, err
			}
			s.logger.Warn("removed stale waitlist entry", "event_id", eventID, "user_id", e.UserID)
			continue
		}
		pool = append(pool, e.UserID)
	}
	return pool, nil
}
