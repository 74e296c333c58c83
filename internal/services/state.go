package services

import (
	"context"
	"time"

	"eventlottery/internal/domain"
)

type stateService struct {
	stores         Stores
	contextTimeout time.Duration
}

// NewStateService resolves entrant status from the three stored facts.
func NewStateService(stores Stores, timeout time.Duration) domain.StateService {
	return &stateService{stores: stores, contextTimeout: timeout}
}

func (s *stateService) Status(ctx context.Context, eventID, userID string) (*domain.EntrantStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var status *domain.EntrantStatus
	err := s.stores.Tx.WithTx(ctx, func(ctx context.Context) error {
		event, err := s.stores.Events.GetByID(ctx, eventID)
		if err != nil {
			return err
		}
		facts, err := s.stores.Facts.Facts(ctx, eventID, userID)
		if err != nil {
			return err
		}
		waiting, err := s.stores.Waitlist.CountWaiting(ctx, eventID)
		if err != nil {
			return err
		}
		status = &domain.EntrantStatus{
			EventID:          eventID,
			UserID:           userID,
			State:            facts.State(),
			WaitlistCount:    waiting,
			WaitlistCapacity: event.WaitlistCapacity,
			Facts:            facts,
		}
		return nil
	})
	if err != nil {
		return nil, wrapErr("resolve entrant status", err)
	}
	return status, nil
}

func (s *stateService) ListForUser(ctx context.Context, userID string, state domain.EntrantState) ([]*domain.EntrantStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	switch state {
	case "", domain.StateWaiting, domain.StateInvited, domain.StateRegistered:
	default:
		return nil, domain.ErrInvalidInput
	}

	out := make([]*domain.EntrantStatus, 0)
	err := s.stores.Tx.WithTx(ctx, func(ctx context.Context) error {
		all, err := s.stores.Facts.ListByUserID(ctx, userID)
		if err != nil {
			return err
		}
		for _, f := range all {
			resolved := f.State()
			if state != "" && resolved != state {
				continue
			}
			event, err := s.stores.Events.GetByID(ctx, f.EventID)
			if err != nil {
				return err
			}
			waiting, err := s.stores.Waitlist.CountWaiting(ctx, f.EventID)
			if err != nil {
				return err
			}
			out = append(out, &domain.EntrantStatus{
				EventID:          f.EventID,
				UserID:           userID,
				State:            resolved,
				WaitlistCount:    waiting,
				WaitlistCapacity: event.WaitlistCapacity,
				Event:            event,
				Facts:            f.RegistrationFacts,
			})
		}
		return nil
	})
	if err != nil {
		return nil, wrapErr("list entrant events", err)
	}
	return out, nil
}
