package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"eventlottery/internal/clock"
	"eventlottery/internal/domain"
)

type eventService struct {
	stores         Stores
	clock          clock.Clock
	contextTimeout time.Duration
}

func NewEventService(stores Stores, clk clock.Clock, timeout time.Duration) domain.EventService {
	return &eventService{
		stores:         stores,
		clock:          clk,
		contextTimeout: timeout,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, event *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if event.OwnerID == "" {
		return fmt.Errorf("event owner is required: %w", domain.ErrInvalidInput)
	}
	event.Title = strings.TrimSpace(event.Title)
	if event.Title == "" {
		return fmt.Errorf("event title is required: %w", domain.ErrInvalidInput)
	}
	if event.EventCapacity < 0 || event.WaitlistCapacity < 0 || event.PriceCents < 0 {
		return fmt.Errorf("capacities and price must not be negative: %w", domain.ErrInvalidInput)
	}
	if event.RegistrationOpensAt != nil && event.RegistrationClosesAt != nil &&
		!event.RegistrationOpensAt.Before(*event.RegistrationClosesAt) {
		return fmt.Errorf("registration must open before it closes: %w", domain.ErrInvalidInput)
	}

	now := s.clock.Now()
	event.CreatedAt = now
	event.UpdatedAt = now
	event.LotteryDone = false

	if err := s.stores.Events.Create(ctx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (s *eventService) GetEvent(ctx context.Context, eventID string) (*domain.EventWithCount, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.stores.Events.GetByID(ctx, eventID)
	if err != nil {
		return nil, wrapErr("get event", err)
	}
	n, err := s.stores.Waitlist.CountWaiting(ctx, eventID)
	if err != nil {
		return nil, wrapErr("count waitlist", err)
	}
	return &domain.EventWithCount{Event: event, WaitlistCount: n}, nil
}
