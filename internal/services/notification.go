package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"eventlottery/internal/clock"
	"eventlottery/internal/domain"
)

type notificationService struct {
	stores         Stores
	delivery       *Delivery
	clock          clock.Clock
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewNotificationService(stores Stores, delivery *Delivery, clk clock.Clock, logger *slog.Logger, timeout time.Duration) domain.NotificationService {
	return &notificationService{
		stores:         stores,
		delivery:       delivery,
		clock:          clk,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *notificationService) List(ctx context.Context, userID string, unreadOnly bool) ([]*domain.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	list, err := s.stores.Notifications.ListByUserID(ctx, userID, unreadOnly)
	if err != nil {
		return nil, wrapErr("list notifications", err)
	}
	return list, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.stores.Notifications.MarkRead(ctx, userID, notificationID); err != nil {
		return wrapErr("mark notification read", err)
	}
	return nil
}

// NotifyGroup messages one group of an event's entrants. Users who turned
// notifications off are skipped; users with no profile row are messaged.
func (s *notificationService) NotifyGroup(ctx context.Context, eventID, organizerID, group, title, message string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	title = strings.TrimSpace(title)
	message = strings.TrimSpace(message)
	if title == "" || message == "" {
		return nil, domain.ErrInvalidInput
	}
	typ := domain.NotificationBulkMessage
	if group == domain.GroupWaiting {
		typ = domain.NotificationWaitlistMessage
	}
	if err := requireOwner(ctx, s.stores.Events, eventID, organizerID); err != nil {
		return nil, err
	}

	f := newFanout(s.stores.Notifications, s.clock.Now())
	var recipients []string
	err := s.stores.Tx.WithTx(ctx, func(ctx context.Context) error {
		ids, err := s.groupMembers(ctx, eventID, group)
		if err != nil {
			return err
		}
		users, err := s.stores.Users.ListByIDs(ctx, ids)
		if err != nil {
			return err
		}
		// Entrants without a profile row never opted out.
		optedOut := make(map[string]bool)
		for _, u := range users {
			if !u.NotificationsEnabled {
				optedOut[u.ID] = true
			}
		}
		recipients = make([]string, 0, len(ids))
		for _, id := range ids {
			if optedOut[id] {
				continue
			}
			if _, err := f.notify(ctx, notice{
				UserID:      id,
				EventID:     eventID,
				Type:        typ,
				Title:       title,
				Message:     message,
				OrganizerID: organizerID,
			}); err != nil {
				return err
			}
			recipients = append(recipients, id)
		}
		return nil
	})
	if err != nil {
		return nil, wrapErr("notify group", err)
	}
	s.delivery.Flush(ctx, f)
	s.logger.Info("group notified", "event_id", eventID, "group", group, "recipients", len(recipients))
	return recipients, nil
}

func (s *notificationService) groupMembers(ctx context.Context, eventID, group string) ([]string, error) {
	var ids []string
	switch group {
	case domain.GroupWaiting:
		entries, err := s.stores.Waitlist.ListWaiting(ctx, eventID)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			ids = append(ids, e.UserID)
		}
	case domain.GroupInvited:
		invites, err := s.stores.Invites.ListByEventID(ctx, eventID)
		if err != nil {
			return nil, err
		}
		for _, inv := range invites {
			ids = append(ids, inv.UserID)
		}
	case domain.GroupRegistered:
		regs, err := s.stores.Registrations.ListByEventID(ctx, eventID)
		if err != nil {
			return nil, err
		}
		for _, r := range regs {
			ids = append(ids, r.UserID)
		}
	case domain.GroupCancelled:
		cancellations, err := s.stores.Cancellations.ListByEventID(ctx, eventID)
		if err != nil {
			return nil, err
		}
		seen := make(map[string]bool, len(cancellations))
		for _, c := range cancellations {
			if !seen[c.UserID] {
				seen[c.UserID] = true
				ids = append(ids, c.UserID)
			}
		}
	default:
		return nil, domain.ErrInvalidInput
	}
	return ids, nil
}
