package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"eventlottery/internal/domain"
	"eventlottery/internal/metrics"
)

// fanout collects the notifications and state changes of one transaction. Rows
// are written immediately through the transaction context; the matching feed and
// queue messages are held until Delivery.Flush runs after commit.
type fanout struct {
	notifications domain.NotificationRepository
	now           time.Time

	changes  []domain.ChangeEvent
	messages []domain.NotificationMessage
	created  map[string]int
}

func newFanout(repo domain.NotificationRepository, now time.Time) *fanout {
	return &fanout{notifications: repo, now: now, created: make(map[string]int)}
}

type notice struct {
	UserID  string
	EventID string
	Type    string
	Title   string
	Message string
	// OrganizerID, when set, also writes an audit log row.
	OrganizerID string
}

// notify writes the notification, and its log row when on an organizer's behalf.
func (f *fanout) notify(ctx context.Context, n notice) (*domain.Notification, error) {
	rec := &domain.Notification{
		ID:        uuid.NewString(),
		UserID:    n.UserID,
		Type:      n.Type,
		EventID:   n.EventID,
		Title:     n.Title,
		Message:   n.Message,
		CreatedAt: f.now,
	}
	if err := f.notifications.Create(ctx, rec); err != nil {
		return nil, err
	}
	if n.OrganizerID != "" {
		entry := &domain.NotificationLog{
			ID:          uuid.NewString(),
			EventID:     n.EventID,
			OrganizerID: n.OrganizerID,
			RecipientID: n.UserID,
			Type:        n.Type,
			Title:       n.Title,
			Message:     n.Message,
			CreatedAt:   f.now,
		}
		if err := f.notifications.CreateLog(ctx, entry); err != nil {
			return nil, err
		}
	}
	f.messages = append(f.messages, domain.NotificationMessage{
		NotificationID: rec.ID,
		UserID:         rec.UserID,
		EventID:        rec.EventID,
		Type:           rec.Type,
		Title:          rec.Title,
		Message:        rec.Message,
		CreatedAt:      rec.CreatedAt,
	})
	f.created[rec.Type]++
	f.changed(n.EventID, n.UserID, domain.ChangeNotification)
	return rec, nil
}

func (f *fanout) changed(eventID, userID string, kind domain.ChangeKind) {
	f.changes = append(f.changes, domain.ChangeEvent{EventID: eventID, UserID: userID, Kind: kind, At: f.now})
}

// Delivery pushes committed effects to subscribers and the delivery queue.
// Either channel may be nil. Failures are logged and counted, never retried:
// the rows are already committed and remain the source of truth.
type Delivery struct {
	feed      domain.ChangeFeed
	publisher domain.NotificationPublisher
	logger    *slog.Logger
}

func NewDelivery(feed domain.ChangeFeed, publisher domain.NotificationPublisher, logger *slog.Logger) *Delivery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Delivery{feed: feed, publisher: publisher, logger: logger}
}

// Flush must only be called after the transaction that filled f committed.
func (d *Delivery) Flush(ctx context.Context, f *fanout) {
	if d == nil || f == nil {
		return
	}
	for typ, n := range f.created {
		metrics.NotificationsCreatedTotal.WithLabelValues(typ).Add(float64(n))
	}
	// The request may already be cancelled; committed effects still go out.
	ctx = context.WithoutCancel(ctx)
	if d.feed != nil {
		for _, ev := range f.changes {
			if err := d.feed.Publish(ctx, ev); err != nil {
				metrics.DeliveryFailuresTotal.WithLabelValues("feed").Inc()
				d.logger.Warn("publish change failed", "event_id", ev.EventID, "user_id", ev.UserID, "kind", ev.Kind, "error", err)
			}
		}
	}
	if d.publisher != nil {
		for _, msg := range f.messages {
			if err := d.publisher.Publish(ctx, msg); err != nil {
				metrics.DeliveryFailuresTotal.WithLabelValues("queue").Inc()
				d.logger.Warn("publish notification failed", "notification_id", msg.NotificationID, "user_id", msg.UserID, "error", err)
			}
		}
	}
}
