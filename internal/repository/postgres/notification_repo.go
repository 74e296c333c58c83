package postgres

import (
	"context"
	"database/sql"

	"eventlottery/internal/domain"
)

type notificationRepository struct {
	DB *sql.DB
}

func NewNotificationRepository(db *sql.DB) domain.NotificationRepository {
	return &notificationRepository{DB: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, type, event_id, title, message, created_at, read, response_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := conn(ctx, r.DB).ExecContext(ctx, query,
		n.ID, n.UserID, n.Type, n.EventID, n.Title, n.Message, n.CreatedAt, n.Read, n.ResponseStatus)
	if err != nil {
		return storeError("create notification", err)
	}
	return nil
}

func (r *notificationRepository) CreateLog(ctx context.Context, l *domain.NotificationLog) error {
	query := `
		INSERT INTO notification_logs (id, event_id, organizer_id, recipient_id, type, title, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := conn(ctx, r.DB).ExecContext(ctx, query,
		l.ID, l.EventID, l.OrganizerID, l.RecipientID, l.Type, l.Title, l.Message, l.CreatedAt)
	if err != nil {
		return storeError("create notification log", err)
	}
	return nil
}

func (r *notificationRepository) ListByUserID(ctx context.Context, userID string, unreadOnly bool) ([]*domain.Notification, error) {
	query := `
		SELECT id, user_id, type, event_id, title, message, created_at, read, response_status
		FROM notifications
		WHERE user_id = $1 AND ($2 = FALSE OR read = FALSE)
		ORDER BY created_at DESC, id
	`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, userID, unreadOnly)
	if err != nil {
		return nil, storeError("list notifications", err)
	}
	defer rows.Close()

	out := make([]*domain.Notification, 0)
	for rows.Next() {
		n := &domain.Notification{}
		var response sql.NullString
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.EventID, &n.Title, &n.Message, &n.CreatedAt, &n.Read, &response); err != nil {
			return nil, storeError("scan notification", err)
		}
		if response.Valid {
			n.ResponseStatus = &response.String
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list notifications", err)
	}
	return out, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, notificationID string) error {
	query := `UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`
	res, err := conn(ctx, r.DB).ExecContext(ctx, query, notificationID, userID)
	if err != nil {
		return storeError("mark notification read", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeError("mark notification read", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *notificationRepository) SetResponse(ctx context.Context, userID, eventID, status string) (int, error) {
	query := `
		UPDATE notifications
		SET response_status = $3
		WHERE user_id = $1 AND event_id = $2 AND type = $4 AND response_status IS NULL
	`
	res, err := conn(ctx, r.DB).ExecContext(ctx, query, userID, eventID, status, domain.NotificationLotteryWin)
	if err != nil {
		return 0, storeError("set notification response", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storeError("set notification response", err)
	}
	return int(n), nil
}
