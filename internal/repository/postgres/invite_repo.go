package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventlottery/internal/domain"
)

type inviteRepository struct {
	DB *sql.DB
}

func NewInviteRepository(db *sql.DB) domain.InviteRepository {
	return &inviteRepository{DB: db}
}

func (r *inviteRepository) Create(ctx context.Context, inv *domain.Invite) error {
	query := `
		INSERT INTO invites (event_id, user_id, status, draw_id, invited_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := conn(ctx, r.DB).ExecContext(ctx, query, inv.EventID, inv.UserID, inv.Status, inv.DrawID, inv.InvitedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyPresent
		}
		return storeError("create invite", err)
	}
	return nil
}

func (r *inviteRepository) Get(ctx context.Context, eventID, userID string) (*domain.Invite, error) {
	query := `
		SELECT event_id, user_id, status, COALESCE(draw_id::text, ''), invited_at
		FROM invites
		WHERE event_id = $1 AND user_id = $2
	`
	inv := &domain.Invite{}
	err := conn(ctx, r.DB).QueryRowContext(ctx, query, eventID, userID).
		Scan(&inv.EventID, &inv.UserID, &inv.Status, &inv.DrawID, &inv.InvitedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storeError("get invite", err)
	}
	return inv, nil
}

func (r *inviteRepository) Delete(ctx context.Context, eventID, userID string) (bool, error) {
	query := `DELETE FROM invites WHERE event_id = $1 AND user_id = $2`
	return deleteRows(ctx, conn(ctx, r.DB), "delete invite", query, eventID, userID)
}

func (r *inviteRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Invite, error) {
	query := `
		SELECT event_id, user_id, status, COALESCE(draw_id::text, ''), invited_at
		FROM invites
		WHERE event_id = $1
		ORDER BY invited_at, user_id
	`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, storeError("list invites", err)
	}
	defer rows.Close()

	invites := make([]*domain.Invite, 0)
	for rows.Next() {
		inv := &domain.Invite{}
		if err := rows.Scan(&inv.EventID, &inv.UserID, &inv.Status, &inv.DrawID, &inv.InvitedAt); err != nil {
			return nil, storeError("scan invite", err)
		}
		invites = append(invites, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list invites", err)
	}
	return invites, nil
}

// deleteRows runs a DELETE and reports whether anything was removed.
func deleteRows(ctx context.Context, q querier, op, query string, args ...any) (bool, error) {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return false, storeError(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storeError(op, err)
	}
	return n > 0, nil
}
