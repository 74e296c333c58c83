package postgres

import (
	"context"
	"database/sql"

	"eventlottery/internal/domain"
)

type lotteryRepository struct {
	DB *sql.DB
}

func NewLotteryRepository(db *sql.DB) domain.LotteryRepository {
	return &lotteryRepository{DB: db}
}

func (r *lotteryRepository) CreateDraw(ctx context.Context, d *domain.LotteryDraw) error {
	query := `
		INSERT INTO lottery_draws (id, event_id, organizer_id, requested, selected, pool_size, replacement, drawn_at)
		VALUES ($1, $2, NULLIF($3, '')::uuid, $4, $5, $6, $7, $8)
	`
	_, err := conn(ctx, r.DB).ExecContext(ctx, query,
		d.ID, d.EventID, d.OrganizerID, d.Requested, d.Selected, d.PoolSize, d.Replacement, d.DrawnAt)
	if err != nil {
		return storeError("create lottery draw", err)
	}
	return nil
}

func (r *lotteryRepository) ListDrawsByEventID(ctx context.Context, eventID string) ([]*domain.LotteryDraw, error) {
	query := `
		SELECT id, event_id, COALESCE(organizer_id::text, ''), requested, selected, pool_size, replacement, drawn_at
		FROM lottery_draws
		WHERE event_id = $1
		ORDER BY drawn_at
	`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, storeError("list lottery draws", err)
	}
	defer rows.Close()

	out := make([]*domain.LotteryDraw, 0)
	for rows.Next() {
		d := &domain.LotteryDraw{}
		if err := rows.Scan(&d.ID, &d.EventID, &d.OrganizerID, &d.Requested, &d.Selected, &d.PoolSize, &d.Replacement, &d.DrawnAt); err != nil {
			return nil, storeError("scan lottery draw", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list lottery draws", err)
	}
	return out, nil
}
