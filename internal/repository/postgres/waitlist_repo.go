package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"eventlottery/internal/domain"
)

type waitlistRepository struct {
	DB *sql.DB
}

func NewWaitlistRepository(db *sql.DB) domain.WaitlistRepository {
	return &waitlistRepository{DB: db}
}

const waitlistColumns = `event_id, user_id, status, joined_at, latitude, longitude, last_result`

func scanWaitlistEntry(row rowScanner) (*domain.WaitlistEntry, error) {
	w := &domain.WaitlistEntry{}
	var lat, lng sql.NullFloat64
	var lastResult sql.NullString
	if err := row.Scan(&w.EventID, &w.UserID, &w.Status, &w.JoinedAt, &lat, &lng, &lastResult); err != nil {
		return nil, err
	}
	if lat.Valid && lng.Valid {
		w.Coordinate = &domain.Coordinate{Latitude: lat.Float64, Longitude: lng.Float64}
	}
	if lastResult.Valid {
		w.LastResult = &lastResult.String
	}
	return w, nil
}

func (r *waitlistRepository) Create(ctx context.Context, w *domain.WaitlistEntry) error {
	query := `
		INSERT INTO waitlist_entries (event_id, user_id, status, joined_at, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	var lat, lng sql.NullFloat64
	if w.Coordinate != nil {
		lat = sql.NullFloat64{Float64: w.Coordinate.Latitude, Valid: true}
		lng = sql.NullFloat64{Float64: w.Coordinate.Longitude, Valid: true}
	}
	_, err := conn(ctx, r.DB).ExecContext(ctx, query, w.EventID, w.UserID, w.Status, w.JoinedAt, lat, lng)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyPresent
		}
		return storeError("create waitlist entry", err)
	}
	return nil
}

func (r *waitlistRepository) Get(ctx context.Context, eventID, userID string) (*domain.WaitlistEntry, error) {
	query := `SELECT ` + waitlistColumns + ` FROM waitlist_entries WHERE event_id = $1 AND user_id = $2`
	w, err := scanWaitlistEntry(conn(ctx, r.DB).QueryRowContext(ctx, query, eventID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storeError("get waitlist entry", err)
	}
	return w, nil
}

func (r *waitlistRepository) Delete(ctx context.Context, eventID, userID string) (bool, error) {
	query := `DELETE FROM waitlist_entries WHERE event_id = $1 AND user_id = $2`
	res, err := conn(ctx, r.DB).ExecContext(ctx, query, eventID, userID)
	if err != nil {
		return false, storeError("delete waitlist entry", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storeError("delete waitlist entry", err)
	}
	return n > 0, nil
}

func (r *waitlistRepository) CountWaiting(ctx context.Context, eventID string) (int, error) {
	query := `SELECT COUNT(*) FROM waitlist_entries WHERE event_id = $1 AND status = $2`
	var n int
	if err := conn(ctx, r.DB).QueryRowContext(ctx, query, eventID, domain.WaitlistStatusWaiting).Scan(&n); err != nil {
		return 0, storeError("count waitlist", err)
	}
	return n, nil
}

func (r *waitlistRepository) ListWaiting(ctx context.Context, eventID string) ([]*domain.WaitlistEntry, error) {
	query := `
		SELECT ` + waitlistColumns + `
		FROM waitlist_entries
		WHERE event_id = $1 AND status = $2
		ORDER BY joined_at, user_id
	`
	return r.list(ctx, query, eventID, domain.WaitlistStatusWaiting)
}

func (r *waitlistRepository) ListByEventID(ctx context.Context, eventID string, params domain.PaginationParams) ([]*domain.WaitlistEntry, int, error) {
	params = params.Normalize()
	total, err := r.CountWaiting(ctx, eventID)
	if err != nil {
		return nil, 0, err
	}
	query := `
		SELECT ` + waitlistColumns + `
		FROM waitlist_entries
		WHERE event_id = $1 AND status = $2
		ORDER BY joined_at, user_id
		LIMIT $3 OFFSET $4
	`
	entries, err := r.list(ctx, query, eventID, domain.WaitlistStatusWaiting, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *waitlistRepository) list(ctx context.Context, query string, args ...any) ([]*domain.WaitlistEntry, error) {
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError("list waitlist", err)
	}
	defer rows.Close()

	entries := make([]*domain.WaitlistEntry, 0)
	for rows.Next() {
		w, err := scanWaitlistEntry(rows)
		if err != nil {
			return nil, storeError("scan waitlist entry", err)
		}
		entries = append(entries, w)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list waitlist", err)
	}
	return entries, nil
}

func (r *waitlistRepository) ListCoordinates(ctx context.Context, eventID string) ([]domain.Coordinate, error) {
	query := `
		SELECT latitude, longitude
		FROM waitlist_entries
		WHERE event_id = $1 AND status = $2 AND latitude IS NOT NULL AND longitude IS NOT NULL
		ORDER BY joined_at, user_id
	`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, eventID, domain.WaitlistStatusWaiting)
	if err != nil {
		return nil, storeError("list coordinates", err)
	}
	defer rows.Close()

	coords := make([]domain.Coordinate, 0)
	for rows.Next() {
		var c domain.Coordinate
		if err := rows.Scan(&c.Latitude, &c.Longitude); err != nil {
			return nil, storeError("scan coordinate", err)
		}
		coords = append(coords, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list coordinates", err)
	}
	return coords, nil
}

// LastCoordinate returns the position on the entrant's newest waitlist entry that
// carries one, across all events. ErrNotFound when none does.
func (r *waitlistRepository) LastCoordinate(ctx context.Context, userID string) (*domain.Coordinate, error) {
	query := `
		SELECT latitude, longitude
		FROM waitlist_entries
		WHERE user_id = $1 AND latitude IS NOT NULL AND longitude IS NOT NULL
		ORDER BY joined_at DESC
		LIMIT 1
	`
	var c domain.Coordinate
	err := conn(ctx, r.DB).QueryRowContext(ctx, query, userID).Scan(&c.Latitude, &c.Longitude)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storeError("last coordinate", err)
	}
	return &c, nil
}

func (r *waitlistRepository) MarkNotSelected(ctx context.Context, eventID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	query := `UPDATE waitlist_entries SET last_result = $2 WHERE event_id = $1 AND user_id = ANY($3)`
	if _, err := conn(ctx, r.DB).ExecContext(ctx, query, eventID, domain.LastResultNotSelected, pq.Array(userIDs)); err != nil {
		return storeError("mark not selected", err)
	}
	return nil
}
