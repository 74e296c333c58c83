package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"eventlottery/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

const eventColumns = `id, owner_id, title, description, location, price_cents, event_at,
		registration_opens_at, registration_closes_at, event_capacity, waitlist_capacity,
		geolocation_required, lottery_done, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var eventAt, opensAt, closesAt sql.NullTime
	err := row.Scan(
		&e.ID, &e.OwnerID, &e.Title, &e.Description, &e.Location, &e.PriceCents, &eventAt,
		&opensAt, &closesAt, &e.EventCapacity, &e.WaitlistCapacity,
		&e.GeolocationRequired, &e.LotteryDone, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.EventAt = nullTimePtr(eventAt)
	e.RegistrationOpensAt = nullTimePtr(opensAt)
	e.RegistrationClosesAt = nullTimePtr(closesAt)
	return e, nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (owner_id, title, description, location, price_cents, event_at,
			registration_opens_at, registration_closes_at, event_capacity, waitlist_capacity,
			geolocation_required, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`
	err := conn(ctx, r.DB).QueryRowContext(ctx, query,
		e.OwnerID, e.Title, e.Description, e.Location, e.PriceCents, e.EventAt,
		e.RegistrationOpensAt, e.RegistrationClosesAt, e.EventCapacity, e.WaitlistCapacity,
		e.GeolocationRequired, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		return storeError("create event", err)
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	return r.get(ctx, query, id)
}

func (r *eventRepository) GetForUpdate(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 FOR UPDATE`
	return r.get(ctx, query, id)
}

func (r *eventRepository) get(ctx context.Context, query, id string) (*domain.Event, error) {
	e, err := scanEvent(conn(ctx, r.DB).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storeError("get event", err)
	}
	return e, nil
}

func (r *eventRepository) TryAcquireLottery(ctx context.Context, eventID string, now time.Time, ttl time.Duration) (bool, error) {
	query := `
		UPDATE events
		SET lottery_in_progress = TRUE, lottery_started_at = $2
		WHERE id = $1
		  AND (lottery_in_progress = FALSE OR lottery_started_at IS NULL OR lottery_started_at < $3)
	`
	res, err := conn(ctx, r.DB).ExecContext(ctx, query, eventID, now, now.Add(-ttl))
	if err != nil {
		return false, storeError("acquire lottery", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storeError("acquire lottery", err)
	}
	return n == 1, nil
}

func (r *eventRepository) ReleaseLottery(ctx context.Context, eventID string) error {
	query := `UPDATE events SET lottery_in_progress = FALSE, lottery_started_at = NULL WHERE id = $1`
	if _, err := conn(ctx, r.DB).ExecContext(ctx, query, eventID); err != nil {
		return storeError("release lottery", err)
	}
	return nil
}

func (r *eventRepository) MarkLotteryDone(ctx context.Context, eventID string, at time.Time) error {
	query := `UPDATE events SET lottery_done = TRUE, updated_at = $2 WHERE id = $1`
	res, err := conn(ctx, r.DB).ExecContext(ctx, query, eventID, at)
	if err != nil {
		return storeError("mark lottery done", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
