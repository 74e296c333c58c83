package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventlottery/internal/domain"
)

type registrationRepository struct {
	DB *sql.DB
}

func NewRegistrationRepository(db *sql.DB) domain.RegistrationRepository {
	return &registrationRepository{
		DB: db,
	}
}

func (r *registrationRepository) Create(ctx context.Context, reg *domain.Registration) error {
	query := `
		INSERT INTO registrations (event_id, user_id, registered_at)
		VALUES ($1, $2, $3)
	`
	_, err := conn(ctx, r.DB).ExecContext(ctx, query, reg.EventID, reg.UserID, reg.RegisteredAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyPresent
		}
		return storeError("create registration", err)
	}
	return nil
}

func (r *registrationRepository) Get(ctx context.Context, eventID, userID string) (*domain.Registration, error) {
	query := `
		SELECT event_id, user_id, registered_at
		FROM registrations
		WHERE event_id = $1 AND user_id = $2
	`
	reg := &domain.Registration{}
	err := conn(ctx, r.DB).QueryRowContext(ctx, query, eventID, userID).
		Scan(&reg.EventID, &reg.UserID, &reg.RegisteredAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storeError("get registration", err)
	}
	return reg, nil
}

func (r *registrationRepository) Delete(ctx context.Context, eventID, userID string) (bool, error) {
	query := `DELETE FROM registrations WHERE event_id = $1 AND user_id = $2`
	return deleteRows(ctx, conn(ctx, r.DB), "delete registration", query, eventID, userID)
}

func (r *registrationRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Registration, error) {
	query := `
		SELECT event_id, user_id, registered_at
		FROM registrations
		WHERE event_id = $1
		ORDER BY registered_at, user_id
	`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, storeError("list registrations", err)
	}
	defer rows.Close()

	regs := make([]*domain.Registration, 0)
	for rows.Next() {
		reg := &domain.Registration{}
		if err := rows.Scan(&reg.EventID, &reg.UserID, &reg.RegisteredAt); err != nil {
			return nil, storeError("scan registration", err)
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list registrations", err)
	}
	return regs, nil
}

type cancellationRepository struct {
	DB *sql.DB
}

func NewCancellationRepository(db *sql.DB) domain.CancellationRepository {
	return &cancellationRepository{DB: db}
}

func (r *cancellationRepository) Create(ctx context.Context, c *domain.Cancellation) error {
	query := `
		INSERT INTO cancellations (id, event_id, user_id, kind, reason, cancelled_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := conn(ctx, r.DB).ExecContext(ctx, query, c.ID, c.EventID, c.UserID, c.Kind, c.Reason, c.CancelledAt); err != nil {
		return storeError("create cancellation", err)
	}
	return nil
}

func (r *cancellationRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Cancellation, error) {
	query := `
		SELECT id, event_id, user_id, kind, reason, cancelled_at
		FROM cancellations
		WHERE event_id = $1
		ORDER BY cancelled_at
	`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, storeError("list cancellations", err)
	}
	defer rows.Close()

	out := make([]*domain.Cancellation, 0)
	for rows.Next() {
		c := &domain.Cancellation{}
		if err := rows.Scan(&c.ID, &c.EventID, &c.UserID, &c.Kind, &c.Reason, &c.CancelledAt); err != nil {
			return nil, storeError("scan cancellation", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list cancellations", err)
	}
	return out, nil
}
