package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"eventlottery/internal/domain"
)

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{DB: db}
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (email, name, last_name, notifications_enabled, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := conn(ctx, r.DB).QueryRowContext(ctx, query, u.Email, u.Name, u.LastName, u.NotificationsEnabled, u.CreatedAt).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyPresent
		}
		return storeError("create user", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, email, name, last_name, notifications_enabled, created_at
		FROM users
		WHERE id = $1
	`
	u := &domain.User{}
	err := conn(ctx, r.DB).QueryRowContext(ctx, query, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.LastName, &u.NotificationsEnabled, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storeError("get user", err)
	}
	return u, nil
}

func (r *userRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	users := make([]*domain.User, 0, len(ids))
	if len(ids) == 0 {
		return users, nil
	}
	query := `
		SELECT id, email, name, last_name, notifications_enabled, created_at
		FROM users
		WHERE id = ANY($1)
	`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, storeError("list users", err)
	}
	defer rows.Close()
	for rows.Next() {
		u := &domain.User{}
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.LastName, &u.NotificationsEnabled, &u.CreatedAt); err != nil {
			return nil, storeError("scan user", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list users", err)
	}
	return users, nil
}
