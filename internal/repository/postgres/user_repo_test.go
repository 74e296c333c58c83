package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"eventlottery/internal/domain"
)

func TestUserRepository_GetByID(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cols := []string{"id", "email", "name", "last_name", "notifications_enabled", "created_at"}

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`FROM users\s+WHERE id = \$1`).
			WithArgs("u-1").
			WillReturnRows(sqlmock.NewRows(cols).AddRow("u-1", "a@example.com", "Ana", "Lee", false, at))

		u, err := NewUserRepository(db).GetByID(context.Background(), "u-1")
		require.NoError(t, err)
		require.Equal(t, "a@example.com", u.Email)
		require.False(t, u.NotificationsEnabled)
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`FROM users`).WillReturnError(sql.ErrNoRows)
		_, err = NewUserRepository(db).GetByID(context.Background(), "u-404")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestUserRepository_ListByIDs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cols := []string{"id", "email", "name", "last_name", "notifications_enabled", "created_at"}
	mock.ExpectQuery(`WHERE id = ANY\(\$1\)`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("u-1", "a@example.com", "Ana", "", true, at).
			AddRow("u-2", "b@example.com", "Ben", "", false, at))

	repo := NewUserRepository(db)
	users, err := repo.ListByIDs(context.Background(), []string{"u-1", "u-2"})
	require.NoError(t, err)
	require.Len(t, users, 2)

	empty, err := repo.ListByIDs(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, empty)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFactsReader_Facts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`EXISTS \(SELECT 1 FROM registrations`).
		WithArgs("ev-1", "u-1", "waiting").
		WillReturnRows(sqlmock.NewRows([]string{"reg", "inv", "wait"}).AddRow(false, true, true))

	f, err := NewFactsReader(db).Facts(context.Background(), "ev-1", "u-1")
	require.NoError(t, err)
	require.Equal(t, domain.RegistrationFacts{HasInvite: true, HasWaiting: true}, f)
	require.Equal(t, domain.StateInvited, f.State())
}

func TestFactsReader_ListByUserID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`GROUP BY event_id`).
		WithArgs("u-1", "waiting").
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "reg", "inv", "wait"}).
			AddRow("ev-1", true, false, false).
			AddRow("ev-2", false, false, true))

	got, err := NewFactsReader(db).ListByUserID(context.Background(), "u-1")
	require.NoError(t, err)
	require.Equal(t, []domain.EventFacts{
		{EventID: "ev-1", RegistrationFacts: domain.RegistrationFacts{HasRegistration: true}},
		{EventID: "ev-2", RegistrationFacts: domain.RegistrationFacts{HasWaiting: true}},
	}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepository_CreateDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO registrations`).
		WithArgs("ev-1", "u-1", at).
		WillReturnError(uniqueErr())

	err = NewRegistrationRepository(db).Create(context.Background(), &domain.Registration{EventID: "ev-1", UserID: "u-1", RegisteredAt: at})
	require.ErrorIs(t, err, domain.ErrAlreadyPresent)
}

func TestInviteRepository_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM invites`).
		WithArgs("ev-1", "u-1").
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "user_id", "status", "draw_id", "invited_at"}).
			AddRow("ev-1", "u-1", "invited", "d-1", at))

	inv, err := NewInviteRepository(db).Get(context.Background(), "ev-1", "u-1")
	require.NoError(t, err)
	require.Equal(t, "d-1", inv.DrawID)
	require.Equal(t, domain.InviteStatusInvited, inv.Status)
}

func TestLotteryRepository_CreateDraw(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO lottery_draws`).
		WithArgs("d-1", "ev-1", "org-1", 2, 2, 4, false, at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewLotteryRepository(db).CreateDraw(context.Background(), &domain.LotteryDraw{
		ID: "d-1", EventID: "ev-1", OrganizerID: "org-1", Requested: 2, Selected: 2, PoolSize: 4, DrawnAt: at,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
