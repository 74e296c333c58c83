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

func TestNotificationRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	n := &domain.Notification{
		ID: "n-1", UserID: "u-1", Type: domain.NotificationLotteryWin, EventID: "ev-1",
		Title: "You're in", Message: "Accept your spot", CreatedAt: at,
	}
	mock.ExpectExec(`INSERT INTO notifications`).
		WithArgs("n-1", "u-1", "lottery_win", "ev-1", "You're in", "Accept your spot", at, false, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewNotificationRepository(db).Create(context.Background(), n))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_ListByUserID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	cols := []string{"id", "user_id", "type", "event_id", "title", "message", "created_at", "read", "response_status"}
	mock.ExpectQuery(`FROM notifications`).
		WithArgs("u-1", true).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("n-2", "u-1", "lottery_win", "ev-1", "t", "m", at, false, "accepted").
			AddRow("n-1", "u-1", "bulk_message", "ev-1", "t", "m", at, false, nil))

	list, err := NewNotificationRepository(db).ListByUserID(context.Background(), "u-1", true)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, domain.ResponseAccepted, *list[0].ResponseStatus)
	require.Nil(t, list[1].ResponseStatus)
}

func TestNotificationRepository_MarkRead(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		execErr  error
		wantErr  error
	}{
		{name: "marked", affected: 1},
		{name: "not owned or missing", affected: 0, wantErr: domain.ErrNotFound},
		{name: "db error", execErr: sql.ErrConnDone, wantErr: domain.ErrStore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			exp := mock.ExpectExec(`UPDATE notifications SET read = TRUE`).WithArgs("n-1", "u-1")
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, tt.affected))
			}

			err = NewNotificationRepository(db).MarkRead(context.Background(), "u-1", "n-1")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestNotificationRepository_SetResponse_OnlyUnanswered(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`SET response_status = \$3\s+WHERE user_id = \$1 AND event_id = \$2 AND type = \$4 AND response_status IS NULL`).
		WithArgs("u-1", "ev-1", "declined", "lottery_win").
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := NewNotificationRepository(db).SetResponse(context.Background(), "u-1", "ev-1", domain.ResponseDeclined)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_CreateLog(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO notification_logs`).WillReturnResult(sqlmock.NewResult(0, 1))
	err = NewNotificationRepository(db).CreateLog(context.Background(), &domain.NotificationLog{
		ID: "l-1", EventID: "ev-1", OrganizerID: "org-1", RecipientID: "u-1", Type: "bulk_message",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
