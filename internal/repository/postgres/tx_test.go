package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventlottery/internal/domain"
)

func TestTransactor_CommitsOnSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM invites`).WithArgs("ev-1", "u-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewInviteRepository(db)
	err = NewTransactor(db).WithTx(context.Background(), func(ctx context.Context) error {
		removed, err := repo.Delete(ctx, "ev-1", "u-1")
		assert.True(t, removed)
		return err
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	err = NewTransactor(db).WithTx(context.Background(), func(ctx context.Context) error {
		return domain.ErrWaitlistFull
	})
	require.ErrorIs(t, err, domain.ErrWaitlistFull)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactor_NestedCallsReuseOuterTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	tr := NewTransactor(db)
	err = tr.WithTx(context.Background(), func(ctx context.Context) error {
		outer := txFromContext(ctx)
		return tr.WithTx(ctx, func(inner context.Context) error {
			assert.Same(t, outer, txFromContext(inner))
			return nil
		})
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactor_BeginFailureIsStoreError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin().WillReturnError(sql.ErrConnDone)

	called := false
	err = NewTransactor(db).WithTx(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, domain.ErrStore)
	require.ErrorIs(t, err, sql.ErrConnDone)
	assert.False(t, called)
}

func TestTransactor_CommitFailureIsStoreError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("connection reset"))

	err = NewTransactor(db).WithTx(context.Background(), func(ctx context.Context) error { return nil })
	require.ErrorIs(t, err, domain.ErrStore)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}

func TestStoreError(t *testing.T) {
	err := storeError("get event", errors.New("connection reset"))
	assert.ErrorIs(t, err, domain.ErrStore)

	err = storeError("get event", &pq.Error{Code: "22P02", Message: "invalid input syntax for type uuid"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NotErrorIs(t, err, domain.ErrStore)
}

func uniqueErr() error {
	return &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}
}
