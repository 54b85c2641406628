package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

func setupMockStore(t *testing.T, table string) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err, "failed to open sqlmock database")
	t.Cleanup(func() { db.Close() })

	return NewPostgresStore(sqlx.NewDb(db, "pgx"), table), mock
}

func TestSQLStore_Get(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta(`SELECT value FROM "kv_store" WHERE key = $1`)

	t.Run("Success: Returns stored value", func(t *testing.T) {
		store, mock := setupMockStore(t, "")
		mock.ExpectQuery(query).
			WithArgs("ada:userHabits").
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(`[]`))

		val, err := store.Get(ctx, "ada:userHabits")

		require.NoError(t, err)
		assert.Equal(t, "[]", val)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error: Missing key maps to ErrKeyNotFound", func(t *testing.T) {
		store, mock := setupMockStore(t, "")
		mock.ExpectQuery(query).
			WithArgs("nope").
			WillReturnRows(sqlmock.NewRows([]string{"value"}))

		_, err := store.Get(ctx, "nope")

		assert.ErrorIs(t, err, domain.ErrKeyNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Fail: Driver error is wrapped", func(t *testing.T) {
		store, mock := setupMockStore(t, "")
		errConn := errors.New("connection reset")
		mock.ExpectQuery(query).WithArgs("k").WillReturnError(errConn)

		_, err := store.Get(ctx, "k")

		assert.ErrorIs(t, err, errConn)
		assert.NotErrorIs(t, err, domain.ErrKeyNotFound)
	})
}

func TestSQLStore_SetRemove(t *testing.T) {
	ctx := context.Background()

	t.Run("Success: Set upserts", func(t *testing.T) {
		store, mock := setupMockStore(t, "habits_kv")
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "habits_kv" (key, value, updated_at) VALUES ($1, $2, CURRENT_TIMESTAMP) ON CONFLICT (key) DO UPDATE SET value = excluded.value`)).
			WithArgs("userDetails", `{"name":"Ada"}`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, store.Set(ctx, "userDetails", `{"name":"Ada"}`))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success: Remove of absent key is not an error", func(t *testing.T) {
		store, mock := setupMockStore(t, "")
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "kv_store" WHERE key = $1`)).
			WithArgs("ghost").
			WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, store.Remove(ctx, "ghost"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Fail: Set error propagates", func(t *testing.T) {
		store, mock := setupMockStore(t, "")
		errDown := errors.New("db down")
		mock.ExpectExec("INSERT INTO").WillReturnError(errDown)

		err := store.Set(ctx, "k", "v")

		assert.ErrorIs(t, err, errDown)
	})

	t.Run("Success: Table name is quoted", func(t *testing.T) {
		store, mock := setupMockStore(t, `weird"name`)
		mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "weird""name"`)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, store.EnsureSchema(ctx))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
