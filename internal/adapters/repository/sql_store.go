package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

const DefaultTable = "kv_store"

var _ domain.KeyValueStore = (*SQLStore)(nil)

// SQLStore keeps every key in one two-column table. The statements are written
// once and rebound to the placeholder style of the driver.
type SQLStore struct {
	db *sqlx.DB

	schemaQuery string
	getQuery    string
	setQuery    string
	removeQuery string
}

func newSQLStore(db *sqlx.DB, table string) *SQLStore {
	if table == "" {
		table = DefaultTable
	}
	t := pq.QuoteIdentifier(table)

	schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (key TEXT PRIMARY KEY, value TEXT NOT NULL, `+
		`updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP)`, t)
	upsert := fmt.Sprintf(`INSERT INTO %s (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP) `+
		`ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`, t)

	return &SQLStore{
		db:          db,
		schemaQuery: schema,
		getQuery:    db.Rebind(fmt.Sprintf(`SELECT value FROM %s WHERE key = ?`, t)),
		setQuery:    db.Rebind(upsert),
		removeQuery: db.Rebind(fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, t)),
	}
}

func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.schemaQuery); err != nil {
		return fmt.Errorf("failed to create kv table: %w", err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, s.getQuery, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrKeyNotFound
		}
		return "", fmt.Errorf("failed to get key %q: %w", key, err)
	}
	return value, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, s.setQuery, key, value); err != nil {
		return fmt.Errorf("failed to set key %q: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.removeQuery, key); err != nil {
		return fmt.Errorf("failed to remove key %q: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
