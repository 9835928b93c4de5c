package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"storefront-admin/internal/db"

	"github.com/rs/zerolog"
)

// SQLStore keeps values in the session_kv table created by db.RunMigrations.
type SQLStore struct {
	db     *sql.DB
	driver string
	logger zerolog.Logger
}

func NewSQLStore(database *sql.DB, driver string, logger zerolog.Logger) *SQLStore {
	return &SQLStore{
		db:     database,
		driver: driver,
		logger: logger,
	}
}

func (s *SQLStore) Get(ctx context.Context, namespace, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM session_kv WHERE namespace = ? AND "+s.keyColumn()+" = ?",
		namespace, key,
	).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		s.logger.Error().Err(err).Str("namespace", namespace).Str("key", key).Msg("Error reading session value")
		return "", fmt.Errorf("database error: %w", err)
	}
	return value, nil
}

func (s *SQLStore) Set(ctx context.Context, namespace, key, value string) error {
	var query string
	if s.driver == db.DriverMySQL {
		query = "INSERT INTO session_kv (namespace, `key`, value) VALUES (?, ?, ?) " +
			"ON DUPLICATE KEY UPDATE value = VALUES(value)"
	} else {
		query = "INSERT INTO session_kv (namespace, key, value) VALUES (?, ?, ?) " +
			"ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP"
	}

	if _, err := s.db.ExecContext(ctx, query, namespace, key, value); err != nil {
		s.logger.Error().Err(err).Str("namespace", namespace).Str("key", key).Msg("Error writing session value")
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, namespace string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, 0, len(keys)+1)
	args = append(args, namespace)
	for _, k := range keys {
		args = append(args, k)
	}

	query := "DELETE FROM session_kv WHERE namespace = ? AND " + s.keyColumn() + " IN (" + placeholders + ")"
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		s.logger.Error().Err(err).Str("namespace", namespace).Msg("Error deleting session values")
		return fmt.Errorf("failed to delete session values: %w", err)
	}
	return nil
}

// key is reserved in MySQL.
func (s *SQLStore) keyColumn() string {
	if s.driver == db.DriverMySQL {
		return "`key`"
	}
	return "key"
}
