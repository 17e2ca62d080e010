package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"kasirlokal/backend/internal/store"
)

// Store keeps slots in a single-file SQLite database.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

func New(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: sqlite path is required", store.ErrInvalidInput)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_txlock=immediate", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, logger: logger.Named("sqlite")}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	s.logger.Info("slot store ready", zap.String("path", path))
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS pos_slots (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Load(ctx context.Context, key string, dest any) (bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM pos_slots WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, store.Wrap("load", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, store.Wrap("load", key, err)
	}
	return true, nil
}

func (s *Store) Save(ctx context.Context, key string, value any) error {
	return s.SaveMany(ctx, map[string]any{key: value})
}

func (s *Store) SaveMany(ctx context.Context, values map[string]any) error {
	keys := store.SortedKeys(values)
	encoded := make([]string, len(keys))
	for i, key := range keys {
		raw, err := json.Marshal(values[key])
		if err != nil {
			return store.Wrap("save", key, err)
		}
		encoded[i] = string(raw)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.Wrap("save", "", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for i, key := range keys {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO pos_slots (key, value, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, key, encoded[i], now)
		if err != nil {
			return store.Wrap("save", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return store.Wrap("save", "", err)
	}
	return nil
}
