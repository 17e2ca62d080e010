package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"kasirlokal/backend/internal/store"
)

type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

func New(ctx context.Context, databaseURL string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db, logger: logger.Named("postgres")}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS pos_slots (
			key        TEXT PRIMARY KEY,
			value      JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil && !isDuplicateObject(err) {
		return err
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Load(ctx context.Context, key string, dest any) (bool, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM pos_slots WHERE key = $1`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, store.Wrap("load", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, store.Wrap("load", key, err)
	}
	return true, nil
}

func (s *Store) Save(ctx context.Context, key string, value any) error {
	return s.SaveMany(ctx, map[string]any{key: value})
}

// SaveMany upserts every slot inside one serializable transaction.
func (s *Store) SaveMany(ctx context.Context, values map[string]any) error {
	keys := store.SortedKeys(values)
	encoded := make([][]byte, len(keys))
	for i, key := range keys {
		raw, err := json.Marshal(values[key])
		if err != nil {
			return store.Wrap("save", key, err)
		}
		encoded[i] = raw
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return store.Wrap("save", "", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, key := range keys {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO pos_slots (key, value, updated_at)
			VALUES ($1, $2::jsonb, now())
			ON CONFLICT (key)
			DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
		`, key, string(encoded[i]))
		if err != nil {
			return store.Wrap("save", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return store.Wrap("save", "", err)
	}
	return nil
}

// isDuplicateObject reports races between two processes creating the table.
func isDuplicateObject(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" || pgErr.Code == "42P07"
	}
	return false
}
