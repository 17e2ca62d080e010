package redis

import (
	"context"
	"encoding/json"
	"errors"

	goredis "github.com/redis/go-redis/v9"

	"kasirlokal/backend/internal/store"
)

// Store keeps each slot as one string key holding the JSON document.
type Store struct {
	client *goredis.Client
	prefix string
}

func New(addr string, password string, db int, prefix string) *Store {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewWithClient(client, prefix)
}

func NewWithClient(client *goredis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(slot string) string {
	return s.prefix + "slot:" + slot
}

func (s *Store) Load(ctx context.Context, key string, dest any) (bool, error) {
	val, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, store.Wrap("load", key, err)
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, store.Wrap("load", key, err)
	}
	return true, nil
}

func (s *Store) Save(ctx context.Context, key string, value any) error {
	return s.SaveMany(ctx, map[string]any{key: value})
}

// SaveMany writes every slot inside one MULTI/EXEC block.
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

	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for i, key := range keys {
			pipe.Set(ctx, s.key(key), encoded[i], 0)
		}
		return nil
	})
	if err != nil {
		return store.Wrap("save", "", err)
	}
	return nil
}
