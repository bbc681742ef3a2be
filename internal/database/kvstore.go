package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// KVStore persists the engine's working set as one JSON blob per namespace in
// the social_state table. Absent namespaces load as (nil, nil).
type KVStore struct {
	pool *pgxpool.Pool
}

func NewKVStore(pool *pgxpool.Pool) *KVStore {
	return &KVStore{pool: pool}
}

func (s *KVStore) Load(ctx context.Context, namespace string) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		"SELECT data FROM social_state WHERE namespace = $1",
		namespace,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading namespace %q: %w", namespace, err)
	}
	return data, nil
}

func (s *KVStore) Save(ctx context.Context, namespace string, data []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO social_state (namespace, data, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (namespace)
		 DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		namespace, data,
	)
	if err != nil {
		return fmt.Errorf("saving namespace %q: %w", namespace, err)
	}
	return nil
}
