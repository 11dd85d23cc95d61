// Package redis provides the Redis-backed StateStore and ExecutionLocker,
// for deployments where pipeline state and run serialization must survive
// a single process.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/sluice/pkg/pipeline"
	"github.com/aretw0/sluice/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// Store implements ports.StateStore using Redis.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures the Store.
type Option func(*Store)

// WithTTL sets the expiration for persisted states.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for persisted states.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "sluice:state:",
		ttl:    0, // no expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *Store) key(pipelineID string) string {
	return s.prefix + pipelineID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the state to Redis and indexes the pipeline ID.
func (s *Store) Save(ctx context.Context, pipelineID string, st pipeline.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(pipelineID), data, s.ttl)
	pipe.SAdd(ctx, s.indexKey(), pipelineID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the state from Redis.
func (s *Store) Load(ctx context.Context, pipelineID string) (pipeline.State, error) {
	val, err := s.client.Get(ctx, s.key(pipelineID)).Result()
	if err != nil {
		if err == backend.Nil {
			return pipeline.State{}, ports.ErrStateNotFound
		}
		return pipeline.State{}, fmt.Errorf("failed to get from redis: %w", err)
	}

	var st pipeline.State
	if err := json.Unmarshal([]byte(val), &st); err != nil {
		return pipeline.State{}, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return st, nil
}

// Delete removes the state and its index entry.
func (s *Store) Delete(ctx context.Context, pipelineID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(pipelineID))
	pipe.SRem(ctx, s.indexKey(), pipelineID)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns the indexed pipeline IDs, pruning entries whose state key
// has expired.
func (s *Store) List(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list states: %w", err)
	}

	live := make([]string, 0, len(ids))
	for _, id := range ids {
		exists, err := s.client.Exists(ctx, s.key(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to check state %q: %w", id, err)
		}
		if exists == 0 {
			s.client.SRem(ctx, s.indexKey(), id)
			continue
		}
		live = append(live, id)
	}
	return live, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
