// Package idempotency replays the stored response of a mutation repeated with the same
// Idempotency-Key instead of executing it again.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "idempotency:"

// State of a key.
type State int

// Key states.
const (
	StateNew State = iota
	StatePending
	StateDone
)

// Record is a stored response. A record with a zero Status is still pending.
//
// Fingerprint identifies the request body the key was first used with.
type Record struct {
	Fingerprint string `json:"fingerprint"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// RedisStore keeps idempotency records in Redis.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore returns a RedisStore over client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// Reserve marks key as in progress for the request with the given fingerprint. It reports
// false when the key already exists.
func (s *RedisStore) Reserve(ctx context.Context, key, fingerprint string, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(Record{Fingerprint: fingerprint})
	if err != nil {
		return false, fmt.Errorf("encode record: %w", err)
	}

	ok, err := s.client.SetNX(ctx, keyPrefix+key, data, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}

	return ok, nil
}

// Get returns the state of key and its record.
func (s *RedisStore) Get(ctx context.Context, key string) (Record, State, error) {
	val, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, StateNew, nil
	}

	if err != nil {
		return Record{}, StateNew, fmt.Errorf("redis get: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(val, &rec); err != nil {
		return Record{}, StateNew, fmt.Errorf("decode record: %w", err)
	}

	if rec.Status == 0 {
		return rec, StatePending, nil
	}

	return rec, StateDone, nil
}

// Save stores the final record of key.
func (s *RedisStore) Save(ctx context.Context, key string, rec Record, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

// Release forgets key so the request may be sent again.
func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}

	return nil
}
