package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	redisKeyPrefix   = "payment_session:"
	redisRetention   = 24 * time.Hour
	redisMaxAttempts = 5
)

// RedisStore is a SessionStore shared between service instances.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a RedisStore on rdb.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func redisKey(reference string) string {
	return redisKeyPrefix + reference
}

// Create stores session with SETNX so an existing reference is never overwritten.
func (s *RedisStore) Create(ctx context.Context, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal payment session: %w", err)
	}
	ttl := time.Until(session.ExpiresAt) + redisRetention
	if ttl <= 0 {
		ttl = redisRetention
	}
	ok, err := s.rdb.SetNX(ctx, redisKey(session.Reference), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to store payment session: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrReferenceTaken, session.Reference)
	}
	return nil
}

// Get loads the session stored under reference.
func (s *RedisStore) Get(ctx context.Context, reference string) (*Session, error) {
	return s.load(ctx, s.rdb, reference)
}

// Resolve records outcome inside an optimistic WATCH transaction.
func (s *RedisStore) Resolve(ctx context.Context, reference string, outcome Outcome, at time.Time) (*Session, error) {
	key := redisKey(reference)
	var result *Session

	txf := func(tx *redis.Tx) error {
		session, err := s.load(ctx, tx, reference)
		if err != nil {
			return err
		}
		if session.Resolved() {
			result = session
			return ErrSessionResolved
		}
		session.Outcome = &outcome
		session.ResolvedAt = &at
		data, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("failed to marshal payment session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, redis.KeepTTL)
			return nil
		})
		if err == nil {
			result = session
		}
		return err
	}

	for i := 0; i < redisMaxAttempts; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return result, err
	}
	return nil, fmt.Errorf("failed to resolve payment session %s: too much contention", reference)
}

func (s *RedisStore) load(ctx context.Context, c redis.Cmdable, reference string) (*Session, error) {
	data, err := c.Get(ctx, redisKey(reference)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, reference)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load payment session %s: %w", reference, err)
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode payment session %s: %w", reference, err)
	}
	return &session, nil
}
