package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const defaultStateTTL = 2 * time.Hour

// Store keeps attempt UI state between requests.
type Store interface {
	Load(ctx context.Context, userKey string, attemptID int64) (*Attempt, error)
	Save(ctx context.Context, attempt *Attempt) error
	LastStart(ctx context.Context, userKey string) (*StartRecord, error)
	RememberStart(ctx context.Context, userKey string, rec StartRecord) error
}

// RedisStore holds ephemeral attempt state in Redis. Nothing here is durable;
// the backend owns the record of answers and scores.
type RedisStore struct {
	redis  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a state store backed by Redis.
func NewRedisStore(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisStore {
	if ttl <= 0 {
		ttl = defaultStateTTL
	}
	return &RedisStore{
		redis:  client,
		ttl:    ttl,
		logger: logger.With().Str("component", "quiz_store").Logger(),
	}
}

func attemptKey(userKey string, attemptID int64) string {
	return fmt.Sprintf("quiz:attempt:%s:%d", userKey, attemptID)
}

func startKey(userKey string) string {
	return fmt.Sprintf("quiz:start:%s", userKey)
}

// Load returns nil, nil when the attempt is not held for this user.
func (s *RedisStore) Load(ctx context.Context, userKey string, attemptID int64) (*Attempt, error) {
	data, err := s.redis.Get(ctx, attemptKey(userKey, attemptID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attempt: %w", err)
	}

	var attempt Attempt
	if err := json.Unmarshal(data, &attempt); err != nil {
		return nil, fmt.Errorf("unmarshal attempt: %w", err)
	}
	attempt.ensureMaps()
	return &attempt, nil
}

// Save writes the attempt and refreshes its TTL.
func (s *RedisStore) Save(ctx context.Context, attempt *Attempt) error {
	data, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	if err := s.redis.Set(ctx, attemptKey(attempt.UserKey, attempt.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("set attempt: %w", err)
	}
	return nil
}

// LastStart returns the user's most recent start record, or nil.
func (s *RedisStore) LastStart(ctx context.Context, userKey string) (*StartRecord, error) {
	data, err := s.redis.Get(ctx, startKey(userKey)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get start record: %w", err)
	}

	var rec StartRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		s.logger.Warn().Err(err).Str("user_key", userKey).Msg("skip corrupted start record")
		return nil, nil
	}
	return &rec, nil
}

// RememberStart replaces the user's start record.
func (s *RedisStore) RememberStart(ctx context.Context, userKey string, rec StartRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal start record: %w", err)
	}
	return s.redis.Set(ctx, startKey(userKey), data, s.ttl).Err()
}
