package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/agrismart/agrismart-iam/internal/core/port"
)

// RateLimitStore keeps request attempts in Redis sorted sets scored by
// nanosecond timestamps, so windows slide across service instances.
type RateLimitStore struct {
	client    *red.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRateLimitStore builds a store around an existing client. Keys
// expire after ttl so abandoned identifiers do not accumulate.
func NewRateLimitStore(client *red.Client, keyPrefix string, ttl time.Duration) *RateLimitStore {
	return &RateLimitStore{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// RecordAttempt stores one attempt timestamp and refreshes the key TTL.
func (s *RateLimitStore) RecordAttempt(ctx context.Context, key string, at time.Time) error {
	redisKey := s.key(key)
	member := red.Z{Score: float64(at.UnixNano()), Member: at.UnixNano()}

	if err := s.client.ZAdd(ctx, redisKey, member).Err(); err != nil {
		return fmt.Errorf("redis zadd: %w", err)
	}

	if s.ttl > 0 {
		if err := s.client.Expire(ctx, redisKey, s.ttl).Err(); err != nil {
			return fmt.Errorf("redis expire: %w", err)
		}
	}

	return nil
}

// CountAttempts returns how many attempts fall inside the window ending
// at the reference time.
func (s *RateLimitStore) CountAttempts(ctx context.Context, key string, window time.Duration, reference time.Time) (int, error) {
	if window <= 0 {
		return 0, errors.New("window must be positive")
	}

	min := fmt.Sprintf("%f", float64(reference.Add(-window).UnixNano()))
	max := fmt.Sprintf("%f", float64(reference.UnixNano()))

	count, err := s.client.ZCount(ctx, s.key(key), min, max).Result()
	if err != nil {
		return 0, fmt.Errorf("redis zcount: %w", err)
	}

	return int(count), nil
}

// TrimWindow drops attempts older than the window relative to the
// reference time.
func (s *RateLimitStore) TrimWindow(ctx context.Context, key string, window time.Duration, reference time.Time) error {
	if window <= 0 {
		return errors.New("window must be positive")
	}

	threshold := fmt.Sprintf("%f", float64(reference.Add(-window).UnixNano()))

	if err := s.client.ZRemRangeByScore(ctx, s.key(key), "-inf", threshold).Err(); err != nil {
		return fmt.Errorf("redis zremrangebyscore: %w", err)
	}

	return nil
}

// OldestAttempt returns the earliest attempt remaining inside the window.
func (s *RateLimitStore) OldestAttempt(ctx context.Context, key string, window time.Duration, reference time.Time) (time.Time, bool, error) {
	if window <= 0 {
		return time.Time{}, false, errors.New("window must be positive")
	}

	values, err := s.client.ZRangeByScore(ctx, s.key(key), &red.ZRangeBy{
		Min:   fmt.Sprintf("%f", float64(reference.Add(-window).UnixNano())),
		Max:   fmt.Sprintf("%f", float64(reference.UnixNano())),
		Count: 1,
	}).Result()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("redis zrangebyscore: %w", err)
	}

	if len(values) == 0 {
		return time.Time{}, false, nil
	}

	ts, err := strconv.ParseInt(values[0], 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse attempt timestamp: %w", err)
	}

	return time.Unix(0, ts), true, nil
}

func (s *RateLimitStore) key(key string) string {
	if s.keyPrefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", s.keyPrefix, key)
}

var _ port.RateLimitStore = (*RateLimitStore)(nil)
