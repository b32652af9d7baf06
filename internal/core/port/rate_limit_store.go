package port

import (
	"context"
	"time"
)

// RateLimitStore persists request attempts for sliding-window limits.
type RateLimitStore interface {
	TrimWindow(ctx context.Context, key string, window time.Duration, reference time.Time) error
	CountAttempts(ctx context.Context, key string, window time.Duration, reference time.Time) (int, error)
	RecordAttempt(ctx context.Context, key string, at time.Time) error
	OldestAttempt(ctx context.Context, key string, window time.Duration, reference time.Time) (time.Time, bool, error)
}
