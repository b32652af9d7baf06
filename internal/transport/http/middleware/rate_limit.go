package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimitStore defines the persistence operations required by the middleware.
type RateLimitStore interface {
	TrimWindow(ctx context.Context, key string, window time.Duration, reference time.Time) error
	CountAttempts(ctx context.Context, key string, window time.Duration, reference time.Time) (int, error)
	RecordAttempt(ctx context.Context, key string, at time.Time) error
	OldestAttempt(ctx context.Context, key string, window time.Duration, reference time.Time) (time.Time, bool, error)
}

// IdentifierFunc extracts the identifier used to scope rate limits (e.g., client IP).
type IdentifierFunc func(*gin.Context) (string, bool)

// RateLimitRule configures a sliding-window limit for a particular identifier.
type RateLimitRule struct {
	Name       string
	Limit      int
	Window     time.Duration
	Identifier IdentifierFunc
}

// RateLimiter enforces sliding windows backed by a store, Redis in
// multi-instance deployments and process memory otherwise.
type RateLimiter struct {
	store  RateLimitStore
	logger *zap.Logger
	now    func() time.Time
}

// NewRateLimiter builds a reusable rate limiter middleware helper.
func NewRateLimiter(store RateLimitStore, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RateLimiter{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock allows injection of a custom clock (primarily for testing).
func (rl *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	if now != nil {
		rl.now = now
	}
	return rl
}

// ClientIPIdentifier builds an IdentifierFunc using the request's client IP.
func ClientIPIdentifier() IdentifierFunc {
	return func(c *gin.Context) (string, bool) {
		ip := c.ClientIP()
		if ip == "" {
			return "", false
		}
		return ip, true
	}
}

// RateLimit returns a Gin middleware enforcing the provided rule. Store
// failures let the request through; the limiter protects against abuse,
// it must not take the API down with it.
func (rl *RateLimiter) RateLimit(rule RateLimitRule) gin.HandlerFunc {
	if rule.Identifier == nil {
		rule.Identifier = ClientIPIdentifier()
	}
	if rule.Name == "" {
		rule.Name = "default"
	}

	return func(c *gin.Context) {
		if rl.store == nil || rule.Limit <= 0 || rule.Window <= 0 {
			c.Next()
			return
		}

		identifier, ok := rule.Identifier(c)
		if !ok || identifier == "" {
			c.Next()
			return
		}

		key := fmt.Sprintf("%s:%s", rule.Name, identifier)
		allowed, remaining, reset, err := rl.evaluate(c.Request.Context(), rule, key, rl.now())
		if err != nil {
			rl.logger.Warn("rate limit check failed",
				zap.String("rule", rule.Name),
				zap.Error(err),
			)
			c.Next()
			return
		}

		headers := c.Writer.Header()
		headers.Set("X-RateLimit-Limit", strconv.Itoa(rule.Limit))
		headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if !allowed {
			retrySeconds := int(math.Ceil(reset.Sub(rl.now()).Seconds()))
			if retrySeconds < 0 {
				retrySeconds = 0
			}
			headers.Set("Retry-After", strconv.Itoa(retrySeconds))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "RATE_LIMIT_EXCEEDED",
				"message": fmt.Sprintf("Too many requests. Try again in %d seconds.", retrySeconds),
			})
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) evaluate(ctx context.Context, rule RateLimitRule, key string, now time.Time) (bool, int, time.Time, error) {
	if err := rl.store.TrimWindow(ctx, key, rule.Window, now); err != nil {
		return false, 0, time.Time{}, err
	}

	count, err := rl.store.CountAttempts(ctx, key, rule.Window, now)
	if err != nil {
		return false, 0, time.Time{}, err
	}

	reset := now.Add(rule.Window)
	if oldest, has, err := rl.store.OldestAttempt(ctx, key, rule.Window, now); err != nil {
		return false, 0, time.Time{}, err
	} else if has {
		reset = oldest.Add(rule.Window)
	}

	if count >= rule.Limit {
		return false, 0, reset, nil
	}

	if err := rl.store.RecordAttempt(ctx, key, now); err != nil {
		return false, 0, time.Time{}, err
	}

	remaining := rule.Limit - count - 1
	if remaining < 0 {
		remaining = 0
	}

	return true, remaining, reset, nil
}
