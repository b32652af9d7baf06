package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/agrismart/agrismart-iam/internal/core/port"
)

// RateLimitStore keeps request attempts in process memory. It carries
// the same contract as the Redis store for deployments that run
// without Redis; windows then apply per instance.
type RateLimitStore struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
}

// NewRateLimitStore builds an empty in-memory store.
func NewRateLimitStore() *RateLimitStore {
	return &RateLimitStore{attempts: make(map[string][]time.Time)}
}

// RecordAttempt appends one attempt timestamp. Attempts arrive in clock
// order, so the slice stays sorted.
func (s *RateLimitStore) RecordAttempt(_ context.Context, key string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts[key] = append(s.attempts[key], at)
	return nil
}

// CountAttempts returns how many attempts fall inside the window ending
// at the reference time.
func (s *RateLimitStore) CountAttempts(_ context.Context, key string, window time.Duration, reference time.Time) (int, error) {
	if window <= 0 {
		return 0, errors.New("window must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := reference.Add(-window)
	count := 0
	for _, at := range s.attempts[key] {
		if at.After(cutoff) && !at.After(reference) {
			count++
		}
	}
	return count, nil
}

// TrimWindow drops attempts older than the window relative to the
// reference time.
func (s *RateLimitStore) TrimWindow(_ context.Context, key string, window time.Duration, reference time.Time) error {
	if window <= 0 {
		return errors.New("window must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := reference.Add(-window)
	kept := s.attempts[key][:0]
	for _, at := range s.attempts[key] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}

	if len(kept) == 0 {
		delete(s.attempts, key)
		return nil
	}
	s.attempts[key] = kept
	return nil
}

// OldestAttempt returns the earliest attempt remaining inside the window.
func (s *RateLimitStore) OldestAttempt(_ context.Context, key string, window time.Duration, reference time.Time) (time.Time, bool, error) {
	if window <= 0 {
		return time.Time{}, false, errors.New("window must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := reference.Add(-window)
	for _, at := range s.attempts[key] {
		if at.After(cutoff) && !at.After(reference) {
			return at, true, nil
		}
	}
	return time.Time{}, false, nil
}

var _ port.RateLimitStore = (*RateLimitStore)(nil)
