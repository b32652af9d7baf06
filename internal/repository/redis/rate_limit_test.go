package redis

import (
	"context"
	"testing"
	"time"
)

func TestRateLimitStore_CountsWithinWindow(t *testing.T) {
	client := newTestRedis(t)
	store := NewRateLimitStore(client, "test:ratelimit", time.Hour)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if err := store.RecordAttempt(ctx, "login:10.0.0.1", base.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("RecordAttempt failed: %v", err)
		}
	}

	count, err := store.CountAttempts(ctx, "login:10.0.0.1", time.Minute, base.Add(3*time.Second))
	if err != nil {
		t.Fatalf("CountAttempts failed: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}

	// A different key is an independent window.
	count, err = store.CountAttempts(ctx, "login:10.0.0.2", time.Minute, base)
	if err != nil {
		t.Fatalf("CountAttempts failed: %v", err)
	}
	if count != 0 {
		t.Errorf("count for other key = %d, want 0", count)
	}
}

func TestRateLimitStore_TrimDropsOldAttempts(t *testing.T) {
	client := newTestRedis(t)
	store := NewRateLimitStore(client, "test:ratelimit", time.Hour)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if err := store.RecordAttempt(ctx, "login:10.0.0.1", base); err != nil {
		t.Fatalf("RecordAttempt failed: %v", err)
	}
	if err := store.RecordAttempt(ctx, "login:10.0.0.1", base.Add(90*time.Second)); err != nil {
		t.Fatalf("RecordAttempt failed: %v", err)
	}

	reference := base.Add(2 * time.Minute)
	if err := store.TrimWindow(ctx, "login:10.0.0.1", time.Minute, reference); err != nil {
		t.Fatalf("TrimWindow failed: %v", err)
	}

	count, err := store.CountAttempts(ctx, "login:10.0.0.1", time.Minute, reference)
	if err != nil {
		t.Fatalf("CountAttempts failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count after trim = %d, want 1", count)
	}

	oldest, has, err := store.OldestAttempt(ctx, "login:10.0.0.1", time.Minute, reference)
	if err != nil {
		t.Fatalf("OldestAttempt failed: %v", err)
	}
	if !has {
		t.Fatal("expected a remaining attempt")
	}
	if !oldest.Equal(base.Add(90 * time.Second)) {
		t.Errorf("oldest = %v, want %v", oldest, base.Add(90*time.Second))
	}
}

func TestRateLimitStore_OldestAttemptEmpty(t *testing.T) {
	client := newTestRedis(t)
	store := NewRateLimitStore(client, "test:ratelimit", time.Hour)

	_, has, err := store.OldestAttempt(context.Background(), "login:10.0.0.1", time.Minute, time.Now())
	if err != nil {
		t.Fatalf("OldestAttempt failed: %v", err)
	}
	if has {
		t.Error("expected no attempts for an unknown key")
	}
}
