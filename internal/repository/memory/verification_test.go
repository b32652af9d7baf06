package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/agrismart/agrismart-iam/internal/core/domain"
	"github.com/agrismart/agrismart-iam/internal/core/port"
)

func TestVerificationStore_SignupConsumeOnce(t *testing.T) {
	store := NewVerificationStore(10 * time.Minute)
	ctx := context.Background()

	payload := domain.SignupRequest{Email: "user@example.com", FirstName: "Test"}
	code, err := store.PutSignup(ctx, "user@example.com", payload)
	if err != nil {
		t.Fatalf("PutSignup failed: %v", err)
	}

	got, err := store.ConsumeSignup(ctx, "user@example.com", code)
	if err != nil {
		t.Fatalf("ConsumeSignup failed: %v", err)
	}
	if got.FirstName != "Test" {
		t.Errorf("payload FirstName = %q, want Test", got.FirstName)
	}

	if _, err := store.ConsumeSignup(ctx, "user@example.com", code); !errors.Is(err, port.ErrVerificationNotFound) {
		t.Fatalf("second consume: expected ErrVerificationNotFound, got %v", err)
	}
}

func TestVerificationStore_SignupMismatchRetainsEntry(t *testing.T) {
	store := NewVerificationStore(10 * time.Minute)
	ctx := context.Background()

	code, err := store.PutSignup(ctx, "user@example.com", domain.SignupRequest{})
	if err != nil {
		t.Fatalf("PutSignup failed: %v", err)
	}

	if _, err := store.ConsumeSignup(ctx, "user@example.com", "000000x"); !errors.Is(err, port.ErrVerificationMismatch) {
		t.Fatalf("expected ErrVerificationMismatch, got %v", err)
	}

	// The entry survives the failed attempt.
	if _, err := store.ConsumeSignup(ctx, "user@example.com", code); err != nil {
		t.Fatalf("consume after mismatch failed: %v", err)
	}
}

func TestVerificationStore_SignupExpiryDeletes(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewVerificationStore(10 * time.Minute).WithClock(func() time.Time { return now })
	ctx := context.Background()

	code, err := store.PutSignup(ctx, "user@example.com", domain.SignupRequest{})
	if err != nil {
		t.Fatalf("PutSignup failed: %v", err)
	}

	now = now.Add(10*time.Minute + time.Second)
	if _, err := store.ConsumeSignup(ctx, "user@example.com", code); !errors.Is(err, port.ErrVerificationExpired) {
		t.Fatalf("expected ErrVerificationExpired, got %v", err)
	}

	// The expired read removed the entry.
	if _, err := store.ConsumeSignup(ctx, "user@example.com", code); !errors.Is(err, port.ErrVerificationNotFound) {
		t.Fatalf("expected ErrVerificationNotFound after expiry, got %v", err)
	}
}

func TestVerificationStore_SignupReRequestOverwrites(t *testing.T) {
	store := NewVerificationStore(10 * time.Minute)
	ctx := context.Background()

	first, err := store.PutSignup(ctx, "user@example.com", domain.SignupRequest{FirstName: "First"})
	if err != nil {
		t.Fatalf("PutSignup failed: %v", err)
	}
	second, err := store.PutSignup(ctx, "user@example.com", domain.SignupRequest{FirstName: "Second"})
	if err != nil {
		t.Fatalf("PutSignup failed: %v", err)
	}

	if first != second {
		if _, err := store.ConsumeSignup(ctx, "user@example.com", first); !errors.Is(err, port.ErrVerificationMismatch) {
			t.Fatalf("stale code: expected ErrVerificationMismatch, got %v", err)
		}
	}

	got, err := store.ConsumeSignup(ctx, "user@example.com", second)
	if err != nil {
		t.Fatalf("ConsumeSignup failed: %v", err)
	}
	if got.FirstName != "Second" {
		t.Errorf("payload FirstName = %q, want Second", got.FirstName)
	}
}

func TestVerificationStore_DeleteSignup(t *testing.T) {
	store := NewVerificationStore(10 * time.Minute)
	ctx := context.Background()

	code, err := store.PutSignup(ctx, "user@example.com", domain.SignupRequest{})
	if err != nil {
		t.Fatalf("PutSignup failed: %v", err)
	}
	if err := store.DeleteSignup(ctx, "user@example.com"); err != nil {
		t.Fatalf("DeleteSignup failed: %v", err)
	}
	if _, err := store.ConsumeSignup(ctx, "user@example.com", code); !errors.Is(err, port.ErrVerificationNotFound) {
		t.Fatalf("expected ErrVerificationNotFound, got %v", err)
	}
}

func TestVerificationStore_ResetLifecycle(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewVerificationStore(10 * time.Minute).WithClock(func() time.Time { return now })
	ctx := context.Background()

	code, err := store.PutReset(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("PutReset failed: %v", err)
	}

	if err := store.ConsumeReset(ctx, "user@example.com", "bad-code"); !errors.Is(err, port.ErrVerificationMismatch) {
		t.Fatalf("expected ErrVerificationMismatch, got %v", err)
	}
	if err := store.ConsumeReset(ctx, "user@example.com", code); err != nil {
		t.Fatalf("ConsumeReset failed: %v", err)
	}
	if err := store.ConsumeReset(ctx, "user@example.com", code); !errors.Is(err, port.ErrVerificationNotFound) {
		t.Fatalf("expected ErrVerificationNotFound after consume, got %v", err)
	}
}

func TestVerificationStore_ResetExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewVerificationStore(time.Minute).WithClock(func() time.Time { return now })
	ctx := context.Background()

	code, err := store.PutReset(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("PutReset failed: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if err := store.ConsumeReset(ctx, "user@example.com", code); !errors.Is(err, port.ErrVerificationExpired) {
		t.Fatalf("expected ErrVerificationExpired, got %v", err)
	}
	if err := store.ConsumeReset(ctx, "user@example.com", code); !errors.Is(err, port.ErrVerificationNotFound) {
		t.Fatalf("expected ErrVerificationNotFound after expiry, got %v", err)
	}
}

func TestVerificationStore_ConcurrentConsumeSingleWinner(t *testing.T) {
	store := NewVerificationStore(10 * time.Minute)
	ctx := context.Background()

	code, err := store.PutSignup(ctx, "user@example.com", domain.SignupRequest{Email: "user@example.com"})
	if err != nil {
		t.Fatalf("PutSignup failed: %v", err)
	}

	const workers = 8
	results := make(chan error, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := store.ConsumeSignup(ctx, "user@example.com", code)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	wins, notFound := 0, 0
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, port.ErrVerificationNotFound):
			notFound++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if wins != 1 {
		t.Errorf("%d consumers succeeded, want exactly 1", wins)
	}
	if notFound != workers-1 {
		t.Errorf("%d consumers saw not-found, want %d", notFound, workers-1)
	}
}
