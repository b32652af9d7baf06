package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	red "github.com/redis/go-redis/v9"

	"github.com/agrismart/agrismart-iam/internal/core/domain"
	"github.com/agrismart/agrismart-iam/internal/core/port"
)

func newTestRedis(t *testing.T) *red.Client {
	t.Helper()

	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := red.NewClient(&red.Options{Addr: server.Addr()})

	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})

	return client
}

func TestVerificationStore_SignupRoundTrip(t *testing.T) {
	client := newTestRedis(t)
	store := NewVerificationStore(client, "test:verification", 10*time.Minute)
	ctx := context.Background()

	payload := domain.SignupRequest{
		Email:     "user@example.com",
		Password:  "secret",
		FirstName: "Test",
		LastName:  "User",
		Role:      "PRODUCTEUR",
	}

	code, err := store.PutSignup(ctx, "user@example.com", payload)
	if err != nil {
		t.Fatalf("PutSignup returned error: %v", err)
	}

	got, err := store.ConsumeSignup(ctx, "user@example.com", code)
	if err != nil {
		t.Fatalf("ConsumeSignup returned error: %v", err)
	}
	if got != payload {
		t.Errorf("payload round trip mismatch: got %+v", got)
	}

	if _, err := store.ConsumeSignup(ctx, "user@example.com", code); !errors.Is(err, port.ErrVerificationNotFound) {
		t.Fatalf("second consume: expected ErrVerificationNotFound, got %v", err)
	}
}

func TestVerificationStore_SignupMismatchRetains(t *testing.T) {
	client := newTestRedis(t)
	store := NewVerificationStore(client, "test:verification", 10*time.Minute)
	ctx := context.Background()

	code, err := store.PutSignup(ctx, "user@example.com", domain.SignupRequest{Email: "user@example.com"})
	if err != nil {
		t.Fatalf("PutSignup returned error: %v", err)
	}

	if _, err := store.ConsumeSignup(ctx, "user@example.com", "wrong"); !errors.Is(err, port.ErrVerificationMismatch) {
		t.Fatalf("expected ErrVerificationMismatch, got %v", err)
	}
	if _, err := store.ConsumeSignup(ctx, "user@example.com", code); err != nil {
		t.Fatalf("consume after mismatch returned error: %v", err)
	}
}

func TestVerificationStore_SignupExpiryDeletes(t *testing.T) {
	client := newTestRedis(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewVerificationStore(client, "test:verification", 10*time.Minute).
		WithClock(func() time.Time { return now })
	ctx := context.Background()

	code, err := store.PutSignup(ctx, "user@example.com", domain.SignupRequest{Email: "user@example.com"})
	if err != nil {
		t.Fatalf("PutSignup returned error: %v", err)
	}

	now = now.Add(11 * time.Minute)
	if _, err := store.ConsumeSignup(ctx, "user@example.com", code); !errors.Is(err, port.ErrVerificationExpired) {
		t.Fatalf("expected ErrVerificationExpired, got %v", err)
	}
	if _, err := store.ConsumeSignup(ctx, "user@example.com", code); !errors.Is(err, port.ErrVerificationNotFound) {
		t.Fatalf("expected ErrVerificationNotFound after expiry, got %v", err)
	}
}

func TestVerificationStore_ReRequestOverwrites(t *testing.T) {
	client := newTestRedis(t)
	store := NewVerificationStore(client, "test:verification", 10*time.Minute)
	ctx := context.Background()

	first, err := store.PutSignup(ctx, "user@example.com", domain.SignupRequest{FirstName: "First"})
	if err != nil {
		t.Fatalf("PutSignup returned error: %v", err)
	}
	second, err := store.PutSignup(ctx, "user@example.com", domain.SignupRequest{FirstName: "Second"})
	if err != nil {
		t.Fatalf("PutSignup returned error: %v", err)
	}

	if first != second {
		if _, err := store.ConsumeSignup(ctx, "user@example.com", first); !errors.Is(err, port.ErrVerificationMismatch) {
			t.Fatalf("stale code: expected ErrVerificationMismatch, got %v", err)
		}
	}

	got, err := store.ConsumeSignup(ctx, "user@example.com", second)
	if err != nil {
		t.Fatalf("ConsumeSignup returned error: %v", err)
	}
	if got.FirstName != "Second" {
		t.Errorf("payload FirstName = %q, want Second", got.FirstName)
	}
}

func TestVerificationStore_DeleteSignup(t *testing.T) {
	client := newTestRedis(t)
	store := NewVerificationStore(client, "test:verification", 10*time.Minute)
	ctx := context.Background()

	code, err := store.PutSignup(ctx, "user@example.com", domain.SignupRequest{})
	if err != nil {
		t.Fatalf("PutSignup returned error: %v", err)
	}
	if err := store.DeleteSignup(ctx, "user@example.com"); err != nil {
		t.Fatalf("DeleteSignup returned error: %v", err)
	}
	if _, err := store.ConsumeSignup(ctx, "user@example.com", code); !errors.Is(err, port.ErrVerificationNotFound) {
		t.Fatalf("expected ErrVerificationNotFound, got %v", err)
	}
}

func TestVerificationStore_ResetLifecycle(t *testing.T) {
	client := newTestRedis(t)
	store := NewVerificationStore(client, "test:verification", 10*time.Minute)
	ctx := context.Background()

	code, err := store.PutReset(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("PutReset returned error: %v", err)
	}

	if err := store.ConsumeReset(ctx, "user@example.com", "wrong"); !errors.Is(err, port.ErrVerificationMismatch) {
		t.Fatalf("expected ErrVerificationMismatch, got %v", err)
	}
	if err := store.ConsumeReset(ctx, "user@example.com", code); err != nil {
		t.Fatalf("ConsumeReset returned error: %v", err)
	}
	if err := store.ConsumeReset(ctx, "user@example.com", code); !errors.Is(err, port.ErrVerificationNotFound) {
		t.Fatalf("expected ErrVerificationNotFound after consume, got %v", err)
	}
}

func TestVerificationStore_ConcurrentConsumeSingleWinner(t *testing.T) {
	client := newTestRedis(t)
	store := NewVerificationStore(client, "test:verification", 10*time.Minute)
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
