package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/agrismart/agrismart-iam/internal/core/domain"
	"github.com/agrismart/agrismart-iam/internal/repository/memory"
)

func newSignupFixture(t *testing.T) (*SignupService, *userRepoStub, *memory.VerificationStore, *mailerStub) {
	t.Helper()
	users := newUserRepoStub()
	store := memory.NewVerificationStore(10 * time.Minute)
	mailer := &mailerStub{}
	auth := NewAuthService(users, seedRoles(), newTestTokens(t), nil, nil, &eventsStub{}, nil).
		WithClock(fixedClock(testTime))
	return NewSignupService(auth, users, store, mailer, nil), users, store, mailer
}

func TestSignupService_RequestThenVerify(t *testing.T) {
	service, users, _, mailer := newSignupFixture(t)
	ctx := context.Background()

	req := domain.SignupRequest{
		Email:     "New@Example.com",
		Password:  "password",
		FirstName: "New",
		LastName:  "User",
		Role:      "PRODUCTEUR",
	}
	if err := service.RequestCode(ctx, req); err != nil {
		t.Fatalf("RequestCode failed: %v", err)
	}

	if len(mailer.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(mailer.sent))
	}
	sent := mailer.sent[0]
	if sent.to != "new@example.com" {
		t.Errorf("mail to %q, want normalized new@example.com", sent.to)
	}
	if sent.subject != "AgriSmart - Email Verification Code" {
		t.Errorf("unexpected subject %q", sent.subject)
	}

	code := extractCode(t, sent.body)
	result, err := service.VerifyCode(ctx, "new@example.com", code)
	if err != nil {
		t.Fatalf("VerifyCode failed: %v", err)
	}
	if result.Token == "" {
		t.Error("expected a token after verification")
	}
	if result.Role != domain.RoleProducteur {
		t.Errorf("role = %q, want PRODUCTEUR", result.Role)
	}
	if _, ok := users.findByEmail("new@example.com"); !ok {
		t.Error("account not created")
	}

	// The code is single use.
	if _, err := service.VerifyCode(ctx, "new@example.com", code); !errors.Is(err, ErrSignupCodeNotFound) {
		t.Fatalf("second verify: expected ErrSignupCodeNotFound, got %v", err)
	}
}

func TestSignupService_RequestCode_ExistingEmail(t *testing.T) {
	service, users, _, _ := newSignupFixture(t)
	users.users["user-1"] = domain.User{ID: "user-1", Email: "taken@example.com"}

	err := service.RequestCode(context.Background(), domain.SignupRequest{Email: "taken@example.com"})
	if !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}
}

func TestSignupService_RequestCode_MailFailureDiscardsEntry(t *testing.T) {
	service, _, store, mailer := newSignupFixture(t)
	mailer.sendErr = errors.New("smtp down")
	ctx := context.Background()

	err := service.RequestCode(ctx, domain.SignupRequest{Email: "new@example.com", Password: "password"})
	if !errors.Is(err, ErrEmailSendFailed) {
		t.Fatalf("expected ErrEmailSendFailed, got %v", err)
	}

	// No pending entry survives a failed dispatch.
	if _, err := store.ConsumeSignup(ctx, "new@example.com", "000000"); err == nil {
		t.Fatal("expected no pending signup after mail failure")
	}
}

func TestSignupService_VerifyCode_WrongCode(t *testing.T) {
	service, _, _, mailer := newSignupFixture(t)
	ctx := context.Background()

	if err := service.RequestCode(ctx, domain.SignupRequest{Email: "new@example.com", Password: "password"}); err != nil {
		t.Fatalf("RequestCode failed: %v", err)
	}

	if _, err := service.VerifyCode(ctx, "new@example.com", "not-it"); !errors.Is(err, ErrSignupCodeInvalid) {
		t.Fatalf("expected ErrSignupCodeInvalid, got %v", err)
	}

	// A mismatch keeps the entry; the right code still works.
	code := extractCode(t, mailer.sent[0].body)
	if _, err := service.VerifyCode(ctx, "new@example.com", code); err != nil {
		t.Fatalf("verify after mismatch failed: %v", err)
	}
}

func TestSignupService_VerifyCode_NoPendingEntry(t *testing.T) {
	service, _, _, _ := newSignupFixture(t)

	_, err := service.VerifyCode(context.Background(), "nobody@example.com", "123456")
	if !errors.Is(err, ErrSignupCodeNotFound) {
		t.Fatalf("expected ErrSignupCodeNotFound, got %v", err)
	}
}

func TestSignupService_VerifyCode_Expired(t *testing.T) {
	users := newUserRepoStub()
	now := testTime
	store := memory.NewVerificationStore(10 * time.Minute).WithClock(func() time.Time { return now })
	mailer := &mailerStub{}
	auth := NewAuthService(users, seedRoles(), newTestTokens(t), nil, nil, nil, nil)
	service := NewSignupService(auth, users, store, mailer, nil)
	ctx := context.Background()

	if err := service.RequestCode(ctx, domain.SignupRequest{Email: "new@example.com", Password: "password"}); err != nil {
		t.Fatalf("RequestCode failed: %v", err)
	}

	now = now.Add(11 * time.Minute)
	code := extractCode(t, mailer.sent[0].body)
	if _, err := service.VerifyCode(ctx, "new@example.com", code); !errors.Is(err, ErrSignupCodeExpired) {
		t.Fatalf("expected ErrSignupCodeExpired, got %v", err)
	}
}

func TestSignupService_VerifyCode_AccountAppearedMeanwhile(t *testing.T) {
	// The email-free check reruns at verification time.
	service, users, _, mailer := newSignupFixture(t)
	ctx := context.Background()

	if err := service.RequestCode(ctx, domain.SignupRequest{Email: "new@example.com", Password: "password"}); err != nil {
		t.Fatalf("RequestCode failed: %v", err)
	}

	users.users["other"] = domain.User{ID: "other", Email: "new@example.com"}

	code := extractCode(t, mailer.sent[0].body)
	if _, err := service.VerifyCode(ctx, "new@example.com", code); !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}
}

// extractCode pulls the numeric code out of the templated mail body.
func extractCode(t *testing.T, body string) string {
	t.Helper()
	start := strings.Index(body, ": ")
	if start < 0 {
		t.Fatalf("no code in mail body %q", body)
	}
	rest := body[start+2:]
	end := strings.IndexByte(rest, '\n')
	if end < 0 {
		t.Fatalf("no code terminator in mail body %q", body)
	}
	return rest[:end]
}
