package memory

import (
	"context"
	"sync"
	"time"

	"github.com/agrismart/agrismart-iam/internal/core/domain"
	"github.com/agrismart/agrismart-iam/internal/core/port"
	"github.com/agrismart/agrismart-iam/internal/infra/security"
)

const defaultCodeTTL = 10 * time.Minute

type signupEntry struct {
	code      string
	payload   domain.SignupRequest
	expiresAt time.Time
}

type resetEntry struct {
	code      string
	expiresAt time.Time
}

// VerificationStore keeps one-time codes in process memory. It is the
// default backend when Redis is not configured; codes do not survive a
// restart, which matches their short lifetime.
type VerificationStore struct {
	mu      sync.Mutex
	signups map[string]signupEntry
	resets  map[string]resetEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewVerificationStore constructs an empty store with the given code TTL.
func NewVerificationStore(ttl time.Duration) *VerificationStore {
	if ttl <= 0 {
		ttl = defaultCodeTTL
	}

	return &VerificationStore{
		signups: make(map[string]signupEntry),
		resets:  make(map[string]resetEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *VerificationStore) WithClock(now func() time.Time) *VerificationStore {
	s.now = now
	return s
}

// PutSignup stores the pending registration under the email, replacing
// any prior entry, and returns a fresh code.
func (s *VerificationStore) PutSignup(_ context.Context, email string, payload domain.SignupRequest) (string, error) {
	code, err := security.GenerateNumericCode(security.VerificationCodeLength)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.signups[email] = signupEntry{
		code:      code,
		payload:   payload,
		expiresAt: s.now().Add(s.ttl),
	}

	return code, nil
}

// ConsumeSignup validates the code. A match deletes the entry and returns
// the payload; expiry deletes the entry; a mismatch retains it so the user
// may retry with the correct code.
func (s *VerificationStore) ConsumeSignup(_ context.Context, email, code string) (domain.SignupRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.signups[email]
	if !ok {
		return domain.SignupRequest{}, port.ErrVerificationNotFound
	}

	if s.now().After(entry.expiresAt) {
		delete(s.signups, email)
		return domain.SignupRequest{}, port.ErrVerificationExpired
	}

	if entry.code != code {
		return domain.SignupRequest{}, port.ErrVerificationMismatch
	}

	delete(s.signups, email)
	return entry.payload, nil
}

// DeleteSignup discards a pending signup.
func (s *VerificationStore) DeleteSignup(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.signups, email)
	return nil
}

// PutReset stores a password-reset code for the email and returns it.
func (s *VerificationStore) PutReset(_ context.Context, email string) (string, error) {
	code, err := security.GenerateNumericCode(security.VerificationCodeLength)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.resets[email] = resetEntry{
		code:      code,
		expiresAt: s.now().Add(s.ttl),
	}

	return code, nil
}

// ConsumeReset validates and deletes the reset code.
func (s *VerificationStore) ConsumeReset(_ context.Context, email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.resets[email]
	if !ok {
		return port.ErrVerificationNotFound
	}

	if s.now().After(entry.expiresAt) {
		delete(s.resets, email)
		return port.ErrVerificationExpired
	}

	if entry.code != code {
		return port.ErrVerificationMismatch
	}

	delete(s.resets, email)
	return nil
}

// DeleteReset discards a pending reset code.
func (s *VerificationStore) DeleteReset(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.resets, email)
	return nil
}

var _ port.VerificationStore = (*VerificationStore)(nil)
