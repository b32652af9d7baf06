package port

import (
	"context"
	"errors"

	"github.com/agrismart/agrismart-iam/internal/core/domain"
)

var (
	// ErrVerificationNotFound indicates no pending entry exists for the email.
	ErrVerificationNotFound = errors.New("verification: code not found")
	// ErrVerificationExpired indicates the entry existed but its TTL elapsed.
	// The failing read deletes the entry.
	ErrVerificationExpired = errors.New("verification: code expired")
	// ErrVerificationMismatch indicates the supplied code is wrong. The entry
	// is retained so the user may retry within the TTL.
	ErrVerificationMismatch = errors.New("verification: code mismatch")
)

// VerificationStore holds short-lived one-time codes for the two-phase
// signup and password-reset protocols, keyed by normalized email.
//
// At most one entry exists per email and kind; a new Put overwrites any
// prior entry. Consume is exclusive: of two concurrent calls for the same
// email at most one succeeds, the other observes ErrVerificationNotFound.
type VerificationStore interface {
	// PutSignup stores the pending registration and returns the freshly
	// generated one-time code for dispatch.
	PutSignup(ctx context.Context, email string, payload domain.SignupRequest) (string, error)
	// ConsumeSignup validates the code and, on match, deletes the entry and
	// returns the stored payload.
	ConsumeSignup(ctx context.Context, email, code string) (domain.SignupRequest, error)
	// DeleteSignup discards a pending signup, used when code dispatch fails.
	DeleteSignup(ctx context.Context, email string) error

	// PutReset stores a password-reset code for the email and returns it.
	PutReset(ctx context.Context, email string) (string, error)
	// ConsumeReset validates and deletes the reset code.
	ConsumeReset(ctx context.Context, email, code string) error
	// DeleteReset discards a pending reset code.
	DeleteReset(ctx context.Context, email string) error
}
