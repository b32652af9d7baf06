package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/agrismart/agrismart-iam/internal/core/domain"
	"github.com/agrismart/agrismart-iam/internal/core/port"
	"github.com/agrismart/agrismart-iam/internal/infra/security"
)

const (
	defaultKeyPrefix = "agrismart:verification"
	defaultCodeTTL   = 10 * time.Minute

	fieldCode      = "code"
	fieldPayload   = "payload"
	fieldExpiresAt = "expires_at"
)

// consumeScript atomically checks and deletes a verification entry.
// KEYS[1] is the entry key, ARGV[1] the supplied code, ARGV[2] the
// current unix time. Returns the payload on a match, "__expired__" when
// the TTL elapsed (deleting the entry), "__mismatch__" on a wrong code
// (retaining the entry), or false when no entry exists.
var consumeScript = red.NewScript(`
local code = redis.call('HGET', KEYS[1], 'code')
if not code then
  return false
end
local expires = tonumber(redis.call('HGET', KEYS[1], 'expires_at'))
if expires and tonumber(ARGV[2]) > expires then
  redis.call('DEL', KEYS[1])
  return '__expired__'
end
if code ~= ARGV[1] then
  return '__mismatch__'
end
local payload = redis.call('HGET', KEYS[1], 'payload')
redis.call('DEL', KEYS[1])
return payload or ''
`)

const (
	consumeExpired  = "__expired__"
	consumeMismatch = "__mismatch__"
)

// VerificationStore keeps one-time codes in Redis so multiple instances
// share pending signups and resets. Keys carry a TTL twice the code
// lifetime as a janitor; the script enforces the exact expiry.
type VerificationStore struct {
	client *red.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewVerificationStore constructs a Redis-backed store with the given
// key prefix and code TTL.
func NewVerificationStore(client *red.Client, keyPrefix string, ttl time.Duration) *VerificationStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = defaultCodeTTL
	}

	return &VerificationStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *VerificationStore) WithClock(now func() time.Time) *VerificationStore {
	s.now = now
	return s
}

func (s *VerificationStore) key(kind, email string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, kind, email)
}

func (s *VerificationStore) put(ctx context.Context, key, payload string) (string, error) {
	code, err := security.GenerateNumericCode(security.VerificationCodeLength)
	if err != nil {
		return "", err
	}

	expiresAt := s.now().Add(s.ttl).Unix()

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, map[string]any{
		fieldCode:      code,
		fieldPayload:   payload,
		fieldExpiresAt: strconv.FormatInt(expiresAt, 10),
	})
	pipe.Expire(ctx, key, 2*s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("redis store verification: %w", err)
	}

	return code, nil
}

func (s *VerificationStore) consume(ctx context.Context, key, code string) (string, error) {
	result, err := consumeScript.Run(ctx, s.client,
		[]string{key},
		code,
		strconv.FormatInt(s.now().Unix(), 10),
	).Result()
	if err == red.Nil {
		return "", port.ErrVerificationNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis consume verification: %w", err)
	}

	payload, ok := result.(string)
	if !ok {
		return "", port.ErrVerificationNotFound
	}

	switch payload {
	case consumeExpired:
		return "", port.ErrVerificationExpired
	case consumeMismatch:
		return "", port.ErrVerificationMismatch
	}

	return payload, nil
}

// PutSignup stores the pending registration and returns a fresh code.
func (s *VerificationStore) PutSignup(ctx context.Context, email string, payload domain.SignupRequest) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal signup payload: %w", err)
	}

	return s.put(ctx, s.key("signup", email), string(encoded))
}

// ConsumeSignup validates the code and returns the stored payload.
func (s *VerificationStore) ConsumeSignup(ctx context.Context, email, code string) (domain.SignupRequest, error) {
	payload, err := s.consume(ctx, s.key("signup", email), code)
	if err != nil {
		return domain.SignupRequest{}, err
	}

	var request domain.SignupRequest
	if err := json.Unmarshal([]byte(payload), &request); err != nil {
		return domain.SignupRequest{}, fmt.Errorf("unmarshal signup payload: %w", err)
	}

	return request, nil
}

// DeleteSignup discards a pending signup.
func (s *VerificationStore) DeleteSignup(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, s.key("signup", email)).Err(); err != nil {
		return fmt.Errorf("redis delete verification: %w", err)
	}
	return nil
}

// PutReset stores a password-reset code for the email and returns it.
func (s *VerificationStore) PutReset(ctx context.Context, email string) (string, error) {
	return s.put(ctx, s.key("reset", email), "")
}

// ConsumeReset validates and deletes the reset code.
func (s *VerificationStore) ConsumeReset(ctx context.Context, email, code string) error {
	_, err := s.consume(ctx, s.key("reset", email), code)
	return err
}

// DeleteReset discards a pending reset code.
func (s *VerificationStore) DeleteReset(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, s.key("reset", email)).Err(); err != nil {
		return fmt.Errorf("redis delete verification: %w", err)
	}
	return nil
}

var _ port.VerificationStore = (*VerificationStore)(nil)
