package domain

import (
	"strings"
	"time"
)

// AccountStatus enumerates possible account states. Anything other than
// ACTIVE blocks login.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "ACTIVE"
	AccountStatusSuspended AccountStatus = "SUSPENDED"
	AccountStatusDisabled  AccountStatus = "DISABLED"
)

// AccountOrigin records which path created the account.
type AccountOrigin string

const (
	AccountOriginLocal    AccountOrigin = "LOCAL"
	AccountOriginGoogle   AccountOrigin = "GOOGLE"
	AccountOriginFacebook AccountOrigin = "FACEBOOK"
)

// User mirrors the persisted representation in the users table.
// Email is always stored normalized (trimmed, lower-cased) and is unique.
type User struct {
	ID                string
	Email             string
	PasswordHash      string
	FirstName         string
	LastName          string
	RoleID            string
	Organization      string
	Status            AccountStatus
	AccountType       AccountOrigin
	FacebookID        *string
	ProfilePictureURL string
	IsClientApproved  bool
	LastLoginAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NormalizeEmail canonicalizes an email address for use as an identity key.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// NormalizedStatus treats a missing status as ACTIVE for accounts created
// before the status column existed.
func (u User) NormalizedStatus() AccountStatus {
	s := strings.ToUpper(strings.TrimSpace(string(u.Status)))
	if s == "" {
		return AccountStatusActive
	}
	return AccountStatus(s)
}

// IsActive reports whether the account may authenticate.
func (u User) IsActive() bool {
	return u.NormalizedStatus() == AccountStatusActive
}

// MarkLoggedIn stamps the login and update timestamps.
func (u *User) MarkLoggedIn(at time.Time) {
	ts := at.UTC()
	u.LastLoginAt = &ts
	u.UpdatedAt = ts
}
