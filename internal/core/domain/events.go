package domain

import "time"

// UserRegisteredEvent is the payload for auth.user.registered messages.
type UserRegisteredEvent struct {
	EventID      string
	UserID       string
	Email        string
	Role         string
	Origin       AccountOrigin
	RegisteredAt time.Time
}

// UserLoggedInEvent is the payload for auth.user.logged_in messages.
type UserLoggedInEvent struct {
	EventID  string
	UserID   string
	Email    string
	Origin   AccountOrigin
	LoggedAt time.Time
}

// PasswordChangedEvent is the payload for auth.user.password_changed messages.
type PasswordChangedEvent struct {
	EventID   string
	UserID    string
	Email     string
	ChangedAt time.Time
	// Method distinguishes an authenticated change from a reset-code flow.
	Method string
}
