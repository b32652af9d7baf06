package domain

import (
	"testing"
	"time"
)

func TestNormalizeEmail(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"User@Example.COM", "user@example.com"},
		{"  user@example.com  ", "user@example.com"},
		{"", ""},
		{"   ", ""},
	}

	for _, tc := range cases {
		if got := NormalizeEmail(tc.input); got != tc.want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestUser_IsActive(t *testing.T) {
	cases := []struct {
		status AccountStatus
		want   bool
	}{
		{AccountStatusActive, true},
		{"active", true},
		{" ACTIVE ", true},
		{"", true},
		{AccountStatusSuspended, false},
		{AccountStatusDisabled, false},
		{"suspended", false},
	}

	for _, tc := range cases {
		user := User{Status: tc.status}
		if got := user.IsActive(); got != tc.want {
			t.Errorf("IsActive with status %q = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestUser_MarkLoggedIn(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	user := User{}
	user.MarkLoggedIn(at)

	if user.LastLoginAt == nil {
		t.Fatal("LastLoginAt not set")
	}
	if !user.LastLoginAt.Equal(at) {
		t.Errorf("LastLoginAt = %v, want %v", user.LastLoginAt, at)
	}
	if user.LastLoginAt.Location() != time.UTC {
		t.Errorf("LastLoginAt stored in %v, want UTC", user.LastLoginAt.Location())
	}
	if !user.UpdatedAt.Equal(at) {
		t.Errorf("UpdatedAt = %v, want %v", user.UpdatedAt, at)
	}
}
