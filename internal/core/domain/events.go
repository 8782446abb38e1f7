package domain

import "time"

// SignedInEvent represents the payload for pafs.account.signed_in messages.
type SignedInEvent struct {
	EventID    string
	AccountID  string
	Email      string
	SessionID  string
	SignedInAt time.Time
	IPAddress  *string
	Metadata   map[string]any
}

// AccountLockedEvent represents the payload for pafs.account.locked messages.
type AccountLockedEvent struct {
	EventID        string
	AccountID      string
	Email          string
	FailedAttempts int
	LockedAt       time.Time
	IPAddress      *string
	Metadata       map[string]any
}

// AccountDisabledEvent represents the payload for pafs.account.disabled messages.
type AccountDisabledEvent struct {
	EventID      string
	AccountID    string
	Email        string
	Reason       string
	LastSignInAt *time.Time
	DisabledAt   time.Time
	Metadata     map[string]any
}

// PasswordChangedEvent represents the payload for pafs.account.password_changed messages.
type PasswordChangedEvent struct {
	EventID         string
	AccountID       string
	ChangedAt       time.Time
	SessionsRevoked bool
	Metadata        map[string]any
}

// PasswordResetRequestedEvent represents the payload for
// pafs.account.password_reset_requested messages. Destination carries the raw
// address for the downstream mailer; MaskedDestination is what may be logged.
type PasswordResetRequestedEvent struct {
	EventID           string
	AccountID         string
	RequestID         string
	RequestedAt       time.Time
	Destination       string
	MaskedDestination string
	Token             string
	ExpiresAt         time.Time
	IPAddress         *string
	Metadata          map[string]any
}

// SessionRevokedEvent represents the payload for pafs.account.session_revoked messages.
type SessionRevokedEvent struct {
	EventID   string
	AccountID string
	SessionID string
	RevokedAt time.Time
	Reason    string
	Metadata  map[string]any
}
