package domain

import (
	"strings"
	"time"
)

// AccountStatus enumerates the lifecycle states of an account.
//
// "locked" is intentionally absent: lockout is derived from LockedAt and the
// current time, never stored as a status of its own.
type AccountStatus string

const (
	// AccountStatusPending marks an account awaiting administrative approval.
	AccountStatusPending AccountStatus = "pending"
	// AccountStatusApproved marks an invited account that has not completed password setup.
	AccountStatusApproved AccountStatus = "approved"
	// AccountStatusActive marks a fully provisioned account eligible to sign in.
	AccountStatusActive AccountStatus = "active"
	// AccountStatusDisabled marks an account barred from signing in.
	AccountStatusDisabled AccountStatus = "disabled"
)

// Account mirrors the persisted representation in the accounts table.
type Account struct {
	ID              string
	Email           string
	FirstName       string
	LastName        string
	Admin           bool
	PasswordHash    string
	Status          AccountStatus
	FailedAttempts  int
	LockedAt        *time.Time
	SignInCount     int
	CurrentSignInAt *time.Time
	CurrentSignInIP *string
	LastSignInAt    *time.Time
	LastSignInIP    *string
	ActiveSessionID *string
	ResetTokenHash  *string
	ResetSentAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasPassword reports whether the account has completed password setup.
func (a Account) HasPassword() bool {
	return strings.TrimSpace(a.PasswordHash) != ""
}

// IsDisabled reports whether the account status bars sign-in.
func (a Account) IsDisabled() bool {
	return a.Status == AccountStatusDisabled
}

// Sanitized returns a copy safe to hand to transport layers.
func (a Account) Sanitized() Account {
	copy := a
	copy.PasswordHash = ""
	copy.ResetTokenHash = nil
	return copy
}

// NormalizeEmail canonicalizes an email address for lookup and comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PasswordHistoryEntry archives a superseded password hash for reuse checks.
type PasswordHistoryEntry struct {
	ID           string
	AccountID    string
	PasswordHash string
	CreatedAt    time.Time
}

// SessionAssertion is the claim pair carried inside issued tokens. It is not a
// persisted entity; validity is established by comparing SessionID against the
// account's ActiveSessionID.
type SessionAssertion struct {
	AccountID string
	SessionID string
}

// SignInRecord captures the fields written on a successful sign-in. The caller
// computes the rotation (current moves to previous) from the loaded account.
type SignInRecord struct {
	SessionID   string
	SignedInAt  time.Time
	IP          *string
	PreviousAt  *time.Time
	PreviousIP  *string
	SignInCount int
}
