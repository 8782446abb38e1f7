package domain

import "time"

// SecurityPolicy holds the thresholds governing lockout and inactivity
// disablement. All decision functions are pure: they take the account
// snapshot and the caller's clock, and never touch storage.
type SecurityPolicy struct {
	MaxAttempts      int
	LockDuration     time.Duration
	LockingEnabled   bool
	DisablingEnabled bool
	InactivityWindow time.Duration
}

// DefaultSecurityPolicy returns the standard deployment thresholds.
func DefaultSecurityPolicy() SecurityPolicy {
	return SecurityPolicy{
		MaxAttempts:      5,
		LockDuration:     30 * time.Minute,
		LockingEnabled:   true,
		DisablingEnabled: true,
		InactivityWindow: 90 * 24 * time.Hour,
	}
}

// ShouldResetLockout reports whether a stored lockout has expired. Lockout is
// self-expiring; no background timer clears it.
func (p SecurityPolicy) ShouldResetLockout(account Account, now time.Time) bool {
	if account.LockedAt == nil {
		return false
	}
	return !now.Before(account.LockedAt.Add(p.LockDuration))
}

// IsLocked reports whether the account is currently locked out. When locking
// is disabled the stored state is ignored entirely, so the policy can be
// toggled without migrating data.
func (p SecurityPolicy) IsLocked(account Account, now time.Time) bool {
	if !p.LockingEnabled {
		return false
	}
	if account.LockedAt == nil {
		return false
	}
	return !p.ShouldResetLockout(account, now)
}

// ShouldDisable reports whether the account has been inactive long enough to
// be disabled. Accounts that never signed in are not considered inactive.
func (p SecurityPolicy) ShouldDisable(account Account, now time.Time) bool {
	if !p.DisablingEnabled {
		return false
	}
	if account.LastSignInAt == nil {
		return false
	}
	return !now.Before(account.LastSignInAt.Add(p.InactivityWindow))
}

// RemainingAttempts returns how many failed attempts remain before lockout,
// never negative.
func (p SecurityPolicy) RemainingAttempts(account Account) int {
	remaining := p.MaxAttempts - account.FailedAttempts
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsLastAttempt reports whether exactly one attempt remains. Callers attach a
// final-warning signal distinct from the lock signal.
func (p SecurityPolicy) IsLastAttempt(account Account) bool {
	return p.RemainingAttempts(account) == 1
}
