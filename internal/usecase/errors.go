package usecase

import "errors"

var (
	// ErrInvalidCredentials indicates the provided email or password are
	// incorrect. Both cases report identically to avoid account enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountPending indicates the account is awaiting administrative approval.
	ErrAccountPending = errors.New("account pending approval")
	// ErrAccountSetupIncomplete indicates an invited account that never completed password setup.
	ErrAccountSetupIncomplete = errors.New("account setup incomplete")
	// ErrAccountDisabled indicates the account is barred from signing in.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrAccountLocked indicates too many failed attempts; the lock self-expires.
	ErrAccountLocked = errors.New("account locked")
	// ErrAccountNotFound indicates no account matches the supplied identifier.
	ErrAccountNotFound = errors.New("account not found")
	// ErrSessionMismatch indicates the presented session id is not the account's
	// active session. Always fails closed; nothing is cleared or issued.
	ErrSessionMismatch = errors.New("session mismatch")
	// ErrTokenInvalid indicates a refresh token that is expired, malformed, or mis-signed.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrResetTokenInvalid indicates a password reset token that is unknown or expired.
	ErrResetTokenInvalid = errors.New("reset token invalid")
	// ErrPasswordPreviouslyUsed indicates the candidate password matches the
	// current credential or an archived one.
	ErrPasswordPreviouslyUsed = errors.New("password previously used")
)

// LastAttemptError signals a failed login that leaves exactly one attempt
// before lockout. It unwraps to ErrInvalidCredentials so existing errors.Is
// checks keep working; callers needing the warning use errors.As.
type LastAttemptError struct {
	Remaining int
}

func (e *LastAttemptError) Error() string {
	return "invalid credentials: one attempt remaining before lockout"
}

// Unwrap exposes the base credential failure.
func (e *LastAttemptError) Unwrap() error {
	return ErrInvalidCredentials
}
