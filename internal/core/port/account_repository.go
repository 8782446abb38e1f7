package port

import (
	"context"
	"time"

	"github.com/DEFRA/pafs-backend-api-sub003/internal/core/domain"
)

// AccountRepository exposes persistence behavior for accounts and their
// password history. Lookups return repository.ErrNotFound when no row matches.
type AccountRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByID(ctx context.Context, id string) (*domain.Account, error)

	// UpdateLockout persists the failed-attempt counter and lockout timestamp.
	// A nil lockedAt clears the lockout. The source address, when present, is
	// recorded against the account unconditionally.
	UpdateLockout(ctx context.Context, id string, failedAttempts int, lockedAt *time.Time, sourceIP *string) error

	UpdateStatus(ctx context.Context, id string, status domain.AccountStatus) error

	// UpdateActiveSession overwrites the single active session pointer. A nil
	// sessionID clears it.
	UpdateActiveSession(ctx context.Context, id string, sessionID *string) error

	// RecordSignIn applies the success-path write in one statement: session
	// pointer, tracking rotation, counter bump, lockout reset.
	RecordSignIn(ctx context.Context, id string, record domain.SignInRecord) error

	SetResetToken(ctx context.Context, id string, tokenHash string, sentAt time.Time) error

	// UpdatePassword stores the new hash and invalidates everything tied to
	// the old credential: reset token, lockout counters, and the active
	// session pointer.
	UpdatePassword(ctx context.Context, id string, passwordHash string, changedAt time.Time) error

	ListPasswordHistory(ctx context.Context, accountID string, limit int) ([]domain.PasswordHistoryEntry, error)
	AddPasswordHistory(ctx context.Context, entry domain.PasswordHistoryEntry) error
	TrimPasswordHistory(ctx context.Context, accountID string, keep int) error
}
