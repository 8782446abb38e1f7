package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DEFRA/pafs-backend-api-sub003/internal/core/domain"
	"github.com/DEFRA/pafs-backend-api-sub003/internal/core/port"
	"github.com/DEFRA/pafs-backend-api-sub003/internal/repository"
)

var accountColumns = []string{
	"id",
	"email",
	"first_name",
	"last_name",
	"admin",
	"password_hash",
	"status",
	"failed_attempts",
	"locked_at",
	"sign_in_count",
	"current_sign_in_at",
	"current_sign_in_ip",
	"last_sign_in_at",
	"last_sign_in_ip",
	"active_session_id",
	"reset_token_hash",
	"reset_sent_at",
	"created_at",
	"updated_at",
}

// AccountRepository implements port.AccountRepository using PostgreSQL.
type AccountRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewAccountRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewAccountRepository(exec pgExecutor) *AccountRepository {
	repo := &AccountRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// WithTx returns a repository instance that executes statements within the supplied transaction.
func (r *AccountRepository) WithTx(tx pgx.Tx) *AccountRepository {
	if tx == nil {
		return r
	}
	return &AccountRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

func (r *AccountRepository) scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account

	if err := row.Scan(
		&account.ID,
		&account.Email,
		&account.FirstName,
		&account.LastName,
		&account.Admin,
		&account.PasswordHash,
		&account.Status,
		&account.FailedAttempts,
		&account.LockedAt,
		&account.SignInCount,
		&account.CurrentSignInAt,
		&account.CurrentSignInIP,
		&account.LastSignInAt,
		&account.LastSignInIP,
		&account.ActiveSessionID,
		&account.ResetTokenHash,
		&account.ResetSentAt,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}

	return &account, nil
}

// GetByEmail retrieves an account by its canonical email address.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	stmt, args, err := r.builder.
		Select(accountColumns...).
		From("pafs.accounts").
		Where(squirrel.Eq{"lower(email)": domain.NormalizeEmail(email)}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account by email sql: %w", err)
	}

	return r.scanAccount(r.exec.QueryRow(ctx, stmt, args...))
}

// GetByID retrieves an account by identifier.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	stmt, args, err := r.builder.
		Select(accountColumns...).
		From("pafs.accounts").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account sql: %w", err)
	}

	return r.scanAccount(r.exec.QueryRow(ctx, stmt, args...))
}

// UpdateLockout persists the failed-attempt counter and lockout timestamp.
func (r *AccountRepository) UpdateLockout(ctx context.Context, id string, failedAttempts int, lockedAt *time.Time, sourceIP *string) error {
	query := r.builder.Update("pafs.accounts").
		Set("failed_attempts", failedAttempts).
		Set("locked_at", lockedAt).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id})

	if sourceIP != nil {
		query = query.Set("current_sign_in_ip", *sourceIP)
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build update lockout sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update lockout: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpdateStatus transitions the account lifecycle state.
func (r *AccountRepository) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus) error {
	stmt, args, err := r.builder.Update("pafs.accounts").
		Set("status", status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update status sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpdateActiveSession overwrites the single active session pointer.
func (r *AccountRepository) UpdateActiveSession(ctx context.Context, id string, sessionID *string) error {
	stmt, args, err := r.builder.Update("pafs.accounts").
		Set("active_session_id", sessionID).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update active session sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update active session: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// RecordSignIn applies the success-path write in one statement.
func (r *AccountRepository) RecordSignIn(ctx context.Context, id string, record domain.SignInRecord) error {
	stmt, args, err := r.builder.Update("pafs.accounts").
		Set("active_session_id", record.SessionID).
		Set("current_sign_in_at", record.SignedInAt).
		Set("current_sign_in_ip", record.IP).
		Set("last_sign_in_at", record.PreviousAt).
		Set("last_sign_in_ip", record.PreviousIP).
		Set("sign_in_count", record.SignInCount).
		Set("failed_attempts", 0).
		Set("locked_at", nil).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build record sign in sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("record sign in: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SetResetToken stores the hashed reset token and issue timestamp.
func (r *AccountRepository) SetResetToken(ctx context.Context, id string, tokenHash string, sentAt time.Time) error {
	stmt, args, err := r.builder.Update("pafs.accounts").
		Set("reset_token_hash", tokenHash).
		Set("reset_sent_at", sentAt).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set reset token sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpdatePassword stores the new hash and invalidates everything tied to the
// old credential in a single statement.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id string, passwordHash string, changedAt time.Time) error {
	stmt, args, err := r.builder.Update("pafs.accounts").
		Set("password_hash", passwordHash).
		Set("reset_token_hash", nil).
		Set("reset_sent_at", nil).
		Set("failed_attempts", 0).
		Set("locked_at", nil).
		Set("active_session_id", nil).
		Set("updated_at", changedAt).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update password sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ListPasswordHistory returns the most recent archived hashes, newest first.
func (r *AccountRepository) ListPasswordHistory(ctx context.Context, accountID string, limit int) ([]domain.PasswordHistoryEntry, error) {
	query := r.builder.
		Select("id", "account_id", "password_hash", "created_at").
		From("pafs.account_password_histories").
		Where(squirrel.Eq{"account_id": accountID}).
		OrderBy("created_at DESC")

	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select password history sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("select password history: %w", err)
	}
	defer rows.Close()

	var entries []domain.PasswordHistoryEntry
	for rows.Next() {
		var entry domain.PasswordHistoryEntry
		if err := rows.Scan(&entry.ID, &entry.AccountID, &entry.PasswordHash, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan password history entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate password history: %w", err)
	}

	return entries, nil
}

// AddPasswordHistory archives a superseded password hash.
func (r *AccountRepository) AddPasswordHistory(ctx context.Context, entry domain.PasswordHistoryEntry) error {
	stmt, args, err := r.builder.Insert("pafs.account_password_histories").
		Columns("id", "account_id", "password_hash", "created_at").
		Values(entry.ID, entry.AccountID, entry.PasswordHash, entry.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert password history sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert password history: %w", err)
	}

	return nil
}

// TrimPasswordHistory deletes all but the newest keep entries for the account.
func (r *AccountRepository) TrimPasswordHistory(ctx context.Context, accountID string, keep int) error {
	if keep < 0 {
		keep = 0
	}

	stmt := `DELETE FROM pafs.account_password_histories
WHERE account_id = $1
  AND id NOT IN (
    SELECT id FROM pafs.account_password_histories
    WHERE account_id = $1
    ORDER BY created_at DESC
    LIMIT $2
  )`

	if _, err := r.exec.Exec(ctx, stmt, accountID, keep); err != nil {
		return fmt.Errorf("trim password history: %w", err)
	}

	return nil
}

var _ port.AccountRepository = (*AccountRepository)(nil)
