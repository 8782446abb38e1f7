package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DEFRA/pafs-backend-api-sub003/internal/core/domain"
	"github.com/DEFRA/pafs-backend-api-sub003/internal/core/port"
	"github.com/DEFRA/pafs-backend-api-sub003/internal/infra/logger"
	"github.com/DEFRA/pafs-backend-api-sub003/internal/infra/security"
	"github.com/DEFRA/pafs-backend-api-sub003/internal/repository"
)

const (
	resetTokenBytes = 32

	defaultResetTTL     = time.Hour
	defaultHistoryLimit = 5
)

// PasswordResetOptions tunes reset-token lifetime and the history guard.
type PasswordResetOptions struct {
	ResetTTL       time.Duration
	HistoryEnabled bool
	HistoryLimit   int
}

// PasswordResetService coordinates reset initiation, token verification, and
// the history-guarded password update.
type PasswordResetService struct {
	opts      PasswordResetOptions
	accounts  port.AccountRepository
	hasher    port.PasswordHasher
	validator *security.PasswordValidator
	events    port.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewPasswordResetService constructs a PasswordResetService.
func NewPasswordResetService(
	opts PasswordResetOptions,
	accounts port.AccountRepository,
	hasher port.PasswordHasher,
	validator *security.PasswordValidator,
	events port.EventPublisher,
	log *zap.Logger,
) (*PasswordResetService, error) {
	if accounts == nil {
		return nil, fmt.Errorf("account repository is required")
	}
	if hasher == nil {
		return nil, fmt.Errorf("password hasher is required")
	}
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	if log == nil {
		log = zap.NewNop()
	}
	if opts.ResetTTL <= 0 {
		opts.ResetTTL = defaultResetTTL
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = defaultHistoryLimit
	}

	return &PasswordResetService{
		opts:      opts,
		accounts:  accounts,
		hasher:    hasher,
		validator: validator,
		events:    events,
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// WithClock overrides the service clock for deterministic tests.
func (s *PasswordResetService) WithClock(clock func() time.Time) *PasswordResetService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// RequestPasswordReset issues a reset token for the account behind the email.
// Only the SHA-256 of the token is stored; the raw token travels to the
// mailer via the event bus and is never logged. Missing accounts surface as
// ErrAccountNotFound so the transport layer can respond identically either way.
func (s *PasswordResetService) RequestPasswordReset(ctx context.Context, email string) error {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	if account.IsDisabled() {
		return ErrAccountDisabled
	}

	token, err := security.GenerateSecureToken(resetTokenBytes)
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	now := s.now()
	if err := s.accounts.SetResetToken(ctx, account.ID, security.HashToken(token), now); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	s.logger.Info("password reset requested",
		zap.String("account_id", account.ID),
		zap.String("email", logger.MaskEmail(account.Email)),
	)

	if s.events != nil {
		if err := s.events.PublishPasswordResetRequested(ctx, domain.PasswordResetRequestedEvent{
			EventID:           uuid.NewString(),
			AccountID:         account.ID,
			RequestID:         uuid.NewString(),
			RequestedAt:       now,
			Destination:       account.Email,
			MaskedDestination: logger.MaskEmail(account.Email),
			Token:             token,
			ExpiresAt:         now.Add(s.opts.ResetTTL),
		}); err != nil {
			s.logger.Warn("publish password reset requested event", zap.Error(err))
		}
	}

	return nil
}

// VerifyResetToken checks a presented raw token against the stored hash and
// issue time. Unknown, mismatched, and expired tokens all collapse to
// ErrResetTokenInvalid.
func (s *PasswordResetService) VerifyResetToken(ctx context.Context, accountID, token string) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	if account.ResetTokenHash == nil || account.ResetSentAt == nil {
		return ErrResetTokenInvalid
	}
	if strings.TrimSpace(token) == "" || *account.ResetTokenHash != security.HashToken(token) {
		return ErrResetTokenInvalid
	}
	if s.now().After(account.ResetSentAt.Add(s.opts.ResetTTL)) {
		return ErrResetTokenInvalid
	}

	return nil
}

// ResetPassword validates the candidate, rejects reuse of the current or
// archived credentials, and persists the new hash. The update clears the
// reset token, lockout counters, and the active session pointer; a password
// reset invalidates every outstanding session. The superseded hash is
// archived afterwards and the history trimmed to its retention bound.
func (s *PasswordResetService) ResetPassword(ctx context.Context, accountID, newPassword string) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	if err := s.validator.Validate(newPassword); err != nil {
		return err
	}

	localPart := account.Email
	if at := strings.Index(localPart, "@"); at >= 0 {
		localPart = localPart[:at]
	}
	if err := security.NotContainingRule(localPart, account.FirstName, account.LastName).Validate(newPassword); err != nil {
		return err
	}

	if account.HasPassword() {
		same, err := s.hasher.Verify(newPassword, account.PasswordHash)
		if err != nil {
			return fmt.Errorf("verify current password: %w", err)
		}
		if same {
			return ErrPasswordPreviouslyUsed
		}
	}

	if s.opts.HistoryEnabled {
		reused, err := s.checkHistory(ctx, account.ID, newPassword)
		if err != nil {
			return err
		}
		if reused {
			return ErrPasswordPreviouslyUsed
		}
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	if err := s.accounts.UpdatePassword(ctx, account.ID, newHash, now); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if s.opts.HistoryEnabled && account.HasPassword() {
		entry := domain.PasswordHistoryEntry{
			ID:           uuid.NewString(),
			AccountID:    account.ID,
			PasswordHash: account.PasswordHash,
			CreatedAt:    now,
		}
		if err := s.accounts.AddPasswordHistory(ctx, entry); err != nil {
			return fmt.Errorf("archive password history: %w", err)
		}
		if err := s.accounts.TrimPasswordHistory(ctx, account.ID, s.opts.HistoryLimit); err != nil {
			return fmt.Errorf("trim password history: %w", err)
		}
	}

	s.logger.Info("password reset completed",
		zap.String("account_id", account.ID),
		zap.String("email", logger.MaskEmail(account.Email)),
	)

	if s.events != nil {
		if err := s.events.PublishPasswordChanged(ctx, domain.PasswordChangedEvent{
			EventID:         uuid.NewString(),
			AccountID:       account.ID,
			ChangedAt:       now,
			SessionsRevoked: true,
		}); err != nil {
			s.logger.Warn("publish password changed event", zap.Error(err))
		}
	}

	return nil
}

// checkHistory verifies the candidate against the most recent archived hashes.
func (s *PasswordResetService) checkHistory(ctx context.Context, accountID, candidate string) (bool, error) {
	entries, err := s.accounts.ListPasswordHistory(ctx, accountID, s.opts.HistoryLimit)
	if err != nil {
		return false, fmt.Errorf("list password history: %w", err)
	}

	for _, entry := range entries {
		match, err := s.hasher.Verify(candidate, entry.PasswordHash)
		if err != nil {
			return false, fmt.Errorf("verify archived password: %w", err)
		}
		if match {
			return true, nil
		}
	}

	return false, nil
}
