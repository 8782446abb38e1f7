package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DEFRA/pafs-backend-api-sub003/internal/core/domain"
	"github.com/DEFRA/pafs-backend-api-sub003/internal/core/port"
	"github.com/DEFRA/pafs-backend-api-sub003/internal/infra/logger"
	"github.com/DEFRA/pafs-backend-api-sub003/internal/repository"
)

// LoginResult carries the success payload of a login: a sanitized account
// projection plus the freshly issued token pair.
type LoginResult struct {
	Account      domain.Account
	SessionID    string
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// RefreshResult carries the rotated token pair issued by a refresh call.
type RefreshResult struct {
	SessionID    string
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// AuthService coordinates login, logout, and refresh. All account state lives
// in the backing store; the service itself holds no mutable state, so every
// call is an independent read-modify-write against the account record.
type AuthService struct {
	policy   domain.SecurityPolicy
	accounts port.AccountRepository
	hasher   port.PasswordHasher
	tokens   port.TokenCodec
	sessions *SessionManager
	events   port.EventPublisher
	logger   *zap.Logger
	now      func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(
	policy domain.SecurityPolicy,
	accounts port.AccountRepository,
	hasher port.PasswordHasher,
	tokens port.TokenCodec,
	sessions *SessionManager,
	events port.EventPublisher,
	log *zap.Logger,
) (*AuthService, error) {
	if accounts == nil {
		return nil, fmt.Errorf("account repository is required")
	}
	if hasher == nil {
		return nil, fmt.Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token codec is required")
	}
	if sessions == nil {
		sessions = NewSessionManager()
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &AuthService{
		policy:   policy,
		accounts: accounts,
		hasher:   hasher,
		tokens:   tokens,
		sessions: sessions,
		events:   events,
		logger:   log,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// WithClock overrides the service clock for deterministic tests.
func (s *AuthService) WithClock(clock func() time.Time) *AuthService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// Login authenticates a credential pair. Eligibility gates run in strict
// order and short-circuit: missing account, pending approval, incomplete
// setup, disabled, expired-lockout reset, active lockout, and lazy inactivity
// disablement all resolve before the password is ever verified.
func (s *AuthService) Login(ctx context.Context, email, password, sourceIP string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	switch account.Status {
	case domain.AccountStatusPending:
		return nil, ErrAccountPending
	case domain.AccountStatusApproved:
		return nil, ErrAccountSetupIncomplete
	}
	if !account.HasPassword() {
		return nil, ErrAccountSetupIncomplete
	}

	if account.IsDisabled() {
		return nil, ErrAccountDisabled
	}

	now := s.now()

	if s.policy.ShouldResetLockout(*account, now) {
		if err := s.accounts.UpdateLockout(ctx, account.ID, 0, nil, nil); err != nil {
			return nil, fmt.Errorf("reset lockout: %w", err)
		}
		account.FailedAttempts = 0
		account.LockedAt = nil
	}

	if s.policy.IsLocked(*account, now) {
		return nil, ErrAccountLocked
	}

	if s.policy.ShouldDisable(*account, now) {
		if err := s.accounts.UpdateStatus(ctx, account.ID, domain.AccountStatusDisabled); err != nil {
			return nil, fmt.Errorf("disable inactive account: %w", err)
		}
		s.publishDisabled(ctx, *account, now)
		return nil, ErrAccountDisabled
	}

	ok, err := s.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, s.recordFailedAttempt(ctx, *account, sourceIP, now)
	}

	return s.establishSession(ctx, *account, sourceIP, now)
}

// recordFailedAttempt bumps the counter, persists the source address, and
// decides between plain failure, a last-attempt warning, and lockout.
func (s *AuthService) recordFailedAttempt(ctx context.Context, account domain.Account, sourceIP string, now time.Time) error {
	attempts := account.FailedAttempts + 1

	var ip *string
	if sourceIP != "" {
		ip = &sourceIP
	}

	if s.policy.LockingEnabled && attempts >= s.policy.MaxAttempts {
		lockedAt := now
		if err := s.accounts.UpdateLockout(ctx, account.ID, attempts, &lockedAt, ip); err != nil {
			return fmt.Errorf("persist lockout: %w", err)
		}

		s.logger.Warn("account locked after repeated failures",
			zap.String("account_id", account.ID),
			zap.String("email", logger.MaskEmail(account.Email)),
			zap.Int("failed_attempts", attempts),
		)

		if s.events != nil {
			if err := s.events.PublishAccountLocked(ctx, domain.AccountLockedEvent{
				EventID:        uuid.NewString(),
				AccountID:      account.ID,
				Email:          account.Email,
				FailedAttempts: attempts,
				LockedAt:       lockedAt,
				IPAddress:      ip,
			}); err != nil {
				s.logger.Warn("publish account locked event", zap.Error(err))
			}
		}

		return ErrAccountLocked
	}

	if err := s.accounts.UpdateLockout(ctx, account.ID, attempts, nil, ip); err != nil {
		return fmt.Errorf("persist failed attempt: %w", err)
	}

	snapshot := account
	snapshot.FailedAttempts = attempts
	if s.policy.IsLastAttempt(snapshot) {
		return &LastAttemptError{Remaining: 1}
	}

	return ErrInvalidCredentials
}

// establishSession runs the success path: any prior session is invalidated
// first, then a fresh session id is minted, tokens are bound to it, and the
// sign-in bookkeeping rotates current into last.
func (s *AuthService) establishSession(ctx context.Context, account domain.Account, sourceIP string, now time.Time) (*LoginResult, error) {
	if account.ActiveSessionID != nil {
		if err := s.accounts.UpdateActiveSession(ctx, account.ID, nil); err != nil {
			return nil, fmt.Errorf("clear previous session: %w", err)
		}
	}

	sessionID, err := s.sessions.Mint()
	if err != nil {
		return nil, err
	}

	accessToken, err := s.tokens.IssueAccess(account, sessionID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refreshToken, err := s.tokens.IssueRefresh(account, sessionID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	var ip *string
	if sourceIP != "" {
		ip = &sourceIP
	}

	record := domain.SignInRecord{
		SessionID:   sessionID,
		SignedInAt:  now,
		IP:          ip,
		PreviousAt:  account.CurrentSignInAt,
		PreviousIP:  account.CurrentSignInIP,
		SignInCount: account.SignInCount + 1,
	}

	if err := s.accounts.RecordSignIn(ctx, account.ID, record); err != nil {
		return nil, fmt.Errorf("record sign in: %w", err)
	}

	s.logger.Info("account signed in",
		zap.String("account_id", account.ID),
		zap.String("email", logger.MaskEmail(account.Email)),
		zap.String("ip", logger.MaskIP(sourceIP)),
	)

	if s.events != nil {
		if err := s.events.PublishSignedIn(ctx, domain.SignedInEvent{
			EventID:    uuid.NewString(),
			AccountID:  account.ID,
			Email:      account.Email,
			SessionID:  sessionID,
			SignedInAt: now,
			IPAddress:  ip,
		}); err != nil {
			s.logger.Warn("publish signed in event", zap.Error(err))
		}
	}

	sanitized := account.Sanitized()
	sanitized.ActiveSessionID = nil
	sanitized.FailedAttempts = 0
	sanitized.LockedAt = nil
	sanitized.SignInCount = record.SignInCount

	return &LoginResult{
		Account:      sanitized,
		SessionID:    sessionID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.tokens.AccessTTL(),
	}, nil
}

// Logout clears the active session, but only when the presented session id is
// the one currently stored. A stale id must never invalidate a newer login.
func (s *AuthService) Logout(ctx context.Context, accountID, sessionID string) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	if !s.sessions.Matches(*account, sessionID) {
		return ErrSessionMismatch
	}

	if err := s.accounts.UpdateActiveSession(ctx, account.ID, nil); err != nil {
		return fmt.Errorf("clear active session: %w", err)
	}

	if s.events != nil {
		if err := s.events.PublishSessionRevoked(ctx, domain.SessionRevokedEvent{
			EventID:   uuid.NewString(),
			AccountID: account.ID,
			SessionID: sessionID,
			RevokedAt: s.now(),
			Reason:    "logout",
		}); err != nil {
			s.logger.Warn("publish session revoked event", zap.Error(err))
		}
	}

	return nil
}

// Refresh rotates the session on every call: a valid refresh token yields a
// brand-new session id and token pair, and the supplied token's session
// becomes unusable. Refreshing from a session superseded by a newer login
// fails closed with a session mismatch.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	assertion, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	account, err := s.accounts.GetByID(ctx, assertion.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	if account.IsDisabled() {
		return nil, ErrAccountDisabled
	}

	if !s.sessions.Matches(*account, assertion.SessionID) {
		return nil, ErrSessionMismatch
	}

	sessionID, err := s.sessions.Mint()
	if err != nil {
		return nil, err
	}

	accessToken, err := s.tokens.IssueAccess(*account, sessionID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	newRefreshToken, err := s.tokens.IssueRefresh(*account, sessionID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	if err := s.accounts.UpdateActiveSession(ctx, account.ID, &sessionID); err != nil {
		return nil, fmt.Errorf("rotate active session: %w", err)
	}

	return &RefreshResult{
		SessionID:    sessionID,
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		ExpiresIn:    s.tokens.AccessTTL(),
	}, nil
}

func (s *AuthService) publishDisabled(ctx context.Context, account domain.Account, now time.Time) {
	s.logger.Info("account disabled after inactivity",
		zap.String("account_id", account.ID),
		zap.String("email", logger.MaskEmail(account.Email)),
	)

	if s.events == nil {
		return
	}

	if err := s.events.PublishAccountDisabled(ctx, domain.AccountDisabledEvent{
		EventID:      uuid.NewString(),
		AccountID:    account.ID,
		Email:        account.Email,
		Reason:       "inactivity",
		LastSignInAt: account.LastSignInAt,
		DisabledAt:   now,
	}); err != nil {
		s.logger.Warn("publish account disabled event", zap.Error(err))
	}
}
