package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/DEFRA/pafs-backend-api-sub003/internal/core/domain"
	"github.com/DEFRA/pafs-backend-api-sub003/internal/infra/security"
	"github.com/DEFRA/pafs-backend-api-sub003/internal/repository"
)

type stubAccountRepo struct {
	accounts map[string]*domain.Account
	history  map[string][]domain.PasswordHistoryEntry
}

func newStubAccountRepo(accounts ...*domain.Account) *stubAccountRepo {
	repo := &stubAccountRepo{
		accounts: make(map[string]*domain.Account),
		history:  make(map[string][]domain.PasswordHistoryEntry),
	}
	for _, account := range accounts {
		repo.accounts[account.ID] = account
	}
	return repo
}

func (r *stubAccountRepo) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	normalized := domain.NormalizeEmail(email)
	for _, account := range r.accounts {
		if domain.NormalizeEmail(account.Email) == normalized {
			copy := *account
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubAccountRepo) GetByID(_ context.Context, id string) (*domain.Account, error) {
	if account, ok := r.accounts[id]; ok {
		copy := *account
		return &copy, nil
	}
	return nil, repository.ErrNotFound
}

func (r *stubAccountRepo) UpdateLockout(_ context.Context, id string, failedAttempts int, lockedAt *time.Time, sourceIP *string) error {
	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.FailedAttempts = failedAttempts
	account.LockedAt = lockedAt
	if sourceIP != nil {
		account.CurrentSignInIP = sourceIP
	}
	return nil
}

func (r *stubAccountRepo) UpdateStatus(_ context.Context, id string, status domain.AccountStatus) error {
	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.Status = status
	return nil
}

func (r *stubAccountRepo) UpdateActiveSession(_ context.Context, id string, sessionID *string) error {
	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.ActiveSessionID = sessionID
	return nil
}

func (r *stubAccountRepo) RecordSignIn(_ context.Context, id string, record domain.SignInRecord) error {
	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	sessionID := record.SessionID
	signedInAt := record.SignedInAt
	account.ActiveSessionID = &sessionID
	account.CurrentSignInAt = &signedInAt
	account.CurrentSignInIP = record.IP
	account.LastSignInAt = record.PreviousAt
	account.LastSignInIP = record.PreviousIP
	account.SignInCount = record.SignInCount
	account.FailedAttempts = 0
	account.LockedAt = nil
	return nil
}

func (r *stubAccountRepo) SetResetToken(_ context.Context, id string, tokenHash string, sentAt time.Time) error {
	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.ResetTokenHash = &tokenHash
	account.ResetSentAt = &sentAt
	return nil
}

func (r *stubAccountRepo) UpdatePassword(_ context.Context, id string, passwordHash string, changedAt time.Time) error {
	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.PasswordHash = passwordHash
	account.ResetTokenHash = nil
	account.ResetSentAt = nil
	account.FailedAttempts = 0
	account.LockedAt = nil
	account.ActiveSessionID = nil
	account.UpdatedAt = changedAt
	return nil
}

func (r *stubAccountRepo) ListPasswordHistory(_ context.Context, accountID string, limit int) ([]domain.PasswordHistoryEntry, error) {
	entries := r.history[accountID]
	var newestFirst []domain.PasswordHistoryEntry
	for i := len(entries) - 1; i >= 0; i-- {
		newestFirst = append(newestFirst, entries[i])
		if limit > 0 && len(newestFirst) == limit {
			break
		}
	}
	return newestFirst, nil
}

func (r *stubAccountRepo) AddPasswordHistory(_ context.Context, entry domain.PasswordHistoryEntry) error {
	r.history[entry.AccountID] = append(r.history[entry.AccountID], entry)
	return nil
}

func (r *stubAccountRepo) TrimPasswordHistory(_ context.Context, accountID string, keep int) error {
	entries := r.history[accountID]
	if len(entries) > keep {
		r.history[accountID] = append([]domain.PasswordHistoryEntry(nil), entries[len(entries)-keep:]...)
	}
	return nil
}

type stubHasher struct{}

func (stubHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (stubHasher) Verify(password, encoded string) (bool, error) {
	return encoded == "hashed:"+password, nil
}

type recordingPublisher struct {
	signedIn       []domain.SignedInEvent
	locked         []domain.AccountLockedEvent
	disabled       []domain.AccountDisabledEvent
	passwordChange []domain.PasswordChangedEvent
	resetRequested []domain.PasswordResetRequestedEvent
	revoked        []domain.SessionRevokedEvent
}

func (p *recordingPublisher) PublishSignedIn(_ context.Context, event domain.SignedInEvent) error {
	p.signedIn = append(p.signedIn, event)
	return nil
}

func (p *recordingPublisher) PublishAccountLocked(_ context.Context, event domain.AccountLockedEvent) error {
	p.locked = append(p.locked, event)
	return nil
}

func (p *recordingPublisher) PublishAccountDisabled(_ context.Context, event domain.AccountDisabledEvent) error {
	p.disabled = append(p.disabled, event)
	return nil
}

func (p *recordingPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	p.passwordChange = append(p.passwordChange, event)
	return nil
}

func (p *recordingPublisher) PublishPasswordResetRequested(_ context.Context, event domain.PasswordResetRequestedEvent) error {
	p.resetRequested = append(p.resetRequested, event)
	return nil
}

func (p *recordingPublisher) PublishSessionRevoked(_ context.Context, event domain.SessionRevokedEvent) error {
	p.revoked = append(p.revoked, event)
	return nil
}

func testCodec(t *testing.T, clock func() time.Time) *security.Codec {
	t.Helper()
	codec, err := security.NewCodec(security.CodecConfig{
		Secret:     "unit-test-signing-secret",
		Issuer:     "pafs-backend-api",
		Audience:   "pafs-web",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return codec.WithClock(clock)
}

func newTestAuthService(t *testing.T, repo *stubAccountRepo, clock func() time.Time) (*AuthService, *recordingPublisher) {
	t.Helper()
	events := &recordingPublisher{}
	svc, err := NewAuthService(
		domain.DefaultSecurityPolicy(),
		repo,
		stubHasher{},
		testCodec(t, clock),
		NewSessionManager(),
		events,
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	return svc.WithClock(clock), events
}

func activeAccount(id, email, password string) *domain.Account {
	return &domain.Account{
		ID:           id,
		Email:        email,
		FirstName:    "Casey",
		LastName:     "Officer",
		PasswordHash: "hashed:" + password,
		Status:       domain.AccountStatusActive,
	}
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestLoginSuccessRotatesTracking(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	previousAt := now.Add(-72 * time.Hour)
	previousIP := "198.51.100.7"

	account := activeAccount("account-1", "case.officer@example.gov.uk", "M4rshland!Weir82")
	account.SignInCount = 3
	account.CurrentSignInAt = &previousAt
	account.CurrentSignInIP = &previousIP

	repo := newStubAccountRepo(account)
	svc, events := newTestAuthService(t, repo, fixedClock(now))

	result, err := svc.Login(context.Background(), "Case.Officer@Example.gov.uk", "M4rshland!Weir82", "203.0.113.10")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("expected both tokens issued")
	}
	if result.SessionID == "" {
		t.Fatal("expected a session id")
	}
	if result.ExpiresIn != 15*time.Minute {
		t.Fatalf("unexpected access TTL: %v", result.ExpiresIn)
	}
	if result.Account.PasswordHash != "" {
		t.Fatal("expected sanitized account projection")
	}

	stored := repo.accounts["account-1"]
	if stored.ActiveSessionID == nil || *stored.ActiveSessionID != result.SessionID {
		t.Fatal("expected active session pointer to match issued session")
	}
	if stored.SignInCount != 4 {
		t.Fatalf("expected sign in count 4, got %d", stored.SignInCount)
	}
	if stored.LastSignInAt == nil || !stored.LastSignInAt.Equal(previousAt) {
		t.Fatal("expected current sign-in to rotate into last")
	}
	if stored.LastSignInIP == nil || *stored.LastSignInIP != previousIP {
		t.Fatal("expected current ip to rotate into last")
	}
	if stored.CurrentSignInAt == nil || !stored.CurrentSignInAt.Equal(now) {
		t.Fatal("expected current sign-in timestamp updated")
	}
	if stored.CurrentSignInIP == nil || *stored.CurrentSignInIP != "203.0.113.10" {
		t.Fatal("expected current ip updated")
	}
	if stored.FailedAttempts != 0 || stored.LockedAt != nil {
		t.Fatal("expected lockout state cleared")
	}

	if len(events.signedIn) != 1 {
		t.Fatalf("expected one signed-in event, got %d", len(events.signedIn))
	}
	if events.signedIn[0].SessionID != result.SessionID {
		t.Fatal("expected event bound to issued session")
	}
}

func TestLoginWithoutSourceIPStoresNoAddress(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	account := activeAccount("account-1", "case.officer@example.gov.uk", "M4rshland!Weir82")
	repo := newStubAccountRepo(account)
	svc, _ := newTestAuthService(t, repo, fixedClock(now))

	if _, err := svc.Login(context.Background(), "case.officer@example.gov.uk", "M4rshland!Weir82", ""); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	stored := repo.accounts["account-1"]
	if stored.CurrentSignInIP != nil {
		t.Fatalf("expected no sign-in address recorded, got %q", *stored.CurrentSignInIP)
	}
	if stored.CurrentSignInAt == nil || !stored.CurrentSignInAt.Equal(now) {
		t.Fatal("expected current sign-in timestamp updated")
	}
}

func TestLoginUnknownAccountReturnsInvalidCredentials(t *testing.T) {
	repo := newStubAccountRepo()
	svc, _ := newTestAuthService(t, repo, fixedClock(time.Now().UTC()))

	if _, err := svc.Login(context.Background(), "nobody@example.gov.uk", "whatever-pass", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginStatusGates(t *testing.T) {
	now := time.Now().UTC()

	pending := activeAccount("pending-1", "pending@example.gov.uk", "M4rshland!Weir82")
	pending.Status = domain.AccountStatusPending

	approved := activeAccount("approved-1", "approved@example.gov.uk", "M4rshland!Weir82")
	approved.Status = domain.AccountStatusApproved

	noPassword := activeAccount("nopass-1", "nopass@example.gov.uk", "M4rshland!Weir82")
	noPassword.PasswordHash = ""

	disabled := activeAccount("disabled-1", "disabled@example.gov.uk", "M4rshland!Weir82")
	disabled.Status = domain.AccountStatusDisabled

	repo := newStubAccountRepo(pending, approved, noPassword, disabled)
	svc, _ := newTestAuthService(t, repo, fixedClock(now))

	cases := []struct {
		email string
		want  error
	}{
		{"pending@example.gov.uk", ErrAccountPending},
		{"approved@example.gov.uk", ErrAccountSetupIncomplete},
		{"nopass@example.gov.uk", ErrAccountSetupIncomplete},
		{"disabled@example.gov.uk", ErrAccountDisabled},
	}

	for _, tc := range cases {
		if _, err := svc.Login(context.Background(), tc.email, "M4rshland!Weir82", ""); !errors.Is(err, tc.want) {
			t.Fatalf("login %s: expected %v, got %v", tc.email, tc.want, err)
		}
	}
}

func TestLoginLockoutAfterMaxAttempts(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	account := activeAccount("account-1", "case.officer@example.gov.uk", "M4rshland!Weir82")
	account.FailedAttempts = 4

	repo := newStubAccountRepo(account)
	svc, events := newTestAuthService(t, repo, fixedClock(now))

	_, err := svc.Login(context.Background(), "case.officer@example.gov.uk", "wrong-password", "203.0.113.10")
	if !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked, got %v", err)
	}

	stored := repo.accounts["account-1"]
	if stored.FailedAttempts != 5 {
		t.Fatalf("expected 5 failed attempts, got %d", stored.FailedAttempts)
	}
	if stored.LockedAt == nil || !stored.LockedAt.Equal(now) {
		t.Fatal("expected lockedAt set to current time")
	}
	if stored.CurrentSignInIP == nil || *stored.CurrentSignInIP != "203.0.113.10" {
		t.Fatal("expected source address persisted")
	}

	if len(events.locked) != 1 {
		t.Fatalf("expected one locked event, got %d", len(events.locked))
	}
}

func TestLoginLastAttemptWarning(t *testing.T) {
	account := activeAccount("account-1", "case.officer@example.gov.uk", "M4rshland!Weir82")
	account.FailedAttempts = 3

	repo := newStubAccountRepo(account)
	svc, _ := newTestAuthService(t, repo, fixedClock(time.Now().UTC()))

	_, err := svc.Login(context.Background(), "case.officer@example.gov.uk", "wrong-password", "")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected credential failure, got %v", err)
	}

	var warning *LastAttemptError
	if !errors.As(err, &warning) {
		t.Fatalf("expected LastAttemptError, got %v", err)
	}
	if warning.Remaining != 1 {
		t.Fatalf("expected one remaining attempt, got %d", warning.Remaining)
	}

	if repo.accounts["account-1"].FailedAttempts != 4 {
		t.Fatalf("expected 4 failed attempts, got %d", repo.accounts["account-1"].FailedAttempts)
	}
}

func TestLoginActiveLockoutShortCircuits(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	lockedAt := now.Add(-5 * time.Minute)

	account := activeAccount("account-1", "case.officer@example.gov.uk", "M4rshland!Weir82")
	account.FailedAttempts = 5
	account.LockedAt = &lockedAt

	repo := newStubAccountRepo(account)
	svc, _ := newTestAuthService(t, repo, fixedClock(now))

	if _, err := svc.Login(context.Background(), "case.officer@example.gov.uk", "M4rshland!Weir82", ""); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked, got %v", err)
	}
}

func TestLoginExpiredLockoutResetsAndProceeds(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	lockedAt := now.Add(-31 * time.Minute)

	account := activeAccount("account-1", "case.officer@example.gov.uk", "M4rshland!Weir82")
	account.FailedAttempts = 5
	account.LockedAt = &lockedAt

	repo := newStubAccountRepo(account)
	svc, _ := newTestAuthService(t, repo, fixedClock(now))

	result, err := svc.Login(context.Background(), "case.officer@example.gov.uk", "M4rshland!Weir82", "")
	if err != nil {
		t.Fatalf("expected login to proceed after lock expiry, got %v", err)
	}
	if result.SessionID == "" {
		t.Fatal("expected a session id")
	}

	stored := repo.accounts["account-1"]
	if stored.FailedAttempts != 0 || stored.LockedAt != nil {
		t.Fatal("expected lockout state cleared")
	}
}

func TestLoginInactivityDisablesLazily(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	lastSignIn := now.Add(-91 * 24 * time.Hour)

	account := activeAccount("account-1", "case.officer@example.gov.uk", "M4rshland!Weir82")
	account.LastSignInAt = &lastSignIn

	repo := newStubAccountRepo(account)
	svc, events := newTestAuthService(t, repo, fixedClock(now))

	if _, err := svc.Login(context.Background(), "case.officer@example.gov.uk", "M4rshland!Weir82", ""); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}

	if repo.accounts["account-1"].Status != domain.AccountStatusDisabled {
		t.Fatal("expected status persisted as disabled")
	}
	if len(events.disabled) != 1 {
		t.Fatalf("expected one disabled event, got %d", len(events.disabled))
	}

	// Second attempt hits the disabled gate before the inactivity check.
	if _, err := svc.Login(context.Background(), "case.officer@example.gov.uk", "M4rshland!Weir82", ""); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled on repeat, got %v", err)
	}
	if len(events.disabled) != 1 {
		t.Fatal("expected no second disabled event")
	}
}

func TestSingleActiveSessionAcrossLoginsAndRefresh(t *testing.T) {
	current := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }

	account := activeAccount("account-1", "case.officer@example.gov.uk", "M4rshland!Weir82")
	repo := newStubAccountRepo(account)
	svc, _ := newTestAuthService(t, repo, clock)

	loginA, err := svc.Login(context.Background(), "case.officer@example.gov.uk", "M4rshland!Weir82", "")
	if err != nil {
		t.Fatalf("login A: %v", err)
	}

	current = current.Add(time.Minute)

	loginB, err := svc.Login(context.Background(), "case.officer@example.gov.uk", "M4rshland!Weir82", "")
	if err != nil {
		t.Fatalf("login B: %v", err)
	}

	if loginA.SessionID == loginB.SessionID {
		t.Fatal("expected distinct session ids per login")
	}

	current = current.Add(time.Minute)

	if _, err := svc.Refresh(context.Background(), loginA.RefreshToken); !errors.Is(err, ErrSessionMismatch) {
		t.Fatalf("expected stale session refresh to fail closed, got %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), loginB.RefreshToken)
	if err != nil {
		t.Fatalf("refresh B: %v", err)
	}
	if refreshed.SessionID == loginB.SessionID {
		t.Fatal("expected refresh to rotate the session id")
	}

	stored := repo.accounts["account-1"]
	if stored.ActiveSessionID == nil || *stored.ActiveSessionID != refreshed.SessionID {
		t.Fatal("expected rotated session persisted")
	}

	// Rotation is strict single-use: the consumed refresh token is dead.
	if _, err := svc.Refresh(context.Background(), loginB.RefreshToken); !errors.Is(err, ErrSessionMismatch) {
		t.Fatalf("expected consumed refresh token to fail, got %v", err)
	}
}

func TestRefreshFailuresFailClosed(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	account := activeAccount("account-1", "case.officer@example.gov.uk", "M4rshland!Weir82")
	repo := newStubAccountRepo(account)
	svc, _ := newTestAuthService(t, repo, fixedClock(now))

	if _, err := svc.Refresh(context.Background(), "not-a-token"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for garbage token, got %v", err)
	}

	login, err := svc.Login(context.Background(), "case.officer@example.gov.uk", "M4rshland!Weir82", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	repo.accounts["account-1"].Status = domain.AccountStatusDisabled

	if _, err := svc.Refresh(context.Background(), login.RefreshToken); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
}

func TestLogoutNeverClearsNewerSession(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	account := activeAccount("account-1", "case.officer@example.gov.uk", "M4rshland!Weir82")
	repo := newStubAccountRepo(account)
	svc, events := newTestAuthService(t, repo, fixedClock(now))

	login, err := svc.Login(context.Background(), "case.officer@example.gov.uk", "M4rshland!Weir82", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Logout(context.Background(), "missing", login.SessionID); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	if err := svc.Logout(context.Background(), "account-1", "stale-session"); !errors.Is(err, ErrSessionMismatch) {
		t.Fatalf("expected ErrSessionMismatch, got %v", err)
	}
	if repo.accounts["account-1"].ActiveSessionID == nil {
		t.Fatal("stale logout must not clear the active session")
	}

	if err := svc.Logout(context.Background(), "account-1", login.SessionID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if repo.accounts["account-1"].ActiveSessionID != nil {
		t.Fatal("expected active session cleared")
	}

	if len(events.revoked) != 1 || events.revoked[0].Reason != "logout" {
		t.Fatalf("expected one logout revocation event, got %#v", events.revoked)
	}

	// A repeat logout for the now-cleared session reports a mismatch.
	if err := svc.Logout(context.Background(), "account-1", login.SessionID); !errors.Is(err, ErrSessionMismatch) {
		t.Fatalf("expected ErrSessionMismatch on repeat logout, got %v", err)
	}
}

func TestLockoutCountingScenario(t *testing.T) {
	// Drive an account from zero failures all the way to lockout and verify
	// the warning fires on the penultimate attempt only.
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	account := activeAccount("account-1", "case.officer@example.gov.uk", "M4rshland!Weir82")
	repo := newStubAccountRepo(account)
	svc, _ := newTestAuthService(t, repo, fixedClock(now))

	for attempt := 1; attempt <= 5; attempt++ {
		_, err := svc.Login(context.Background(), "case.officer@example.gov.uk", "wrong-password", "")

		var warning *LastAttemptError
		switch {
		case attempt < 4:
			if !errors.Is(err, ErrInvalidCredentials) || errors.As(err, &warning) {
				t.Fatalf("attempt %d: expected plain ErrInvalidCredentials, got %v", attempt, err)
			}
		case attempt == 4:
			if !errors.As(err, &warning) {
				t.Fatalf("attempt %d: expected last-attempt warning, got %v", attempt, err)
			}
		default:
			if !errors.Is(err, ErrAccountLocked) {
				t.Fatalf("attempt %d: expected ErrAccountLocked, got %v", attempt, err)
			}
		}

		if got := repo.accounts["account-1"].FailedAttempts; got != attempt {
			t.Fatalf("attempt %d: expected %d stored failures, got %d", attempt, attempt, got)
		}
	}
}

func TestLoginEmptyInputs(t *testing.T) {
	repo := newStubAccountRepo(activeAccount("account-1", "case.officer@example.gov.uk", "M4rshland!Weir82"))
	svc, _ := newTestAuthService(t, repo, fixedClock(time.Now().UTC()))

	for _, tc := range []struct{ email, password string }{
		{"", "M4rshland!Weir82"},
		{"case.officer@example.gov.uk", ""},
	} {
		if _, err := svc.Login(context.Background(), tc.email, tc.password, ""); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials for %q/%q, got %v", tc.email, tc.password, err)
		}
	}
}

func TestSessionManagerMintsUniqueIDs(t *testing.T) {
	manager := NewSessionManager()

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id, err := manager.Mint()
		if err != nil {
			t.Fatalf("Mint: %v", err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate session id minted: %s", id)
		}
		seen[id] = struct{}{}
	}
}

func TestSessionManagerMatches(t *testing.T) {
	manager := NewSessionManager()
	sessionID := "session-1"

	account := domain.Account{ActiveSessionID: &sessionID}
	if !manager.Matches(account, "session-1") {
		t.Fatal("expected matching session")
	}
	if manager.Matches(account, "session-2") {
		t.Fatal("expected mismatch for different id")
	}
	if manager.Matches(account, "") {
		t.Fatal("expected mismatch for empty id")
	}
	if manager.Matches(domain.Account{}, "session-1") {
		t.Fatal("expected mismatch when no active session")
	}
}
