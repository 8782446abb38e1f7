package usecase

import (
	"fmt"

	"github.com/DEFRA/pafs-backend-api-sub003/internal/core/domain"
	"github.com/DEFRA/pafs-backend-api-sub003/internal/infra/security"
)

const sessionIDBytes = 32

// SessionManager mints opaque session identifiers and evaluates them against
// the account's single active session pointer. Sessions are not persisted
// entities; the pointer on the account record is the only source of truth.
type SessionManager struct{}

// NewSessionManager constructs a SessionManager.
func NewSessionManager() *SessionManager {
	return &SessionManager{}
}

// Mint generates a fresh opaque session identifier.
func (m *SessionManager) Mint() (string, error) {
	id, err := security.GenerateSecureToken(sessionIDBytes)
	if err != nil {
		return "", fmt.Errorf("mint session id: %w", err)
	}
	return id, nil
}

// Matches reports whether the supplied session id is the account's active
// session. A nil pointer never matches.
func (m *SessionManager) Matches(account domain.Account, sessionID string) bool {
	if account.ActiveSessionID == nil || sessionID == "" {
		return false
	}
	return *account.ActiveSessionID == sessionID
}
