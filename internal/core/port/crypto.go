package port

import (
	"time"

	"github.com/DEFRA/pafs-backend-api-sub003/internal/core/domain"
)

// PasswordHasher hashes and verifies secrets using the configured algorithm.
// Verify treats malformed digests as a plain mismatch so callers handle every
// verification failure uniformly.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password string, encoded string) (bool, error)
}

// TokenCodec signs and verifies the access/refresh token pair. Both token
// kinds carry the account id and session id. Verification fails closed:
// expired, malformed, or mis-signed tokens never yield a partial assertion.
type TokenCodec interface {
	IssueAccess(account domain.Account, sessionID string) (string, error)
	IssueRefresh(account domain.Account, sessionID string) (string, error)
	VerifyAccess(token string) (*domain.SessionAssertion, error)
	VerifyRefresh(token string) (*domain.SessionAssertion, error)
	AccessTTL() time.Duration
}
