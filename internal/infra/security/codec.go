package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	uuid "github.com/google/uuid"

	"github.com/DEFRA/pafs-backend-api-sub003/internal/core/domain"
)

const (
	tokenUseAccess  = "access"
	tokenUseRefresh = "refresh"
)

var (
	// ErrTokenInvalid indicates the token is malformed, mis-signed, expired,
	// or carries the wrong use claim.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenExpired indicates an otherwise well-formed access token past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// SessionClaims augments registered claims with the account/session binding.
type SessionClaims struct {
	AccountID string `json:"uid"`
	SessionID string `json:"sid"`
	TokenUse  string `json:"use"`
	jwt.RegisteredClaims
}

// CodecConfig carries the deployment-supplied signing material and lifetimes.
type CodecConfig struct {
	Secret     string
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Codec issues and verifies the HS256-signed access/refresh token pair.
type Codec struct {
	cfg CodecConfig
	now func() time.Time
}

// NewCodec constructs a Codec after validating the signing configuration.
func NewCodec(cfg CodecConfig) (*Codec, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, fmt.Errorf("token secret is required")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}

	return &Codec{
		cfg: cfg,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

// WithClock overrides the internal clock for deterministic tests.
func (c *Codec) WithClock(clock func() time.Time) *Codec {
	if clock != nil {
		c.now = clock
	}
	return c
}

// AccessTTL reports the configured access-token lifetime.
func (c *Codec) AccessTTL() time.Duration {
	return c.cfg.AccessTTL
}

// IssueAccess signs a short-lived access token bound to the session.
func (c *Codec) IssueAccess(account domain.Account, sessionID string) (string, error) {
	return c.issue(account, sessionID, tokenUseAccess, c.cfg.AccessTTL)
}

// IssueRefresh signs a long-lived refresh token bound to the session.
func (c *Codec) IssueRefresh(account domain.Account, sessionID string) (string, error) {
	return c.issue(account, sessionID, tokenUseRefresh, c.cfg.RefreshTTL)
}

func (c *Codec) issue(account domain.Account, sessionID, use string, ttl time.Duration) (string, error) {
	if account.ID == "" {
		return "", fmt.Errorf("account id is required")
	}
	if sessionID == "" {
		return "", fmt.Errorf("session id is required")
	}

	now := c.now()

	claimAudience := jwt.ClaimStrings{}
	if c.cfg.Audience != "" {
		claimAudience = append(claimAudience, c.cfg.Audience)
	}

	claims := SessionClaims{
		AccountID: account.ID,
		SessionID: sessionID,
		TokenUse:  use,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			Issuer:    c.cfg.Issuer,
			Audience:  claimAudience,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(c.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// VerifyAccess validates an access token and returns its session assertion.
// Expiry is reported distinctly so transport layers can prompt a refresh.
func (c *Codec) VerifyAccess(token string) (*domain.SessionAssertion, error) {
	claims, err := c.parse(token, tokenUseAccess)
	if err != nil {
		return nil, err
	}
	return &domain.SessionAssertion{AccountID: claims.AccountID, SessionID: claims.SessionID}, nil
}

// VerifyRefresh validates a refresh token and returns its session assertion.
// Every failure mode collapses to ErrTokenInvalid: the caller never learns
// whether the token was expired, malformed, or mis-signed.
func (c *Codec) VerifyRefresh(token string) (*domain.SessionAssertion, error) {
	claims, err := c.parse(token, tokenUseRefresh)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	return &domain.SessionAssertion{AccountID: claims.AccountID, SessionID: claims.SessionID}, nil
}

func (c *Codec) parse(token, expectedUse string) (*SessionClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenInvalid
	}

	options := []jwt.ParserOption{
		jwt.WithTimeFunc(c.now),
		jwt.WithIssuer(c.cfg.Issuer),
	}
	if c.cfg.Audience != "" {
		options = append(options, jwt.WithAudience(c.cfg.Audience))
	}

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(c.cfg.Secret), nil
	}, options...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if parsed == nil || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.TokenUse != expectedUse {
		return nil, ErrTokenInvalid
	}
	if strings.TrimSpace(claims.AccountID) == "" || strings.TrimSpace(claims.SessionID) == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
