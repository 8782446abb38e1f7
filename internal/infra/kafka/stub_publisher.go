package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/DEFRA/pafs-backend-api-sub003/internal/core/domain"
	"github.com/DEFRA/pafs-backend-api-sub003/internal/core/port"
	"github.com/DEFRA/pafs-backend-api-sub003/internal/infra/logger"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for development environments.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(log *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: log}
}

func (p *StubPublisher) logEvent(eventType, accountID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.String("account_id", accountID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishSignedIn logs account.signed_in events.
func (p *StubPublisher) PublishSignedIn(_ context.Context, event domain.SignedInEvent) error {
	payload := map[string]any{
		"account_id":   event.AccountID,
		"email":        logger.MaskEmail(event.Email),
		"session_id":   logger.MaskString(event.SessionID),
		"signed_in_at": event.SignedInAt,
		"metadata":     event.Metadata,
	}
	p.logEvent("account.signed_in", event.AccountID, event.SignedInAt, payload)
	return nil
}

// PublishAccountLocked logs account.locked events.
func (p *StubPublisher) PublishAccountLocked(_ context.Context, event domain.AccountLockedEvent) error {
	payload := map[string]any{
		"account_id":      event.AccountID,
		"email":           logger.MaskEmail(event.Email),
		"failed_attempts": event.FailedAttempts,
		"locked_at":       event.LockedAt,
		"metadata":        event.Metadata,
	}
	p.logEvent("account.locked", event.AccountID, event.LockedAt, payload)
	return nil
}

// PublishAccountDisabled logs account.disabled events.
func (p *StubPublisher) PublishAccountDisabled(_ context.Context, event domain.AccountDisabledEvent) error {
	payload := map[string]any{
		"account_id":      event.AccountID,
		"email":           logger.MaskEmail(event.Email),
		"reason":          event.Reason,
		"last_sign_in_at": event.LastSignInAt,
		"disabled_at":     event.DisabledAt,
		"metadata":        event.Metadata,
	}
	p.logEvent("account.disabled", event.AccountID, event.DisabledAt, payload)
	return nil
}

// PublishPasswordChanged logs account.password_changed events.
func (p *StubPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	payload := map[string]any{
		"account_id":       event.AccountID,
		"changed_at":       event.ChangedAt,
		"sessions_revoked": event.SessionsRevoked,
		"metadata":         event.Metadata,
	}
	p.logEvent("account.password_changed", event.AccountID, event.ChangedAt, payload)
	return nil
}

// PublishPasswordResetRequested logs account.password_reset_requested events.
// The raw token and destination never reach the log output.
func (p *StubPublisher) PublishPasswordResetRequested(_ context.Context, event domain.PasswordResetRequestedEvent) error {
	payload := map[string]any{
		"account_id":         event.AccountID,
		"request_id":         event.RequestID,
		"requested_at":       event.RequestedAt,
		"masked_destination": event.MaskedDestination,
		"expires_at":         event.ExpiresAt,
		"metadata":           event.Metadata,
	}
	p.logEvent("account.password_reset_requested", event.AccountID, event.RequestedAt, payload)
	return nil
}

// PublishSessionRevoked logs account.session_revoked events.
func (p *StubPublisher) PublishSessionRevoked(_ context.Context, event domain.SessionRevokedEvent) error {
	payload := map[string]any{
		"account_id": event.AccountID,
		"session_id": logger.MaskString(event.SessionID),
		"revoked_at": event.RevokedAt,
		"reason":     event.Reason,
		"metadata":   event.Metadata,
	}
	p.logEvent("account.session_revoked", event.AccountID, event.RevokedAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
