package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/DEFRA/pafs-backend-api-sub003/internal/core/domain"
	"github.com/DEFRA/pafs-backend-api-sub003/internal/transport/http/middleware"
)

// ErrorResponse represents an error payload. Code is stable for clients;
// Warning and Support carry the last-attempt and contact-support hints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Warning string `json:"warning,omitempty"`
	Support string `json:"support,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: middleware.GetTraceID(c),
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// AccountSummary is the sanitized account projection returned by the API.
type AccountSummary struct {
	ID        string               `json:"id"`
	Email     string               `json:"email"`
	FirstName string               `json:"first_name"`
	LastName  string               `json:"last_name"`
	Admin     bool                 `json:"admin"`
	Status    domain.AccountStatus `json:"status"`
}

func newAccountSummary(account domain.Account) AccountSummary {
	return AccountSummary{
		ID:        account.ID,
		Email:     account.Email,
		FirstName: account.FirstName,
		LastName:  account.LastName,
		Admin:     account.Admin,
		Status:    account.Status,
	}
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse describes the response returned for a successful login.
type LoginResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	TokenType    string         `json:"token_type"`
	ExpiresIn    int            `json:"expires_in"`
	Account      AccountSummary `json:"account"`
}

// TokenRefreshRequest represents the payload to refresh an access token.
type TokenRefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenRefreshResponse contains tokens issued by the refresh endpoint.
type TokenRefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// PasswordResetRequestPayload initiates a password reset by email.
type PasswordResetRequestPayload struct {
	Email string `json:"email" binding:"required"`
}

// PasswordResetRequestResponse acknowledges a reset request. Sent is true
// regardless of whether the email matched an account.
type PasswordResetRequestResponse struct {
	Sent bool `json:"sent"`
}

// PasswordResetConfirmPayload finalizes a password reset.
type PasswordResetConfirmPayload struct {
	AccountID   string `json:"account_id" binding:"required"`
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// HealthResponse reports liveness information.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse reports per-dependency readiness.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
