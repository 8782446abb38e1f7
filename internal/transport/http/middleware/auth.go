package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/DEFRA/pafs-backend-api-sub003/internal/core/port"
	"github.com/DEFRA/pafs-backend-api-sub003/internal/infra/security"
)

// ErrorResponse matches the handlers.ErrorResponse structure
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// newErrorResponse creates an error response with trace ID
func newErrorResponse(c *gin.Context, code, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		Code:    code,
		TraceID: GetTraceID(c),
	}
}

// RequireAuth validates the Authorization header and binds the session
// assertion into the request context.
func RequireAuth(codec port.TokenCodec) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "unauthorized", "missing authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "unauthorized", "invalid authorization format: expected 'Bearer <token>'"))
			return
		}

		token := strings.TrimSpace(parts[1])
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "unauthorized", "missing access token"))
			return
		}

		assertion, err := codec.VerifyAccess(token)
		if err != nil {
			if errors.Is(err, security.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					newErrorResponse(c, "token_expired", "access token expired"))
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "token_invalid", "invalid access token"))
			return
		}

		c.Set(AccountIDKey, assertion.AccountID)
		c.Set(SessionIDKey, assertion.SessionID)

		if reqCtx := GetRequestContext(c); reqCtx != nil {
			reqCtx.AccountID = assertion.AccountID
		}

		c.Next()
	}
}

// GetAccountID retrieves the authenticated account id from the context.
func GetAccountID(c *gin.Context) string {
	if value, exists := c.Get(AccountIDKey); exists {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}

// GetSessionID retrieves the authenticated session id from the context.
func GetSessionID(c *gin.Context) string {
	if value, exists := c.Get(SessionIDKey); exists {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}
