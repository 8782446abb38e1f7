package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/DEFRA/pafs-backend-api-sub003/internal/core/port"
	"github.com/DEFRA/pafs-backend-api-sub003/internal/transport/http/middleware"
	"github.com/DEFRA/pafs-backend-api-sub003/internal/usecase"
)

const (
	supportContactCode = "contact_support"
	lastAttemptWarning = "last_attempt"
)

// AuthHandler exposes authentication endpoints.
type AuthHandler struct {
	auth    *usecase.AuthService
	codec   port.TokenCodec
	observe func(outcome string)
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService, codec port.TokenCodec) *AuthHandler {
	return &AuthHandler{auth: auth, codec: codec}
}

// WithLoginObserver registers a callback receiving the outcome code of every
// login attempt, used for metrics.
func (h *AuthHandler) WithLoginObserver(observe func(outcome string)) *AuthHandler {
	h.observe = observe
	return h
}

func (h *AuthHandler) recordOutcome(outcome string) {
	if h.observe != nil {
		h.observe(outcome)
	}
}

// AuthRouteMiddlewares carries per-endpoint middleware applied ahead of the
// authentication handlers, typically rate limiting.
type AuthRouteMiddlewares struct {
	Login   []gin.HandlerFunc
	Refresh []gin.HandlerFunc
}

// RegisterRoutes binds authentication routes.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, mw AuthRouteMiddlewares) {
	r.POST("/login", withChain(mw.Login, h.login)...)
	r.POST("/refresh", withChain(mw.Refresh, h.refresh)...)
	r.POST("/logout", middleware.RequireAuth(h.codec), h.logout)
}

func withChain(middlewares []gin.HandlerFunc, handler gin.HandlerFunc) []gin.HandlerFunc {
	chain := append([]gin.HandlerFunc{}, middlewares...)
	return append(chain, handler)
}

// Login godoc
// @Summary Sign in with email and password
// @Description Authenticates a credential pair and issues an access/refresh token pair bound to a fresh session.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request payload"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), strings.TrimSpace(req.Email), req.Password, c.ClientIP())
	if err != nil {
		h.recordOutcome(loginOutcomeCode(err))

		var warning *usecase.LastAttemptError
		if errors.As(err, &warning) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "invalid credentials",
				Code:    "invalid_credentials",
				Warning: lastAttemptWarning,
				TraceID: middleware.GetTraceID(c),
			})
			return
		}

		RespondWithMappedError(c, err, loginErrorCases(), http.StatusInternalServerError, "login failed")
		return
	}

	h.recordOutcome("success")

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(result.ExpiresIn.Seconds()),
		Account:      newAccountSummary(result.Account),
	})
}

// Refresh godoc
// @Summary Rotate a refresh token
// @Description Verifies the refresh token, rotates the session, and issues a new token pair.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body TokenRefreshRequest true "Refresh request payload"
// @Success 200 {object} TokenRefreshResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) refresh(c *gin.Context) {
	var req TokenRefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid refresh payload"))
		return
	}

	result, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		RespondWithMappedError(c, err, refreshErrorCases(), http.StatusInternalServerError, "refresh failed")
		return
	}

	c.JSON(http.StatusOK, TokenRefreshResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(result.ExpiresIn.Seconds()),
	})
}

// Logout godoc
// @Summary Sign out the current session
// @Description Clears the active session when the presented token's session is still current.
// @Tags Authentication
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) logout(c *gin.Context) {
	accountID := middleware.GetAccountID(c)
	sessionID := middleware.GetSessionID(c)
	if accountID == "" || sessionID == "" {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	if err := h.auth.Logout(c.Request.Context(), accountID, sessionID); err != nil {
		RespondWithMappedError(c, err, logoutErrorCases(), http.StatusInternalServerError, "logout failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "signed out"})
}

// loginOutcomeCode resolves the stable outcome label for a failed login.
func loginOutcomeCode(err error) string {
	for _, cs := range loginErrorCases() {
		if errors.Is(err, cs.Err) {
			return cs.Code
		}
	}
	return "error"
}

func loginErrorCases() []ErrorCase {
	return []ErrorCase{
		{Err: usecase.ErrAccountLocked, Status: http.StatusForbidden, Code: "account_locked", Message: "account temporarily locked", Support: supportContactCode},
		{Err: usecase.ErrAccountDisabled, Status: http.StatusForbidden, Code: "account_disabled", Message: "account disabled", Support: supportContactCode},
		{Err: usecase.ErrAccountPending, Status: http.StatusForbidden, Code: "account_pending", Message: "account awaiting approval"},
		{Err: usecase.ErrAccountSetupIncomplete, Status: http.StatusForbidden, Code: "setup_incomplete", Message: "account setup incomplete"},
		{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Code: "invalid_credentials", Message: "invalid credentials"},
	}
}

func refreshErrorCases() []ErrorCase {
	return []ErrorCase{
		{Err: usecase.ErrTokenInvalid, Status: http.StatusUnauthorized, Code: "token_invalid", Message: "invalid refresh token"},
		{Err: usecase.ErrSessionMismatch, Status: http.StatusUnauthorized, Code: "session_mismatch", Message: "session no longer active"},
		{Err: usecase.ErrAccountDisabled, Status: http.StatusForbidden, Code: "account_disabled", Message: "account disabled", Support: supportContactCode},
	}
}

func logoutErrorCases() []ErrorCase {
	return []ErrorCase{
		{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Code: "account_not_found", Message: "account not found"},
		{Err: usecase.ErrSessionMismatch, Status: http.StatusConflict, Code: "session_mismatch", Message: "session no longer active"},
	}
}
