package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/DEFRA/pafs-backend-api-sub003/internal/infra/security"
	"github.com/DEFRA/pafs-backend-api-sub003/internal/transport/http/middleware"
	"github.com/DEFRA/pafs-backend-api-sub003/internal/usecase"
)

// PasswordHandler exposes password reset endpoints.
type PasswordHandler struct {
	reset *usecase.PasswordResetService
}

// NewPasswordHandler constructs PasswordHandler.
func NewPasswordHandler(reset *usecase.PasswordResetService) *PasswordHandler {
	return &PasswordHandler{reset: reset}
}

// RegisterRoutes binds password routes, applying optional middleware ahead of the request handler.
func (h *PasswordHandler) RegisterRoutes(r *gin.RouterGroup, requestMiddlewares ...gin.HandlerFunc) {
	if len(requestMiddlewares) > 0 {
		chain := append([]gin.HandlerFunc{}, requestMiddlewares...)
		chain = append(chain, h.requestReset)
		r.POST("/reset/request", chain...)
	} else {
		r.POST("/reset/request", h.requestReset)
	}

	r.POST("/reset/confirm", h.confirmReset)
}

// RequestReset godoc
// @Summary Request a password reset
// @Description Issues a reset token delivered out of band. The response does not reveal whether the email matched an account.
// @Tags Password
// @Accept json
// @Produce json
// @Param request body PasswordResetRequestPayload true "Reset request payload"
// @Success 200 {object} PasswordResetRequestResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/password/reset/request [post]
func (h *PasswordHandler) requestReset(c *gin.Context) {
	var req PasswordResetRequestPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid reset request payload"))
		return
	}

	err := h.reset.RequestPasswordReset(c.Request.Context(), strings.TrimSpace(req.Email))
	if err != nil && !errors.Is(err, usecase.ErrAccountNotFound) && !errors.Is(err, usecase.ErrAccountDisabled) {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "reset request failed"))
		return
	}

	// Unknown and disabled accounts get the same acknowledgement as live
	// ones; anything else would expose which emails hold accounts.
	c.JSON(http.StatusOK, PasswordResetRequestResponse{Sent: true})
}

// ConfirmReset godoc
// @Summary Complete a password reset
// @Description Verifies the reset token and applies the new password. All outstanding sessions are invalidated.
// @Tags Password
// @Accept json
// @Produce json
// @Param request body PasswordResetConfirmPayload true "Reset confirmation payload"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/password/reset/confirm [post]
func (h *PasswordHandler) confirmReset(c *gin.Context) {
	var req PasswordResetConfirmPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid reset confirmation payload"))
		return
	}

	ctx := c.Request.Context()

	if err := h.reset.VerifyResetToken(ctx, req.AccountID, req.Token); err != nil {
		RespondWithMappedError(c, err, resetErrorCases(), http.StatusInternalServerError, "reset failed")
		return
	}

	if err := h.reset.ResetPassword(ctx, req.AccountID, req.NewPassword); err != nil {
		var validationErr *security.PasswordValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
				Error:   validationErr.Message,
				Code:    "password_" + validationErr.Code,
				TraceID: middleware.GetTraceID(c),
			})
			return
		}

		RespondWithMappedError(c, err, resetErrorCases(), http.StatusInternalServerError, "reset failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password updated"})
}

func resetErrorCases() []ErrorCase {
	return []ErrorCase{
		{Err: usecase.ErrResetTokenInvalid, Status: http.StatusBadRequest, Code: "reset_token_invalid", Message: "reset token invalid or expired"},
		{Err: usecase.ErrPasswordPreviouslyUsed, Status: http.StatusUnprocessableEntity, Code: "password_previously_used", Message: "password was used previously"},
		{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Code: "account_not_found", Message: "account not found"},
	}
}
