package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agrismart/agrismart-iam/internal/usecase"
)

// ErrorCase maps a sentinel error to an HTTP status, machine code, and message.
type ErrorCase struct {
	Err     error
	Status  int
	Code    string
	Message string
}

// authErrorCases covers the sentinels shared across authentication flows.
var authErrorCases = []ErrorCase{
	{usecase.ErrEmailRequired, http.StatusBadRequest, "EMAIL_REQUIRED", "Email is required"},
	{usecase.ErrEmailAlreadyExists, http.StatusConflict, "EMAIL_ALREADY_EXISTS", "An account already exists for this email"},
	{usecase.ErrUserNotFound, http.StatusUnauthorized, "USER_NOT_FOUND", "No account exists for this email"},
	{usecase.ErrInvalidPassword, http.StatusUnauthorized, "INVALID_PASSWORD", "Incorrect password"},
	{usecase.ErrAccountInactive, http.StatusForbidden, "ACCOUNT_INACTIVE", "This account is not active"},
	{usecase.ErrRoleNotFound, http.StatusNotFound, "ROLE_NOT_FOUND", "Unknown role"},
	{usecase.ErrEmailSendFailed, http.StatusInternalServerError, "EMAIL_SEND_FAILED", "Verification email could not be sent"},

	{usecase.ErrSignupCodeNotFound, http.StatusNotFound, "SIGNUP_CODE_NOT_FOUND", "No pending signup for this email"},
	{usecase.ErrSignupCodeExpired, http.StatusGone, "SIGNUP_CODE_EXPIRED", "The verification code has expired"},
	{usecase.ErrSignupCodeInvalid, http.StatusBadRequest, "SIGNUP_CODE_INVALID", "The verification code is incorrect"},

	{usecase.ErrResetNoAccount, http.StatusNotFound, "USER_NOT_FOUND", "No account exists for this email"},
	{usecase.ErrResetCodeNotFound, http.StatusNotFound, "RESET_CODE_NOT_FOUND", "No pending reset for this email"},
	{usecase.ErrResetCodeExpired, http.StatusGone, "RESET_CODE_EXPIRED", "The reset code has expired"},
	{usecase.ErrResetCodeInvalid, http.StatusBadRequest, "RESET_CODE_INVALID", "The reset code is incorrect"},

	{usecase.ErrGoogleTokenInvalid, http.StatusUnauthorized, "GOOGLE_TOKEN_INVALID", "Google token could not be verified"},
	{usecase.ErrGoogleEmailRequired, http.StatusBadRequest, "GOOGLE_EMAIL_REQUIRED", "Google profile does not expose an email"},
	{usecase.ErrGoogleAccountExists, http.StatusConflict, "GOOGLE_ACCOUNT_EXISTS", "An account already exists for this Google identity"},
	{usecase.ErrGoogleNoAccount, http.StatusNotFound, "GOOGLE_NO_ACCOUNT", "No account exists for this Google identity"},

	{usecase.ErrFacebookTokenInvalid, http.StatusUnauthorized, "FACEBOOK_TOKEN_INVALID", "Facebook token could not be verified"},
	{usecase.ErrFacebookEmailRequired, http.StatusBadRequest, "FACEBOOK_EMAIL_REQUIRED", "Facebook profile does not expose an email"},
	{usecase.ErrFacebookAccountExists, http.StatusConflict, "FACEBOOK_ACCOUNT_EXISTS", "An account already exists for this Facebook identity"},
	{usecase.ErrFacebookNoAccount, http.StatusNotFound, "FACEBOOK_NO_ACCOUNT", "No account exists for this Facebook identity"},
}

// RespondWithMappedError resolves the provided error against known cases
// or falls back to a generic response.
func RespondWithMappedError(c *gin.Context, err error, cases []ErrorCase) {
	if err == nil {
		c.Status(http.StatusOK)
		return
	}

	for _, cs := range cases {
		if cs.Err == nil {
			continue
		}
		if errors.Is(err, cs.Err) {
			c.JSON(cs.Status, NewErrorResponse(c, cs.Code, cs.Message))
			return
		}
	}

	c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "INTERNAL_ERROR", "Internal server error"))
}
