package usecase

import "errors"

var (
	// ErrEmailRequired indicates the request carried no usable email address.
	ErrEmailRequired = errors.New("email is required")
	// ErrEmailAlreadyExists indicates an account already holds the email.
	ErrEmailAlreadyExists = errors.New("email already exists")
	// ErrUserNotFound indicates no account exists for the email.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidPassword indicates the supplied password does not match.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrAccountInactive indicates the account is suspended or disabled.
	ErrAccountInactive = errors.New("account is not active")
	// ErrRoleNotFound indicates the requested role does not exist.
	ErrRoleNotFound = errors.New("role not found")

	// ErrSignupCodeNotFound indicates no pending signup exists for the email.
	ErrSignupCodeNotFound = errors.New("signup code not found")
	// ErrSignupCodeExpired indicates the signup code's window elapsed.
	ErrSignupCodeExpired = errors.New("signup code expired")
	// ErrSignupCodeInvalid indicates the supplied signup code is wrong.
	ErrSignupCodeInvalid = errors.New("signup code invalid")

	// ErrResetNoAccount indicates a password reset was requested for an
	// email without an account.
	ErrResetNoAccount = errors.New("no account for email")
	// ErrResetCodeNotFound indicates no pending reset exists for the email.
	ErrResetCodeNotFound = errors.New("reset code not found")
	// ErrResetCodeExpired indicates the reset code's window elapsed.
	ErrResetCodeExpired = errors.New("reset code expired")
	// ErrResetCodeInvalid indicates the supplied reset code is wrong.
	ErrResetCodeInvalid = errors.New("reset code invalid")

	// ErrEmailSendFailed indicates the verification email was not accepted
	// for delivery; the pending entry is discarded.
	ErrEmailSendFailed = errors.New("email send failed")

	// ErrGoogleTokenInvalid indicates the Google ID token failed verification.
	ErrGoogleTokenInvalid = errors.New("google token invalid")
	// ErrGoogleEmailRequired indicates a Google signup whose verified
	// profile exposes no email.
	ErrGoogleEmailRequired = errors.New("google profile has no email")
	// ErrGoogleAccountExists indicates a Google signup hit an existing account.
	ErrGoogleAccountExists = errors.New("google account already exists")
	// ErrGoogleNoAccount indicates a Google login found no account.
	ErrGoogleNoAccount = errors.New("no account for google identity")

	// ErrFacebookTokenInvalid indicates the Facebook access token failed verification.
	ErrFacebookTokenInvalid = errors.New("facebook token invalid")
	// ErrFacebookEmailRequired indicates a Facebook signup whose verified
	// profile exposes no email.
	ErrFacebookEmailRequired = errors.New("facebook profile has no email")
	// ErrFacebookAccountExists indicates a Facebook signup hit an existing account.
	ErrFacebookAccountExists = errors.New("facebook account already exists")
	// ErrFacebookNoAccount indicates a Facebook login found no account.
	ErrFacebookNoAccount = errors.New("no account for facebook identity")
)
