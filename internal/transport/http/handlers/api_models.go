package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agrismart/agrismart-iam/internal/core/domain"
	"github.com/agrismart/agrismart-iam/internal/usecase"
)

// ErrorResponse carries the machine error code, a human message, and the
// trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with the trace ID from context.
func NewErrorResponse(c *gin.Context, code, message string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   code,
		Message: message,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple acknowledgement payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// UserSummary describes the view of an account returned by the API.
type UserSummary struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	FirstName         string     `json:"firstName"`
	LastName          string     `json:"lastName"`
	Role              string     `json:"role"`
	Organization      string     `json:"organization,omitempty"`
	Status            string     `json:"status"`
	AccountType       string     `json:"accountType"`
	ProfilePictureURL string     `json:"profilePictureUrl,omitempty"`
	LastLoginAt       *time.Time `json:"lastLoginAt,omitempty"`
}

func newUserSummary(user domain.User, role string) UserSummary {
	return UserSummary{
		ID:                user.ID,
		Email:             user.Email,
		FirstName:         user.FirstName,
		LastName:          user.LastName,
		Role:              role,
		Organization:      user.Organization,
		Status:            string(user.NormalizedStatus()),
		AccountType:       string(user.AccountType),
		ProfilePictureURL: user.ProfilePictureURL,
		LastLoginAt:       user.LastLoginAt,
	}
}

// AuthResponse describes the payload returned by every successful
// authentication flow.
type AuthResponse struct {
	Token string      `json:"token"`
	User  UserSummary `json:"user"`
}

func newAuthResponse(result usecase.AuthResult) AuthResponse {
	return AuthResponse{
		Token: result.Token,
		User:  newUserSummary(result.User, result.Role),
	}
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest defines the payload for direct registration and for
// the first signup phase.
type RegisterRequest struct {
	Email        string `json:"email" binding:"required"`
	Password     string `json:"password" binding:"required"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Role         string `json:"role"`
	Organization string `json:"organization"`
}

func (r RegisterRequest) toDomain() domain.SignupRequest {
	return domain.SignupRequest{
		Email:        r.Email,
		Password:     r.Password,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Role:         r.Role,
		Organization: r.Organization,
	}
}

// VerifyCodeRequest defines the payload for the second signup phase.
type VerifyCodeRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// GoogleAuthRequest carries a Google ID token and the desired mode.
type GoogleAuthRequest struct {
	IDToken string `json:"idToken" binding:"required"`
	Mode    string `json:"mode"`
}

// FacebookAuthRequest carries a Facebook access token and the desired mode.
type FacebookAuthRequest struct {
	AccessToken string `json:"accessToken" binding:"required"`
	Mode        string `json:"mode"`
}

// ResetRequestCodeRequest asks for a password reset code.
type ResetRequestCodeRequest struct {
	Email string `json:"email" binding:"required"`
}

// ResetConfirmRequest completes a password reset.
type ResetConfirmRequest struct {
	Email       string `json:"email" binding:"required"`
	Code        string `json:"code" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

// ChangePasswordRequest defines the authenticated password change payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// RoleResponse describes a role record.
type RoleResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
