package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agrismart/agrismart-iam/internal/usecase"
)

// AuthHandler exposes credential, federated, and two-phase signup endpoints.
type AuthHandler struct {
	auth   *usecase.AuthService
	signup *usecase.SignupService
	reset  *usecase.PasswordResetService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService, signup *usecase.SignupService, reset *usecase.PasswordResetService) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		signup: signup,
		reset:  reset,
	}
}

// RegisterRoutes binds authentication routes. The supplied middleware
// chain (rate limiting) runs ahead of the credential endpoints.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, loginLimiter, codeLimiter gin.HandlerFunc) {
	r.POST("/register", withLimiter(codeLimiter, h.register)...)
	r.POST("/login", withLimiter(loginLimiter, h.login)...)
	r.POST("/google", h.google)
	r.POST("/facebook", h.facebook)
	r.POST("/signup/request-code", withLimiter(codeLimiter, h.signupRequestCode)...)
	r.POST("/signup/verify-code", h.signupVerifyCode)
	r.POST("/password-reset/request-code", withLimiter(codeLimiter, h.resetRequestCode)...)
	r.POST("/password-reset/confirm", h.resetConfirm)
}

func withLimiter(limiter gin.HandlerFunc, handler gin.HandlerFunc) []gin.HandlerFunc {
	if limiter == nil {
		return []gin.HandlerFunc{handler}
	}
	return []gin.HandlerFunc{limiter, handler}
}

func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "INVALID_PAYLOAD", "Invalid login payload"))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondWithMappedError(c, err, authErrorCases)
		return
	}

	c.JSON(http.StatusOK, newAuthResponse(result))
}

func (h *AuthHandler) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "INVALID_PAYLOAD", "Invalid registration payload"))
		return
	}

	result, err := h.auth.Register(c.Request.Context(), req.toDomain())
	if err != nil {
		RespondWithMappedError(c, err, authErrorCases)
		return
	}

	c.JSON(http.StatusCreated, newAuthResponse(result))
}

func (h *AuthHandler) google(c *gin.Context) {
	var req GoogleAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "INVALID_PAYLOAD", "Invalid google auth payload"))
		return
	}

	result, err := h.auth.GoogleAuth(c.Request.Context(), req.IDToken, federatedMode(req.Mode))
	if err != nil {
		RespondWithMappedError(c, err, authErrorCases)
		return
	}

	c.JSON(http.StatusOK, newAuthResponse(result))
}

func (h *AuthHandler) facebook(c *gin.Context) {
	var req FacebookAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "INVALID_PAYLOAD", "Invalid facebook auth payload"))
		return
	}

	result, err := h.auth.FacebookAuth(c.Request.Context(), req.AccessToken, federatedMode(req.Mode))
	if err != nil {
		RespondWithMappedError(c, err, authErrorCases)
		return
	}

	c.JSON(http.StatusOK, newAuthResponse(result))
}

// federatedMode parses the mode field; anything but "signup" logs in.
func federatedMode(raw string) usecase.FederatedAuthMode {
	if usecase.FederatedAuthMode(raw) == usecase.FederatedModeSignup {
		return usecase.FederatedModeSignup
	}
	return usecase.FederatedModeLogin
}

func (h *AuthHandler) signupRequestCode(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "INVALID_PAYLOAD", "Invalid signup payload"))
		return
	}

	if err := h.signup.RequestCode(c.Request.Context(), req.toDomain()); err != nil {
		RespondWithMappedError(c, err, authErrorCases)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Verification code sent"})
}

func (h *AuthHandler) signupVerifyCode(c *gin.Context) {
	var req VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "INVALID_PAYLOAD", "Invalid verification payload"))
		return
	}

	result, err := h.signup.VerifyCode(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		RespondWithMappedError(c, err, authErrorCases)
		return
	}

	c.JSON(http.StatusCreated, newAuthResponse(result))
}

func (h *AuthHandler) resetRequestCode(c *gin.Context) {
	var req ResetRequestCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "INVALID_PAYLOAD", "Invalid reset payload"))
		return
	}

	if err := h.reset.RequestCode(c.Request.Context(), req.Email); err != nil {
		RespondWithMappedError(c, err, authErrorCases)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Reset code sent"})
}

func (h *AuthHandler) resetConfirm(c *gin.Context) {
	var req ResetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "INVALID_PAYLOAD", "Invalid reset payload"))
		return
	}

	if err := h.reset.Confirm(c.Request.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		RespondWithMappedError(c, err, authErrorCases)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Password updated"})
}
