package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agrismart/agrismart-iam/internal/transport/http/middleware"
	"github.com/agrismart/agrismart-iam/internal/usecase"
)

// UserHandler exposes the authenticated profile endpoints.
type UserHandler struct {
	users *usecase.UserService
}

// NewUserHandler constructs UserHandler.
func NewUserHandler(users *usecase.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// RegisterRoutes binds user routes behind the auth guard.
func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/me", middleware.RequireAuth(), h.me)
	r.POST("/password/change", middleware.RequireAuth(), h.changePassword)
}

func (h *UserHandler) me(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)

	profile, err := h.users.GetProfile(c.Request.Context(), principal.Email)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{usecase.ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND", "No account exists for this email"},
		})
		return
	}

	c.JSON(http.StatusOK, newUserSummary(profile.User, profile.Role))
}

func (h *UserHandler) changePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "INVALID_PAYLOAD", "Invalid password change payload"))
		return
	}

	principal, _ := middleware.GetPrincipal(c)

	err := h.users.ChangePassword(c.Request.Context(), principal.Email, req.CurrentPassword, req.NewPassword)
	if err != nil {
		RespondWithMappedError(c, err, authErrorCases)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Password updated"})
}
