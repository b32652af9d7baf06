package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agrismart/agrismart-iam/internal/transport/http/middleware"
	"github.com/agrismart/agrismart-iam/internal/usecase"
)

// RoleHandler exposes the role catalogue.
type RoleHandler struct {
	roles *usecase.RoleService
}

// NewRoleHandler constructs RoleHandler.
func NewRoleHandler(roles *usecase.RoleService) *RoleHandler {
	return &RoleHandler{roles: roles}
}

// RegisterRoutes binds role routes behind the auth guard.
func (h *RoleHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", middleware.RequireAuth(), h.list)
}

func (h *RoleHandler) list(c *gin.Context) {
	roles, err := h.roles.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "INTERNAL_ERROR", "Could not list roles"))
		return
	}

	out := make([]RoleResponse, 0, len(roles))
	for _, role := range roles {
		out = append(out, RoleResponse{
			ID:          role.ID,
			Name:        role.Name,
			Description: role.Description,
		})
	}

	c.JSON(http.StatusOK, out)
}
