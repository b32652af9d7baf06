package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agrismart/agrismart-iam/internal/core/domain"
	"github.com/agrismart/agrismart-iam/internal/core/port"
	"github.com/agrismart/agrismart-iam/internal/infra/logger"
	"github.com/agrismart/agrismart-iam/internal/infra/security"
)

const principalKey = "principal"

// Principal describes the authenticated caller attached to the request.
type Principal struct {
	Email     string
	Role      string
	Authority string
}

// Authenticate inspects the Authorization header and, when it carries a
// valid bearer token, attaches a Principal to the request. Requests
// without a token, or with an invalid one, continue unauthenticated;
// route guards decide whether that is acceptable.
func Authenticate(tokens *security.TokenService, users port.UserRepository, roles port.RoleRepository, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		if _, exists := c.Get(principalKey); exists {
			c.Next()
			return
		}

		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			c.Next()
			return
		}

		claims, err := tokens.Parse(raw)
		if err != nil {
			log.Debug("rejecting bearer token", zap.Error(err))
			c.Next()
			return
		}

		role := domain.NormalizeRole(claims.Role)
		if role == "" {
			// Older tokens carry no role claim. Fall back to the stored account.
			role = lookupRole(c, users, roles, claims.Subject, log)
		}
		if role == "" {
			// The role cannot be resolved; continue unauthenticated.
			c.Next()
			return
		}

		principal := Principal{
			Email:     domain.NormalizeEmail(claims.Subject),
			Role:      role,
			Authority: domain.Authority(role),
		}
		c.Set(principalKey, principal)

		c.Next()
	}
}

func lookupRole(c *gin.Context, users port.UserRepository, roles port.RoleRepository, email string, log *zap.Logger) string {
	if users == nil {
		return ""
	}

	ctx := c.Request.Context()
	user, err := users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		log.Debug("role fallback lookup failed",
			zap.String("email", logger.MaskEmail(email)),
			zap.Error(err),
		)
		return ""
	}

	if roles == nil || user.RoleID == "" {
		return ""
	}

	role, err := roles.GetByID(ctx, user.RoleID)
	if err != nil {
		return ""
	}

	return domain.NormalizeRole(role.Name)
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// RequireAuth aborts with 401 unless a Principal was attached upstream.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetPrincipal(c); !ok {
			c.AbortWithStatusJSON(401, gin.H{
				"error":   "UNAUTHORIZED",
				"message": "Authentication required",
			})
			return
		}

		c.Next()
	}
}

// RequireRole aborts with 403 unless the caller holds one of the given
// canonical roles. Implies RequireAuth.
func RequireRole(allowed ...string) gin.HandlerFunc {
	allowedSet := make(map[string]bool, len(allowed))
	for _, role := range allowed {
		allowedSet[domain.NormalizeRole(role)] = true
	}

	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(401, gin.H{
				"error":   "UNAUTHORIZED",
				"message": "Authentication required",
			})
			return
		}

		if !allowedSet[principal.Role] {
			c.AbortWithStatusJSON(403, gin.H{
				"error":   "FORBIDDEN",
				"message": "Insufficient permissions",
			})
			return
		}

		c.Next()
	}
}

// GetPrincipal retrieves the authenticated caller from the request context.
func GetPrincipal(c *gin.Context) (Principal, bool) {
	val, exists := c.Get(principalKey)
	if !exists {
		return Principal{}, false
	}

	principal, ok := val.(Principal)
	return principal, ok
}
