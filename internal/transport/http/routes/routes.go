package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/agrismart/agrismart-iam/internal/core/port"
	"github.com/agrismart/agrismart-iam/internal/infra/config"
	"github.com/agrismart/agrismart-iam/internal/infra/security"
	"github.com/agrismart/agrismart-iam/internal/transport/http/handlers"
	"github.com/agrismart/agrismart-iam/internal/transport/http/middleware"
	"github.com/agrismart/agrismart-iam/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth          *usecase.AuthService
	Signup        *usecase.SignupService
	PasswordReset *usecase.PasswordResetService
	Users         *usecase.UserService
	Roles         *usecase.RoleService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Services    ServiceSet
	Tokens      *security.TokenService
	UserRepo    port.UserRepository
	RoleRepo    port.RoleRepository
	Database    DatabaseChecker
	Cache       CacheChecker
	Metrics     *middleware.HTTPMetrics
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Config.CORS.AllowedOrigins))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	checks := make(map[string]handlers.ReadinessCheck, 2)
	if deps.Database != nil {
		checks["database"] = deps.Database.Ping
	}
	if deps.Cache != nil {
		checks["redis"] = deps.Cache.HealthCheck
	}

	healthHandler := handlers.NewHealthHandler(checks)
	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(middleware.Authenticate(deps.Tokens, deps.UserRepo, deps.RoleRepo, deps.Logger))

	authHandler := handlers.NewAuthHandler(deps.Services.Auth, deps.Services.Signup, deps.Services.PasswordReset)
	authHandler.RegisterRoutes(api.Group("/auth"), loginLimiter(deps), codeLimiter(deps))

	userHandler := handlers.NewUserHandler(deps.Services.Users)
	userHandler.RegisterRoutes(api.Group("/users"))

	roleHandler := handlers.NewRoleHandler(deps.Services.Roles)
	roleHandler.RegisterRoutes(api.Group("/roles"))

	return r
}

func loginLimiter(deps Dependencies) gin.HandlerFunc {
	return limiter(deps, "auth_login_ip", deps.Config.RateLimit.LoginMaxAttempts)
}

func codeLimiter(deps Dependencies) gin.HandlerFunc {
	return limiter(deps, "auth_code_ip", deps.Config.RateLimit.CodeRequestMaxAttempts)
}

func limiter(deps Dependencies, name string, limit int) gin.HandlerFunc {
	if deps.RateLimiter == nil || limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	return deps.RateLimiter.RateLimit(middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	})
}
