package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/agrismart/agrismart-iam/internal/core/domain"
	"github.com/agrismart/agrismart-iam/internal/core/port"
	"github.com/agrismart/agrismart-iam/internal/infra/config"
	"github.com/agrismart/agrismart-iam/internal/infra/database"
	"github.com/agrismart/agrismart-iam/internal/infra/federation"
	kafkainfra "github.com/agrismart/agrismart-iam/internal/infra/kafka"
	"github.com/agrismart/agrismart-iam/internal/infra/logger"
	"github.com/agrismart/agrismart-iam/internal/infra/mail"
	redisinfra "github.com/agrismart/agrismart-iam/internal/infra/redis"
	"github.com/agrismart/agrismart-iam/internal/infra/security"
	"github.com/agrismart/agrismart-iam/internal/infra/telemetry"
	memoryrepo "github.com/agrismart/agrismart-iam/internal/repository/memory"
	postgresrepo "github.com/agrismart/agrismart-iam/internal/repository/postgres"
	redisrepo "github.com/agrismart/agrismart-iam/internal/repository/redis"
	"github.com/agrismart/agrismart-iam/internal/transport/http/middleware"
	"github.com/agrismart/agrismart-iam/internal/transport/http/routes"
	"github.com/agrismart/agrismart-iam/internal/usecase"
)

// Application owns the wired service graph and its long-lived resources.
type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
	tracer   *telemetry.TracerProvider
}

// New builds the application from configuration. It connects to
// Postgres, applies the schema, seeds the role vocabulary and the
// bootstrap admin, and registers the HTTP routes.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	var tracer *telemetry.TracerProvider
	if cfg.Telemetry.Enabled {
		tracer, err = telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
		if err != nil {
			return nil, fmt.Errorf("init telemetry: %w", err)
		}
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	if err := database.ApplySchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := security.ConfigureArgon2(security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	}); err != nil {
		pool.Close()
		return nil, fmt.Errorf("configure argon2: %w", err)
	}

	tokens, err := security.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTokenTTL)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init token service: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)

	var redisClient *redisinfra.Client
	var verifications port.VerificationStore
	var rateLimits port.RateLimitStore
	if cfg.Redis.Enabled {
		redisClient, err = redisinfra.NewClient(cfg.Redis, log)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init redis: %w", err)
		}
		verifications = redisrepo.NewVerificationStore(redisClient.Client(), cfg.Redis.KeyPrefix, cfg.Verification.CodeTTL)
		rateLimits = redisrepo.NewRateLimitStore(redisClient.Client(), cfg.Redis.KeyPrefix+":ratelimit", 2*cfg.RateLimit.WindowDuration)
	} else {
		log.Info("redis disabled, keeping verification codes and rate limits in memory")
		verifications = memoryrepo.NewVerificationStore(cfg.Verification.CodeTTL)
		rateLimits = memoryrepo.NewRateLimitStore()
	}

	var producer *kafkainfra.Producer
	var events port.EventPublisher
	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			events = kafkainfra.NewStubPublisher(log)
		} else {
			events = kafkainfra.NewEventPublisher(producer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka not configured, using stub publisher")
		events = kafkainfra.NewStubPublisher(log)
	}

	var google port.IdentityVerifier
	if cfg.Google.ClientID != "" {
		google, err = federation.NewGoogleVerifier(ctx, cfg.Google.ClientID)
		if err != nil {
			log.Warn("failed to init google verifier, google sign-in disabled", zap.Error(err))
		}
	}

	var facebook port.IdentityVerifier
	if cfg.Facebook.AppID != "" && cfg.Facebook.AppSecret != "" {
		facebook = federation.NewFacebookVerifier(cfg.Facebook.AppID, cfg.Facebook.AppSecret)
	}

	var mailer port.Mailer
	if cfg.Mail.Host != "" {
		mailer = mail.NewSMTPMailer(cfg.Mail, log)
	} else {
		log.Info("smtp not configured, logging verification codes instead")
		mailer = mail.NewLoggingMailer(log)
	}

	authService := usecase.NewAuthService(repos.Users, repos.Roles, tokens, google, facebook, events, log)
	signupService := usecase.NewSignupService(authService, repos.Users, verifications, mailer, log)
	resetService := usecase.NewPasswordResetService(repos.Users, verifications, mailer, events, log)
	userService := usecase.NewUserService(repos.Users, repos.Roles, events, log)
	roleService := usecase.NewRoleService(repos.Roles, repos.Users, log)

	if err := roleService.EnsureDefaults(ctx); err != nil {
		closeAll(pool, redisClient, producer)
		return nil, fmt.Errorf("seed roles: %w", err)
	}

	adminRole, err := roleService.GetByName(ctx, domain.RoleAdmin)
	if err != nil {
		closeAll(pool, redisClient, producer)
		return nil, fmt.Errorf("lookup admin role: %w", err)
	}
	if err := userService.EnsureDefaultAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password, adminRole.ID); err != nil {
		closeAll(pool, redisClient, producer)
		return nil, fmt.Errorf("seed admin: %w", err)
	}

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		closeAll(pool, redisClient, producer)
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	deps := routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: middleware.NewRateLimiter(rateLimits, log),
		Services: routes.ServiceSet{
			Auth:          authService,
			Signup:        signupService,
			PasswordReset: resetService,
			Users:         userService,
			Roles:         roleService,
		},
		Tokens:   tokens,
		UserRepo: repos.Users,
		RoleRepo: repos.Roles,
		Database: pool,
		Metrics:  metrics,
	}
	if redisClient != nil {
		deps.Cache = redisClient
	}

	return &Application{
		cfg:      cfg,
		engine:   routes.Register(deps),
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		producer: producer,
		tracer:   tracer,
	}, nil
}

// Run serves HTTP traffic until the context is cancelled, then shuts
// down gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.producer != nil {
			_ = a.producer.Close()
		}
	}()
	defer func() {
		if a.tracer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = a.tracer.Shutdown(shutdownCtx)
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting IAM API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}

func closeAll(pool *pgxpool.Pool, redisClient *redisinfra.Client, producer *kafkainfra.Producer) {
	if pool != nil {
		pool.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if producer != nil {
		_ = producer.Close()
	}
}
