package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/you/otams/domain"
	"github.com/you/otams/internal/config"
	httpx "github.com/you/otams/internal/http"
	"github.com/you/otams/internal/http/handlers"
	"github.com/you/otams/internal/http/middleware"
	"github.com/you/otams/internal/infrastructure/audit"
	"github.com/you/otams/internal/infrastructure/auth"
	"github.com/you/otams/internal/infrastructure/database"
	"github.com/you/otams/internal/infrastructure/repositories"
	"github.com/you/otams/internal/logging"
	"github.com/you/otams/internal/observability"
	"github.com/you/otams/internal/services"
)

// Container holds all dependencies
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *observability.Metrics

	// Infrastructure
	DB          *gorm.DB
	RedisClient *redis.Client

	// Repositories
	UserRepo   domain.UserRepository
	TokenStore domain.RefreshTokenStore
	Tx         domain.Transactor
	Throttle   domain.LoginThrottle

	// Services
	PasswordSvc domain.PasswordService
	TokenSvc    domain.TokenService
	PolicySvc   domain.PolicyService
	AuditLog    domain.AuditLogger
	AuthSvc     domain.AuthService
}

// OpenDatabase connects with the configured pool settings and migrates the schema
func OpenDatabase(cfg *config.Config) (*gorm.DB, error) {
	level := logger.Warn
	if strings.EqualFold(cfg.LogLevel, "debug") {
		level = logger.Info
	}
	db, err := database.Open(database.Options{
		DSN:          cfg.DSN,
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
		LogLevel:     level,
	})
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		_ = database.Close(db)
		return nil, err
	}
	return db, nil
}

// NewContainer creates and initializes all dependencies
func NewContainer(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Container, error) {
	if log == nil {
		log = logging.Discard()
	}
	c := &Container{
		Config:  cfg,
		Logger:  log,
		Metrics: observability.NewMetrics(),
	}

	db, err := OpenDatabase(cfg)
	if err != nil {
		return nil, err
	}
	c.DB = db

	if err := c.initRedis(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	c.initRepositories()
	if err := c.initServices(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) initRedis(ctx context.Context) error {
	if !c.Config.ThrottleEnabled() {
		c.Logger.Warn("redis address not configured, login throttling disabled")
		return nil
	}
	rc := database.NewRedis(c.Config.RedisAddr, c.Config.RedisPassword, c.Config.RedisDB)
	if err := rc.Ping(ctx); err != nil {
		_ = rc.Close()
		return fmt.Errorf("failed to reach redis at %s: %w", c.Config.RedisAddr, err)
	}
	c.RedisClient = rc.Client
	return nil
}

func (c *Container) initRepositories() {
	c.UserRepo = repositories.NewUserRepository(c.DB)
	c.TokenStore = repositories.NewRefreshTokenRepository(c.DB)
	c.Tx = repositories.NewTransactor(c.DB)
	if c.RedisClient != nil {
		c.Throttle = repositories.NewLoginThrottle(c.RedisClient, c.Config.LoginMaxFailures, c.Config.LoginFailureWindow)
	}
}

func (c *Container) initServices() error {
	passwordSvc, err := auth.NewPasswordService(c.Config.BcryptCost)
	if err != nil {
		return err
	}
	c.PasswordSvc = passwordSvc
	c.TokenSvc = auth.NewJWTService(c.Config.JWTSecret, c.Config.JWTIssuer, c.Config.AccessTTL, c.Config.RefreshTTL)

	cas, err := auth.NewCasbinService(c.DB)
	if err != nil {
		return err
	}
	if c.PolicySvc, err = services.NewPolicyService(cas.E); err != nil {
		return err
	}

	c.AuditLog = audit.NewLogger(c.Logger, c.Metrics)
	opts := services.AuthOptions{
		Audit:                c.AuditLog,
		Logger:               c.Logger,
		Throttle:             c.Throttle,
		RevokeLineageOnReuse: c.Config.RevokeLineageOnReuse,
	}
	c.AuthSvc = services.NewAuthService(c.UserRepo, c.TokenStore, c.Tx, c.PasswordSvc, c.TokenSvc, opts)
	return nil
}

// Router builds the gin engine over the container's services
func (c *Container) Router() *gin.Engine {
	return httpx.BuildRouter(
		handlers.NewAuthHandlers(c.AuthSvc, c.Config.CookieSecure, c.Logger),
		handlers.NewAdminHandlers(c.AuthSvc, c.PolicySvc, c.Logger),
		middleware.NewAuthMW(c.TokenSvc),
		middleware.NewPolicyMW(c.PolicySvc, c.Logger),
		httpx.RouterOptions{
			Logger:         c.Logger,
			Metrics:        c.Metrics,
			RequestTimeout: c.Config.RequestTimeout,
		},
	)
}

// Janitor returns a token janitor over the container's store
func (c *Container) Janitor() *services.TokenJanitor {
	return services.NewTokenJanitor(c.TokenStore, c.Config.JanitorInterval, c.Config.JanitorRetention, c.Logger)
}

// Close closes all connections
func (c *Container) Close() error {
	var errs []error
	if c.RedisClient != nil {
		errs = append(errs, c.RedisClient.Close())
	}
	if c.DB != nil {
		errs = append(errs, database.Close(c.DB))
	}
	return errors.Join(errs...)
}
