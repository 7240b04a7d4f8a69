package di

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-directory-service/cmd/api/infrastructure"
	"user-directory-service/internal/adapter/cache"
	"user-directory-service/internal/adapter/db/postgres"
	ginhandler "user-directory-service/internal/adapter/gin/handler"
	"user-directory-service/internal/adapter/gin/middleware"
	ginrouter "user-directory-service/internal/adapter/gin/router"
	"user-directory-service/internal/adapter/repository/cached"
	"user-directory-service/internal/config"
	"user-directory-service/internal/usecase/ledger"
	"user-directory-service/internal/usecase/user"
	redisclient "user-directory-service/pkg/redis"
	"user-directory-service/pkg/security"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *gorm.DB
	RedisClient *redisclient.Client // nil when Redis is disabled
	UserUC      user.Usecase
	LedgerUC    *ledger.Usecase
	RateLimiter *middleware.RateLimiter
	Router      *gin.Engine
}

// NewContainer creates and initializes all application dependencies
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	db, err := infrastructure.NewDatabase(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	rdb, err := infrastructure.NewRedisClient(ctx, cfg, l)
	if err != nil {
		_ = infrastructure.CloseDatabase(db)
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	c := &Container{Config: cfg, Logger: l, DB: db, RedisClient: rdb}

	dbRepo := postgres.NewUserRepoPG(db, l)
	var userCache cache.UserCache
	if rdb != nil {
		userCache = cache.NewRedisUserCache(rdb.Client, cfg.Redis.CacheTTL, l)
		c.RateLimiter = middleware.NewRateLimiter(
			rdb.Client,
			middleware.RateLimiterConfig{
				RequestsPerSecond: cfg.RateLimit.RPS,
				BurstCapacity:     cfg.RateLimit.Burst,
				Enabled:           cfg.RateLimit.Enabled,
			},
			l,
		)
	}
	userRepo := cached.NewUserRepository(dbRepo, userCache, l)

	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)
	c.UserUC = user.New(userRepo, hasher, l)
	c.LedgerUC = ledger.New(postgres.NewLedgerRepoPG(db, l), userRepo, l)

	deps := ginrouter.Deps{
		Users:       ginhandler.NewUserHandler(c.UserUC, l),
		Ledger:      ginhandler.NewLedgerHandler(c.LedgerUC, l),
		Admin:       security.NewAdminVerifier(cfg.Auth.AdminToken, cfg.Auth.JWTSecret),
		RateLimiter: c.RateLimiter,
		Log:         l,
	}
	// A nil *Client must not end up inside the interface.
	if rdb != nil {
		deps.Redis = rdb
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	c.Router = ginrouter.SetupRouter(deps)

	return c, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	return errors.Join(errs...)
}
