package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/blacklisthub/blacklisthub-backend/internal/cache"
	"github.com/blacklisthub/blacklisthub-backend/internal/config"
	"github.com/blacklisthub/blacklisthub-backend/internal/metrics"
	"github.com/blacklisthub/blacklisthub-backend/internal/repositories"
	"github.com/blacklisthub/blacklisthub-backend/internal/repositories/memory"
	mongorepo "github.com/blacklisthub/blacklisthub-backend/internal/repositories/mongodb"
	"github.com/blacklisthub/blacklisthub-backend/internal/services"
	"github.com/blacklisthub/blacklisthub-backend/internal/utils"
	"github.com/blacklisthub/blacklisthub-backend/pkg/jwt"
	mongodb "github.com/blacklisthub/blacklisthub-backend/pkg/mongodb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// App holds the wired stores and services shared by the server and the tools
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Blacklist *services.BlacklistService
	Lookup    *services.LookupService
	Taxonomy  *services.TaxonomyService
	Auth      *services.AuthService

	mongoClient *mongodb.Client
	redisClient *redis.Client
}

// NewLogger builds the JSON logger at the configured level
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// New connects the configured stores, seeds reference data and builds the services.
// Metrics are registered on reg.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (*App, error) {
	a := &App{Config: cfg, Logger: logger, Metrics: metrics.New(reg)}

	var (
		blacklistRepo repositories.BlacklistRepository
		userRepo      repositories.UserRepository
		taxonomyRepo  repositories.TaxonomyRepository
	)
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory storage; data is lost on restart")
		blacklistRepo = memory.NewBlacklistRepository()
		userRepo = memory.NewUserRepository()
		taxonomyRepo = memory.NewTaxonomyRepository()
	default:
		client, err := mongodb.NewClient(ctx, cfg.MongoDB.URI, cfg.Server.RequestTimeout)
		if err != nil {
			return nil, err
		}
		a.mongoClient = client
		db := client.Database(cfg.MongoDB.Database)

		mongoBlacklist := mongorepo.NewBlacklistRepository(db)
		mongoUsers := mongorepo.NewUserRepository(db)
		mongoTaxonomy := mongorepo.NewTaxonomyRepository(db)
		for name, ensure := range map[string]func(context.Context) error{
			"blacklist": mongoBlacklist.EnsureIndexes,
			"users":     mongoUsers.EnsureIndexes,
			"enums":     mongoTaxonomy.EnsureIndexes,
		} {
			if err := ensure(ctx); err != nil {
				a.Close(ctx)
				return nil, fmt.Errorf("ensure %s indexes: %w", name, err)
			}
		}
		blacklistRepo, userRepo, taxonomyRepo = mongoBlacklist, mongoUsers, mongoTaxonomy
		logger.Info("connected to mongodb", "database", cfg.MongoDB.Database)
	}

	var lookupCache cache.LookupCache = cache.NoopCache{}
	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	if redisClient != nil {
		a.redisClient = redisClient
		lookupCache = cache.NewRedisLookupCache(redisClient, cfg.Redis.LookupTTL, logger)
		logger.Info("lookup cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.LookupTTL)
	}

	secret := cfg.JWT.Secret
	if secret == "" {
		if secret, err = utils.GenerateRandomString(48); err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		logger.Warn("jwt.secret not set; sessions will not survive a restart")
	}

	a.Taxonomy = services.NewTaxonomyService(taxonomyRepo, logger)
	a.Blacklist = services.NewBlacklistService(blacklistRepo, a.Taxonomy, services.BlacklistOptions{
		DefaultExpiry: cfg.DefaultExpiry(),
		Logger:        logger,
		Metrics:       a.Metrics,
		Cache:         lookupCache,
	})
	a.Lookup = services.NewLookupService(blacklistRepo, lookupCache, a.Metrics, logger, nil)
	a.Auth = services.NewAuthService(userRepo, jwt.NewSessionTokenService(secret, cfg.TokenTTL()), logger)

	if err := a.Taxonomy.SeedDefaults(ctx); err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("seed taxonomy: %w", err)
	}
	if err := a.Auth.EnsureBootstrapAdmin(ctx, cfg.Bootstrap.AdminUsername, cfg.Bootstrap.AdminPassword); err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}
	return a, nil
}

// HealthCheck pings the backing store
func (a *App) HealthCheck(ctx context.Context) error {
	if a.mongoClient == nil {
		return nil
	}
	return a.mongoClient.Ping(ctx)
}

// Close releases the store connections
func (a *App) Close(ctx context.Context) {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.Logger.Error("error closing redis", "error", err)
		}
	}
	if a.mongoClient != nil {
		if err := a.mongoClient.Disconnect(ctx); err != nil {
			a.Logger.Error("error disconnecting from mongodb", "error", err)
		}
	}
}
