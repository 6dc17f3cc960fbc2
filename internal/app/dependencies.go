// Package app wires the infrastructure and services shared by the api, worker and tool binaries.
package app

import (
	"context"
	"fmt"

	validator "github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/backend-menu/internal/booking"
	"github.com/noah-isme/backend-menu/internal/catalog"
	"github.com/noah-isme/backend-menu/internal/common"
	"github.com/noah-isme/backend-menu/internal/config"
	"github.com/noah-isme/backend-menu/internal/db"
	"github.com/noah-isme/backend-menu/internal/lock"
	"github.com/noah-isme/backend-menu/internal/migrations"
	"github.com/noah-isme/backend-menu/internal/obs"
	"github.com/noah-isme/backend-menu/internal/pricing"
	"github.com/noah-isme/backend-menu/internal/ratelimit"
)

// Dependencies enumerates the live infrastructure and services of one process.
type Dependencies struct {
	DB        *pgxpool.Pool
	Redis     *redis.Client
	Store     *db.Store
	Validator *validator.Validate
	Locker    lock.Locker
	Catalog   *catalog.Service
	Booking   *booking.Service
}

// Options tunes New for the calling binary.
type Options struct {
	// ApplicationName is reported to postgres.
	ApplicationName string
	// Migrate applies pending migrations before services start.
	Migrate bool
	// InstrumentRedisMetrics exports go-redis pool metrics through otel.
	InstrumentRedisMetrics bool
}

// New connects to postgres and redis and builds the catalog and booking services.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts Options) (*Dependencies, error) {
	pool, err := OpenPool(ctx, cfg, opts.ApplicationName)
	if err != nil {
		return nil, err
	}

	if opts.Migrate {
		if err := RunMigrations(cfg.DatabaseURL); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info().Msg("migrations applied")
	}

	rdb, err := OpenRedis(ctx, cfg, opts.InstrumentRedisMetrics, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}

	store := db.NewStore(pool)
	locker := lock.Locker{R: rdb, RetryBackoff: cfg.LockRetryBackoff, MaxWait: cfg.LockTTL}
	engine := pricing.NewEngine(cfg.CatalogLocation)

	catalogSvc, err := catalog.NewService(catalog.ServiceConfig{
		Store:        store,
		Cache:        catalog.NewCache(rdb, cfg.CatalogCacheTTL),
		Engine:       engine,
		Locker:       locker,
		LockTTL:      cfg.LockTTL,
		DefaultLimit: cfg.CatalogDefaultLimit,
		MaxLimit:     cfg.CatalogMaxLimit,
	})
	if err != nil {
		pool.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("initialise catalog service: %w", err)
	}
	bookingSvc, err := booking.NewService(booking.ServiceConfig{
		Store:    store,
		Locker:   locker,
		LockTTL:  cfg.LockTTL,
		Location: cfg.CatalogLocation,
	})
	if err != nil {
		pool.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("initialise booking service: %w", err)
	}
	catalogSvc.SetUsage(bookingSvc)

	return &Dependencies{
		DB:        pool,
		Redis:     rdb,
		Store:     store,
		Validator: common.NewValidator(),
		Locker:    locker,
		Catalog:   catalogSvc,
		Booking:   bookingSvc,
	}, nil
}

// Close releases the pool and the redis client.
func (d *Dependencies) Close() error {
	d.DB.Close()
	return d.Redis.Close()
}

// OpenPool opens a traced pgx pool and pings it.
func OpenPool(ctx context.Context, cfg *config.Config, applicationName string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	if applicationName != "" {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = applicationName
	}
	if cfg.DBMaxConns > 0 {
		poolConfig.MaxConns = cfg.DBMaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// OpenRedis opens a redis client with otel tracing and pings it.
func OpenRedis(ctx context.Context, cfg *config.Config, metrics bool, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metrics {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RunMigrations applies the embedded schema.
func RunMigrations(databaseURL string) error {
	m, err := migrations.New(databaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = migrations.Close(m) }()
	if err := migrations.Up(m); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// NewLimiterStore wires a rate limiter store backed by Redis.
func NewLimiterStore(rdb *redis.Client) (limiter.Store, error) {
	return limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: "menu:ratelimit"})
}

// NewRateLimiter picks the limiter for RATE_LIMIT_STRATEGY.
func NewRateLimiter(cfg *config.Config, rdb *redis.Client) (ratelimit.Allower, error) {
	switch cfg.RateLimitStrategy {
	case "store":
		store, err := NewLimiterStore(rdb)
		if err != nil {
			return nil, fmt.Errorf("limiter store: %w", err)
		}
		return ratelimit.NewStoreLimiter(store), nil
	default:
		return ratelimit.Limiter{Client: rdb, Prefix: "menu:rl"}, nil
	}
}

// RedisConnOpt converts REDIS_URL for asynq.
func RedisConnOpt(cfg *config.Config) (asynq.RedisConnOpt, error) {
	opt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url for asynq: %w", err)
	}
	return opt, nil
}

// Tracer returns the default OpenTelemetry tracer for instrumentation hooks.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
