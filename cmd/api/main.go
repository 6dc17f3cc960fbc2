package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/backend-menu/internal/app"
	"github.com/noah-isme/backend-menu/internal/booking"
	"github.com/noah-isme/backend-menu/internal/catalog"
	"github.com/noah-isme/backend-menu/internal/common"
	"github.com/noah-isme/backend-menu/internal/config"
	"github.com/noah-isme/backend-menu/internal/health"
	"github.com/noah-isme/backend-menu/internal/migrations"
	"github.com/noah-isme/backend-menu/internal/obs"
	"github.com/noah-isme/backend-menu/internal/ratelimit"
	"github.com/noah-isme/backend-menu/internal/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()
	obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, nil)

	tracingEnabled := cfg.EnableTracing
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "menu-api",
			Endpoint:      cfg.OTLPEndpoint,
			SamplingRatio: cfg.TracingSamplingRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	deps, err := app.New(startCtx, cfg, logger, app.Options{
		ApplicationName:        "menu-api",
		Migrate:                cfg.DBAutoMigrate,
		InstrumentRedisMetrics: cfg.EnablePrometheus,
	})
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise dependencies")
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Error().Err(err).Msg("close dependencies")
		}
	}()

	limiter, err := app.NewRateLimiter(cfg, deps.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter")
	}

	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Service: deps.Catalog, Validator: deps.Validator})
	bookingHandler := booking.NewHandler(booking.HandlerConfig{Service: deps.Booking, Validator: deps.Validator})
	idem := common.Idem{R: deps.Redis, TTL: cfg.IdempotencyTTL}

	var httpMetrics *obs.HTTPMetrics
	if cfg.EnablePrometheus {
		httpMetrics = obs.NewHTTPMetrics(cfg.MetricsNamespace, cfg.MetricsBucketsMS, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: true, HSTS: cfg.HSTSMaxAge}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.HTTPBodyLimitBytes}.Middleware)
	r.Use(security.CORS(cfg.CORSAllowedOrigins))

	if cfg.EnablePrometheus {
		r.Handle("/metrics", promhttp.Handler())
	}

	schemaVersion, err := migrations.Latest()
	if err != nil {
		logger.Fatal().Err(err).Msg("read embedded migrations")
	}
	healthHandler := health.Handler{
		Probes: map[string]health.Probe{
			"postgres": health.Postgres(deps.DB),
			"redis":    health.Redis(deps.Redis),
			"schema":   health.Schema(deps.DB, schemaVersion),
		},
		Timeout: 500 * time.Millisecond,
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	rateLimit := ratelimit.Handler{
		Limiter: limiter,
		Config:  ratelimit.Config{Key: ratelimit.ClientKey, Window: cfg.RateLimitWindow, Max: cfg.RateLimitMax},
		OnError: func(err error) { logger.Warn().Err(err).Msg("rate limiter unavailable") },
	}

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(rateLimit.Middleware)

		v.Route("/categories", func(c chi.Router) {
			c.Post("/", catalogHandler.CreateCategory)
			c.Get("/", catalogHandler.ListCategories)
			c.Get("/{id}", catalogHandler.GetCategory)
			c.Patch("/{id}", catalogHandler.UpdateCategory)
			c.Delete("/{id}", catalogHandler.DeleteCategory)
		})

		v.Route("/subcategories", func(s chi.Router) {
			s.Post("/", catalogHandler.CreateSubcategory)
			s.Get("/", catalogHandler.ListSubcategories)
			s.Get("/{id}", catalogHandler.GetSubcategory)
			s.Patch("/{id}", catalogHandler.UpdateSubcategory)
			s.Delete("/{id}", catalogHandler.DeleteSubcategory)
		})

		v.Route("/items", func(i chi.Router) {
			i.With(idem.Middleware).Patch("/bulk/price-config", catalogHandler.BulkPriceConfig)
			i.Post("/", catalogHandler.CreateItem)
			i.Get("/", catalogHandler.ListItems)
			i.Route("/{id}", func(item chi.Router) {
				item.Get("/", catalogHandler.GetItem)
				item.Patch("/", catalogHandler.UpdateItem)
				item.Delete("/", catalogHandler.DeleteItem)
				item.Get("/price", catalogHandler.Price)

				item.Post("/addons", catalogHandler.CreateAddon)
				item.Get("/addons", catalogHandler.ListAddons)
				item.Delete("/addons/{addonId}", catalogHandler.DeleteAddon)

				item.With(idem.Middleware).Post("/bookings", bookingHandler.Create)
				item.Get("/bookings", bookingHandler.List)
				item.Get("/available-slots", bookingHandler.AvailableSlots)
			})
		})

		v.Post("/bookings/{id}/cancel", bookingHandler.Cancel)
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	<-ctx.Done()
	health.SetReady(false)
	logger.Info().Msg("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
