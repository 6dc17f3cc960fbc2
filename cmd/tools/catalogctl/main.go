// Command catalogctl runs schema migrations, seeds a demo menu and prices items from the shell.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/noah-isme/backend-menu/internal/app"
	"github.com/noah-isme/backend-menu/internal/booking"
	"github.com/noah-isme/backend-menu/internal/catalog"
	"github.com/noah-isme/backend-menu/internal/config"
	"github.com/noah-isme/backend-menu/internal/db"
	"github.com/noah-isme/backend-menu/internal/obs"
	"github.com/noah-isme/backend-menu/internal/pricing"
)

var rootCmd = &cobra.Command{
	Use:           "catalogctl",
	Short:         "Operate the menu catalog database",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(newMigrateCmd(), newSeedCmd(), newQuoteCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env bundles what the data commands need. Redis is not required: the catalog cache and
// locks are disabled.
type env struct {
	cfg     *config.Config
	logger  zerolog.Logger
	pool    *pgxpool.Pool
	catalog *catalog.Service
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := obs.NewLogger("console", cfg.LogLevel)
	pool, err := app.OpenPool(ctx, cfg, "catalogctl")
	if err != nil {
		return nil, err
	}
	store := db.NewStore(pool)
	svc, err := catalog.NewService(catalog.ServiceConfig{
		Store:        store,
		Engine:       pricing.NewEngine(cfg.CatalogLocation),
		DefaultLimit: cfg.CatalogDefaultLimit,
		MaxLimit:     cfg.CatalogMaxLimit,
	})
	if err != nil {
		pool.Close()
		return nil, err
	}
	bookings, err := booking.NewService(booking.ServiceConfig{Store: store, Location: cfg.CatalogLocation})
	if err != nil {
		pool.Close()
		return nil, err
	}
	svc.SetUsage(bookings)
	return &env{cfg: cfg, logger: logger, pool: pool, catalog: svc}, nil
}

func (e *env) close() { e.pool.Close() }
