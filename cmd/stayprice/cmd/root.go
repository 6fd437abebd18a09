// Package cmd provides the operator commands of stayprice.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stayprice/internal/config"
	"stayprice/internal/infra"
	"stayprice/internal/modules/pricing"
	"stayprice/internal/modules/rates"
)

var (
	verbose bool

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "stayprice",
	Short: "Operate the stay pricing engine",
	Long: `stayprice manages rate data and prices stays from the command line.

Configuration comes from STAYPRICE_* environment variables or a .env file.

Examples:
  stayprice migrate
  stayprice seed --unit villa-7
  stayprice quote --unit villa-7 --checkin 2026-06-01 --checkout 2026-06-04 --adults 2
  stayprice bench --base-url http://localhost:8080 --unit villa-7`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		if verbose {
			cfg.Log.Level = "debug"
		}
		logger = infra.NewLogger(cfg.Log)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the CLI.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(benchCmd)
}

// openStore connects to Postgres and, when Redis is configured, returns a cache in front
// of the store. The returned func releases both connections.
func openStore(ctx context.Context) (*rates.Store, pricing.RateSource, *rates.Cache, func(), error) {
	db, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	store := rates.NewStore(db)
	closeFn := func() { db.Close() }

	client := infra.NewRedis(cfg.Redis.Addr)
	if client == nil {
		return store, store, nil, closeFn, nil
	}
	cache := rates.NewCache(store, client, cfg.Redis.CacheTTL, logger)
	return store, cache, cache, closeAll(db, client), nil
}

func closeAll(db *pgxpool.Pool, client *redis.Client) func() {
	return func() {
		_ = client.Close()
		db.Close()
	}
}
