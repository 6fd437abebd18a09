// README: Entry point; loads config, wires the rate store, cache and pricing service, serves HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"stayprice/internal/config"
	httptransport "stayprice/internal/http"
	"stayprice/internal/infra"
	"stayprice/internal/modules/pricing"
	"stayprice/internal/modules/rates"
	"stayprice/internal/types"
)

// rateReader is implemented by both rates.Store and rates.Cache.
type rateReader interface {
	pricing.RateSource
	ListRateTables(ctx context.Context, planID types.ID) ([]rates.RateTable, error)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := infra.NewLogger(cfg.Log)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal("database init", zap.Error(err))
	}
	defer dbPool.Close()

	store := rates.NewStore(dbPool)
	var source rateReader = store

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	if redisClient != nil {
		defer redisClient.Close()
		source = rates.NewCache(store, redisClient, cfg.Redis.CacheTTL, log)
		log.Info("rate cache enabled", zap.String("redis_addr", cfg.Redis.Addr), zap.Duration("ttl", cfg.Redis.CacheTTL))
	}

	pricingSvc := pricing.NewService(source, cfg.Pricing, log)
	handler := httptransport.NewServer(httptransport.ServerDeps{
		Pricing: pricingSvc,
		Rates:   source,
		Logger:  log,
	})

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown", zap.Error(err))
		}
	}()

	log.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("http server", zap.Error(err))
	}
	log.Info("http server stopped")
}
