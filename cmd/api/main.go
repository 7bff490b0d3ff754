package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fairlead/lead-exchange/internal/app"
	"github.com/fairlead/lead-exchange/internal/clock"
	"github.com/fairlead/lead-exchange/internal/config"
	"github.com/fairlead/lead-exchange/internal/storage/postgres"
	transporthttp "github.com/fairlead/lead-exchange/internal/transport/http"
	"github.com/fairlead/lead-exchange/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("load config")
	}

	logger := newLogger(cfg)

	startupCtx, cancel := context.WithTimeout(context.Background(), cfg.StartupTimeout)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to db")
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		logger.Fatal().Err(err).Msg("db ping")
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}

	sysClock := clock.NewSystem()
	leadRepo := postgres.NewLeadRepository(pool)
	inventoryRepo := postgres.NewInventoryRepository(pool)
	saleRepo := postgres.NewSaleRepository(pool)
	queryRepo := postgres.NewQueryRepository(pool)
	buyerRepo := postgres.NewBuyerRepository(pool)
	pricingRepo := postgres.NewPricingRepository(pool)

	inventorySvc := app.NewInventoryService(leadRepo, inventoryRepo, sysClock)
	purchaseSvc := app.NewPurchaseService(buyerRepo, inventoryRepo, saleRepo, sysClock)
	allocationSvc := app.NewAllocationService(buyerRepo, inventoryRepo, saleRepo, queryRepo, sysClock)
	quoteSvc := app.NewQuoteService(pricingRepo)

	handler := transporthttp.NewRouter(transporthttp.RouterDeps{
		Purchases:   purchaseSvc,
		Batches:     allocationSvc,
		Quotes:      quoteSvc,
		Browser:     queryRepo,
		Slots:       inventorySvc,
		Generator:   inventorySvc,
		Sales:       saleRepo,
		Leads:       leadRepo,
		Prices:      pricingRepo,
		Logger:      logger,
		CORSOrigins: parseCSV(cfg.CORSOrigins),
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	logger.Info().Str("port", cfg.Port).Msg("api listening")

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server error")
		}
	case <-stopCtx.Done():
		logger.Info().Msg("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	logger.Info().Msg("server stopped")
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Env == "dev" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}

func parseCSV(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
