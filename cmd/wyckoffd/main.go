package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"wyckoff-trading-bot/config"
	"wyckoff-trading-bot/internal/api"
	"wyckoff-trading-bot/internal/binance"
	"wyckoff-trading-bot/internal/cache"
	"wyckoff-trading-bot/internal/database"
	"wyckoff-trading-bot/internal/events"
	"wyckoff-trading-bot/internal/logging"
	"wyckoff-trading-bot/internal/pipeline"
	"wyckoff-trading-bot/internal/scanner"
	"wyckoff-trading-bot/internal/vault"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Setup(logging.Config{
		Level:  cfg.LoggingConfig.Level,
		Output: cfg.LoggingConfig.Output,
		Pretty: cfg.LoggingConfig.Pretty,
	})

	log.Info().Msg("starting wyckoffd")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Vault supplies the database password when enabled; the config value
	// is the fallback.
	vaultClient, err := vault.NewClient(cfg.VaultConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create vault client")
	}
	dbPassword := cfg.DatabaseConfig.Password
	if vaultClient.IsEnabled() {
		pw, err := vaultClient.GetDatabasePassword(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to read database password from vault")
		}
		if pw != "" {
			dbPassword = pw
		}
	}

	// Storage is optional; without it signals are broadcast but not kept.
	var repo *database.Repository
	if cfg.DatabaseConfig.Enabled {
		db, err := database.NewDB(database.Config{
			Host:     cfg.DatabaseConfig.Host,
			Port:     cfg.DatabaseConfig.Port,
			User:     cfg.DatabaseConfig.User,
			Password: dbPassword,
			Database: cfg.DatabaseConfig.Name,
			SSLMode:  cfg.DatabaseConfig.SSLMode,
			MaxConns: cfg.DatabaseConfig.MaxConns,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		if err := db.RunMigrations(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
		repo = database.NewRepository(db)
	} else {
		log.Warn().Msg("database disabled, signals will not be persisted")
	}

	var analysisCache *cache.AnalysisCache
	if cfg.RedisConfig.Enabled {
		analysisCache, err = cache.NewAnalysisCache(cfg.RedisConfig, time.Duration(cfg.ScannerConfig.CacheTTL)*time.Second)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create analysis cache")
		}
		defer analysisCache.Close()
	}

	var marketData binance.MarketDataClient
	if cfg.BinanceConfig.MockMode {
		log.Warn().Msg("mock mode enabled, using simulated market data")
		marketData = binance.NewMockClient()
	} else {
		marketData = binance.NewClient(cfg.BinanceConfig.BaseURL)
	}

	bus := events.NewEventBus()
	pipe := pipeline.New(cfg.DetectionConfig.ToDetectionConfig(), sessionPenalty)

	var store scanner.SignalStore
	if repo != nil {
		store = repo
	}
	var resultCache scanner.ResultCache
	if analysisCache != nil {
		resultCache = analysisCache
	}

	sc := scanner.NewScanner(marketData, pipe, store, resultCache, bus, scanner.Config{
		Enabled:      cfg.ScannerConfig.Enabled,
		Symbols:      cfg.ScannerConfig.Symbols,
		Timeframe:    cfg.ScannerConfig.Timeframe,
		AssetClass:   cfg.ScannerConfig.AssetClass,
		LookbackBars: cfg.DetectionConfig.LookbackBars,
		ScanInterval: time.Duration(cfg.ScannerConfig.ScanInterval) * time.Second,
		WorkerCount:  cfg.ScannerConfig.WorkerCount,
	})
	sc.Start()

	server := api.NewServer(api.ServerConfig{
		Port:           cfg.ServerConfig.Port,
		Host:           cfg.ServerConfig.Host,
		AllowedOrigins: cfg.ServerConfig.AllowedOrigins,
		ReadTimeout:    time.Duration(cfg.ServerConfig.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.ServerConfig.WriteTimeout) * time.Second,
		ProductionMode: os.Getenv("GIN_MODE") == "release",
	}, repo, sc, bus)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			log.Error().Err(err).Msg("server stopped unexpectedly")
		}
	}

	sc.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ServerConfig.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("wyckoffd stopped")
}

// sessionPenalty weights candidates by the session their bar printed in.
// Bars in the low-liquidity window (20:00-24:00 UTC) are penalized; the
// rest of the day carries no adjustment.
func sessionPenalty(ts time.Time) int {
	if h := ts.UTC().Hour(); h >= 20 {
		return -5
	}
	return 0
}
