package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/elys-network/compounder/internal/config"
	"github.com/elys-network/compounder/internal/keeper"
	"github.com/elys-network/compounder/internal/logger"
	"github.com/elys-network/compounder/internal/metrics"
	"github.com/elys-network/compounder/internal/simulations"
	"github.com/elys-network/compounder/internal/state"
	"github.com/elys-network/compounder/internal/types"
	"github.com/elys-network/compounder/internal/web"
)

// compoundStore is satisfied by both state.DBRecorder and state.MemoryRecorder.
type compoundStore interface {
	keeper.Recorder
	web.History
}

// main is the entry point for the compounder.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	var extra []io.Writer
	if config.LogFile != "" {
		f, err := os.OpenFile(config.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			log.Fatal().Err(err).Str("path", config.LogFile).Msg("Failed to open log file")
		}
		defer f.Close()
		extra = append(extra, f)
	}
	logger.Initialize(os.Getenv("LOG_LEVEL"), extra...)
	log.Info().Msg("Compounder starting...")

	if config.Mode != "simulation" {
		log.Fatal().Str("mode", config.Mode).Msg("COMPOUNDER_MODE must be 'simulation'. No live host is wired into this binary.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- 2. Persistence (optional) ---
	var store compoundStore = &state.MemoryRecorder{}
	useDB := os.Getenv("DB_HOST") != ""
	if useDB {
		dbCfg := state.DBConfig{
			Host: os.Getenv("DB_HOST"), Port: mustAtoi(os.Getenv("DB_PORT"), 5432),
			User: os.Getenv("DB_USER"), Password: os.Getenv("DB_PASSWORD"),
			DBName: os.Getenv("DB_NAME"), SSLMode: os.Getenv("DB_SSLMODE"),
		}
		if dbCfg.SSLMode == "" {
			dbCfg.SSLMode = "disable"
		}
		if err := state.InitDB(dbCfg); err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize database")
		}
		defer state.CloseDB()
		if err := state.EnsureSchema(); err != nil {
			log.Fatal().Err(err).Msg("Failed to ensure database schema")
		}
		store = state.DBRecorder{}
	} else {
		log.Warn().Msg("DB_HOST not set. Compound history is kept in memory and parameters are not persisted.")
	}

	params := loadParameters(useDB)

	// --- 3. Deployment ---
	network, err := simulations.NewNetwork(simulations.NetworkConfig{
		Owner:        config.OwnerAddress,
		VaultAddress: config.VaultAddress,
		Clock:        time.Now,
		Parameters:   &params,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to deploy simulated network")
	}

	collector := metrics.NewCollector("", network.Wrapped.Decimals(), network.Fee.Decimals())
	network.Host.AddSink(collector)
	if useDB {
		network.Host.AddSink(state.NewJournal())
	}

	// --- 4. Web Server ---
	webServer, err := web.NewWebServer(web.Config{
		Port:    config.WebPort,
		Host:    network.Host,
		Vault:   network.Vault,
		History: store,
		Metrics: collector.Handler(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create web server")
	}
	go func() {
		log.Info().Str("port", config.WebPort).Str("url", "http://localhost:"+config.WebPort).Msg("Starting compounder API")
		if err := webServer.Start(); err != nil {
			log.Error().Err(err).Msg("Web server failed")
		}
	}()

	// --- 5. Keeper ---
	k, err := keeper.NewKeeper(keeper.Config{
		Host:      network.Host,
		Vault:     network.Vault,
		Caller:    config.KeeperAccount,
		Recorder:  store,
		Telemetry: collector,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create keeper")
	}

	if config.SimulatedYield > 0 {
		go accrueYield(ctx, network, sdkmath.NewIntFromUint64(config.SimulatedYield), config.KeeperInterval)
	}

	if config.KeeperSchedule != "" {
		if err := k.RunScheduled(ctx, config.KeeperSchedule); err != nil {
			log.Fatal().Err(err).Msg("Failed to start keeper scheduler")
		}
	} else {
		k.RunLoop(ctx, config.KeeperInterval)
	}

	// --- 6. Shutdown ---
	log.Info().Msg("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := webServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Web server shutdown failed")
	}

	if useDB {
		var final types.VaultParameters
		network.Host.View(func() { final = network.Vault.Parameters() })
		if _, err := state.SaveVaultParameters(config.VaultAddress, final); err != nil {
			log.Error().Err(err).Msg("Failed to persist final vault parameters")
		}
	}
	log.Info().Int("cycles", k.CycleCount()).Msg("Compounder stopped")
}

// loadParameters returns the latest persisted parameters, seeding the defaults on first start.
func loadParameters(useDB bool) types.VaultParameters {
	defaults := config.NewDefaultParameters(config.OwnerAddress)
	if !useDB {
		return defaults
	}

	params, err := state.LoadLatestVaultParameters(config.VaultAddress)
	if err == nil {
		log.Info().Msg("Vault parameters loaded from database.")
		return *params
	}
	if !errors.Is(err, state.ErrNoParameters) {
		log.Fatal().Err(err).Msg("Failed to load vault parameters")
	}

	log.Warn().Msg("No persisted vault parameters, using defaults and saving.")
	if _, err := state.SaveVaultParameters(config.VaultAddress, defaults); err != nil {
		log.Fatal().Err(err).Msg("Failed to save initial default vault parameters.")
	}
	return defaults
}

// accrueYield issues simulated yield once per interval so the keeper has something to compound.
func accrueYield(ctx context.Context, network *simulations.Network, amount sdkmath.Int, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := network.AccrueYield(amount, amount); err != nil {
				log.Error().Err(err).Msg("Failed to accrue simulated yield")
			}
		}
	}
}

// Helper to convert string to int with a default value
func mustAtoi(s string, defaultValue int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return i
}
