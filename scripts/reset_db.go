package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/elys-network/compounder/internal/config"
	"github.com/elys-network/compounder/internal/logger"
	"github.com/elys-network/compounder/internal/state"
	"github.com/elys-network/compounder/internal/types"
)

// Drops and recreates the compounder tables. With RESET_DB_SEED=true, the default vault parameters
// are stored as version 1 for VAULT_ADDRESS owned by VAULT_OWNER.
func main() {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logger.Initialize(logLevel)
	log.Info().Msg("Starting database reset script...")

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found or error loading .env file. Relying on OS environment variables.")
	}

	seed, err := config.GetEnvAsBoolOrDefault("RESET_DB_SEED", false)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid RESET_DB_SEED")
	}

	dbCfg := state.DBConfig{
		Host:     envOrDefault("DB_HOST", "localhost"),
		Port:     5432,
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		DBName:   os.Getenv("DB_NAME"),
		SSLMode:  envOrDefault("DB_SSLMODE", "disable"),
	}
	if dbCfg.User == "" {
		log.Fatal().Msg("DB_USER environment variable not set.")
	}
	if dbCfg.DBName == "" {
		log.Fatal().Msg("DB_NAME environment variable not set.")
	}
	if portStr := os.Getenv("DB_PORT"); portStr != "" {
		if _, err := fmt.Sscanf(portStr, "%d", &dbCfg.Port); err != nil {
			log.Fatal().Str("DB_PORT", portStr).Msg("DB_PORT must be a number")
		}
	}

	log.Info().
		Str("host", dbCfg.Host).
		Int("port", dbCfg.Port).
		Str("user", dbCfg.User).
		Str("dbname", dbCfg.DBName).
		Msg("Connecting to database")

	if err := state.InitDB(dbCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database connection")
	}
	defer state.CloseDB()

	log.Info().Msg("Connected to database. Dropping compounder tables...")
	if _, err := state.DB.Exec(state.DropSQL); err != nil {
		log.Fatal().Err(err).Msg("Failed to drop tables")
	}

	if err := state.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to recreate database schema")
	}
	log.Info().Msg("Database schema recreated")

	if seed {
		owner := os.Getenv("VAULT_OWNER")
		if owner == "" {
			log.Fatal().Msg("VAULT_OWNER must be set to seed parameters.")
		}
		vaultAddress := types.Address(envOrDefault("VAULT_ADDRESS", "cneo-vault"))
		version, err := state.SaveVaultParameters(vaultAddress, config.NewDefaultParameters(types.Address(owner)))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to seed vault parameters")
		}
		log.Info().Str("vault", string(vaultAddress)).Int("version", version).Msg("Default vault parameters seeded")
	}

	log.Info().Msg("Database reset complete!")
}

func envOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
