package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/elys-network/compounder/internal/types"
)

// AppConfig holds all application configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// Mode selects the execution environment. Only "simulation" is runnable from this binary.
	Mode string

	// VaultAddress is the contract address the vault is installed under.
	VaultAddress types.Address
	// OwnerAddress is the governance account of the vault.
	OwnerAddress types.Address
	// KeeperAccount is the externally owned account that calls compound.
	KeeperAccount types.Address

	// KeeperInterval is the ticker interval of the keeper loop.
	KeeperInterval time.Duration
	// KeeperSchedule is an optional cron expression that replaces the ticker when set.
	KeeperSchedule string

	// WebPort is the port of the read-only HTTP API.
	WebPort string
	// LogFile is an optional path that receives a copy of every log line.
	LogFile string
)

// LoadConfig loads configuration from environment variables and sets the global config vars.
// Variables without a documented default are required.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	Mode, err = getEnv("COMPOUNDER_MODE")
	if err != nil {
		return err
	}

	owner, err := getEnv("VAULT_OWNER")
	if err != nil {
		return err
	}
	OwnerAddress = types.Address(owner)

	keeper, err := getEnv("KEEPER_ACCOUNT")
	if err != nil {
		return err
	}
	KeeperAccount = types.Address(keeper)

	VaultAddress = types.Address(getEnvOrDefault("VAULT_ADDRESS", "cneo-vault"))

	KeeperInterval, err = getEnvAsDurationOrDefault("KEEPER_INTERVAL", 10*time.Minute)
	if err != nil {
		return err
	}
	KeeperSchedule = getEnvOrDefault("KEEPER_SCHEDULE", "")

	WebPort = getEnvOrDefault("WEB_PORT", "8080")
	LogFile = getEnvOrDefault("LOG_FILE", "")

	if err := loadCollaboratorConfig(); err != nil {
		return err
	}

	if OwnerAddress == KeeperAccount {
		log.Warn().Msg("KEEPER_ACCOUNT equals VAULT_OWNER; the keeper will hold governance rights")
	}

	log.Debug().
		Str("Mode", Mode).
		Str("VaultAddress", string(VaultAddress)).
		Str("OwnerAddress", string(OwnerAddress)).
		Dur("KeeperInterval", KeeperInterval).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvOrDefault retrieves a string environment variable, falling back to defaultValue when unset.
func getEnvOrDefault(key, defaultValue string) string {
	if value, err := getEnv(key); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsUint64 retrieves an environment variable as a uint64. Returns error if not set or invalid.
func getEnvAsUint64(key string) (uint64, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid uint64, got: " + valueStr)
	}
	return value, nil
}

// GetEnvAsBoolOrDefault retrieves an environment variable as a bool ("true", "1", "false", ...).
// Returns error only if the variable is set and invalid.
func GetEnvAsBoolOrDefault(key string, defaultValue bool) (bool, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return defaultValue, nil
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return false, errors.New("environment variable " + key + " must be a boolean, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsDurationOrDefault retrieves an environment variable as a time.Duration ("10m", "1h30m").
// Returns error only if the variable is set and invalid.
func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil || value <= 0 {
		return 0, errors.New("environment variable " + key + " must be a positive duration, got: " + valueStr)
	}
	return value, nil
}
