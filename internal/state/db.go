// ./internal/state/db.go
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
)

// DB is a global database connection pool.
var DB *sql.DB

var ErrDBNotInitialized = errors.New("database not initialized")

// DBConfig holds database connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require", "verify-full", etc.
}

// InitDB initializes the database connection pool.
func InitDB(cfg DBConfig) error {
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	var err error
	DB, err = sql.Open("postgres", psqlInfo)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	err = DB.Ping()
	if err != nil {
		DB.Close()
		DB = nil
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Successfully connected to the PostgreSQL database!")
	return nil
}

// CloseDB closes the database connection pool.
func CloseDB() {
	if DB != nil {
		log.Info().Msg("Closing database connection...")
		if err := DB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database connection")
		}
	}
}

// SchemaSQL creates every table the compounder writes to. Safe to run repeatedly.
const SchemaSQL = `
		CREATE TABLE IF NOT EXISTS vault_parameters (
			params_id SERIAL PRIMARY KEY,
			vault_address VARCHAR(255) NOT NULL,
			version INTEGER NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			owner VARCHAR(255) NOT NULL,
			compound_period_ms BIGINT NOT NULL,
			last_compounded TIMESTAMPTZ,
			fee_percent INTEGER NOT NULL,
			max_fee_percent INTEGER NOT NULL,
			gas_reward NUMERIC(78, 0) NOT NULL,
			max_gas_reward NUMERIC(78, 0) NOT NULL,
			max_supply NUMERIC(78, 0) NOT NULL,
			max_slippage INTEGER NOT NULL,
			max_swap_gas NUMERIC(78, 0) NOT NULL,
			swap_pair_fee_index SMALLINT NOT NULL,
			CONSTRAINT uq_vault_parameters_version UNIQUE (vault_address, version)
		);
		CREATE INDEX IF NOT EXISTS idx_vault_parameters_vault_version ON vault_parameters(vault_address, version DESC);

		CREATE TABLE IF NOT EXISTS vault_events (
			event_id BIGSERIAL PRIMARY KEY,
			tx_id UUID NOT NULL,
			seq INTEGER NOT NULL,
			contract VARCHAR(255) NOT NULL,
			event_name VARCHAR(64) NOT NULL,
			payload JSONB NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT uq_vault_events_tx_seq UNIQUE (tx_id, seq)
		);
		CREATE INDEX IF NOT EXISTS idx_vault_events_name ON vault_events(event_name);
		CREATE INDEX IF NOT EXISTS idx_vault_events_recorded ON vault_events(recorded_at DESC);

		CREATE TABLE IF NOT EXISTS compound_snapshots (
			snapshot_id SERIAL PRIMARY KEY,
			cycle_id UUID NOT NULL,
			compound_number INTEGER NOT NULL,
			snapshot_timestamp TIMESTAMPTZ NOT NULL,
			caller VARCHAR(255) NOT NULL,
			claimed NUMERIC(78, 0) NOT NULL,
			wrapped_received NUMERIC(78, 0) NOT NULL,
			treasury_cut NUMERIC(78, 0) NOT NULL,
			throttled BOOLEAN NOT NULL,
			total_reserves NUMERIC(78, 0) NOT NULL,
			total_supply NUMERIC(78, 0) NOT NULL,
			reserve_ratio NUMERIC(78, 0) NOT NULL,
			compound_period_ms BIGINT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_compound_snapshots_timestamp ON compound_snapshots(snapshot_timestamp DESC);

		-- Compound counter table for persistent global compound numbering
		CREATE TABLE IF NOT EXISTS compound_counter (
			id INTEGER PRIMARY KEY DEFAULT 1,
			current_count INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT single_row_check CHECK (id = 1)
		);

		INSERT INTO compound_counter (id, current_count)
		VALUES (1, 0)
		ON CONFLICT (id) DO NOTHING;
	`

// DropSQL removes every table created by SchemaSQL.
const DropSQL = `
		DROP TABLE IF EXISTS vault_events CASCADE;
		DROP TABLE IF EXISTS compound_snapshots CASCADE;
		DROP TABLE IF EXISTS compound_counter CASCADE;
		DROP TABLE IF EXISTS vault_parameters CASCADE;
	`

// EnsureSchema applies the necessary DDL to create tables if they don't exist.
func EnsureSchema() error {
	if DB == nil {
		return ErrDBNotInitialized
	}

	_, err := DB.Exec(SchemaSQL)
	if err != nil {
		return fmt.Errorf("failed to execute schema DDL: %w", err)
	}
	log.Info().Msg("Database schema ensured.")
	return nil
}

// TestDBConnection tests if the database connection is healthy
func TestDBConnection() error {
	if DB == nil {
		return fmt.Errorf("database connection is nil")
	}

	// Use a short timeout context for health checks
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := DB.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}
