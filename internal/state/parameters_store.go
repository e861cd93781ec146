// ./internal/state/parameters_store.go
package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"

	"github.com/elys-network/compounder/internal/types"
)

var ErrNoParameters = errors.New("no vault parameters stored")

// SaveVaultParameters stores p as the next version for vaultAddress and returns that version.
func SaveVaultParameters(vaultAddress types.Address, p types.VaultParameters) (version int, err error) {
	if DB == nil {
		return 0, ErrDBNotInitialized
	}

	tx, err := DB.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r) // Re-panic after rollback
		} else if err != nil {
			tx.Rollback() // Rollback if error occurred
		}
	}()

	err = tx.QueryRow(
		`SELECT COALESCE(MAX(version), 0) + 1 FROM vault_parameters WHERE vault_address = $1;`,
		string(vaultAddress),
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to determine next parameters version for %s: %w", vaultAddress, err)
	}

	var lastCompounded sql.NullTime
	if !p.LastCompounded.IsZero() {
		lastCompounded = sql.NullTime{Time: p.LastCompounded, Valid: true}
	}

	stmt := `
        INSERT INTO vault_parameters (
            vault_address, version, created_at, owner,
            compound_period_ms, last_compounded,
            fee_percent, max_fee_percent,
            gas_reward, max_gas_reward,
            max_supply, max_slippage, max_swap_gas, swap_pair_fee_index
        ) VALUES (
            $1, $2, $3, $4,
            $5, $6,
            $7, $8,
            $9, $10,
            $11, $12, $13, $14
        ) RETURNING params_id;`

	var paramsID int64
	err = tx.QueryRow(
		stmt,
		string(vaultAddress), version, time.Now().UTC(), string(p.Owner),
		p.CompoundPeriod.Milliseconds(), lastCompounded,
		p.FeePercent, p.MaxFeePercent,
		p.GasReward.String(), p.MaxGasReward.String(),
		p.MaxSupply.String(), p.MaxSlippage, p.MaxSwapGas.String(), p.SwapPairFeeIndex,
	).Scan(&paramsID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert vault parameters: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info().
		Str("vault", string(vaultAddress)).
		Int("version", version).
		Int64("params_id", paramsID).
		Msg("Saved vault parameters")
	return version, nil
}

// LoadLatestVaultParameters loads the highest stored version for vaultAddress. It returns
// ErrNoParameters when nothing was stored yet.
func LoadLatestVaultParameters(vaultAddress types.Address) (*types.VaultParameters, error) {
	if DB == nil {
		return nil, ErrDBNotInitialized
	}

	query := `
        SELECT
            owner, compound_period_ms, last_compounded,
            fee_percent, max_fee_percent,
            gas_reward, max_gas_reward,
            max_supply, max_slippage, max_swap_gas, swap_pair_fee_index
        FROM vault_parameters
        WHERE vault_address = $1
        ORDER BY version DESC
        LIMIT 1;`

	var (
		p                                              types.VaultParameters
		owner                                          string
		periodMillis                                   int64
		lastCompounded                                 sql.NullTime
		gasReward, maxGasReward, maxSupply, maxSwapGas string
	)
	err := DB.QueryRow(query, string(vaultAddress)).Scan(
		&owner, &periodMillis, &lastCompounded,
		&p.FeePercent, &p.MaxFeePercent,
		&gasReward, &maxGasReward,
		&maxSupply, &p.MaxSlippage, &maxSwapGas, &p.SwapPairFeeIndex,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w for vault '%s'", ErrNoParameters, vaultAddress)
		}
		return nil, fmt.Errorf("failed to scan vault parameters for '%s': %w", vaultAddress, err)
	}

	p.Owner = types.Address(owner)
	p.CompoundPeriod = time.Duration(periodMillis) * time.Millisecond
	if lastCompounded.Valid {
		p.LastCompounded = lastCompounded.Time
	}
	amounts := []struct {
		column string
		raw    string
		dst    *sdkmath.Int
	}{
		{"gas_reward", gasReward, &p.GasReward},
		{"max_gas_reward", maxGasReward, &p.MaxGasReward},
		{"max_supply", maxSupply, &p.MaxSupply},
		{"max_swap_gas", maxSwapGas, &p.MaxSwapGas},
	}
	for _, a := range amounts {
		if *a.dst, err = parseAmount(a.column, a.raw); err != nil {
			return nil, err
		}
	}

	log.Info().Str("vault", string(vaultAddress)).Msg("Loaded latest vault parameters")
	return &p, nil
}

// parseAmount reads a NUMERIC column scanned as text.
func parseAmount(column, raw string) (sdkmath.Int, error) {
	amount, ok := sdkmath.NewIntFromString(raw)
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("column %s holds invalid amount %q", column, raw)
	}
	return amount, nil
}
