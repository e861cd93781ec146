/*

This file contains the owner-governed settings of the vault. Defaults live in config.DefaultVaultParameters.

*/

package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// VaultParameters holds every tunable setting and the compounding clock.
type VaultParameters struct {
	Owner Address `json:"owner"` // Sole account allowed to change settings.

	// --- Compounding ---
	CompoundPeriod time.Duration `json:"compound_period"` // Minimum time between two compound calls. Halved whenever a compound is throttled.
	LastCompounded time.Time     `json:"last_compounded"` // Block time of the most recent successful compound.
	FeePercent     uint64        `json:"fee_percent"`     // Share of claimed yield kept by the vault as treasury (0-100).
	MaxFeePercent  uint64        `json:"max_fee_percent"` // Ceiling for FeePercent. Always below 100.
	GasReward      sdkmath.Int   `json:"gas_reward"`      // Fee asset paid to the compound caller.
	MaxGasReward   sdkmath.Int   `json:"max_gas_reward"`  // Ceiling for GasReward.

	// --- Supply & swap bounds ---
	MaxSupply        sdkmath.Int `json:"max_supply"`          // Hard cap on outstanding shares.
	MaxSlippage      uint64      `json:"max_slippage"`        // Tolerated swap slippage in percent. Always below 100.
	MaxSwapGas       sdkmath.Int `json:"max_swap_gas"`        // Largest fee-asset amount swapped in one call.
	SwapPairFeeIndex int         `json:"swap_pair_fee_index"` // 0 when the fee asset is the pair's token0, 1 when it is token1.
}

// NextCompoundAt returns the earliest block time at which compounding is allowed again.
func (p VaultParameters) NextCompoundAt() time.Time {
	return p.LastCompounded.Add(p.CompoundPeriod)
}
