/*

This file contains the default parameters of the vault and the protocol constants that never change
after deployment.

The defaults are what a freshly installed vault runs with until the owner changes them. They are
sized for a base asset with 0 decimals and a wrapped and fee asset with 8 decimals.

*/

package config

import (
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/compounder/internal/types"
)

// Protocol constants.
const (
	// Percent is the denominator of every percentage parameter.
	Percent = 100

	// UnwrapFeePerBase is the fee asset charged by the wrapped ledger for each base unit released
	// when wrapped asset is converted back to base asset.
	UnwrapFeePerBase = 100000

	// SwapDeadline is added to the block time to form the router deadline.
	SwapDeadline = 30 * time.Second

	// ShareDecimals is the precision of the vault share token.
	ShareDecimals = 8

	// ShareSymbol is the ticker of the vault share token.
	ShareSymbol = "cNEO"
)

// DefaultVaultParameters provides the settings a vault is installed with.
// These values are used if no persisted parameters are found in the database during initialization.
//
// IMPORTANT: amounts are in base units of their asset (10^8 base units = 1 fee asset).
var DefaultVaultParameters = types.VaultParameters{
	// --- Compounding ---
	CompoundPeriod: 7 * 24 * time.Hour, // Compound at most once a week.
	// Rationale: Delegation yield accrues slowly; a weekly claim keeps the swap large enough that the
	// caller reward and DEX fees stay small relative to the amount compounded.
	// The period halves automatically whenever a compound has to clip its swap.

	FeePercent: 5, // Keep 5% of claimed yield as treasury.
	// Rationale: Funds gas rewards and future swap top-ups without materially diluting holders.

	MaxFeePercent: 10, // The owner can never take more than 10%.
	// Rationale: A hard ceiling holders can rely on; raising it is itself a visible governance action.

	GasReward: sdkmath.ZeroInt(), // No caller reward by default.
	// Rationale: The operator's keeper compounds; a reward is only needed once third parties are invited to call.

	MaxGasReward: sdkmath.NewInt(100000000), // At most 1 fee asset per compound.
	// Rationale: Caps the incentive so a caller cannot drain the treasury cut through the reward.

	// --- Supply & swap bounds ---
	MaxSupply: sdkmath.NewInt(100000000000000), // 1,000,000 shares at 8 decimals.
	// Rationale: Limits exposure while the vault is young; raised by governance as reserves grow.

	MaxSlippage: 10, // Accept at most 10% below the pair's spot quote.
	// Rationale: Yield swaps are small and infrequent; 10% absorbs thin liquidity but blocks sandwiching
	// of an entire week's yield.

	MaxSwapGas: sdkmath.NewInt(500000000000), // Swap at most 5000 fee asset per call.
	// Rationale: Larger swaps move the pair too much. Excess stays in the treasury and the compound
	// period halves so the remainder is swapped sooner in smaller slices.

	SwapPairFeeIndex: 0, // Resolved from the configured pair at install time.
}

// NewDefaultParameters returns DefaultVaultParameters owned by owner.
func NewDefaultParameters(owner types.Address) types.VaultParameters {
	params := DefaultVaultParameters
	params.Owner = owner
	return params
}
