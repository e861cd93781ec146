/*

This file contains the Reserve Oracle: the valuation of the vault in wrapped-asset base units and
the share price derived from it.

Reserves are always read live from the asset ledgers and never cached, so the valuation reflects
balances changed by callbacks earlier in the same invocation.

*/

package reserves

import (
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/compounder/internal/types"
	"github.com/elys-network/compounder/internal/utils"
)

// FloatMultiplier is the fixed-point scale of the reserve ratio.
var FloatMultiplier = utils.Pow10(18)

// BalanceQuerier reads the balance of an account on an asset ledger.
type BalanceQuerier interface {
	BalanceOf(account types.Address) sdkmath.Int
}

// Oracle values the vault.
type Oracle struct {
	// Wrapped is the wrapped-asset ledger and WrappedDecimals its precision.
	Wrapped         BalanceQuerier
	WrappedDecimals uint32
	// Base is the base-asset ledger.
	Base BalanceQuerier
	// Vault holds the wrapped reserves, Delegate holds the base reserves.
	Vault    types.Address
	Delegate types.Address
	// Supply reports the outstanding shares.
	Supply func() sdkmath.Int
}

// Multiplier converts one base-asset unit into wrapped-asset base units.
func (o Oracle) Multiplier() sdkmath.Int {
	return utils.Pow10(o.WrappedDecimals)
}

// WrappedReserves is the wrapped asset held by the vault.
func (o Oracle) WrappedReserves() sdkmath.Int {
	return o.Wrapped.BalanceOf(o.Vault)
}

// BaseReserves is the base asset held by the delegate agent on behalf of the vault.
func (o Oracle) BaseReserves() sdkmath.Int {
	return o.Base.BalanceOf(o.Delegate)
}

// TotalReserves is the vault's value in wrapped-asset base units.
func (o Oracle) TotalReserves() sdkmath.Int {
	return Total(o.WrappedReserves(), o.BaseReserves(), o.Multiplier())
}

// ReserveRatio is the value of one share, scaled by FloatMultiplier.
func (o Oracle) ReserveRatio() sdkmath.Int {
	return Ratio(o.TotalReserves(), o.Supply())
}

// SafeReserveRatio is ReserveRatio with overflow reported as ErrPrecondition instead of a panic.
func (o Oracle) SafeReserveRatio() (sdkmath.Int, error) {
	total, err := SafeTotal(o.WrappedReserves(), o.BaseReserves(), o.Multiplier())
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return SafeRatio(total, o.Supply())
}

// RatioBeforeDeposit prices shares as if the deposit of depositQuantity wrapped units, already
// credited to the vault, had not happened yet.
func (o Oracle) RatioBeforeDeposit(depositQuantity sdkmath.Int) (sdkmath.Int, error) {
	previousWrapped := o.WrappedReserves().Sub(depositQuantity)
	if previousWrapped.IsNegative() {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrPrecondition,
			"deposit %s exceeds wrapped reserves %s", depositQuantity, o.WrappedReserves())
	}
	total, err := SafeTotal(previousWrapped, o.BaseReserves(), o.Multiplier())
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return SafeRatio(total, o.Supply())
}

// Total combines wrapped reserves with base reserves converted at multiplier.
func Total(wrapped, base, multiplier sdkmath.Int) sdkmath.Int {
	return wrapped.Add(base.Mul(multiplier))
}

// Ratio returns FloatMultiplier * total / supply, or FloatMultiplier when there are no shares.
func Ratio(total, supply sdkmath.Int) sdkmath.Int {
	if supply.IsZero() {
		return FloatMultiplier
	}
	return FloatMultiplier.Mul(total).Quo(supply)
}

// SafeTotal is Total for mutating paths, where an overflow must abort the invocation cleanly.
func SafeTotal(wrapped, base, multiplier sdkmath.Int) (sdkmath.Int, error) {
	converted, err := base.SafeMul(multiplier)
	if err != nil {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrPrecondition, "base reserves %s: %s", base, err)
	}
	total, err := wrapped.SafeAdd(converted)
	if err != nil {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrPrecondition, "total reserves: %s", err)
	}
	return total, nil
}

// SafeRatio is Ratio for mutating paths.
func SafeRatio(total, supply sdkmath.Int) (sdkmath.Int, error) {
	if supply.IsZero() {
		return FloatMultiplier, nil
	}
	scaled, err := FloatMultiplier.SafeMul(total)
	if err != nil {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrPrecondition, "reserve ratio of %s: %s", total, err)
	}
	return scaled.Quo(supply), nil
}
