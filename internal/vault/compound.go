/*

This file contains the Compounding Controller: harvesting fee-asset yield, keeping the treasury cut
and swapping the rest into wrapped reserves.

Compounding is rate limited by the compound period. When the yield to swap exceeds MaxSwapGas the
swap is clipped, the excess joins the treasury cut, and the period is halved so that later calls
harvest smaller amounts.

*/

package vault

import (
	"time"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/compounder/internal/config"
	"github.com/elys-network/compounder/internal/types"
)

// CompoundResult summarises a successful compound.
type CompoundResult struct {
	Claimed         sdkmath.Int
	WrappedReceived sdkmath.Int
	TreasuryCut     sdkmath.Int
	Throttled       bool
	NextCompoundAt  time.Time
}

// Compound claims accrued yield, keeps the treasury cut, swaps the rest for wrapped asset and pays
// the gas reward to caller. caller must witness the call and must not be a contract.
func (v *Vault) Compound(caller types.Address) (CompoundResult, error) {
	defer v.rt.Enter(v.self)()

	if err := validateAccount(caller); err != nil {
		return CompoundResult{}, err
	}
	if !v.rt.CheckWitness(caller) {
		return CompoundResult{}, errorsmod.Wrapf(types.ErrUnauthorized, "compound caller %s did not witness", caller)
	}
	if v.rt.IsContract(caller) {
		return CompoundResult{}, errorsmod.Wrapf(types.ErrUnauthorized, "compound caller %s is a contract", caller)
	}

	now := v.rt.Now()
	if next := v.params.Get().NextCompoundAt(); now.Before(next) {
		return CompoundResult{}, errorsmod.Wrapf(types.ErrPrecondition,
			"compound period has not elapsed: next compound at %s", next.UTC().Format(time.RFC3339))
	}
	v.params.MarkCompounded(now)

	claimed, err := v.claimYield()
	if err != nil {
		return CompoundResult{}, err
	}

	p := v.params.Get()
	treasuryCut := claimed.MulRaw(int64(p.FeePercent)).QuoRaw(config.Percent)
	toSwap := claimed.Sub(treasuryCut)

	throttled := false
	if toSwap.GT(p.MaxSwapGas) {
		toSwap = p.MaxSwapGas
		treasuryCut = claimed.Sub(toSwap)
		throttled = true
		v.params.HalveCompoundPeriod()
	}

	wrappedReceived := sdkmath.ZeroInt()
	if toSwap.IsPositive() {
		wrappedReceived, err = v.swapFeeForWrapped(toSwap)
		if err != nil {
			return CompoundResult{}, err
		}
	}

	if err := requireTransfer(v.refs.fee.Transfer(v.self, caller, p.GasReward, nil)); err != nil {
		return CompoundResult{}, errorsmod.Wrap(err, "pay gas reward")
	}

	v.rt.Emit(types.CompoundEvent{
		Caller:          caller,
		Claimed:         claimed,
		WrappedReceived: wrappedReceived,
		TreasuryCut:     treasuryCut,
	})

	result := CompoundResult{
		Claimed:         claimed,
		WrappedReceived: wrappedReceived,
		TreasuryCut:     treasuryCut,
		Throttled:       throttled,
		NextCompoundAt:  v.NextCompoundAt(),
	}

	v.logger.Info().
		Str("caller", string(caller)).
		Str("claimed", claimed.String()).
		Str("wrappedReceived", wrappedReceived.String()).
		Str("treasuryCut", treasuryCut.String()).
		Bool("throttled", throttled).
		Time("nextCompoundAt", result.NextCompoundAt).
		Msg("Compounded yield")

	return result, nil
}

// claimYield collects fee-asset yield from the delegate agent and the wrapped ledger and returns
// the fee-asset balance increase.
func (v *Vault) claimYield() (sdkmath.Int, error) {
	before := v.FeeReserves()

	if err := requireTransfer(v.refs.agent.ClaimYield()); err != nil {
		return sdkmath.ZeroInt(), errorsmod.Wrap(err, "claim delegate agent yield")
	}
	if err := requireTransfer(v.refs.wrapped.ClaimYield(v.self)); err != nil {
		return sdkmath.ZeroInt(), errorsmod.Wrap(err, "claim wrapped asset yield")
	}

	claimed := v.FeeReserves().Sub(before)
	if claimed.IsNegative() {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrCollaborator, "fee reserves decreased by %s while claiming", claimed.Neg())
	}
	return claimed, nil
}

// CompoundReserves swaps amount of retained fee asset into wrapped reserves. Owner only.
func (v *Vault) CompoundReserves(amount sdkmath.Int) (sdkmath.Int, error) {
	defer v.rt.Enter(v.self)()

	if err := v.params.RequireOwner(); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := validatePositive("amount", amount); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if feeReserves := v.FeeReserves(); amount.GT(feeReserves) {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrPrecondition, "amount %s exceeds fee reserves %s", amount, feeReserves)
	}
	if maxSwap := v.params.Get().MaxSwapGas; amount.GT(maxSwap) {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrPrecondition, "amount %s exceeds max swap gas %s", amount, maxSwap)
	}

	wrappedReceived, err := v.swapFeeForWrapped(amount)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	v.rt.Emit(types.CompoundReservesEvent{AmountIn: amount, WrappedReceived: wrappedReceived})
	return wrappedReceived, nil
}
