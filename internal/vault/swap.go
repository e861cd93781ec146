package vault

import (
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/compounder/internal/config"
	"github.com/elys-network/compounder/internal/types"
)

// MinWrappedOut returns the least wrapped asset a swap of feeQuantity must yield: the pair's spot
// quote reduced by MaxSlippage percent.
func (v *Vault) MinWrappedOut(feeQuantity sdkmath.Int) (sdkmath.Int, error) {
	if err := validateNonNegative("fee quantity", feeQuantity); err != nil {
		return sdkmath.ZeroInt(), err
	}
	p := v.params.Get()
	reserve0, reserve1 := v.refs.pair.Reserves()
	feeReserve, wrappedReserve := reserve0, reserve1
	if p.SwapPairFeeIndex == 1 {
		feeReserve, wrappedReserve = reserve1, reserve0
	}
	if !feeReserve.IsPositive() {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrPrecondition, "swap pair %s has no fee-asset liquidity", v.refs.pair.Address())
	}

	scaled, err := mulChecked("spot quote", feeQuantity, wrappedReserve)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	quote := scaled.Quo(feeReserve)
	bounded, err := mulChecked("slippage bound", quote, sdkmath.NewInt(int64(config.Percent-p.MaxSlippage)))
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return bounded.QuoRaw(config.Percent), nil
}

// swapFeeForWrapped swaps feeQuantity of the fee asset for wrapped asset through the router and
// returns the wrapped quantity received.
func (v *Vault) swapFeeForWrapped(feeQuantity sdkmath.Int) (sdkmath.Int, error) {
	if err := validateNonNegative("fee quantity", feeQuantity); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if maxSwap := v.params.Get().MaxSwapGas; feeQuantity.GT(maxSwap) {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrPrecondition, "swap of %s exceeds max swap gas %s", feeQuantity, maxSwap)
	}

	minOut, err := v.MinWrappedOut(feeQuantity)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}

	before := v.refs.wrapped.BalanceOf(v.self)
	path := []types.Address{v.refs.fee.Address(), v.refs.wrapped.Address()}
	deadline := v.rt.Now().Add(config.SwapDeadline)

	v.grant = &swapGrant{amount: feeQuantity, consumer: v.refs.pair.Address()}
	ok, err := v.refs.router.SwapTokenInForTokenOut(feeQuantity, minOut, path, deadline)
	// The grant never outlives the router call, used or not.
	v.grant = nil
	if err := requireTransfer(ok, err); err != nil {
		return sdkmath.ZeroInt(), errorsmod.Wrap(err, "swap fee asset for wrapped asset")
	}

	received := v.refs.wrapped.BalanceOf(v.self).Sub(before)
	if received.LT(minOut) {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrCollaborator,
			"swap returned %s wrapped units, below minimum %s", received, minOut)
	}

	v.logger.Debug().
		Str("feeQuantity", feeQuantity.String()).
		Str("minOut", minOut.String()).
		Str("received", received.String()).
		Msg("Swapped fee asset for wrapped asset")

	return received, nil
}

// ApprovedTransfer lets the DEX router pull the fee asset approved for the swap in progress. The
// grant covers one transfer of at most the approved amount to the swap pair.
func (v *Vault) ApprovedTransfer(token, to types.Address, amount sdkmath.Int, payload *types.Payload) (bool, error) {
	defer v.rt.Enter(v.self)()

	if token != v.refs.fee.Address() {
		return false, errorsmod.Wrapf(types.ErrUnauthorized, "approved transfers are limited to the fee asset, got %s", token)
	}
	if err := validateNonNegative("amount", amount); err != nil {
		return false, err
	}
	grant := v.grant
	if grant == nil {
		return false, errorsmod.Wrap(types.ErrUnauthorized, "no swap in progress")
	}
	if caller := v.rt.CallingContract(); caller != v.refs.router.Address() {
		return false, errorsmod.Wrapf(types.ErrUnauthorized, "approved transfers can only be pulled by router %s, got %s", v.refs.router.Address(), caller)
	}
	if to != grant.consumer {
		return false, errorsmod.Wrapf(types.ErrUnauthorized, "approved transfer must go to %s, got %s", grant.consumer, to)
	}
	if amount.GT(grant.amount) {
		return false, errorsmod.Wrapf(types.ErrUnauthorized, "amount %s exceeds approved %s", amount, grant.amount)
	}
	v.grant = nil

	return v.refs.fee.Transfer(v.self, to, amount, payload)
}
