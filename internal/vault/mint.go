/*

This file contains the Mint/Burn Engine: conversion between deposited assets and shares.

Shares are priced with the reserve ratio in effect before the deposit arrived, so a depositor never
pays for (or benefits from) their own deposit. Redemptions release at most the total reserves.

*/

package vault

import (
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/compounder/internal/reserves"
	"github.com/elys-network/compounder/internal/types"
	"github.com/elys-network/compounder/internal/utils"
)

// depositWrapped mints shares to account for wrappedQuantity wrapped units the vault has already
// received.
func (v *Vault) depositWrapped(account types.Address, wrappedQuantity sdkmath.Int) (sdkmath.Int, error) {
	if err := validateAccount(account); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := validateNonNegative("wrapped quantity", wrappedQuantity); err != nil {
		return sdkmath.ZeroInt(), err
	}

	ratio, err := v.Oracle().RatioBeforeDeposit(wrappedQuantity)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if !ratio.IsPositive() {
		return sdkmath.ZeroInt(), errorsmod.Wrap(types.ErrPrecondition, "vault has shares but no reserves")
	}

	// As total reserves grow, each wrapped unit buys fewer shares.
	scaled, err := mulChecked("share price of deposit", reserves.FloatMultiplier, wrappedQuantity)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	shareQuantity := scaled.Quo(ratio)

	maxSupply := v.params.Get().MaxSupply
	newSupply, err := v.shares.TotalSupply().SafeAdd(shareQuantity)
	if err != nil {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrPrecondition, "share supply: %s", err)
	}
	if newSupply.GT(maxSupply) {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrPrecondition,
			"minting %s shares would raise supply to %s above max supply %s", shareQuantity, newSupply, maxSupply)
	}

	if err := v.mintShares(account, shareQuantity); err != nil {
		return sdkmath.ZeroInt(), err
	}

	v.logger.Info().
		Str("account", string(account)).
		Str("wrappedQuantity", wrappedQuantity.String()).
		Str("shareQuantity", shareQuantity.String()).
		Str("ratio", ratio.String()).
		Msg("Shares minted for deposit")

	return shareQuantity, nil
}

// depositBase wraps baseQuantity of base asset received from account and mints shares for the
// wrapped asset obtained.
func (v *Vault) depositBase(account types.Address, baseQuantity sdkmath.Int) (sdkmath.Int, error) {
	if err := validateAccount(account); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := validateNonNegative("base quantity", baseQuantity); err != nil {
		return sdkmath.ZeroInt(), err
	}

	before := v.refs.wrapped.BalanceOf(v.self)
	// The wrapped ledger mints wrapped asset to the sender of base asset.
	if err := requireTransfer(v.refs.base.Transfer(v.self, v.refs.wrapped.Address(), baseQuantity, nil)); err != nil {
		return sdkmath.ZeroInt(), errorsmod.Wrap(err, "wrap base deposit")
	}
	wrappedQuantity := v.refs.wrapped.BalanceOf(v.self).Sub(before)

	return v.depositWrapped(account, wrappedQuantity)
}

// redeem burns shareQuantity shares the vault received from account and sends account the
// wrapped asset they are worth.
func (v *Vault) redeem(account types.Address, shareQuantity sdkmath.Int) (sdkmath.Int, error) {
	if err := validateAccount(account); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := validateNonNegative("share quantity", shareQuantity); err != nil {
		return sdkmath.ZeroInt(), err
	}

	oracle := v.Oracle()
	ratio, err := oracle.SafeReserveRatio()
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	scaled, err := mulChecked("release of redemption", ratio, shareQuantity)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	computed := scaled.Quo(reserves.FloatMultiplier)
	// Rounding of the ratio can push the computed release above what the vault owns.
	release := sdkmath.MinInt(computed, oracle.TotalReserves())

	if err := v.burnShares(v.self, shareQuantity); err != nil {
		return sdkmath.ZeroInt(), err
	}

	if wrappedReserves := oracle.WrappedReserves(); release.GT(wrappedReserves) {
		missing := release.Sub(wrappedReserves)
		baseQuantity, err := utils.CeilDiv(missing, oracle.Multiplier())
		if err != nil {
			return sdkmath.ZeroInt(), errorsmod.Wrap(types.ErrPrecondition, err.Error())
		}
		if _, err := v.drawWrapped(baseQuantity); err != nil {
			return sdkmath.ZeroInt(), err
		}
	}

	if err := requireTransfer(v.refs.wrapped.Transfer(v.self, account, release, nil)); err != nil {
		return sdkmath.ZeroInt(), errorsmod.Wrap(err, "release wrapped asset")
	}

	v.logger.Info().
		Str("account", string(account)).
		Str("shareQuantity", shareQuantity.String()).
		Str("released", release.String()).
		Msg("Shares redeemed")

	return release, nil
}

// drawWrapped converts baseQuantity of the delegate agent's base asset into wrapped asset held by
// the vault and checks that exactly baseQuantity * multiplier wrapped units arrived.
func (v *Vault) drawWrapped(baseQuantity sdkmath.Int) (sdkmath.Int, error) {
	oracle := v.Oracle()
	if baseReserves := oracle.BaseReserves(); baseQuantity.GT(baseReserves) {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrPrecondition,
			"base quantity %s exceeds base reserves %s", baseQuantity, baseReserves)
	}

	before := oracle.WrappedReserves()
	if err := requireTransfer(v.refs.agent.WithdrawWrapped(baseQuantity)); err != nil {
		return sdkmath.ZeroInt(), errorsmod.Wrap(err, "withdraw wrapped from delegate agent")
	}
	received := oracle.WrappedReserves().Sub(before)

	expected, err := mulChecked("wrapped value of base quantity", baseQuantity, oracle.Multiplier())
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if !received.Equal(expected) {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrCollaborator,
			"delegate agent sent %s wrapped units, expected %s", received, expected)
	}
	return received, nil
}

// requireTransfer turns a refused collaborator call into an error.
func requireTransfer(ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		return errorsmod.Wrap(types.ErrCollaborator, "collaborator refused the call")
	}
	return nil
}

// mulChecked multiplies a by b, reporting an overflow as a precondition failure so the invocation
// rolls back instead of panicking.
func mulChecked(what string, a, b sdkmath.Int) (sdkmath.Int, error) {
	product, err := a.SafeMul(b)
	if err != nil {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrPrecondition, "%s: %s", what, err)
	}
	return product, nil
}

func validateAccount(account types.Address) error {
	if account.IsNull() {
		return errorsmod.Wrap(types.ErrPrecondition, "account cannot be null")
	}
	return nil
}

func validateNonNegative(name string, amount sdkmath.Int) error {
	if amount.IsNil() || amount.IsNegative() {
		return errorsmod.Wrapf(types.ErrPrecondition, "%s must be non-negative", name)
	}
	return nil
}

func validatePositive(name string, amount sdkmath.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return errorsmod.Wrapf(types.ErrPrecondition, "%s must be positive", name)
	}
	return nil
}
