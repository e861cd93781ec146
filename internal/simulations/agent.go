package simulations

import (
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/elys-network/compounder/internal/chain"
	"github.com/elys-network/compounder/internal/config"
	"github.com/elys-network/compounder/internal/logger"
	"github.com/elys-network/compounder/internal/types"
)

// Agent holds base asset on behalf of a single vault, earns fee-asset yield on it and converts
// between base and wrapped asset on the vault's request.
type Agent struct {
	address types.Address
	vault   types.Address
	rt      chain.Runtime
	logger  zerolog.Logger

	base    *Token
	wrapped *WrappedToken
	fee     *Token
}

func NewAgent(rt chain.Runtime, address, vault types.Address, base *Token, wrapped *WrappedToken, fee *Token) *Agent {
	return &Agent{
		address: address,
		vault:   vault,
		rt:      rt,
		logger:  logger.GetForComponent("simulation").With().Str("contract", string(address)).Logger(),
		base:    base,
		wrapped: wrapped,
		fee:     fee,
	}
}

func (a *Agent) Address() types.Address { return a.address }

// AccrueYield issues amount of fee asset to the agent, standing in for delegation rewards.
func (a *Agent) AccrueYield(amount sdkmath.Int) error {
	return a.fee.Mint(a.address, amount)
}

func (a *Agent) ClaimYield() (bool, error) {
	defer a.rt.Enter(a.address)()

	if !a.rt.CheckWitness(a.vault) {
		return false, nil
	}
	return a.fee.Transfer(a.address, a.vault, a.fee.BalanceOf(a.address), nil)
}

func (a *Agent) WithdrawWrapped(baseQuantity sdkmath.Int) (bool, error) {
	defer a.rt.Enter(a.address)()

	if !a.rt.CheckWitness(a.vault) {
		return false, nil
	}
	if baseQuantity.IsNil() || baseQuantity.IsNegative() {
		return false, errorsmod.Wrap(types.ErrPrecondition, "base quantity must be non-negative")
	}
	if a.base.BalanceOf(a.address).LT(baseQuantity) {
		return false, nil
	}

	before := a.wrapped.BalanceOf(a.address)
	ok, err := a.base.Transfer(a.address, a.wrapped.Address(), baseQuantity, nil)
	if err != nil || !ok {
		return false, err
	}
	received := a.wrapped.BalanceOf(a.address).Sub(before)
	if expected := baseQuantity.Mul(a.wrapped.Multiplier()); !received.Equal(expected) {
		return false, errorsmod.Wrapf(types.ErrCollaborator, "wrapped %s, expected %s", received, expected)
	}

	a.logger.Debug().Str("baseQuantity", baseQuantity.String()).Msg("Wrapped base asset for vault")
	return a.wrapped.Transfer(a.address, a.vault, received, nil)
}

func (a *Agent) OnPayment(token, from types.Address, amount sdkmath.Int, _ *types.Payload) error {
	defer a.rt.Enter(a.address)()

	if caller := a.rt.CallingContract(); caller != token {
		return errorsmod.Wrapf(types.ErrUnauthorized, "payment notification for %s sent by %s", token, caller)
	}

	switch {
	case from.IsNull(), from == a.wrapped.Address():
		// Issuance, wrapping and unwrapping proceeds.
		return nil
	case from == a.vault && token == a.wrapped.Address():
		return a.unwrap(amount)
	case from == a.vault:
		// Base asset to delegate or fee asset to pay for unwrapping.
		return nil
	default:
		return errorsmod.Wrapf(types.ErrPrecondition, "agent only accepts payments from its vault, got %s from %s", token, from)
	}
}

// unwrap turns wrappedQuantity of the agent's wrapped asset back into base asset, paying the
// unwrap fee from the fee asset the vault sent beforehand.
func (a *Agent) unwrap(wrappedQuantity sdkmath.Int) error {
	multiplier := a.wrapped.Multiplier()
	if !wrappedQuantity.Mod(multiplier).IsZero() {
		return errorsmod.Wrapf(types.ErrPrecondition, "wrapped quantity %s is not a whole number of base units", wrappedQuantity)
	}
	baseQuantity := wrappedQuantity.Quo(multiplier)
	if baseQuantity.IsZero() {
		return nil
	}

	before := a.base.BalanceOf(a.address)
	ok, err := a.fee.Transfer(a.address, a.wrapped.Address(), baseQuantity.MulRaw(config.UnwrapFeePerBase), nil)
	if err != nil {
		return err
	}
	if !ok {
		return errorsmod.Wrap(types.ErrCollaborator, "agent cannot pay the unwrap fee")
	}
	if received := a.base.BalanceOf(a.address).Sub(before); !received.Equal(baseQuantity) {
		return errorsmod.Wrapf(types.ErrCollaborator, "unwrapped %s base units, expected %s", received, baseQuantity)
	}
	return nil
}
