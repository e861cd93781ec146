/*

This file contains the Parameter Store: the owner-governed settings of the vault.

Every setter requires the owner's witness, validates its value against the paired ceiling (or the
value it bounds) and emits a ParameterSet notification. Setters never partially apply.

*/

package params

import (
	"strconv"
	"time"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/compounder/internal/config"
	"github.com/elys-network/compounder/internal/types"
)

// Runtime is the part of the execution environment the store needs.
type Runtime interface {
	CheckWitness(account types.Address) bool
	Emit(event types.Event)
}

// Store holds the vault parameters.
type Store struct {
	rt     Runtime
	params types.VaultParameters
	supply func() sdkmath.Int
}

// NewStore validates initial and returns a store over it. supply reports the current share supply
// and bounds SetMaxSupply.
func NewStore(rt Runtime, initial types.VaultParameters, supply func() sdkmath.Int) (*Store, error) {
	if rt == nil {
		return nil, errorsmod.Wrap(types.ErrPrecondition, "runtime cannot be nil")
	}
	if supply == nil {
		return nil, errorsmod.Wrap(types.ErrPrecondition, "supply source cannot be nil")
	}
	if err := Validate(initial); err != nil {
		return nil, err
	}
	return &Store{rt: rt, params: initial, supply: supply}, nil
}

// Validate checks the relationships every parameter set must satisfy.
func Validate(p types.VaultParameters) error {
	switch {
	case p.Owner.IsNull():
		return errorsmod.Wrap(types.ErrPrecondition, "owner cannot be null")
	case p.CompoundPeriod < 0:
		return errorsmod.Wrap(types.ErrPrecondition, "compound period cannot be negative")
	case p.MaxFeePercent >= config.Percent:
		return errorsmod.Wrapf(types.ErrPrecondition, "max fee percent %d must be below %d", p.MaxFeePercent, config.Percent)
	case p.FeePercent > p.MaxFeePercent:
		return errorsmod.Wrapf(types.ErrPrecondition, "fee percent %d exceeds max fee percent %d", p.FeePercent, p.MaxFeePercent)
	case p.MaxSlippage >= config.Percent:
		return errorsmod.Wrapf(types.ErrPrecondition, "max slippage %d must be below %d", p.MaxSlippage, config.Percent)
	case p.GasReward.IsNil() || p.MaxGasReward.IsNil() || p.MaxSupply.IsNil() || p.MaxSwapGas.IsNil():
		return errorsmod.Wrap(types.ErrPrecondition, "amount parameters must be set")
	case p.GasReward.IsNegative() || p.MaxGasReward.IsNegative() || p.MaxSupply.IsNegative() || p.MaxSwapGas.IsNegative():
		return errorsmod.Wrap(types.ErrPrecondition, "amount parameters cannot be negative")
	case p.GasReward.GT(p.MaxGasReward):
		return errorsmod.Wrapf(types.ErrPrecondition, "gas reward %s exceeds max gas reward %s", p.GasReward, p.MaxGasReward)
	case p.SwapPairFeeIndex != 0 && p.SwapPairFeeIndex != 1:
		return errorsmod.Wrapf(types.ErrPrecondition, "swap pair fee index %d must be 0 or 1", p.SwapPairFeeIndex)
	}
	return nil
}

// Get returns a copy of the current parameters.
func (s *Store) Get() types.VaultParameters {
	return s.params
}

// Owner returns the governance account.
func (s *Store) Owner() types.Address {
	return s.params.Owner
}

// RequireOwner fails unless the owner witnessed the current call.
func (s *Store) RequireOwner() error {
	if !s.rt.CheckWitness(s.params.Owner) {
		return errorsmod.Wrap(types.ErrUnauthorized, "owner witness required")
	}
	return nil
}

// SetOwner hands governance to newOwner. Both the current and the new owner must witness.
func (s *Store) SetOwner(newOwner types.Address) error {
	if err := s.RequireOwner(); err != nil {
		return err
	}
	if newOwner.IsNull() {
		return errorsmod.Wrap(types.ErrPrecondition, "new owner cannot be null")
	}
	if !s.rt.CheckWitness(newOwner) {
		return errorsmod.Wrap(types.ErrUnauthorized, "new owner witness required")
	}
	s.params.Owner = newOwner
	s.emit("Owner", string(newOwner))
	return nil
}

func (s *Store) SetCompoundPeriod(period time.Duration) error {
	if err := s.RequireOwner(); err != nil {
		return err
	}
	if period <= 0 {
		return errorsmod.Wrapf(types.ErrPrecondition, "compound period %s must be positive", period)
	}
	s.params.CompoundPeriod = period
	s.emitPeriod()
	return nil
}

func (s *Store) SetFeePercent(percent uint64) error {
	if err := s.RequireOwner(); err != nil {
		return err
	}
	if percent == 0 {
		return errorsmod.Wrap(types.ErrPrecondition, "fee percent must be positive")
	}
	if percent > s.params.MaxFeePercent {
		return errorsmod.Wrapf(types.ErrPrecondition, "fee percent %d exceeds max fee percent %d", percent, s.params.MaxFeePercent)
	}
	s.params.FeePercent = percent
	s.emit("FeePercent", strconv.FormatUint(percent, 10))
	return nil
}

func (s *Store) SetMaxFeePercent(percent uint64) error {
	if err := s.RequireOwner(); err != nil {
		return err
	}
	if percent == 0 {
		return errorsmod.Wrap(types.ErrPrecondition, "max fee percent must be positive")
	}
	if percent >= config.Percent {
		return errorsmod.Wrapf(types.ErrPrecondition, "max fee percent %d must be below %d", percent, config.Percent)
	}
	if percent < s.params.FeePercent {
		return errorsmod.Wrapf(types.ErrPrecondition, "max fee percent %d is below current fee percent %d", percent, s.params.FeePercent)
	}
	s.params.MaxFeePercent = percent
	s.emit("MaxFeePercent", strconv.FormatUint(percent, 10))
	return nil
}

func (s *Store) SetGasReward(reward sdkmath.Int) error {
	if err := s.RequireOwner(); err != nil {
		return err
	}
	if err := requirePositive("gas reward", reward); err != nil {
		return err
	}
	if reward.GT(s.params.MaxGasReward) {
		return errorsmod.Wrapf(types.ErrPrecondition, "gas reward %s exceeds max gas reward %s", reward, s.params.MaxGasReward)
	}
	s.params.GasReward = reward
	s.emit("GasReward", reward.String())
	return nil
}

func (s *Store) SetMaxGasReward(reward sdkmath.Int) error {
	if err := s.RequireOwner(); err != nil {
		return err
	}
	if err := requirePositive("max gas reward", reward); err != nil {
		return err
	}
	if reward.LT(s.params.GasReward) {
		return errorsmod.Wrapf(types.ErrPrecondition, "max gas reward %s is below current gas reward %s", reward, s.params.GasReward)
	}
	s.params.MaxGasReward = reward
	s.emit("MaxGasReward", reward.String())
	return nil
}

func (s *Store) SetMaxSupply(maxSupply sdkmath.Int) error {
	if err := s.RequireOwner(); err != nil {
		return err
	}
	if err := requirePositive("max supply", maxSupply); err != nil {
		return err
	}
	if supply := s.supply(); maxSupply.LT(supply) {
		return errorsmod.Wrapf(types.ErrPrecondition, "max supply %s is below current supply %s", maxSupply, supply)
	}
	s.params.MaxSupply = maxSupply
	s.emit("MaxSupply", maxSupply.String())
	return nil
}

func (s *Store) SetMaxSwapGas(amount sdkmath.Int) error {
	if err := s.RequireOwner(); err != nil {
		return err
	}
	if err := requirePositive("max swap gas", amount); err != nil {
		return err
	}
	s.params.MaxSwapGas = amount
	s.emit("MaxSwapGas", amount.String())
	return nil
}

func (s *Store) SetMaxSlippage(percent uint64) error {
	if err := s.RequireOwner(); err != nil {
		return err
	}
	if percent == 0 {
		return errorsmod.Wrap(types.ErrPrecondition, "max slippage must be positive")
	}
	if percent >= config.Percent {
		return errorsmod.Wrapf(types.ErrPrecondition, "max slippage %d must be below %d", percent, config.Percent)
	}
	s.params.MaxSlippage = percent
	s.emit("MaxSlippage", strconv.FormatUint(percent, 10))
	return nil
}

// SetSwapPairFeeIndex records which side of the swap pair holds the fee asset. The caller is
// responsible for authorisation; the vault sets it together with the pair reference.
func (s *Store) SetSwapPairFeeIndex(index int) error {
	if index != 0 && index != 1 {
		return errorsmod.Wrapf(types.ErrPrecondition, "swap pair fee index %d must be 0 or 1", index)
	}
	s.params.SwapPairFeeIndex = index
	return nil
}

// MarkCompounded records now as the time of the latest compound.
func (s *Store) MarkCompounded(now time.Time) {
	s.params.LastCompounded = now
}

// HalveCompoundPeriod halves the period, flooring to whole milliseconds. Repeated halving reaches
// zero, after which compound is always due.
func (s *Store) HalveCompoundPeriod() {
	s.params.CompoundPeriod = (s.params.CompoundPeriod / 2).Truncate(time.Millisecond)
	s.emitPeriod()
}

// Snapshot captures the parameters.
func (s *Store) Snapshot() types.VaultParameters {
	return s.params
}

// Restore replaces the parameters with a snapshot taken earlier.
func (s *Store) Restore(snapshot types.VaultParameters) {
	s.params = snapshot
}

func (s *Store) emitPeriod() {
	s.emit("CompoundPeriod", strconv.FormatInt(s.params.CompoundPeriod.Milliseconds(), 10))
}

func (s *Store) emit(name, value string) {
	s.rt.Emit(types.ParameterSetEvent{Name: name, Value: value})
}

func requirePositive(name string, amount sdkmath.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return errorsmod.Wrapf(types.ErrPrecondition, "%s must be positive", name)
	}
	return nil
}
