package vault

import (
	"time"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/compounder/internal/chain"
	"github.com/elys-network/compounder/internal/config"
	"github.com/elys-network/compounder/internal/types"
)

// ConvertToWrapped draws baseQuantity of the delegate agent's base asset back as wrapped reserves.
func (v *Vault) ConvertToWrapped(baseQuantity sdkmath.Int) error {
	defer v.rt.Enter(v.self)()

	if err := v.params.RequireOwner(); err != nil {
		return err
	}
	if err := validatePositive("base quantity", baseQuantity); err != nil {
		return err
	}
	if _, err := v.drawWrapped(baseQuantity); err != nil {
		return err
	}
	v.rt.Emit(types.ConvertToWrappedEvent{BaseAmount: baseQuantity})
	return nil
}

// ConvertToBase hands baseQuantity worth of wrapped reserves to the delegate agent, together with
// the fee asset the wrapped ledger charges for unwrapping.
func (v *Vault) ConvertToBase(baseQuantity sdkmath.Int) error {
	defer v.rt.Enter(v.self)()

	if err := v.params.RequireOwner(); err != nil {
		return err
	}
	if err := validatePositive("base quantity", baseQuantity); err != nil {
		return err
	}

	oracle := v.Oracle()
	wrappedQuantity, err := mulChecked("wrapped value of base quantity", baseQuantity, oracle.Multiplier())
	if err != nil {
		return err
	}
	if wrappedReserves := oracle.WrappedReserves(); wrappedQuantity.GT(wrappedReserves) {
		return errorsmod.Wrapf(types.ErrPrecondition, "converting %s wrapped units exceeds wrapped reserves %s", wrappedQuantity, wrappedReserves)
	}
	feeQuantity, err := mulChecked("unwrap fee", baseQuantity, sdkmath.NewInt(config.UnwrapFeePerBase))
	if err != nil {
		return err
	}
	if feeReserves := v.FeeReserves(); feeQuantity.GT(feeReserves) {
		return errorsmod.Wrapf(types.ErrPrecondition, "unwrap fee %s exceeds fee reserves %s", feeQuantity, feeReserves)
	}

	agent := v.refs.agent.Address()
	if err := requireTransfer(v.refs.fee.Transfer(v.self, agent, feeQuantity, nil)); err != nil {
		return errorsmod.Wrap(err, "send unwrap fee to delegate agent")
	}
	if err := requireTransfer(v.refs.wrapped.Transfer(v.self, agent, wrappedQuantity, nil)); err != nil {
		return errorsmod.Wrap(err, "send wrapped asset to delegate agent")
	}

	v.rt.Emit(types.ConvertToBaseEvent{BaseAmount: baseQuantity})
	return nil
}

// WithdrawFee pays amount of retained fee asset to account. Both the owner and account must witness.
func (v *Vault) WithdrawFee(account types.Address, amount sdkmath.Int) error {
	defer v.rt.Enter(v.self)()

	if err := v.params.RequireOwner(); err != nil {
		return err
	}
	if err := validateAccount(account); err != nil {
		return err
	}
	if !v.rt.CheckWitness(account) {
		return errorsmod.Wrapf(types.ErrUnauthorized, "recipient %s did not witness", account)
	}
	if err := validateNonNegative("amount", amount); err != nil {
		return err
	}
	if feeReserves := v.FeeReserves(); amount.GT(feeReserves) {
		return errorsmod.Wrapf(types.ErrPrecondition, "amount %s exceeds fee reserves %s", amount, feeReserves)
	}

	if err := requireTransfer(v.refs.fee.Transfer(v.self, account, amount, nil)); err != nil {
		return errorsmod.Wrap(err, "withdraw fee asset")
	}
	v.rt.Emit(types.WithdrawFeeEvent{Account: account, Amount: amount})
	return nil
}

// --- Parameter Store entry points ---

func (v *Vault) SetOwner(newOwner types.Address) error {
	defer v.rt.Enter(v.self)()
	return v.params.SetOwner(newOwner)
}

func (v *Vault) SetCompoundPeriod(period time.Duration) error {
	defer v.rt.Enter(v.self)()
	return v.params.SetCompoundPeriod(period)
}

func (v *Vault) SetFeePercent(percent uint64) error {
	defer v.rt.Enter(v.self)()
	return v.params.SetFeePercent(percent)
}

func (v *Vault) SetMaxFeePercent(percent uint64) error {
	defer v.rt.Enter(v.self)()
	return v.params.SetMaxFeePercent(percent)
}

func (v *Vault) SetGasReward(reward sdkmath.Int) error {
	defer v.rt.Enter(v.self)()
	return v.params.SetGasReward(reward)
}

func (v *Vault) SetMaxGasReward(reward sdkmath.Int) error {
	defer v.rt.Enter(v.self)()
	return v.params.SetMaxGasReward(reward)
}

func (v *Vault) SetMaxSupply(maxSupply sdkmath.Int) error {
	defer v.rt.Enter(v.self)()
	return v.params.SetMaxSupply(maxSupply)
}

func (v *Vault) SetMaxSwapGas(amount sdkmath.Int) error {
	defer v.rt.Enter(v.self)()
	return v.params.SetMaxSwapGas(amount)
}

func (v *Vault) SetMaxSlippage(percent uint64) error {
	defer v.rt.Enter(v.self)()
	return v.params.SetMaxSlippage(percent)
}

// --- Collaborator references ---

func (v *Vault) SetWrappedAsset(wrapped WrappedAsset) error {
	defer v.rt.Enter(v.self)()
	if err := v.requireContractReference(wrapped); err != nil {
		return err
	}
	v.refs.wrapped = wrapped
	v.emitReference("WrappedAsset", wrapped.Address())
	return nil
}

func (v *Vault) SetDelegateAgent(agent DelegateAgent) error {
	defer v.rt.Enter(v.self)()
	if err := v.requireContractReference(agent); err != nil {
		return err
	}
	v.refs.agent = agent
	v.emitReference("DelegateAgent", agent.Address())
	return nil
}

// SetSwapPair replaces the DEX pair. The pair must trade the fee asset.
func (v *Vault) SetSwapPair(pair SwapPair) error {
	defer v.rt.Enter(v.self)()
	if err := v.requireContractReference(pair); err != nil {
		return err
	}
	index, err := feeIndexOf(pair, v.refs.fee.Address())
	if err != nil {
		return err
	}
	if err := v.params.SetSwapPairFeeIndex(index); err != nil {
		return err
	}
	v.refs.pair = pair
	v.emitReference("SwapPair", pair.Address())
	return nil
}

func (v *Vault) SetSwapRouter(router SwapRouter) error {
	defer v.rt.Enter(v.self)()
	if err := v.requireContractReference(router); err != nil {
		return err
	}
	v.refs.router = router
	v.emitReference("SwapRouter", router.Address())
	return nil
}

type addressed interface {
	Address() types.Address
}

func (v *Vault) requireContractReference(ref addressed) error {
	if err := v.params.RequireOwner(); err != nil {
		return err
	}
	if ref == nil {
		return errorsmod.Wrap(types.ErrPrecondition, "reference cannot be nil")
	}
	if address := ref.Address(); !v.rt.IsContract(address) {
		return errorsmod.Wrapf(types.ErrPrecondition, "%s is not a deployed contract", address)
	}
	return nil
}

func (v *Vault) emitReference(name string, address types.Address) {
	v.rt.Emit(types.ParameterSetEvent{Name: name, Value: string(address)})
}

var (
	_ chain.PaymentReceiver = (*Vault)(nil)
	_ chain.ApprovedPayer   = (*Vault)(nil)
	_ chain.Snapshotter     = (*Vault)(nil)
	_ Token                 = (*Vault)(nil)
)
