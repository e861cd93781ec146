/*

This file contains an in-memory fungible asset ledger with the transfer semantics the vault relies
on: witness-checked transfers that return false instead of failing, Transfer notifications, and a
synchronous payment callback on contract recipients.

*/

package simulations

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/compounder/internal/chain"
	"github.com/elys-network/compounder/internal/ledger"
	"github.com/elys-network/compounder/internal/types"
)

// Token is a fungible asset ledger deployed on a host.
type Token struct {
	address  types.Address
	symbol   string
	decimals uint32
	rt       chain.Runtime
	ledger   *ledger.Ledger
}

// NewToken creates an empty ledger for asset.
func NewToken(rt chain.Runtime, asset types.AssetInfo) *Token {
	return &Token{
		address:  asset.Address,
		symbol:   asset.Symbol,
		decimals: asset.Decimals,
		rt:       rt,
		ledger:   ledger.New(),
	}
}

func (t *Token) Address() types.Address { return t.address }

func (t *Token) Symbol() string { return t.symbol }

func (t *Token) Decimals() uint32 { return t.decimals }

func (t *Token) BalanceOf(account types.Address) sdkmath.Int { return t.ledger.BalanceOf(account) }

func (t *Token) TotalSupply() sdkmath.Int { return t.ledger.TotalSupply() }

// Holders returns every account with a balance.
func (t *Token) Holders() []types.Address { return t.ledger.Accounts() }

func (t *Token) Transfer(from, to types.Address, amount sdkmath.Int, payload *types.Payload) (bool, error) {
	defer t.rt.Enter(t.address)()

	if from.IsNull() || to.IsNull() {
		return false, errorsmod.Wrapf(types.ErrPrecondition, "%s transfer endpoints cannot be null", t.symbol)
	}
	if amount.IsNil() || amount.IsNegative() {
		return false, errorsmod.Wrapf(types.ErrPrecondition, "%s transfer amount must be non-negative", t.symbol)
	}
	if !t.rt.CheckWitness(from) {
		return false, nil
	}
	moved, err := t.ledger.Move(from, to, amount)
	if err != nil || !moved {
		return false, err
	}

	t.rt.Emit(types.TransferEvent{From: from, To: to, Amount: amount})
	if err := t.notify(from, to, amount, payload); err != nil {
		return false, err
	}
	return true, nil
}

// Mint issues amount to account on behalf of the platform; the recipient sees a null sender.
func (t *Token) Mint(account types.Address, amount sdkmath.Int) error {
	defer t.rt.Enter(t.address)()

	if err := t.ledger.Mint(account, amount); err != nil {
		return err
	}
	t.rt.Emit(types.TransferEvent{From: types.NullAddress, To: account, Amount: amount})
	return t.notify(types.NullAddress, account, amount, nil)
}

// burn destroys amount held by account.
func (t *Token) burn(account types.Address, amount sdkmath.Int) error {
	if err := t.ledger.Burn(account, amount); err != nil {
		return err
	}
	t.rt.Emit(types.TransferEvent{From: account, To: types.NullAddress, Amount: amount})
	return nil
}

func (t *Token) notify(from, to types.Address, amount sdkmath.Int, payload *types.Payload) error {
	if !t.rt.IsContract(to) {
		return nil
	}
	receiver, ok := chain.Receiver(t.rt, to)
	if !ok {
		return errorsmod.Wrapf(types.ErrCollaborator, "contract %s does not accept %s", to, t.symbol)
	}
	return receiver.OnPayment(t.address, from, amount, payload)
}

func (t *Token) Snapshot() any { return t.ledger.Snapshot() }

func (t *Token) Restore(snapshot any) {
	snap, ok := snapshot.(ledger.Snapshot)
	if !ok {
		panic(fmt.Errorf("%w: %T", chain.ErrUnexpectedSnapshot, snapshot))
	}
	t.ledger.Restore(snap)
}
