package simulations

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/compounder/internal/chain"
	"github.com/elys-network/compounder/internal/config"
	"github.com/elys-network/compounder/internal/ledger"
	"github.com/elys-network/compounder/internal/types"
	"github.com/elys-network/compounder/internal/utils"
)

// WrappedToken wraps the base asset 1:10^decimals and pays fee-asset yield to its holders.
//
// Sending base asset to it mints wrapped asset to the sender. Sending fee asset to it unwraps
// fee / config.UnwrapFeePerBase base units of the sender's wrapped asset.
type WrappedToken struct {
	*Token
	base *Token
	fee  *Token

	pending map[types.Address]sdkmath.Int
}

type wrappedSnapshot struct {
	ledger  ledger.Snapshot
	pending map[types.Address]sdkmath.Int
}

func NewWrappedToken(rt chain.Runtime, asset types.AssetInfo, base, fee *Token) *WrappedToken {
	return &WrappedToken{
		Token:   NewToken(rt, asset),
		base:    base,
		fee:     fee,
		pending: make(map[types.Address]sdkmath.Int),
	}
}

// Multiplier is the number of wrapped base units per base unit.
func (w *WrappedToken) Multiplier() sdkmath.Int {
	return utils.Pow10(w.decimals)
}

// AccrueYield issues amount of fee asset to the ledger, claimable by account.
func (w *WrappedToken) AccrueYield(account types.Address, amount sdkmath.Int) error {
	if err := w.fee.Mint(w.address, amount); err != nil {
		return err
	}
	current, ok := w.pending[account]
	if !ok {
		current = sdkmath.ZeroInt()
	}
	w.pending[account] = current.Add(amount)
	return nil
}

// PendingYield returns the fee asset claimable by account.
func (w *WrappedToken) PendingYield(account types.Address) sdkmath.Int {
	if amount, ok := w.pending[account]; ok {
		return amount
	}
	return sdkmath.ZeroInt()
}

func (w *WrappedToken) ClaimYield(account types.Address) (bool, error) {
	defer w.rt.Enter(w.address)()

	if !w.rt.CheckWitness(account) {
		return false, nil
	}
	amount := w.PendingYield(account)
	delete(w.pending, account)
	if amount.IsZero() {
		return true, nil
	}
	return w.fee.Transfer(w.address, account, amount, nil)
}

func (w *WrappedToken) OnPayment(token, from types.Address, amount sdkmath.Int, _ *types.Payload) error {
	defer w.rt.Enter(w.address)()

	if caller := w.rt.CallingContract(); caller != token {
		return errorsmod.Wrapf(types.ErrUnauthorized, "payment notification for %s sent by %s", token, caller)
	}
	if from.IsNull() {
		return nil
	}

	switch token {
	case w.base.Address():
		wrapped, err := amount.SafeMul(w.Multiplier())
		if err != nil {
			return errorsmod.Wrapf(types.ErrPrecondition, "wrapping %s base units: %s", amount, err)
		}
		return w.Mint(from, wrapped)
	case w.fee.Address():
		return w.unwrap(from, amount)
	default:
		return errorsmod.Wrapf(types.ErrPrecondition, "%s does not accept %s", w.symbol, token)
	}
}

// unwrap burns the sender's wrapped asset covered by feePaid and returns the base asset.
func (w *WrappedToken) unwrap(account types.Address, feePaid sdkmath.Int) error {
	baseQuantity := feePaid.QuoRaw(config.UnwrapFeePerBase)
	if baseQuantity.IsZero() {
		return errorsmod.Wrapf(types.ErrPrecondition, "fee %s is below the unwrap fee of one base unit", feePaid)
	}
	if err := w.burn(account, baseQuantity.Mul(w.Multiplier())); err != nil {
		return err
	}
	ok, err := w.base.Transfer(w.address, account, baseQuantity, nil)
	if err != nil {
		return err
	}
	if !ok {
		return errorsmod.Wrap(types.ErrCollaborator, "base asset release refused")
	}
	return nil
}

func (w *WrappedToken) Snapshot() any {
	pending := make(map[types.Address]sdkmath.Int, len(w.pending))
	for account, amount := range w.pending {
		pending[account] = amount
	}
	return wrappedSnapshot{ledger: w.ledger.Snapshot(), pending: pending}
}

func (w *WrappedToken) Restore(snapshot any) {
	snap, ok := snapshot.(wrappedSnapshot)
	if !ok {
		panic(fmt.Errorf("%w: %T", chain.ErrUnexpectedSnapshot, snapshot))
	}
	w.ledger.Restore(snap.ledger)
	w.pending = snap.pending
}
