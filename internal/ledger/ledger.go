/*

This file contains the bookkeeping of a fungible token: a balance per account and the total supply.

Accounts with a zero balance are removed from the map, so a balance map never stores zero entries.
Authorisation and notifications are the concern of the token that embeds the ledger.

*/

package ledger

import (
	"sort"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/compounder/internal/types"
)

// Ledger tracks balances and supply. The zero value is not usable; call New.
type Ledger struct {
	balances map[types.Address]sdkmath.Int
	supply   sdkmath.Int
}

// Snapshot is an immutable copy of a ledger.
type Snapshot struct {
	balances map[types.Address]sdkmath.Int
	supply   sdkmath.Int
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{
		balances: make(map[types.Address]sdkmath.Int),
		supply:   sdkmath.ZeroInt(),
	}
}

// BalanceOf returns the balance of account, zero when it holds nothing.
func (l *Ledger) BalanceOf(account types.Address) sdkmath.Int {
	if balance, ok := l.balances[account]; ok {
		return balance
	}
	return sdkmath.ZeroInt()
}

// TotalSupply returns the sum of all balances.
func (l *Ledger) TotalSupply() sdkmath.Int {
	return l.supply
}

// Move transfers amount from one account to another. It returns false, leaving the ledger
// untouched, when from holds less than amount. A zero amount or from == to succeeds without
// changing any balance.
func (l *Ledger) Move(from, to types.Address, amount sdkmath.Int) (bool, error) {
	if err := validateAmount(amount); err != nil {
		return false, err
	}
	if l.BalanceOf(from).LT(amount) {
		return false, nil
	}
	if from == to || amount.IsZero() {
		return true, nil
	}
	l.set(from, l.BalanceOf(from).Sub(amount))
	l.set(to, l.BalanceOf(to).Add(amount))
	return true, nil
}

// Mint credits amount to account and grows the supply.
func (l *Ledger) Mint(account types.Address, amount sdkmath.Int) error {
	if account.IsNull() {
		return errorsmod.Wrap(types.ErrPrecondition, "cannot mint to the null address")
	}
	if err := validateAmount(amount); err != nil {
		return err
	}
	l.set(account, l.BalanceOf(account).Add(amount))
	l.supply = l.supply.Add(amount)
	return nil
}

// Burn debits amount from account and shrinks the supply.
func (l *Ledger) Burn(account types.Address, amount sdkmath.Int) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	if amount.GT(l.supply) {
		return errorsmod.Wrapf(types.ErrPrecondition, "burn amount %s exceeds supply %s", amount, l.supply)
	}
	balance := l.BalanceOf(account)
	if amount.GT(balance) {
		return errorsmod.Wrapf(types.ErrPrecondition, "burn amount %s exceeds balance %s of %s", amount, balance, account)
	}
	l.set(account, balance.Sub(amount))
	l.supply = l.supply.Sub(amount)
	return nil
}

// Accounts returns every account with a non-zero balance, sorted.
func (l *Ledger) Accounts() []types.Address {
	accounts := make([]types.Address, 0, len(l.balances))
	for account := range l.balances {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i] < accounts[j] })
	return accounts
}

// Snapshot captures the ledger. sdkmath.Int values are never mutated in place, so sharing them is safe.
func (l *Ledger) Snapshot() Snapshot {
	balances := make(map[types.Address]sdkmath.Int, len(l.balances))
	for account, balance := range l.balances {
		balances[account] = balance
	}
	return Snapshot{balances: balances, supply: l.supply}
}

// Restore replaces the ledger content with snapshot.
func (l *Ledger) Restore(snapshot Snapshot) {
	l.balances = make(map[types.Address]sdkmath.Int, len(snapshot.balances))
	for account, balance := range snapshot.balances {
		l.balances[account] = balance
	}
	l.supply = snapshot.supply
}

func (l *Ledger) set(account types.Address, balance sdkmath.Int) {
	if balance.IsZero() {
		delete(l.balances, account)
		return
	}
	l.balances[account] = balance
}

func validateAmount(amount sdkmath.Int) error {
	if amount.IsNil() {
		return errorsmod.Wrap(types.ErrPrecondition, "amount is nil")
	}
	if amount.IsNegative() {
		return errorsmod.Wrapf(types.ErrPrecondition, "amount %s must be non-negative", amount)
	}
	return nil
}
