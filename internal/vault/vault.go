package vault

import (
	"errors"
	"fmt"
	"time"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/elys-network/compounder/internal/chain"
	"github.com/elys-network/compounder/internal/config"
	"github.com/elys-network/compounder/internal/ledger"
	"github.com/elys-network/compounder/internal/logger"
	"github.com/elys-network/compounder/internal/params"
	"github.com/elys-network/compounder/internal/reserves"
	"github.com/elys-network/compounder/internal/types"
)

// Error definitions for zero-tolerance error handling
var (
	ErrInvalidAddress      = errors.New("vault address is invalid")
	ErrInvalidRuntime      = errors.New("runtime is invalid")
	ErrInvalidCollaborator = errors.New("collaborator is invalid")
	ErrFeeAssetNotInPair   = errors.New("fee asset is not traded by the swap pair")
)

// collaborators are the contracts the vault talks to. The owner can replace the delegate agent,
// the wrapped asset and the DEX references.
type collaborators struct {
	base    Token
	wrapped WrappedAsset
	fee     Token
	agent   DelegateAgent
	pair    SwapPair
	router  SwapRouter
}

// swapGrant lets consumer pull at most amount of the fee asset, once.
type swapGrant struct {
	amount   sdkmath.Int
	consumer types.Address
}

// Vault is the auto-compounding share token. It is a contract: every state-changing method must
// run inside a host invocation so that a failure rolls back.
type Vault struct {
	self   types.Address
	rt     chain.Runtime
	logger zerolog.Logger

	shares *ledger.Ledger
	params *params.Store
	refs   collaborators
	grant  *swapGrant
}

// Config holds the configuration for creating a new Vault
type Config struct {
	Address    types.Address
	Runtime    chain.Runtime
	Parameters types.VaultParameters

	BaseAsset     Token
	WrappedAsset  WrappedAsset
	FeeAsset      Token
	DelegateAgent DelegateAgent
	SwapPair      SwapPair
	SwapRouter    SwapRouter
}

type vaultSnapshot struct {
	shares ledger.Snapshot
	params types.VaultParameters
	refs   collaborators
	grant  *swapGrant
}

// New creates a vault. The fee-asset side of the swap pair is resolved here, overriding
// cfg.Parameters.SwapPairFeeIndex.
func New(cfg Config) (*Vault, error) {
	if err := validateVaultConfig(cfg); err != nil {
		return nil, fmt.Errorf("vault configuration validation failed: %w", err)
	}

	feeIndex, err := feeIndexOf(cfg.SwapPair, cfg.FeeAsset.Address())
	if err != nil {
		return nil, err
	}
	initial := cfg.Parameters
	initial.SwapPairFeeIndex = feeIndex

	v := &Vault{
		self:   cfg.Address,
		rt:     cfg.Runtime,
		logger: logger.GetForComponent("vault_core"),
		shares: ledger.New(),
		refs: collaborators{
			base:    cfg.BaseAsset,
			wrapped: cfg.WrappedAsset,
			fee:     cfg.FeeAsset,
			agent:   cfg.DelegateAgent,
			pair:    cfg.SwapPair,
			router:  cfg.SwapRouter,
		},
	}
	v.params, err = params.NewStore(cfg.Runtime, initial, v.shares.TotalSupply)
	if err != nil {
		return nil, err
	}

	v.logger.Info().
		Str("address", string(v.self)).
		Str("owner", string(initial.Owner)).
		Int("swapPairFeeIndex", feeIndex).
		Msg("Vault created")

	return v, nil
}

// validateVaultConfig validates the vault configuration
func validateVaultConfig(cfg Config) error {
	var errs []error
	if cfg.Address.IsNull() {
		errs = append(errs, ErrInvalidAddress)
	}
	if cfg.Runtime == nil {
		errs = append(errs, ErrInvalidRuntime)
	}
	if cfg.BaseAsset == nil || cfg.WrappedAsset == nil || cfg.FeeAsset == nil {
		errs = append(errs, fmt.Errorf("%w: base, wrapped and fee assets are required", ErrInvalidCollaborator))
	}
	if cfg.DelegateAgent == nil || cfg.SwapPair == nil || cfg.SwapRouter == nil {
		errs = append(errs, fmt.Errorf("%w: delegate agent, swap pair and swap router are required", ErrInvalidCollaborator))
	}
	return errors.Join(errs...)
}

// feeIndexOf returns which side of pair trades fee.
func feeIndexOf(pair SwapPair, fee types.Address) (int, error) {
	switch fee {
	case pair.Token0():
		return 0, nil
	case pair.Token1():
		return 1, nil
	default:
		return 0, errorsmod.Wrapf(types.ErrPrecondition, "%s: pair %s trades %s and %s, not %s",
			ErrFeeAssetNotInPair, pair.Address(), pair.Token0(), pair.Token1(), fee)
	}
}

// --- Share token ---

func (v *Vault) Address() types.Address { return v.self }

func (v *Vault) Symbol() string { return config.ShareSymbol }

func (v *Vault) Decimals() uint32 { return config.ShareDecimals }

func (v *Vault) TotalSupply() sdkmath.Int { return v.shares.TotalSupply() }

func (v *Vault) BalanceOf(account types.Address) sdkmath.Int { return v.shares.BalanceOf(account) }

// Holders returns every account holding shares.
func (v *Vault) Holders() []types.Address { return v.shares.Accounts() }

// Transfer moves shares. It returns false when from holds fewer than amount shares or did not
// witness the call. Transferring shares to the vault itself redeems them.
func (v *Vault) Transfer(from, to types.Address, amount sdkmath.Int, payload *types.Payload) (bool, error) {
	defer v.rt.Enter(v.self)()

	if from.IsNull() || to.IsNull() {
		return false, errorsmod.Wrap(types.ErrPrecondition, "transfer endpoints cannot be null")
	}
	if amount.IsNil() || amount.IsNegative() {
		return false, errorsmod.Wrap(types.ErrPrecondition, "transfer amount must be non-negative")
	}
	if !v.rt.CheckWitness(from) {
		return false, nil
	}
	moved, err := v.shares.Move(from, to, amount)
	if err != nil || !moved {
		return false, err
	}

	v.rt.Emit(types.TransferEvent{From: from, To: to, Amount: amount})
	if err := v.postTransfer(from, to, amount, payload); err != nil {
		return false, err
	}
	return true, nil
}

// postTransfer notifies a contract recipient.
func (v *Vault) postTransfer(from, to types.Address, amount sdkmath.Int, payload *types.Payload) error {
	if !v.rt.IsContract(to) {
		return nil
	}
	receiver, ok := chain.Receiver(v.rt, to)
	if !ok {
		return errorsmod.Wrapf(types.ErrCollaborator, "contract %s does not accept payments", to)
	}
	return receiver.OnPayment(v.self, from, amount, payload)
}

func (v *Vault) mintShares(account types.Address, amount sdkmath.Int) error {
	if amount.IsPositive() {
		if err := v.shares.Mint(account, amount); err != nil {
			return err
		}
		v.rt.Emit(types.TransferEvent{From: types.NullAddress, To: account, Amount: amount})
		if err := v.postTransfer(types.NullAddress, account, amount, nil); err != nil {
			return err
		}
	}
	v.rt.Emit(types.MintEvent{Account: account, Amount: amount})
	return nil
}

func (v *Vault) burnShares(account types.Address, amount sdkmath.Int) error {
	if err := v.shares.Burn(account, amount); err != nil {
		return err
	}
	if amount.IsPositive() {
		v.rt.Emit(types.TransferEvent{From: account, To: types.NullAddress, Amount: amount})
	}
	v.rt.Emit(types.BurnEvent{Account: account, Amount: amount})
	return nil
}

// --- Read accessors ---

// Oracle returns the reserve oracle over the current collaborators.
func (v *Vault) Oracle() reserves.Oracle {
	return reserves.Oracle{
		Wrapped:         v.refs.wrapped,
		WrappedDecimals: v.refs.wrapped.Decimals(),
		Base:            v.refs.base,
		Vault:           v.self,
		Delegate:        v.refs.agent.Address(),
		Supply:          v.shares.TotalSupply,
	}
}

func (v *Vault) WrappedReserves() sdkmath.Int { return v.Oracle().WrappedReserves() }

func (v *Vault) BaseReserves() sdkmath.Int { return v.Oracle().BaseReserves() }

func (v *Vault) TotalReserves() sdkmath.Int { return v.Oracle().TotalReserves() }

func (v *Vault) ReserveRatio() sdkmath.Int { return v.Oracle().ReserveRatio() }

// FeeReserves is the fee asset held by the vault (treasury plus unswapped yield).
func (v *Vault) FeeReserves() sdkmath.Int { return v.refs.fee.BalanceOf(v.self) }

func (v *Vault) Owner() types.Address { return v.params.Owner() }

func (v *Vault) Parameters() types.VaultParameters { return v.params.Get() }

// NextCompoundAt is the earliest block time at which Compound succeeds.
func (v *Vault) NextCompoundAt() time.Time { return v.params.Get().NextCompoundAt() }

// CanTeardown reports whether the vault could be retired without stranding holders.
func (v *Vault) CanTeardown() bool {
	return v.TotalReserves().IsZero() || v.TotalSupply().IsZero()
}

// Collaborators returns the addresses of the current collaborators.
func (v *Vault) Collaborators() map[string]types.Address {
	return map[string]types.Address{
		"baseAsset":     v.refs.base.Address(),
		"wrappedAsset":  v.refs.wrapped.Address(),
		"feeAsset":      v.refs.fee.Address(),
		"delegateAgent": v.refs.agent.Address(),
		"swapPair":      v.refs.pair.Address(),
		"swapRouter":    v.refs.router.Address(),
	}
}

// --- Rollback ---

func (v *Vault) Snapshot() any {
	return vaultSnapshot{
		shares: v.shares.Snapshot(),
		params: v.params.Snapshot(),
		refs:   v.refs,
		grant:  v.grant,
	}
}

func (v *Vault) Restore(snapshot any) {
	snap, ok := snapshot.(vaultSnapshot)
	if !ok {
		panic(fmt.Errorf("%w: %T", chain.ErrUnexpectedSnapshot, snapshot))
	}
	v.shares.Restore(snap.shares)
	v.params.Restore(snap.params)
	v.refs = snap.refs
	v.grant = snap.grant
}
