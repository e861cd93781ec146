/*

This file wires a complete in-memory deployment: the three asset ledgers, the delegate agent, a
swap pair with its router, and the vault, all deployed on one host.

The helpers wrap every user action in its own invocation, so each one commits or rolls back as a
whole exactly like a transaction would.

*/

package simulations

import (
	"errors"
	"fmt"
	"time"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/elys-network/compounder/internal/chain"
	"github.com/elys-network/compounder/internal/config"
	"github.com/elys-network/compounder/internal/logger"
	"github.com/elys-network/compounder/internal/types"
	"github.com/elys-network/compounder/internal/vault"
)

var ErrInvalidNetworkConfig = errors.New("network configuration is invalid")

// NetworkConfig describes a simulated deployment. Zero values fall back to the config package.
type NetworkConfig struct {
	Owner        types.Address
	VaultAddress types.Address
	Start        time.Time
	// Clock replaces the manual clock, e.g. with time.Now for a long-running process.
	Clock func() time.Time

	// Parameters overrides config.NewDefaultParameters(Owner).
	Parameters *types.VaultParameters

	// PairLiquidity seeds each side of the swap pair.
	PairLiquidity sdkmath.Int
	// FeeAssetIsToken1 lists the wrapped asset first in the pair.
	FeeAssetIsToken1 bool
}

// Network is a fully wired deployment.
type Network struct {
	Host *chain.Host
	// Clock is nil when NetworkConfig.Clock was supplied.
	Clock *chain.ManualClock

	Base    *Token
	Wrapped *WrappedToken
	Fee     *Token
	Agent   *Agent
	Pair    *Pair
	Router  *Router
	Vault   *vault.Vault

	Owner  types.Address
	logger zerolog.Logger
}

// NewNetwork deploys every contract and seeds the swap pair.
func NewNetwork(cfg NetworkConfig) (*Network, error) {
	if cfg.Owner.IsNull() {
		return nil, fmt.Errorf("%w: owner is required", ErrInvalidNetworkConfig)
	}
	if cfg.VaultAddress.IsNull() {
		cfg.VaultAddress = config.VaultAddress
	}
	if cfg.VaultAddress.IsNull() {
		cfg.VaultAddress = "cneo-vault"
	}
	if cfg.Start.IsZero() {
		cfg.Start = time.Now().UTC()
	}
	if cfg.PairLiquidity.IsNil() {
		cfg.PairLiquidity = sdkmath.NewIntFromUint64(config.InitialPairLiquidity)
	}
	parameters := config.NewDefaultParameters(cfg.Owner)
	if cfg.Parameters != nil {
		parameters = *cfg.Parameters
	}

	var manual *chain.ManualClock
	now := cfg.Clock
	if now == nil {
		manual = chain.NewManualClock(cfg.Start)
		now = manual.Now
	}
	host, err := chain.NewHost(now)
	if err != nil {
		return nil, err
	}

	n := &Network{
		Host:   host,
		Clock:  manual,
		Owner:  cfg.Owner,
		logger: logger.GetForComponent("simulation"),
	}
	n.Base = NewToken(host, config.BaseAsset)
	n.Fee = NewToken(host, config.FeeAsset)
	n.Wrapped = NewWrappedToken(host, config.WrappedAsset, n.Base, n.Fee)
	n.Agent = NewAgent(host, config.DelegateAgentAddress, cfg.VaultAddress, n.Base, n.Wrapped, n.Fee)
	if cfg.FeeAssetIsToken1 {
		n.Pair = NewPair(host, config.SwapPairAddress, n.Wrapped.Token, n.Fee)
	} else {
		n.Pair = NewPair(host, config.SwapPairAddress, n.Fee, n.Wrapped.Token)
	}
	n.Router = NewRouter(host, config.SwapRouterAddress, n.Pair)

	n.Vault, err = vault.New(vault.Config{
		Address:       cfg.VaultAddress,
		Runtime:       host,
		Parameters:    parameters,
		BaseAsset:     n.Base,
		WrappedAsset:  n.Wrapped,
		FeeAsset:      n.Fee,
		DelegateAgent: n.Agent,
		SwapPair:      n.Pair,
		SwapRouter:    n.Router,
	})
	if err != nil {
		return nil, err
	}

	deployments := []struct {
		address  types.Address
		contract any
	}{
		{n.Base.Address(), n.Base},
		{n.Fee.Address(), n.Fee},
		{n.Wrapped.Address(), n.Wrapped},
		{n.Agent.Address(), n.Agent},
		{n.Pair.Address(), n.Pair},
		{n.Router.Address(), n.Router},
		{n.Vault.Address(), n.Vault},
	}
	for _, d := range deployments {
		if err := host.Deploy(d.address, d.contract); err != nil {
			return nil, err
		}
	}

	if cfg.PairLiquidity.IsPositive() {
		err := n.Invoke(cfg.Owner, func() error {
			return n.Pair.AddLiquidity(cfg.PairLiquidity, cfg.PairLiquidity)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to seed swap pair: %w", err)
		}
	}

	n.logger.Info().
		Str("vault", string(cfg.VaultAddress)).
		Str("owner", string(cfg.Owner)).
		Str("pairLiquidity", cfg.PairLiquidity.String()).
		Msg("Simulated network deployed")

	return n, nil
}

// Invoke runs fn as one invocation signed by signer.
func (n *Network) Invoke(signer types.Address, fn func() error) error {
	return n.Host.Invoke([]types.Address{signer}, fn)
}

// AsOwner runs fn as one invocation signed by the vault owner.
func (n *Network) AsOwner(fn func() error) error {
	return n.Invoke(n.Vault.Owner(), fn)
}

// Fund issues amount of the asset at token to account.
func (n *Network) Fund(account, token types.Address, amount sdkmath.Int) error {
	ledger, err := n.ledgerAt(token)
	if err != nil {
		return err
	}
	return n.Invoke(account, func() error {
		return ledger.Mint(account, amount)
	})
}

// Send transfers amount of the asset at token from account to recipient, optionally with a payload.
func (n *Network) Send(account, token, recipient types.Address, amount sdkmath.Int, payload *types.Payload) error {
	var transfer func(from, to types.Address, amount sdkmath.Int, payload *types.Payload) (bool, error)
	if token == n.Vault.Address() {
		transfer = n.Vault.Transfer
	} else {
		ledger, err := n.ledgerAt(token)
		if err != nil {
			return err
		}
		transfer = ledger.Transfer
	}
	return n.Invoke(account, func() error {
		ok, err := transfer(account, recipient, amount, payload)
		if err != nil {
			return err
		}
		if !ok {
			return errorsmod.Wrapf(types.ErrPrecondition, "transfer of %s %s from %s refused", amount, token, account)
		}
		return nil
	})
}

// DepositWrapped sends wrapped asset to the vault and returns the shares minted.
func (n *Network) DepositWrapped(account types.Address, amount sdkmath.Int) (sdkmath.Int, error) {
	return n.shareDelta(account, func() error {
		return n.Send(account, n.Wrapped.Address(), n.Vault.Address(), amount, nil)
	})
}

// DepositBase sends base asset to the vault and returns the shares minted.
func (n *Network) DepositBase(account types.Address, amount sdkmath.Int) (sdkmath.Int, error) {
	return n.shareDelta(account, func() error {
		return n.Send(account, n.Base.Address(), n.Vault.Address(), amount, nil)
	})
}

// Redeem sends shares back to the vault and returns the wrapped asset released.
func (n *Network) Redeem(account types.Address, shares sdkmath.Int) (sdkmath.Int, error) {
	before := n.Wrapped.BalanceOf(account)
	if err := n.Send(account, n.Vault.Address(), n.Vault.Address(), shares, nil); err != nil {
		return sdkmath.ZeroInt(), err
	}
	return n.Wrapped.BalanceOf(account).Sub(before), nil
}

// AccrueYield issues fee-asset yield to the delegate agent and to the vault's wrapped position.
func (n *Network) AccrueYield(agentYield, wrappedYield sdkmath.Int) error {
	return n.Invoke(n.Owner, func() error {
		if agentYield.IsPositive() {
			if err := n.Agent.AccrueYield(agentYield); err != nil {
				return err
			}
		}
		if wrappedYield.IsPositive() {
			return n.Wrapped.AccrueYield(n.Vault.Address(), wrappedYield)
		}
		return nil
	})
}

// Compound calls compound as caller.
func (n *Network) Compound(caller types.Address) (vault.CompoundResult, error) {
	var result vault.CompoundResult
	err := n.Invoke(caller, func() error {
		var err error
		result, err = n.Vault.Compound(caller)
		return err
	})
	return result, err
}

func (n *Network) shareDelta(account types.Address, fn func() error) (sdkmath.Int, error) {
	before := n.Vault.BalanceOf(account)
	if err := fn(); err != nil {
		return sdkmath.ZeroInt(), err
	}
	return n.Vault.BalanceOf(account).Sub(before), nil
}

func (n *Network) ledgerAt(token types.Address) (*Token, error) {
	switch token {
	case n.Base.Address():
		return n.Base, nil
	case n.Wrapped.Address():
		return n.Wrapped.Token, nil
	case n.Fee.Address():
		return n.Fee, nil
	default:
		return nil, fmt.Errorf("%w: unknown asset %s", ErrInvalidNetworkConfig, token)
	}
}
