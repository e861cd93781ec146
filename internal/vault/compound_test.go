package vault_test

import (
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/compounder/internal/chain"
	"github.com/elys-network/compounder/internal/simulations"
	"github.com/elys-network/compounder/internal/types"
)

func seedDeposit(t *testing.T, n *simulations.Network) {
	t.Helper()
	require.NoError(t, n.Fund(alice, n.Wrapped.Address(), amount(100000000000)))
	_, err := n.DepositWrapped(alice, amount(100000000000))
	require.NoError(t, err)
}

func TestCompoundSwapsYieldIntoReserves(t *testing.T) {
	n, events := newNetwork(t)
	seedDeposit(t, n)
	require.NoError(t, n.AccrueYield(amount(1000000000), amount(1000000000)))
	feeReserve, wrappedReserve := n.Pair.Reserves()
	events.reset()

	result, err := n.Compound(keeper)
	require.NoError(t, err)

	expectedOut := simulations.AmountOut(amount(1900000000), feeReserve, wrappedReserve)
	assert.Equal(t, "2000000000", result.Claimed.String())
	assert.Equal(t, "100000000", result.TreasuryCut.String())
	assert.Equal(t, expectedOut.String(), result.WrappedReceived.String())
	assert.False(t, result.Throttled)
	assert.Equal(t, start.Add(7*24*time.Hour), result.NextCompoundAt)

	assert.Equal(t, amount(100000000000).Add(expectedOut).String(), n.Vault.WrappedReserves().String())
	assert.Equal(t, "100000000", n.Vault.FeeReserves().String())
	assert.True(t, n.Vault.ReserveRatio().GT(amount(1000000000000000000)))
	assert.True(t, n.Fee.BalanceOf(n.Agent.Address()).IsZero())
	assert.True(t, n.Wrapped.PendingYield(n.Vault.Address()).IsZero())

	compounds := events.named("Compound")
	require.Len(t, compounds, 1)
	event := compounds[0].(types.CompoundEvent)
	assert.Equal(t, keeper, event.Caller)
	assert.Equal(t, "2000000000", event.Claimed.String())
}

func TestCompoundRaisesShareValueForHolders(t *testing.T) {
	n, _ := newNetwork(t)
	seedDeposit(t, n)
	require.NoError(t, n.AccrueYield(amount(1000000000), amount(0)))
	_, err := n.Compound(keeper)
	require.NoError(t, err)

	ratio := n.Vault.ReserveRatio()
	require.NoError(t, n.Fund(bob, n.Wrapped.Address(), amount(1000000000)))
	minted, err := n.DepositWrapped(bob, amount(1000000000))
	require.NoError(t, err)
	assert.True(t, minted.LT(amount(1000000000)))

	// Bob's deposit does not dilute earlier holders.
	assert.True(t, n.Vault.ReserveRatio().GTE(ratio))

	released, err := n.Redeem(bob, minted)
	require.NoError(t, err)
	assert.True(t, released.LTE(amount(1000000000)))
	assertConserved(t, n)
}

func TestCompoundRespectsPeriod(t *testing.T) {
	n, _ := newNetwork(t)
	seedDeposit(t, n)

	_, err := n.Compound(keeper)
	require.NoError(t, err)
	lastCompounded := n.Vault.Parameters().LastCompounded

	n.Clock.Advance(7*24*time.Hour - time.Second)
	_, err = n.Compound(keeper)
	assert.ErrorIs(t, err, types.ErrPrecondition)
	assert.Equal(t, lastCompounded, n.Vault.Parameters().LastCompounded)

	n.Clock.Advance(time.Second)
	_, err = n.Compound(keeper)
	require.NoError(t, err)
	assert.Equal(t, n.Clock.Now(), n.Vault.Parameters().LastCompounded)
}

func TestCompoundWithoutYield(t *testing.T) {
	n, _ := newNetwork(t)
	seedDeposit(t, n)

	result, err := n.Compound(keeper)
	require.NoError(t, err)
	assert.True(t, result.Claimed.IsZero())
	assert.True(t, result.WrappedReceived.IsZero())
	assert.Equal(t, unitRatio, n.Vault.ReserveRatio().String())
}

func TestCompoundThrottlesLargeSwaps(t *testing.T) {
	n, events := newNetwork(t)
	seedDeposit(t, n)
	require.NoError(t, n.AsOwner(func() error {
		if err := n.Vault.SetMaxSwapGas(amount(100000000)); err != nil {
			return err
		}
		return n.Vault.SetCompoundPeriod(8 * time.Hour)
	}))
	events.reset()

	period := 8 * time.Hour
	for round := 0; round < 3; round++ {
		require.NoError(t, n.AccrueYield(amount(1000000000), amount(0)))
		n.Clock.Advance(period)

		result, err := n.Compound(keeper)
		require.NoError(t, err)
		assert.True(t, result.Throttled)
		assert.Equal(t, "1000000000", result.Claimed.String())
		assert.Equal(t, "900000000", result.TreasuryCut.String())

		period /= 2
		assert.Equal(t, period, n.Vault.Parameters().CompoundPeriod)
		assert.Equal(t, n.Clock.Now().Add(period), result.NextCompoundAt)
	}

	periodEvents := events.named("SetCompoundPeriod")
	require.Len(t, periodEvents, 3)
	assert.Equal(t, "3600000", periodEvents[2].(types.ParameterSetEvent).Value)
	assert.Equal(t, "2700000000", n.Vault.FeeReserves().String())
}

func TestCompoundPaysGasReward(t *testing.T) {
	n, _ := newNetwork(t)
	seedDeposit(t, n)
	require.NoError(t, n.AsOwner(func() error { return n.Vault.SetGasReward(amount(1000000)) }))
	require.NoError(t, n.AccrueYield(amount(1000000000), amount(0)))

	_, err := n.Compound(keeper)
	require.NoError(t, err)
	assert.Equal(t, "1000000", n.Fee.BalanceOf(keeper).String())
	assert.Equal(t, "49000000", n.Vault.FeeReserves().String())
}

func TestCompoundGasRewardNeedsFeeReserves(t *testing.T) {
	n, _ := newNetwork(t)
	seedDeposit(t, n)
	require.NoError(t, n.AsOwner(func() error { return n.Vault.SetGasReward(amount(1000000)) }))

	_, err := n.Compound(keeper)
	assert.ErrorIs(t, err, types.ErrCollaborator)
	assert.True(t, n.Vault.Parameters().LastCompounded.IsZero())
}

func TestCompoundCallerChecks(t *testing.T) {
	n, _ := newNetwork(t)
	seedDeposit(t, n)

	err := n.Invoke(bob, func() error {
		_, err := n.Vault.Compound(keeper)
		return err
	})
	assert.ErrorIs(t, err, types.ErrUnauthorized)

	_, err = n.Compound(n.Agent.Address())
	assert.ErrorIs(t, err, types.ErrUnauthorized)

	_, err = n.Compound(types.NullAddress)
	assert.ErrorIs(t, err, types.ErrPrecondition)
}

func TestCompoundRejectsExcessiveSlippage(t *testing.T) {
	n, _ := newNetwork(t, func(cfg *simulations.NetworkConfig) {
		cfg.PairLiquidity = amount(10000000000)
	})
	seedDeposit(t, n)
	require.NoError(t, n.AccrueYield(amount(2000000000), amount(0)))

	// A 1.9e9 swap against 1e10 of liquidity moves the price by more than 10%.
	_, err := n.Compound(keeper)
	assert.ErrorIs(t, err, types.ErrCollaborator)
	assert.Equal(t, "2000000000", n.Fee.BalanceOf(n.Agent.Address()).String())
	assert.True(t, n.Vault.Parameters().LastCompounded.IsZero())
	assert.True(t, n.Vault.FeeReserves().IsZero())

	require.NoError(t, n.AsOwner(func() error { return n.Vault.SetMaxSlippage(20) }))
	result, err := n.Compound(keeper)
	require.NoError(t, err)
	assert.True(t, result.WrappedReceived.GTE(amount(1520000000)))
}

func TestCompoundWithFeeAssetAsToken1(t *testing.T) {
	n, _ := newNetwork(t, func(cfg *simulations.NetworkConfig) {
		cfg.FeeAssetIsToken1 = true
	})
	assert.Equal(t, 1, n.Vault.Parameters().SwapPairFeeIndex)
	seedDeposit(t, n)
	require.NoError(t, n.AccrueYield(amount(1000000000), amount(0)))

	result, err := n.Compound(keeper)
	require.NoError(t, err)
	assert.True(t, result.WrappedReceived.IsPositive())
}

func TestFaultyRouterCannotOverdraw(t *testing.T) {
	n, _ := newNetwork(t)
	seedDeposit(t, n)
	require.NoError(t, n.AccrueYield(amount(1000000000), amount(0)))
	n.Router.OverPull = amount(1)

	_, err := n.Compound(keeper)
	assert.ErrorIs(t, err, types.ErrUnauthorized)
	assert.Equal(t, "1000000000", n.Fee.BalanceOf(n.Agent.Address()).String())
	assert.True(t, n.Vault.Parameters().LastCompounded.IsZero())
}

func TestRouterCannotReuseApproval(t *testing.T) {
	n, events := newNetwork(t)
	seedDeposit(t, n)
	require.NoError(t, n.AccrueYield(amount(1000000000), amount(0)))
	feeReserve, wrappedReserve := n.Pair.Reserves()
	events.reset()

	// The first half-pull consumes the approval, the second must be refused.
	n.Router.PullInstallments = 2
	_, err := n.Compound(keeper)
	assert.ErrorIs(t, err, types.ErrUnauthorized)

	assert.Equal(t, "1000000000", n.Fee.BalanceOf(n.Agent.Address()).String())
	assert.True(t, n.Vault.FeeReserves().IsZero())
	afterFee, afterWrapped := n.Pair.Reserves()
	assert.Equal(t, feeReserve.String(), afterFee.String())
	assert.Equal(t, wrappedReserve.String(), afterWrapped.String())
	assert.True(t, n.Vault.Parameters().LastCompounded.IsZero())
	assert.Empty(t, events.notifications)

	n.Router.PullInstallments = 1
	_, err = n.Compound(keeper)
	require.NoError(t, err)
}

// relayingRouter pulls the approved amount from inside another contract's frame.
type relayingRouter struct {
	address types.Address
	relay   types.Address
	host    *chain.Host
	payer   chain.ApprovedPayer
	pair    types.Address
}

func (r *relayingRouter) Address() types.Address { return r.address }

func (r *relayingRouter) SwapTokenInForTokenOut(amountIn, _ sdkmath.Int, path []types.Address, _ time.Time) (bool, error) {
	defer r.host.Enter(r.address)()
	if !r.relay.IsNull() {
		defer r.host.Enter(r.relay)()
	}
	return r.payer.ApprovedTransfer(path[0], r.pair, amountIn, nil)
}

func TestApprovedTransferOnlyFromRouter(t *testing.T) {
	n, _ := newNetwork(t)
	seedDeposit(t, n)
	require.NoError(t, n.AccrueYield(amount(1000000000), amount(0)))

	router := &relayingRouter{
		address: "relaying-router",
		relay:   "mallory",
		host:    n.Host,
		payer:   n.Vault,
		pair:    n.Pair.Address(),
	}
	require.NoError(t, n.Host.Deploy(router.address, router))
	require.NoError(t, n.AsOwner(func() error { return n.Vault.SetSwapRouter(router) }))

	_, err := n.Compound(keeper)
	assert.ErrorIs(t, err, types.ErrUnauthorized)
	assert.Equal(t, "1000000000", n.Fee.BalanceOf(n.Agent.Address()).String())

	// Pulled by the router itself, the transfer goes through and the missing output is what fails.
	router.relay = types.NullAddress
	_, err = n.Compound(keeper)
	assert.ErrorIs(t, err, types.ErrCollaborator)
	assert.Equal(t, "1000000000", n.Fee.BalanceOf(n.Agent.Address()).String())
}

func TestApprovedTransferOutsideSwap(t *testing.T) {
	n, _ := newNetwork(t)
	require.NoError(t, n.Fund(alice, n.Fee.Address(), amount(1000)))
	require.NoError(t, n.Send(alice, n.Fee.Address(), n.Vault.Address(), amount(1000), &types.Payload{Action: types.ActionTopUpFeeAsset}))

	err := n.Invoke(alice, func() error {
		_, err := n.Vault.ApprovedTransfer(n.Fee.Address(), alice, amount(1000), nil)
		return err
	})
	assert.ErrorIs(t, err, types.ErrUnauthorized)

	err = n.Invoke(alice, func() error {
		_, err := n.Vault.ApprovedTransfer(n.Wrapped.Address(), n.Pair.Address(), amount(1), nil)
		return err
	})
	assert.ErrorIs(t, err, types.ErrUnauthorized)
	assert.Equal(t, "1000", n.Vault.FeeReserves().String())
}

func TestMinWrappedOut(t *testing.T) {
	n, _ := newNetwork(t)
	minOut, err := n.Vault.MinWrappedOut(amount(1000000000))
	require.NoError(t, err)
	assert.Equal(t, "900000000", minOut.String())
}

func TestCompoundReserves(t *testing.T) {
	n, events := newNetwork(t)
	seedDeposit(t, n)
	require.NoError(t, n.Fund(alice, n.Fee.Address(), amount(1000000000)))
	require.NoError(t, n.Send(alice, n.Fee.Address(), n.Vault.Address(), amount(1000000000), &types.Payload{Action: types.ActionTopUpFeeAsset}))
	feeReserve, wrappedReserve := n.Pair.Reserves()
	events.reset()

	err := n.Invoke(alice, func() error {
		_, err := n.Vault.CompoundReserves(amount(1000))
		return err
	})
	assert.ErrorIs(t, err, types.ErrUnauthorized)

	err = n.AsOwner(func() error {
		_, err := n.Vault.CompoundReserves(amount(1000000001))
		return err
	})
	assert.ErrorIs(t, err, types.ErrPrecondition)

	var received = amount(0)
	require.NoError(t, n.AsOwner(func() error {
		var err error
		received, err = n.Vault.CompoundReserves(amount(1000000000))
		return err
	}))
	assert.Equal(t, simulations.AmountOut(amount(1000000000), feeReserve, wrappedReserve).String(), received.String())
	assert.True(t, n.Vault.FeeReserves().IsZero())
	require.Len(t, events.named("CompoundReserves"), 1)
}
