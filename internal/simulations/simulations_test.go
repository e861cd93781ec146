package simulations

import (
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/compounder/internal/types"
)

const (
	owner types.Address = "owner"
	alice types.Address = "alice"
	bob   types.Address = "bob"
)

func newTestNetwork(t *testing.T) *Network {
	t.Helper()
	n, err := NewNetwork(NetworkConfig{
		Owner:        owner,
		VaultAddress: "cneo-vault",
		Start:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return n
}

func TestNewNetworkRequiresOwner(t *testing.T) {
	_, err := NewNetwork(NetworkConfig{})
	assert.ErrorIs(t, err, ErrInvalidNetworkConfig)
}

func TestNewNetworkSeedsPair(t *testing.T) {
	n := newTestNetwork(t)
	feeReserve, wrappedReserve := n.Pair.Reserves()
	assert.Equal(t, "1000000000000", feeReserve.String())
	assert.Equal(t, "1000000000000", wrappedReserve.String())
	for _, address := range []types.Address{n.Base.Address(), n.Wrapped.Address(), n.Fee.Address(), n.Agent.Address(), n.Pair.Address(), n.Router.Address(), n.Vault.Address()} {
		assert.True(t, n.Host.IsContract(address), "%s not deployed", address)
	}
}

func TestTokenTransfer(t *testing.T) {
	n := newTestNetwork(t)
	require.NoError(t, n.Fund(alice, n.Fee.Address(), sdkmath.NewInt(100)))

	require.NoError(t, n.Send(alice, n.Fee.Address(), bob, sdkmath.NewInt(40), nil))
	assert.Equal(t, "60", n.Fee.BalanceOf(alice).String())
	assert.Equal(t, "40", n.Fee.BalanceOf(bob).String())

	err := n.Send(alice, n.Fee.Address(), bob, sdkmath.NewInt(61), nil)
	assert.ErrorIs(t, err, types.ErrPrecondition)

	// Without alice's witness the ledger refuses.
	var ok bool
	require.NoError(t, n.Invoke(bob, func() error {
		var err error
		ok, err = n.Fee.Transfer(alice, bob, sdkmath.NewInt(1), nil)
		return err
	}))
	assert.False(t, ok)
	assert.Equal(t, "60", n.Fee.BalanceOf(alice).String())
}

func TestWrapAndUnwrap(t *testing.T) {
	n := newTestNetwork(t)
	require.NoError(t, n.Fund(alice, n.Base.Address(), sdkmath.NewInt(2)))
	require.NoError(t, n.Fund(alice, n.Fee.Address(), sdkmath.NewInt(100000)))

	require.NoError(t, n.Send(alice, n.Base.Address(), n.Wrapped.Address(), sdkmath.NewInt(2), nil))
	assert.Equal(t, "200000000", n.Wrapped.BalanceOf(alice).String())
	assert.Equal(t, "2", n.Base.BalanceOf(n.Wrapped.Address()).String())

	// One base unit of fee unwraps one base unit.
	require.NoError(t, n.Send(alice, n.Fee.Address(), n.Wrapped.Address(), sdkmath.NewInt(100000), nil))
	assert.Equal(t, "100000000", n.Wrapped.BalanceOf(alice).String())
	assert.Equal(t, "1", n.Base.BalanceOf(alice).String())
	assert.Equal(t, "100000000", n.Wrapped.TotalSupply().String())

	require.NoError(t, n.Fund(alice, n.Fee.Address(), sdkmath.NewInt(99999)))
	err := n.Send(alice, n.Fee.Address(), n.Wrapped.Address(), sdkmath.NewInt(99999), nil)
	assert.ErrorIs(t, err, types.ErrPrecondition)
}

func TestWrappedYield(t *testing.T) {
	n := newTestNetwork(t)
	require.NoError(t, n.AccrueYield(sdkmath.ZeroInt(), sdkmath.NewInt(500)))
	assert.Equal(t, "500", n.Wrapped.PendingYield(n.Vault.Address()).String())
	assert.Equal(t, "500", n.Fee.BalanceOf(n.Wrapped.Address()).String())

	// Only the account itself can claim.
	var ok bool
	require.NoError(t, n.Invoke(alice, func() error {
		var err error
		ok, err = n.Wrapped.ClaimYield(n.Vault.Address())
		return err
	}))
	assert.False(t, ok)
	assert.Equal(t, "500", n.Wrapped.PendingYield(n.Vault.Address()).String())
}

func TestAgentOnlyServesVault(t *testing.T) {
	n := newTestNetwork(t)
	require.NoError(t, n.AccrueYield(sdkmath.NewInt(700), sdkmath.ZeroInt()))

	var ok bool
	require.NoError(t, n.Invoke(alice, func() error {
		var err error
		ok, err = n.Agent.ClaimYield()
		return err
	}))
	assert.False(t, ok)
	assert.Equal(t, "700", n.Fee.BalanceOf(n.Agent.Address()).String())

	require.NoError(t, n.Fund(alice, n.Wrapped.Address(), sdkmath.NewInt(100)))
	err := n.Send(alice, n.Wrapped.Address(), n.Agent.Address(), sdkmath.NewInt(100), nil)
	assert.ErrorIs(t, err, types.ErrPrecondition)
}

func TestAmountOut(t *testing.T) {
	tests := []struct {
		name                      string
		in, reserveIn, reserveOut int64
		want                      string
	}{
		{"balanced pool", 1000, 1000000, 1000000, "996"},
		{"deep pool", 1000000, 1000000000000, 1000000000000, "996999"},
		{"zero input", 0, 1000, 1000, "0"},
		{"empty pool", 1000, 0, 1000, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AmountOut(sdkmath.NewInt(tt.in), sdkmath.NewInt(tt.reserveIn), sdkmath.NewInt(tt.reserveOut))
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestRouterRequiresContractPayer(t *testing.T) {
	n := newTestNetwork(t)
	path := []types.Address{n.Fee.Address(), n.Wrapped.Address()}

	err := n.Invoke(alice, func() error {
		_, err := n.Router.SwapTokenInForTokenOut(sdkmath.NewInt(100), sdkmath.ZeroInt(), path, n.Host.Now().Add(time.Minute))
		return err
	})
	assert.ErrorIs(t, err, types.ErrUnauthorized)

	err = n.Invoke(alice, func() error {
		_, err := n.Router.SwapTokenInForTokenOut(sdkmath.NewInt(100), sdkmath.ZeroInt(), path, n.Host.Now().Add(-time.Second))
		return err
	})
	assert.ErrorIs(t, err, types.ErrPrecondition)

	err = n.Invoke(alice, func() error {
		_, err := n.Router.SwapTokenInForTokenOut(sdkmath.NewInt(100), sdkmath.ZeroInt(), []types.Address{n.Base.Address(), n.Fee.Address()}, n.Host.Now().Add(time.Minute))
		return err
	})
	assert.ErrorIs(t, err, types.ErrPrecondition)
}

func TestFailedInvocationRestoresEveryLedger(t *testing.T) {
	n := newTestNetwork(t)
	require.NoError(t, n.Fund(alice, n.Base.Address(), sdkmath.NewInt(3)))

	err := n.Invoke(alice, func() error {
		if _, err := n.Base.Transfer(alice, n.Wrapped.Address(), sdkmath.NewInt(3), nil); err != nil {
			return err
		}
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, "3", n.Base.BalanceOf(alice).String())
	assert.True(t, n.Wrapped.TotalSupply().IsZero())
}
