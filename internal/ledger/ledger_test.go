package ledger

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/compounder/internal/types"
)

func sumBalances(l *Ledger) sdkmath.Int {
	total := sdkmath.ZeroInt()
	for _, account := range l.Accounts() {
		total = total.Add(l.BalanceOf(account))
	}
	return total
}

func TestMintAndBurnTrackSupply(t *testing.T) {
	l := New()
	require.NoError(t, l.Mint("alice", sdkmath.NewInt(100)))
	require.NoError(t, l.Mint("bob", sdkmath.NewInt(50)))
	assert.Equal(t, "150", l.TotalSupply().String())

	require.NoError(t, l.Burn("alice", sdkmath.NewInt(40)))
	assert.Equal(t, "60", l.BalanceOf("alice").String())
	assert.Equal(t, "110", l.TotalSupply().String())
	assert.True(t, sumBalances(l).Equal(l.TotalSupply()))
}

func TestBurnBounds(t *testing.T) {
	l := New()
	require.NoError(t, l.Mint("alice", sdkmath.NewInt(10)))
	require.NoError(t, l.Mint("bob", sdkmath.NewInt(10)))

	err := l.Burn("alice", sdkmath.NewInt(11))
	assert.ErrorIs(t, err, types.ErrPrecondition)

	err = l.Burn("alice", sdkmath.NewInt(21))
	assert.ErrorIs(t, err, types.ErrPrecondition)

	err = l.Burn("alice", sdkmath.NewInt(-1))
	assert.ErrorIs(t, err, types.ErrPrecondition)

	assert.Equal(t, "20", l.TotalSupply().String())
}

func TestMoveInsufficientBalanceReturnsFalse(t *testing.T) {
	l := New()
	require.NoError(t, l.Mint("alice", sdkmath.NewInt(5)))

	ok, err := l.Move("alice", "bob", sdkmath.NewInt(6))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "5", l.BalanceOf("alice").String())
	assert.True(t, l.BalanceOf("bob").IsZero())
}

func TestMoveCompactsZeroBalances(t *testing.T) {
	l := New()
	require.NoError(t, l.Mint("alice", sdkmath.NewInt(5)))

	ok, err := l.Move("alice", "bob", sdkmath.NewInt(5))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []types.Address{"bob"}, l.Accounts())
	assert.True(t, sumBalances(l).Equal(l.TotalSupply()))
}

func TestMoveSelfAndZeroAreNoOps(t *testing.T) {
	l := New()
	require.NoError(t, l.Mint("alice", sdkmath.NewInt(5)))

	ok, err := l.Move("alice", "alice", sdkmath.NewInt(5))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "5", l.BalanceOf("alice").String())

	ok, err = l.Move("carol", "bob", sdkmath.ZeroInt())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []types.Address{"alice"}, l.Accounts())

	_, err = l.Move("alice", "bob", sdkmath.NewInt(-1))
	assert.ErrorIs(t, err, types.ErrPrecondition)
}

func TestMintRejectsNullAccount(t *testing.T) {
	l := New()
	assert.ErrorIs(t, l.Mint(types.NullAddress, sdkmath.NewInt(1)), types.ErrPrecondition)
	assert.True(t, l.TotalSupply().IsZero())
}

func TestSnapshotRestore(t *testing.T) {
	l := New()
	require.NoError(t, l.Mint("alice", sdkmath.NewInt(5)))
	snap := l.Snapshot()

	require.NoError(t, l.Mint("bob", sdkmath.NewInt(7)))
	_, err := l.Move("alice", "bob", sdkmath.NewInt(5))
	require.NoError(t, err)

	l.Restore(snap)
	assert.Equal(t, "5", l.BalanceOf("alice").String())
	assert.True(t, l.BalanceOf("bob").IsZero())
	assert.Equal(t, "5", l.TotalSupply().String())
}
