package reserves

import (
	"math/big"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/compounder/internal/types"
	"github.com/elys-network/compounder/internal/utils"
)

type balances map[types.Address]int64

func (b balances) BalanceOf(account types.Address) sdkmath.Int {
	return sdkmath.NewInt(b[account])
}

func newOracle(wrapped, base balances, supply int64) Oracle {
	return Oracle{
		Wrapped:         wrapped,
		WrappedDecimals: 8,
		Base:            base,
		Vault:           "vault",
		Delegate:        "agent",
		Supply:          func() sdkmath.Int { return sdkmath.NewInt(supply) },
	}
}

func TestRatioBootstrapsAtOne(t *testing.T) {
	o := newOracle(balances{}, balances{}, 0)
	assert.Equal(t, "1000000000000000000", o.ReserveRatio().String())

	// Wrapped asset sent in before any share exists does not move the bootstrap ratio.
	o = newOracle(balances{"vault": 500}, balances{}, 0)
	assert.Equal(t, FloatMultiplier.String(), o.ReserveRatio().String())
}

func TestTotalReservesCombinesBothAssets(t *testing.T) {
	o := newOracle(balances{"vault": 250000000}, balances{"agent": 3, "someone": 99}, 0)

	assert.Equal(t, "100000000", o.Multiplier().String())
	assert.Equal(t, "250000000", o.WrappedReserves().String())
	assert.Equal(t, "3", o.BaseReserves().String())
	assert.Equal(t, "550000000", o.TotalReserves().String())
}

func TestReserveRatio(t *testing.T) {
	o := newOracle(balances{"vault": 150000000}, balances{"agent": 1}, 200000000)
	// (1.5e8 + 1e8) / 2e8 = 1.25
	assert.Equal(t, "1250000000000000000", o.ReserveRatio().String())
}

func TestRatioBeforeDeposit(t *testing.T) {
	o := newOracle(balances{"vault": 300}, balances{}, 100)

	ratio, err := o.RatioBeforeDeposit(sdkmath.NewInt(100))
	require.NoError(t, err)
	assert.Equal(t, "2000000000000000000", ratio.String())

	_, err = o.RatioBeforeDeposit(sdkmath.NewInt(301))
	assert.ErrorIs(t, err, types.ErrPrecondition)
}

func TestRatioFloorsDivision(t *testing.T) {
	assert.Equal(t, "333333333333333333", Ratio(sdkmath.NewInt(1), sdkmath.NewInt(3)).String())
}

func TestSafeRatioReportsOverflow(t *testing.T) {
	huge := sdkmath.NewIntFromBigInt(new(big.Int).Lsh(big.NewInt(1), 240))

	require.NotPanics(t, func() {
		_, err := SafeRatio(huge, sdkmath.NewInt(1))
		assert.ErrorIs(t, err, types.ErrPrecondition)

		_, err = SafeTotal(sdkmath.ZeroInt(), huge, utils.Pow10(8))
		assert.ErrorIs(t, err, types.ErrPrecondition)
	})

	ratio, err := SafeRatio(sdkmath.NewInt(1), sdkmath.NewInt(3))
	require.NoError(t, err)
	assert.Equal(t, Ratio(sdkmath.NewInt(1), sdkmath.NewInt(3)).String(), ratio.String())
}
