package vault_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/compounder/internal/simulations"
	"github.com/elys-network/compounder/internal/types"
	"github.com/elys-network/compounder/internal/vault"
)

func TestClassify(t *testing.T) {
	n, _ := newNetwork(t)
	base, wrapped, fee := n.Base.Address(), n.Wrapped.Address(), n.Fee.Address()
	topUp := &types.Payload{Action: types.ActionTopUpFeeAsset}

	tests := []struct {
		name    string
		from    types.Address
		token   types.Address
		payload *types.Payload
		want    vault.PaymentClass
	}{
		{"issued wrapped", types.NullAddress, wrapped, nil, vault.PaymentMintOrigin},
		{"issued fee", types.NullAddress, fee, nil, vault.PaymentMintOrigin},
		{"issued base", types.NullAddress, base, nil, vault.PaymentRejected},
		{"wrapped ledger yield", wrapped, fee, nil, vault.PaymentWrappedLedgerOrigin},
		{"wrapped ledger wrapped", wrapped, wrapped, nil, vault.PaymentRejected},
		{"swap proceeds", n.Pair.Address(), wrapped, nil, vault.PaymentDexOrigin},
		{"pair fee", n.Pair.Address(), fee, nil, vault.PaymentRejected},
		{"agent yield", n.Agent.Address(), fee, nil, vault.PaymentDelegateOrigin},
		{"agent wrapped", n.Agent.Address(), wrapped, nil, vault.PaymentDelegateOrigin},
		{"agent base", n.Agent.Address(), base, nil, vault.PaymentRejected},
		{"top up", alice, fee, topUp, vault.PaymentTopUpFeeAsset},
		{"top up with wrapped", alice, wrapped, topUp, vault.PaymentRejected},
		{"unknown action", alice, fee, &types.Payload{Action: "STAKE"}, vault.PaymentRejected},
		{"base deposit", alice, base, nil, vault.PaymentBaseDeposit},
		{"wrapped deposit", alice, wrapped, nil, vault.PaymentWrappedDeposit},
		{"withdrawal", alice, n.Vault.Address(), nil, vault.PaymentWithdrawal},
		{"bare fee", alice, fee, nil, vault.PaymentRejected},
		{"unknown asset", alice, "flm-ledger", nil, vault.PaymentRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Vault.Classify(tt.from, tt.token, tt.payload))
		})
	}
}

func TestPaymentClassNames(t *testing.T) {
	assert.Equal(t, "top_up_fee_asset", vault.PaymentTopUpFeeAsset.String())
	assert.Equal(t, "unknown", vault.PaymentClass(99).String())
	assert.True(t, vault.PaymentDexOrigin.Acknowledged())
	assert.False(t, vault.PaymentWithdrawal.Acknowledged())
	assert.False(t, vault.PaymentRejected.Acknowledged())
}

func TestTopUpFeeAsset(t *testing.T) {
	n, events := newNetwork(t)
	require.NoError(t, n.Fund(alice, n.Fee.Address(), amount(5000)))
	events.reset()

	require.NoError(t, n.Send(alice, n.Fee.Address(), n.Vault.Address(), amount(5000), &types.Payload{Action: types.ActionTopUpFeeAsset}))
	assert.Equal(t, "5000", n.Vault.FeeReserves().String())
	assert.True(t, n.Vault.TotalSupply().IsZero())

	topUps := events.named("TopUpFeeAsset")
	require.Len(t, topUps, 1)
	assert.Equal(t, alice, topUps[0].(types.TopUpFeeAssetEvent).Account)
}

func TestRejectedPaymentsRollBack(t *testing.T) {
	n, events := newNetwork(t)
	require.NoError(t, n.Fund(alice, n.Fee.Address(), amount(5000)))
	require.NoError(t, n.Fund(alice, n.Base.Address(), amount(5)))
	events.reset()

	err := n.Send(alice, n.Fee.Address(), n.Vault.Address(), amount(5000), nil)
	assert.ErrorIs(t, err, types.ErrPrecondition)
	err = n.Send(alice, n.Base.Address(), n.Vault.Address(), amount(5), &types.Payload{Action: types.ActionTopUpFeeAsset})
	assert.ErrorIs(t, err, types.ErrPrecondition)

	assert.Equal(t, "5000", n.Fee.BalanceOf(alice).String())
	assert.Equal(t, "5", n.Base.BalanceOf(alice).String())
	assert.True(t, n.Vault.FeeReserves().IsZero())
	assert.Empty(t, events.notifications)
}

func TestUnknownAssetIsRejected(t *testing.T) {
	n, _ := newNetwork(t)
	stray := simulations.NewToken(n.Host, types.AssetInfo{Symbol: "FLM", Address: "flm-ledger", Decimals: 8})
	require.NoError(t, n.Host.Deploy(stray.Address(), stray))
	require.NoError(t, n.Invoke(alice, func() error { return stray.Mint(alice, amount(100)) }))

	err := n.Invoke(alice, func() error {
		_, err := stray.Transfer(alice, n.Vault.Address(), amount(100), nil)
		return err
	})
	assert.ErrorIs(t, err, types.ErrPrecondition)
	assert.Equal(t, "100", stray.BalanceOf(alice).String())
}

func TestForgedPaymentNotificationIsUnauthorized(t *testing.T) {
	n, _ := newNetwork(t)

	err := n.Invoke(alice, func() error {
		return n.Vault.OnPayment(n.Wrapped.Address(), alice, amount(1000), nil)
	})
	assert.ErrorIs(t, err, types.ErrUnauthorized)
	assert.Equal(t, types.KindUnauthorized, types.Kind(err))
	assert.True(t, n.Vault.TotalSupply().IsZero())

	// A ledger cannot notify on behalf of another asset either.
	stray := simulations.NewToken(n.Host, types.AssetInfo{Symbol: "FLM", Address: "flm-ledger", Decimals: 8})
	require.NoError(t, n.Host.Deploy(stray.Address(), stray))
	err = n.Invoke(alice, func() error {
		defer n.Host.Enter(stray.Address())()
		return n.Vault.OnPayment(n.Wrapped.Address(), alice, amount(1000), nil)
	})
	assert.ErrorIs(t, err, types.ErrUnauthorized)
}
