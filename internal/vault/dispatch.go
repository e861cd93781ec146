/*

This file contains the Payment Dispatcher: the vault's reaction to every incoming transfer.

A payment is classified only by who sent it and which asset it is. Transfers the vault caused
itself (mints, yield claims, swap proceeds, conversions) arrive while another operation is in
progress and are acknowledged without side effects; that operation measures balance deltas itself.

*/

package vault

import (
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/compounder/internal/types"
)

// PaymentClass is the outcome of classifying an incoming payment.
type PaymentClass int

const (
	PaymentRejected PaymentClass = iota
	PaymentMintOrigin
	PaymentWrappedLedgerOrigin
	PaymentDexOrigin
	PaymentDelegateOrigin
	PaymentTopUpFeeAsset
	PaymentBaseDeposit
	PaymentWrappedDeposit
	PaymentWithdrawal
)

var paymentClassNames = map[PaymentClass]string{
	PaymentRejected:            "rejected",
	PaymentMintOrigin:          "mint_origin",
	PaymentWrappedLedgerOrigin: "wrapped_ledger_origin",
	PaymentDexOrigin:           "dex_origin",
	PaymentDelegateOrigin:      "delegate_origin",
	PaymentTopUpFeeAsset:       "top_up_fee_asset",
	PaymentBaseDeposit:         "base_deposit",
	PaymentWrappedDeposit:      "wrapped_deposit",
	PaymentWithdrawal:          "withdrawal",
}

func (c PaymentClass) String() string {
	if name, ok := paymentClassNames[c]; ok {
		return name
	}
	return "unknown"
}

// Acknowledged reports whether the class is a side effect of an operation already in progress.
func (c PaymentClass) Acknowledged() bool {
	switch c {
	case PaymentMintOrigin, PaymentWrappedLedgerOrigin, PaymentDexOrigin, PaymentDelegateOrigin:
		return true
	}
	return false
}

// Classify decides how a payment of token from sender is handled. Rules are checked in order; the
// first match wins.
func (v *Vault) Classify(from, token types.Address, payload *types.Payload) PaymentClass {
	fee := v.refs.fee.Address()
	wrapped := v.refs.wrapped.Address()

	switch from {
	case types.NullAddress:
		if token == wrapped || token == fee {
			return PaymentMintOrigin
		}
		return PaymentRejected
	case wrapped:
		if token == fee {
			return PaymentWrappedLedgerOrigin
		}
		return PaymentRejected
	case v.refs.pair.Address():
		if token == wrapped {
			return PaymentDexOrigin
		}
		return PaymentRejected
	case v.refs.agent.Address():
		if token == fee || token == wrapped {
			return PaymentDelegateOrigin
		}
		return PaymentRejected
	}

	if payload != nil {
		if token == fee && payload.Action == types.ActionTopUpFeeAsset {
			return PaymentTopUpFeeAsset
		}
		return PaymentRejected
	}

	switch token {
	case v.refs.base.Address():
		return PaymentBaseDeposit
	case wrapped:
		return PaymentWrappedDeposit
	case v.self:
		return PaymentWithdrawal
	}
	return PaymentRejected
}

// OnPayment handles a transfer of amount of token from sender to the vault. token must be the
// ledger calling the vault.
func (v *Vault) OnPayment(token, from types.Address, amount sdkmath.Int, payload *types.Payload) error {
	defer v.rt.Enter(v.self)()

	if caller := v.rt.CallingContract(); caller != token {
		return errorsmod.Wrapf(types.ErrUnauthorized, "payment notification for %s sent by %s", token, caller)
	}
	if err := validateNonNegative("payment amount", amount); err != nil {
		return err
	}

	class := v.Classify(from, token, payload)
	v.logger.Debug().
		Str("token", string(token)).
		Str("from", from.String()).
		Str("amount", amount.String()).
		Str("class", class.String()).
		Msg("Payment received")

	switch class {
	case PaymentMintOrigin, PaymentWrappedLedgerOrigin, PaymentDexOrigin, PaymentDelegateOrigin:
		return nil
	case PaymentTopUpFeeAsset:
		v.rt.Emit(types.TopUpFeeAssetEvent{Account: from, Amount: amount})
		return nil
	case PaymentBaseDeposit:
		_, err := v.depositBase(from, amount)
		return err
	case PaymentWrappedDeposit:
		_, err := v.depositWrapped(from, amount)
		return err
	case PaymentWithdrawal:
		_, err := v.redeem(from, amount)
		return err
	default:
		return errorsmod.Wrapf(types.ErrPrecondition, "unexpected payment of %s from %s", token, from)
	}
}
