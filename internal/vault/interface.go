package vault

import (
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/compounder/internal/types"
)

// Token is a fungible asset ledger the vault holds balances on.
// Implementations notify contract recipients through chain.PaymentReceiver.
type Token interface {
	// Address returns the ledger contract address.
	Address() types.Address

	// Decimals returns the precision of the asset.
	Decimals() uint32

	// BalanceOf returns the balance of account.
	BalanceOf(account types.Address) sdkmath.Int

	// Transfer moves amount from one account to another. It returns false when from holds too
	// little or did not witness the call, and an error for invalid arguments or a failed
	// recipient callback.
	Transfer(from, to types.Address, amount sdkmath.Int, payload *types.Payload) (bool, error)
}

// WrappedAsset is the yield-bearing wrapper of the base asset.
type WrappedAsset interface {
	Token

	// ClaimYield pays the fee-asset yield accrued by account's wrapped balance to account.
	// Only account can claim for itself.
	ClaimYield(account types.Address) (bool, error)
}

// DelegateAgent holds the vault's base asset and collects delegation yield in the fee asset.
type DelegateAgent interface {
	Address() types.Address

	// ClaimYield forwards every fee-asset unit the agent holds to the vault.
	ClaimYield() (bool, error)

	// WithdrawWrapped wraps baseQuantity of the agent's base asset and sends the resulting
	// wrapped asset to the vault.
	WithdrawWrapped(baseQuantity sdkmath.Int) (bool, error)
}

// SwapPair is a constant-product pool trading the fee asset against the wrapped asset.
type SwapPair interface {
	Address() types.Address
	Token0() types.Address
	Token1() types.Address

	// Reserves returns the pool balances of token0 and token1.
	Reserves() (sdkmath.Int, sdkmath.Int)
}

// SwapRouter executes swaps along a path of pairs. The router pulls amountIn from the calling
// contract through chain.ApprovedPayer before paying out.
type SwapRouter interface {
	Address() types.Address
	SwapTokenInForTokenOut(amountIn, amountOutMin sdkmath.Int, path []types.Address, deadline time.Time) (bool, error)
}
