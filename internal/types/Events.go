/*

This file contains the notifications emitted by the vault and the simulated collaborators.
Every event is buffered by the host for the duration of an invocation and published only when the
invocation commits.

*/

package types

import (
	sdkmath "cosmossdk.io/math"
)

// Event is a structured notification.
type Event interface {
	EventName() string
}

// Notification pairs an event with the contract that emitted it.
type Notification struct {
	Contract Address `json:"contract"`
	Event    Event   `json:"event"`
}

// TransferEvent is emitted by every fungible ledger, including issuance (From is null) and burns (To is null).
type TransferEvent struct {
	From   Address     `json:"from"`
	To     Address     `json:"to"`
	Amount sdkmath.Int `json:"amount"`
}

func (TransferEvent) EventName() string { return "Transfer" }

// MintEvent records shares issued to Account.
type MintEvent struct {
	Account Address     `json:"account"`
	Amount  sdkmath.Int `json:"amount"`
}

func (MintEvent) EventName() string { return "Mint" }

// BurnEvent records shares destroyed from Account.
type BurnEvent struct {
	Account Address     `json:"account"`
	Amount  sdkmath.Int `json:"amount"`
}

func (BurnEvent) EventName() string { return "Burn" }

// CompoundEvent records one successful compound call.
type CompoundEvent struct {
	Caller          Address     `json:"caller"`
	Claimed         sdkmath.Int `json:"claimed"`          // fee asset claimed from yield sources
	WrappedReceived sdkmath.Int `json:"wrapped_received"` // wrapped asset bought with the swapped portion
	TreasuryCut     sdkmath.Int `json:"treasury_cut"`     // fee asset retained by the vault
}

func (CompoundEvent) EventName() string { return "Compound" }

// CompoundReservesEvent records an owner-initiated swap of retained fee asset.
type CompoundReservesEvent struct {
	AmountIn        sdkmath.Int `json:"amount_in"`
	WrappedReceived sdkmath.Int `json:"wrapped_received"`
}

func (CompoundReservesEvent) EventName() string { return "CompoundReserves" }

// TopUpFeeAssetEvent records a tagged fee-asset payment.
type TopUpFeeAssetEvent struct {
	Account Address     `json:"account"`
	Amount  sdkmath.Int `json:"amount"`
}

func (TopUpFeeAssetEvent) EventName() string { return "TopUpFeeAsset" }

// WithdrawFeeEvent records fee asset paid out by the owner.
type WithdrawFeeEvent struct {
	Account Address     `json:"account"`
	Amount  sdkmath.Int `json:"amount"`
}

func (WithdrawFeeEvent) EventName() string { return "WithdrawFee" }

// ConvertToWrappedEvent records base asset drawn back from the delegate agent as wrapped asset.
type ConvertToWrappedEvent struct {
	BaseAmount sdkmath.Int `json:"base_amount"`
}

func (ConvertToWrappedEvent) EventName() string { return "ConvertToWrapped" }

// ConvertToBaseEvent records wrapped asset handed to the delegate agent for unwrapping.
type ConvertToBaseEvent struct {
	BaseAmount sdkmath.Int `json:"base_amount"`
}

func (ConvertToBaseEvent) EventName() string { return "ConvertToBase" }

// ParameterSetEvent records a governance change. The event name is "Set" followed by the parameter name.
type ParameterSetEvent struct {
	Name  string `json:"name"`  // e.g., "FeePercent"
	Value string `json:"value"` // decimal or address rendering of the new value
}

func (e ParameterSetEvent) EventName() string { return "Set" + e.Name }
