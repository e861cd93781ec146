/*

This file contains the contract execution environment seen by the vault and its collaborators.

A contract never reaches for global state: block time, witnesses, other contracts and notifications
all come through a Runtime. Host is the in-process implementation used by tests and the simulation
binary.

*/

package chain

import (
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/compounder/internal/types"
)

// Runtime is the execution environment of a contract.
type Runtime interface {
	// Now returns the block time. It does not change during one invocation.
	Now() time.Time

	// CheckWitness reports whether account authorised the current call: either it signed the
	// invocation or it is the contract that called the currently executing contract.
	CheckWitness(account types.Address) bool

	// IsContract reports whether a contract is deployed at address.
	IsContract(address types.Address) bool

	// Contract returns the contract deployed at address.
	Contract(address types.Address) (any, bool)

	// Enter pushes a call frame for the contract at address and returns the function that pops it.
	Enter(address types.Address) func()

	// CallingContract returns the contract that called the currently executing one, or the null
	// address when the current contract was invoked directly by a signer.
	CallingContract() types.Address

	// Emit buffers a notification from the currently executing contract.
	Emit(event types.Event)
}

// PaymentReceiver is implemented by contracts that accept fungible-token transfers. Returning an
// error aborts the transfer and the whole invocation.
type PaymentReceiver interface {
	OnPayment(token, from types.Address, amount sdkmath.Int, payload *types.Payload) error
}

// ApprovedPayer is implemented by contracts that let a DEX router pull an amount they approved
// right before the swap.
type ApprovedPayer interface {
	ApprovedTransfer(token, to types.Address, amount sdkmath.Int, payload *types.Payload) (bool, error)
}

// Snapshotter is implemented by contracts whose state must roll back with a failed invocation.
type Snapshotter interface {
	Snapshot() any
	Restore(snapshot any)
}

// EventSink receives the notifications of every committed invocation, in emission order.
type EventSink interface {
	Record(txID string, notifications []types.Notification) error
}

// Receiver returns the payment receiver deployed at address.
func Receiver(rt Runtime, address types.Address) (PaymentReceiver, bool) {
	contract, ok := rt.Contract(address)
	if !ok {
		return nil, false
	}
	receiver, ok := contract.(PaymentReceiver)
	return receiver, ok
}
