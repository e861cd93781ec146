/*

This file contains the typed error kinds returned by every state-changing operation.

A failed operation leaves no trace: the host rolls back every state change and drops buffered
notifications before the error reaches the caller.

*/

package types

import (
	"errors"

	errorsmod "cosmossdk.io/errors"
)

// Codespace groups the registered errors of this module.
const Codespace = "compounder"

var (
	// ErrPrecondition reports invalid input or a violated bound (negative amount, ceiling exceeded,
	// compound period not elapsed, unclassified payment).
	ErrPrecondition = errorsmod.Register(Codespace, 2, "precondition violated")
	// ErrUnauthorized reports a missing witness or a caller that is not allowed to act.
	ErrUnauthorized = errorsmod.Register(Codespace, 3, "unauthorized")
	// ErrCollaborator reports a collaborator that refused a call or returned an unexpected amount.
	ErrCollaborator = errorsmod.Register(Codespace, 4, "collaborator call failed")
)

// ErrorKind classifies an error returned by the vault.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindPrecondition
	KindUnauthorized
	KindCollaborator
)

func (k ErrorKind) String() string {
	switch k {
	case KindPrecondition:
		return "precondition"
	case KindUnauthorized:
		return "unauthorized"
	case KindCollaborator:
		return "collaborator"
	default:
		return "unknown"
	}
}

// Kind returns the kind of err, or KindUnknown when err carries none of the registered errors.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrPrecondition):
		return KindPrecondition
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrCollaborator):
		return KindCollaborator
	default:
		return KindUnknown
	}
}
