/*

This file contains the identity types shared by the vault and its collaborators: account and contract
addresses, and the optional payload attached to a transfer.

*/

package types

// Address identifies an account or a contract.
type Address string

// NullAddress is the sender of platform-level issuance (a freshly minted asset has no previous owner).
const NullAddress Address = ""

// IsNull reports whether the address is the null address.
func (a Address) IsNull() bool {
	return a == NullAddress
}

func (a Address) String() string {
	if a.IsNull() {
		return "<null>"
	}
	return string(a)
}

// Action tags recognised on incoming payments.
const (
	// ActionTopUpFeeAsset marks a fee-asset payment meant to refill the vault's swap reserve.
	ActionTopUpFeeAsset = "TOP_UP_GAS"
)

// Payload is the optional data attached to a transfer. A nil *Payload means "no payload".
type Payload struct {
	Action string `json:"action"` // e.g., "TOP_UP_GAS"
}

// AssetInfo describes one fungible asset known to the deployment.
type AssetInfo struct {
	Symbol   string  `json:"symbol"`   // e.g., "bNEO"
	Address  Address `json:"address"`  // ledger contract address
	Decimals uint32  `json:"decimals"` // e.g., 8 = 1 unit is 10^8 base units
}
