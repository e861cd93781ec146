/*

This file contains the record persisted after every keeper-driven compound.

*/

package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// CompoundSnapshot captures the vault right after a successful compound.
type CompoundSnapshot struct {
	CycleID         string        `json:"cycle_id"`        // keeper cycle uuid
	CompoundNumber  int           `json:"compound_number"` // global counter, see state.IncrementCompoundCounter
	Timestamp       time.Time     `json:"timestamp"`
	Caller          Address       `json:"caller"`
	Claimed         sdkmath.Int   `json:"claimed"`
	WrappedReceived sdkmath.Int   `json:"wrapped_received"`
	TreasuryCut     sdkmath.Int   `json:"treasury_cut"`
	Throttled       bool          `json:"throttled"` // swap amount was clipped and the period halved
	TotalReserves   sdkmath.Int   `json:"total_reserves"`
	TotalSupply     sdkmath.Int   `json:"total_supply"`
	ReserveRatio    sdkmath.Int   `json:"reserve_ratio"`
	CompoundPeriod  time.Duration `json:"compound_period"`
}
