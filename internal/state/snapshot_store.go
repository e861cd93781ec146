// ./internal/state/snapshot_store.go
package state

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/elys-network/compounder/internal/types"
)

// SaveCompoundSnapshot saves the vault state recorded after a compound.
func SaveCompoundSnapshot(snapshot types.CompoundSnapshot) (int64, error) {
	if DB == nil {
		return 0, ErrDBNotInitialized
	}

	query := `
		INSERT INTO compound_snapshots (
			cycle_id, compound_number, snapshot_timestamp, caller,
			claimed, wrapped_received, treasury_cut, throttled,
			total_reserves, total_supply, reserve_ratio, compound_period_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING snapshot_id;
	`

	var snapshotID int64
	err := DB.QueryRow(
		query,
		snapshot.CycleID, snapshot.CompoundNumber, snapshot.Timestamp, string(snapshot.Caller),
		snapshot.Claimed.String(), snapshot.WrappedReceived.String(), snapshot.TreasuryCut.String(), snapshot.Throttled,
		snapshot.TotalReserves.String(), snapshot.TotalSupply.String(), snapshot.ReserveRatio.String(),
		snapshot.CompoundPeriod.Milliseconds(),
	).Scan(&snapshotID)
	if err != nil {
		return 0, fmt.Errorf("failed to save compound snapshot: %w", err)
	}

	log.Info().
		Int64("snapshot_id", snapshotID).
		Int("compound_number", snapshot.CompoundNumber).
		Str("total_reserves", snapshot.TotalReserves.String()).
		Msg("Compound snapshot saved to database")

	return snapshotID, nil
}
