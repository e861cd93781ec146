package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/elys-network/compounder/internal/types"
)

// CompoundSummary aggregates every stored compound snapshot.
type CompoundSummary struct {
	TotalCompounds       int    `json:"total_compounds"`
	ThrottledCompounds   int    `json:"throttled_compounds"`
	TotalClaimed         string `json:"total_claimed"`
	TotalWrappedReceived string `json:"total_wrapped_received"`
	TotalTreasuryCut     string `json:"total_treasury_cut"`
	LastCompounded       string `json:"last_compounded,omitempty"`
}

// GetRecentCompounds retrieves the latest compound snapshots, newest first.
func GetRecentCompounds(limit int) ([]types.CompoundSnapshot, error) {
	if DB == nil {
		return nil, ErrDBNotInitialized
	}

	if limit <= 0 || limit > 100 {
		limit = 10 // Default limit
	}

	query := `
		SELECT
			cycle_id, compound_number, snapshot_timestamp, caller,
			claimed::TEXT, wrapped_received::TEXT, treasury_cut::TEXT, throttled,
			total_reserves::TEXT, total_supply::TEXT, reserve_ratio::TEXT, compound_period_ms
		FROM compound_snapshots
		ORDER BY snapshot_timestamp DESC
		LIMIT $1
	`

	rows, err := DB.Query(query, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to query recent compounds")
		return nil, fmt.Errorf("failed to query recent compounds: %w", err)
	}
	defer rows.Close()

	var snapshots []types.CompoundSnapshot
	for rows.Next() {
		var (
			s                                               types.CompoundSnapshot
			caller                                          string
			claimed, received, cut, reserves, supply, ratio string
			periodMillis                                    int64
		)
		err := rows.Scan(
			&s.CycleID, &s.CompoundNumber, &s.Timestamp, &caller,
			&claimed, &received, &cut, &s.Throttled,
			&reserves, &supply, &ratio, &periodMillis,
		)
		if err != nil {
			log.Error().Err(err).Msg("Failed to scan compound row")
			continue // Skip this row and continue with others
		}
		s.Caller = types.Address(caller)
		s.CompoundPeriod = time.Duration(periodMillis) * time.Millisecond
		if err := scanAmounts(&s, claimed, received, cut, reserves, supply, ratio); err != nil {
			log.Error().Err(err).Int("compound_number", s.CompoundNumber).Msg("Failed to parse amounts for compound")
			continue
		}
		snapshots = append(snapshots, s)
	}

	if err := rows.Err(); err != nil {
		log.Error().Err(err).Msg("Error occurred during row iteration")
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}

	log.Debug().Int("count", len(snapshots)).Int("limit", limit).Msg("Retrieved recent compounds")
	return snapshots, nil
}

func scanAmounts(s *types.CompoundSnapshot, claimed, received, cut, reserves, supply, ratio string) error {
	var err error
	if s.Claimed, err = parseAmount("claimed", claimed); err != nil {
		return err
	}
	if s.WrappedReceived, err = parseAmount("wrapped_received", received); err != nil {
		return err
	}
	if s.TreasuryCut, err = parseAmount("treasury_cut", cut); err != nil {
		return err
	}
	if s.TotalReserves, err = parseAmount("total_reserves", reserves); err != nil {
		return err
	}
	if s.TotalSupply, err = parseAmount("total_supply", supply); err != nil {
		return err
	}
	s.ReserveRatio, err = parseAmount("reserve_ratio", ratio)
	return err
}

// GetCompoundSummary aggregates all compound snapshots.
func GetCompoundSummary() (*CompoundSummary, error) {
	if DB == nil {
		return nil, ErrDBNotInitialized
	}

	query := `
		SELECT
			COUNT(*) AS total_compounds,
			COUNT(CASE WHEN throttled THEN 1 END) AS throttled_compounds,
			COALESCE(SUM(claimed), 0)::TEXT AS total_claimed,
			COALESCE(SUM(wrapped_received), 0)::TEXT AS total_wrapped_received,
			COALESCE(SUM(treasury_cut), 0)::TEXT AS total_treasury_cut,
			MAX(snapshot_timestamp) AS last_compounded
		FROM compound_snapshots
	`

	summary := &CompoundSummary{}
	var lastCompounded sql.NullTime
	err := DB.QueryRow(query).Scan(
		&summary.TotalCompounds,
		&summary.ThrottledCompounds,
		&summary.TotalClaimed,
		&summary.TotalWrappedReceived,
		&summary.TotalTreasuryCut,
		&lastCompounded,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get compound summary: %w", err)
	}
	if lastCompounded.Valid {
		summary.LastCompounded = lastCompounded.Time.UTC().Format(time.RFC3339)
	}

	log.Debug().Int("totalCompounds", summary.TotalCompounds).Msg("Retrieved compound summary")
	return summary, nil
}
