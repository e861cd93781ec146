/*

This file manages the persistent global compound counter.
The counter is stored in the database so compound numbers continue across keeper restarts.

*/

package state

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// ensureCompoundCounterTable creates the compound_counter table if it doesn't exist
func ensureCompoundCounterTable() error {
	if DB == nil {
		return ErrDBNotInitialized
	}

	createTableSQL := `
		CREATE TABLE IF NOT EXISTS compound_counter (
			id INTEGER PRIMARY KEY DEFAULT 1,
			current_count INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT single_row_check CHECK (id = 1)
		);

		INSERT INTO compound_counter (id, current_count)
		VALUES (1, 0)
		ON CONFLICT (id) DO NOTHING;
	`

	_, err := DB.Exec(createTableSQL)
	if err != nil {
		return fmt.Errorf("failed to create compound_counter table: %w", err)
	}

	log.Debug().Msg("Ensured compound_counter table exists")
	return nil
}

// GetCompoundCount retrieves the number of compounds recorded so far
func GetCompoundCount() (int, error) {
	if err := ensureCompoundCounterTable(); err != nil {
		return 0, err
	}

	query := `SELECT current_count FROM compound_counter WHERE id = 1;`

	var count int
	err := DB.QueryRow(query).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// This should not happen due to the INSERT in ensureCompoundCounterTable
			log.Warn().Msg("No compound counter row found, initializing to 0")
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get compound count: %w", err)
	}

	log.Debug().Int("compoundCount", count).Msg("Retrieved compound count")
	return count, nil
}

// IncrementCompoundCounter increments the compound counter and returns the new value
func IncrementCompoundCounter() (int, error) {
	if err := ensureCompoundCounterTable(); err != nil {
		return 0, err
	}

	updateQuery := `
		UPDATE compound_counter
		SET current_count = current_count + 1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
		RETURNING current_count;`

	var newCount int
	err := DB.QueryRow(updateQuery).Scan(&newCount)
	if err != nil {
		return 0, fmt.Errorf("failed to increment compound counter: %w", err)
	}

	log.Info().Int("compoundNumber", newCount).Msg("Incremented compound counter")
	return newCount, nil
}

// ResetCompoundCounter resets the compound counter to a specific value (for maintenance)
func ResetCompoundCounter(count int) error {
	if count < 0 {
		return fmt.Errorf("compound count cannot be negative: %d", count)
	}
	if err := ensureCompoundCounterTable(); err != nil {
		return err
	}

	updateQuery := `
		UPDATE compound_counter
		SET current_count = $1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = 1;`

	result, err := DB.Exec(updateQuery, count)
	if err != nil {
		return fmt.Errorf("failed to reset compound counter to %d: %w", count, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no rows updated when resetting compound counter")
	}

	log.Warn().Int("compoundCount", count).Msg("Reset compound counter")
	return nil
}
