/*

This file persists committed notifications. The Journal is registered as an event sink on the
host, so only notifications of committed invocations ever reach the database.

*/

package state

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/elys-network/compounder/internal/logger"
	"github.com/elys-network/compounder/internal/types"
)

// StoredEvent is one row of vault_events.
type StoredEvent struct {
	TxID       string          `json:"tx_id"`
	Seq        int             `json:"seq"`
	Contract   string          `json:"contract"`
	Name       string          `json:"name"`
	Payload    json.RawMessage `json:"payload"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// Journal writes notifications to the vault_events table.
type Journal struct {
	logger zerolog.Logger
}

func NewJournal() *Journal {
	return &Journal{logger: logger.GetForComponent("state_store")}
}

// Record stores the notifications of one invocation in a single transaction.
func (j *Journal) Record(txID string, notifications []types.Notification) (err error) {
	if DB == nil {
		return ErrDBNotInitialized
	}
	if len(notifications) == 0 {
		return nil
	}

	tx, err := DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	stmt := `INSERT INTO vault_events (tx_id, seq, contract, event_name, payload) VALUES ($1, $2, $3, $4, $5);`
	for seq, n := range notifications {
		var payload []byte
		payload, err = json.Marshal(n.Event)
		if err != nil {
			return fmt.Errorf("failed to marshal %s event: %w", n.Event.EventName(), err)
		}
		if _, err = tx.Exec(stmt, txID, seq, string(n.Contract), n.Event.EventName(), payload); err != nil {
			return fmt.Errorf("failed to insert %s event: %w", n.Event.EventName(), err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	j.logger.Debug().Str("tx_id", txID).Int("events", len(notifications)).Msg("Journaled notifications")
	return nil
}

// GetRecentEvents returns the latest journaled events, newest first. An empty names slice matches
// every event name.
func GetRecentEvents(limit int, names []string) ([]StoredEvent, error) {
	if DB == nil {
		return nil, ErrDBNotInitialized
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if names == nil {
		names = []string{}
	}

	query := `
		SELECT tx_id, seq, contract, event_name, payload, recorded_at
		FROM vault_events
		WHERE cardinality($1::TEXT[]) = 0 OR event_name = ANY($1::TEXT[])
		ORDER BY event_id DESC
		LIMIT $2
	`

	rows, err := DB.Query(query, pq.Array(names), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}
	defer rows.Close()

	var events []StoredEvent
	for rows.Next() {
		var e StoredEvent
		var payload []byte
		if err := rows.Scan(&e.TxID, &e.Seq, &e.Contract, &e.Name, &payload, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		e.Payload = payload
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return events, nil
}
