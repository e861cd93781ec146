package state

import (
	"sync"

	"github.com/elys-network/compounder/internal/types"
)

// DBRecorder numbers and stores compound snapshots in PostgreSQL.
type DBRecorder struct{}

func (DBRecorder) NextCompoundNumber() (int, error) { return IncrementCompoundCounter() }

func (DBRecorder) SaveSnapshot(snapshot types.CompoundSnapshot) error {
	_, err := SaveCompoundSnapshot(snapshot)
	return err
}

func (DBRecorder) RecentCompounds(limit int) ([]types.CompoundSnapshot, error) {
	return GetRecentCompounds(limit)
}

// MemoryRecorder keeps compound snapshots in process. Used when no database is configured.
type MemoryRecorder struct {
	mu        sync.Mutex
	count     int
	snapshots []types.CompoundSnapshot
}

func (m *MemoryRecorder) NextCompoundNumber() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count++
	return m.count, nil
}

func (m *MemoryRecorder) SaveSnapshot(snapshot types.CompoundSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, snapshot)
	return nil
}

// RecentCompounds returns up to limit snapshots, newest first.
func (m *MemoryRecorder) RecentCompounds(limit int) ([]types.CompoundSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || limit > len(m.snapshots) {
		limit = len(m.snapshots)
	}
	recent := make([]types.CompoundSnapshot, 0, limit)
	for i := len(m.snapshots) - 1; i >= 0 && len(recent) < limit; i-- {
		recent = append(recent, m.snapshots[i])
	}
	return recent, nil
}
