package pipeline

import (
	"context"
	"sync"

	"github.com/couchcryptid/aqi-etl-service/internal/domain"
)

// SnapshotStore keeps the latest snapshot per station in memory.
// It implements BatchLoader and backs the HTTP API.
type SnapshotStore struct {
	mu    sync.RWMutex
	snaps map[string]domain.StationSnapshot
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{snaps: make(map[string]domain.StationSnapshot)}
}

func (s *SnapshotStore) LoadBatch(_ context.Context, snaps []domain.StationSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, snap := range snaps {
		s.snaps[snap.Station.ID] = snap
	}
	return nil
}

// Get returns the latest snapshot for a station.
func (s *SnapshotStore) Get(stationID string) (domain.StationSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snaps[stationID]
	return snap, ok
}

// Len reports how many stations have a snapshot.
func (s *SnapshotStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snaps)
}
