// Package state holds the vehicle-state table (spec.md §5): writes from the
// vehicle-state stream, reads from the matcher, with a consistent snapshot
// handed to each tick via copy-in rather than shared mutable access.
package state

import (
	"sync"

	"github.com/richxcame/matchengine/internal/domain"
)

// Store is the matcher's authoritative, in-process vehicle-state table.
// Safe for concurrent use: the state producer writes, the matcher reads a
// consistent snapshot once per tick.
type Store struct {
	mu       sync.RWMutex
	vehicles map[domain.VehicleID]domain.Vehicle
}

// New constructs an empty Store.
func New() *Store {
	return &Store{vehicles: make(map[domain.VehicleID]domain.Vehicle)}
}

// Put records or replaces a vehicle's authoritative state.
func (s *Store) Put(v domain.Vehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicles[v.ID] = v
}

// Get returns a vehicle's current state and whether it is known.
func (s *Store) Get(id domain.VehicleID) (domain.Vehicle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vehicles[id]
	return v, ok
}

// Delete removes a vehicle from the table (e.g. it leaves service).
func (s *Store) Delete(id domain.VehicleID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.vehicles, id)
}

// Snapshot returns a copy of every vehicle currently in service — the
// "copy-in at the top of the tick" the matcher reads from (spec §5).
func (s *Store) Snapshot() []domain.Vehicle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Vehicle, 0, len(s.vehicles))
	for _, v := range s.vehicles {
		out = append(out, v)
	}
	return out
}

// Len returns the number of vehicles currently tracked.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vehicles)
}

// ApplySnapshot merges a vehicle-state stream snapshot into the store,
// updating position, schedule, last-visited index, and load (spec.md §6's
// vehicle-state stream contract).
func (s *Store) ApplySnapshot(snap domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.vehicles[snap.VehicleID]
	if !ok {
		return
	}
	v.Origin = snap.Position
	v.CurrentSchedule = snap.Schedule
	v.LastVisitedIndex = snap.LastVisitedIndex
	v.CurrentLoad = snap.CurrentLoad
	s.vehicles[snap.VehicleID] = v
}
