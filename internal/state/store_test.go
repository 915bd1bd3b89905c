package state

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/richxcame/matchengine/internal/domain"
)

func TestStore_PutAndGet(t *testing.T) {
	s := New()
	v := domain.Vehicle{ID: "V1", Origin: 10, Capacity: 4}
	s.Put(v)

	got, ok := s.Get("V1")
	assert.True(t, ok)
	assert.Equal(t, v, got)
}

func TestStore_GetMissing(t *testing.T) {
	s := New()
	_, ok := s.Get("ghost")
	assert.False(t, ok)
}

func TestStore_Delete(t *testing.T) {
	s := New()
	s.Put(domain.Vehicle{ID: "V1"})
	s.Delete("V1")

	_, ok := s.Get("V1")
	assert.False(t, ok)
}

func TestStore_Snapshot(t *testing.T) {
	s := New()
	s.Put(domain.Vehicle{ID: "V1"})
	s.Put(domain.Vehicle{ID: "V2"})

	snap := s.Snapshot()
	assert.Len(t, snap, 2)
	assert.Equal(t, 2, s.Len())
}

func TestStore_ApplySnapshot(t *testing.T) {
	s := New()
	s.Put(domain.Vehicle{ID: "V1", Origin: 10, CurrentLoad: 0})

	s.ApplySnapshot(domain.Snapshot{
		VehicleID:        "V1",
		Position:         20,
		LastVisitedIndex: 2,
		CurrentLoad:      1,
	})

	v, ok := s.Get("V1")
	assert.True(t, ok)
	assert.Equal(t, domain.NodeID(20), v.Origin)
	assert.Equal(t, 2, v.LastVisitedIndex)
	assert.Equal(t, 1, v.CurrentLoad)
}

func TestStore_ApplySnapshot_UnknownVehicleIsNoop(t *testing.T) {
	s := New()
	s.ApplySnapshot(domain.Snapshot{VehicleID: "ghost", Position: 5})

	_, ok := s.Get("ghost")
	assert.False(t, ok)
}
