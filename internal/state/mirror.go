package state

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/richxcame/matchengine/internal/domain"
	"github.com/richxcame/matchengine/pkg/logger"
	redisclient "github.com/richxcame/matchengine/pkg/redis"
	"go.uber.org/zap"
)

// snapshotTTL bounds how long a mirrored snapshot is trusted stale before a
// reconnecting process should treat it as missing rather than authoritative.
const snapshotTTL = 5 * time.Minute

// RedisMirror persists vehicle snapshots to Redis so a second process (a
// dashboard, or a matcher restarting) can rehydrate the state table without
// waiting for a fresh vehicle-state stream (spec.md §5's single authoritative
// table, mirrored rather than replaced — the in-process Store stays
// authoritative for the matcher's own tick).
type RedisMirror struct {
	client *redisclient.Client
	prefix string
}

// NewRedisMirror constructs a mirror keyed under the given prefix
// (e.g. "matchengine:vehicle:").
func NewRedisMirror(client *redisclient.Client, prefix string) *RedisMirror {
	if prefix == "" {
		prefix = "matchengine:vehicle:"
	}
	return &RedisMirror{client: client, prefix: prefix}
}

func (m *RedisMirror) key(id domain.VehicleID) string {
	return m.prefix + string(id)
}

// mirroredVehicle is the JSON-serializable subset of domain.Vehicle the
// mirror persists: enough to rehydrate a Store snapshot, not the full KT.
type mirroredVehicle struct {
	ID               domain.VehicleID `json:"id"`
	Origin           domain.NodeID    `json:"origin"`
	FinalDestination *domain.NodeID   `json:"final_destination,omitempty"`
	Earliest         domain.SimTime   `json:"earliest"`
	Latest           domain.SimTime   `json:"latest"`
	Capacity         int              `json:"capacity"`
	CurrentLoad      int              `json:"current_load"`
	LastVisitedIndex int              `json:"last_visited_index"`
}

// Write mirrors a single vehicle's state to Redis with a TTL.
func (m *RedisMirror) Write(ctx context.Context, v domain.Vehicle) error {
	mv := mirroredVehicle{
		ID:               v.ID,
		Origin:           v.Origin,
		FinalDestination: v.FinalDestination,
		Earliest:         v.Earliest,
		Latest:           v.Latest,
		Capacity:         v.Capacity,
		CurrentLoad:      v.CurrentLoad,
		LastVisitedIndex: v.LastVisitedIndex,
	}
	data, err := json.Marshal(mv)
	if err != nil {
		return fmt.Errorf("state: marshal vehicle %s: %w", v.ID, err)
	}
	if err := m.client.RetryableSet(ctx, m.key(v.ID), data, snapshotTTL); err != nil {
		return fmt.Errorf("state: mirror vehicle %s: %w", v.ID, err)
	}
	return nil
}

// Read rehydrates one vehicle's mirrored state, or (zero, false) if absent.
func (m *RedisMirror) Read(ctx context.Context, id domain.VehicleID) (domain.Vehicle, bool) {
	raw, err := m.client.RetryableGet(ctx, m.key(id))
	if err != nil {
		return domain.Vehicle{}, false
	}

	var mv mirroredVehicle
	if err := json.Unmarshal([]byte(raw), &mv); err != nil {
		logger.Warn("state: failed to unmarshal mirrored vehicle",
			zap.String("vehicle_id", string(id)), zap.Error(err))
		return domain.Vehicle{}, false
	}

	return domain.Vehicle{
		ID:               mv.ID,
		Origin:           mv.Origin,
		FinalDestination: mv.FinalDestination,
		Earliest:         mv.Earliest,
		Latest:           mv.Latest,
		Capacity:         mv.Capacity,
		CurrentLoad:      mv.CurrentLoad,
		LastVisitedIndex: mv.LastVisitedIndex,
	}, true
}

// Delete removes a vehicle's mirrored state (e.g. it leaves service).
func (m *RedisMirror) Delete(ctx context.Context, id domain.VehicleID) error {
	return m.client.RetryableDelete(ctx, m.key(id))
}
