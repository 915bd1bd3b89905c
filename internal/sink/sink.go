// Package sink implements the assignment sink (spec.md §6's AssignmentSink
// collaborator): the authoritative commit point that either applies a
// matcher's candidate schedule to the fleet-state table or rejects it as
// out-of-sync, grounded in the teacher's RidesRepository.UpdateRideDriver
// commit pattern (internal/matching/service.go) but backed by the
// in-process vehicle-state table instead of a Postgres repository.
package sink

import (
	"context"
	"sync"

	"github.com/richxcame/matchengine/internal/domain"
	"github.com/richxcame/matchengine/internal/match"
	"github.com/richxcame/matchengine/internal/state"
	"github.com/richxcame/matchengine/pkg/async"
	"github.com/richxcame/matchengine/pkg/logger"
	"go.uber.org/zap"
)

// StateSink commits assignments into an internal/state.Store. It is the
// matcher's default AssignmentSink; a future multi-process deployment can
// swap it for one backed by pkg/redis without changing internal/match.
type StateSink struct {
	store  *state.Store
	mirror *state.RedisMirror
	mu     sync.Mutex
}

// New constructs a StateSink over store.
func New(store *state.Store) *StateSink {
	return &StateSink{store: store}
}

// WithMirror attaches a RedisMirror that every committed assignment is
// written through to, so a second process can rehydrate vehicle state
// without replaying the vehicle-state stream from the start.
func (s *StateSink) WithMirror(mirror *state.RedisMirror) *StateSink {
	s.mirror = mirror
	return s
}

// Assign applies req to the vehicle's authoritative record iff the
// candidate's assumed starting stop still matches the vehicle's current
// position (spec.md §6: "may fail if the vehicle's state has advanced
// beyond the route prefix assumed by the caller"). Committing replaces the
// route and schedule the matcher derived and adjusts CurrentLoad by the
// number of customers added and removed (see loadAfter); position stays
// with the vehicle-state stream.
func (s *StateSink) Assign(_ context.Context, req match.AssignmentRequest) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.store.Get(req.Vehicle)
	if !ok {
		logger.Warn("sink: assignment for unknown vehicle", zap.String("vehicle_id", string(req.Vehicle)))
		return false, nil
	}

	if len(req.NewSchedule) == 0 || req.NewSchedule[0].Location != v.Origin {
		return false, nil
	}

	v.CurrentRoute = req.NewRoute
	v.CurrentSchedule = req.NewSchedule
	v.CurrentLoad = loadAfter(v, req)
	s.store.Put(v)

	if s.mirror != nil {
		async.Go(context.Background(), "mirror-vehicle", func(ctx context.Context) {
			if err := s.mirror.Write(ctx, v); err != nil {
				logger.Warn("sink: failed to mirror committed vehicle", zap.String("vehicle_id", string(v.ID)), zap.Error(err))
			}
		})
	}
	return true, nil
}

// loadAfter derives the vehicle's load after applying the committed
// schedule's customer count, clamped to capacity (spec.md §3's capacity
// invariant is re-checked upstream by domain.CheckCapacity; this is
// bookkeeping only).
func loadAfter(v domain.Vehicle, req match.AssignmentRequest) int {
	load := v.CurrentLoad + len(req.CustomersAdded) - len(req.CustomersRemoved)
	if load < 0 {
		return 0
	}
	if load > v.Capacity {
		return v.Capacity
	}
	return load
}
