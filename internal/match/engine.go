package match

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/richxcame/matchengine/internal/domain"
	"github.com/richxcame/matchengine/internal/grid"
	"github.com/richxcame/matchengine/internal/kt"
	"github.com/richxcame/matchengine/internal/state"
	"github.com/richxcame/matchengine/pkg/eventbus"
	"github.com/richxcame/matchengine/pkg/logger"
	"github.com/richxcame/matchengine/pkg/metrics"
	"github.com/richxcame/matchengine/pkg/websocket"
)

// Engine is the batch scheduler (spec.md §4.3): one tick refreshes the
// grid and every vehicle's kinetic tree, drains the arriving customer
// FIFO, and commits each customer to the cheapest feasible vehicle.
//
// Eventbus/websocket dependencies are optional (nil-safe): the core has no
// hard runtime dependency on a broker process, per SPEC_FULL §5.
type Engine struct {
	cfg      Config
	clock    Clock
	oracle   ShortestPath
	grid     *grid.Grid
	store    *state.Store
	sink     AssignmentSink
	sync     Synchronizer
	bus      *eventbus.Bus
	hub      *websocket.Hub

	queueMu sync.Mutex
	queue   []domain.Customer

	customersMu sync.Mutex
	customers   map[domain.CustomerID]domain.Customer
	assigned    map[domain.CustomerID]domain.VehicleID

	backoff *backoffQueue

	treesMu      sync.Mutex
	trees        map[domain.VehicleID]*kt.Tree
	lastObserved map[domain.VehicleID]domain.SimTime

	statsMu        sync.Mutex
	matched        int
	refused        int
	outOfSync      int
	totalLatency   time.Duration
	latencySamples int

	shutdown atomic.Bool
}

// New constructs an Engine. bus and hub may be nil.
func New(cfg Config, clock Clock, oracle ShortestPath, g *grid.Grid, store *state.Store, sink AssignmentSink, synchronizer Synchronizer, bus *eventbus.Bus, hub *websocket.Hub) *Engine {
	return &Engine{
		cfg:          cfg,
		clock:        clock,
		oracle:       oracle,
		grid:         g,
		store:        store,
		sink:         sink,
		sync:         synchronizer,
		bus:          bus,
		hub:          hub,
		customers:    make(map[domain.CustomerID]domain.Customer),
		assigned:     make(map[domain.CustomerID]domain.VehicleID),
		backoff:      newBackoffQueue(cfg.MaxRetries),
		trees:        make(map[domain.VehicleID]*kt.Tree),
		lastObserved: make(map[domain.VehicleID]domain.SimTime),
	}
}

// OnCustomer enqueues a newly arrived customer request (spec.md §6's
// customer stream). Producers enqueue under a lock; the matcher drains
// under the same lock once per tick (spec.md §5).
func (e *Engine) OnCustomer(c domain.Customer) {
	e.customersMu.Lock()
	e.customers[c.ID] = c
	e.customersMu.Unlock()

	e.queueMu.Lock()
	e.queue = append(e.queue, c)
	e.queueMu.Unlock()
}

// OnVehicle registers or replaces a vehicle's full authoritative state
// (first observation creates its handle; spec.md §3's lifecycle).
func (e *Engine) OnVehicle(v domain.Vehicle) {
	e.store.Put(v)
}

// OnVehicleSnapshot merges a vehicle-state stream update (position,
// schedule, last-visited index, load) into the authoritative table.
func (e *Engine) OnVehicleSnapshot(snap domain.Snapshot) {
	e.store.ApplySnapshot(snap)
}

// End raises the shutdown flag, checked at the next tick boundary and at
// every candidate iteration (spec.md §5). It does not itself discard any
// shadow: Tick never returns with an outstanding tentative insertion.
func (e *Engine) End() {
	e.shutdown.Store(true)
}

// Run drives Tick on cfg.BatchPeriod until ctx is cancelled or End is
// called, mirroring the teacher's cmd/*/main.go ticker-plus-signal pattern.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.BatchPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if e.shutdown.Load() {
				return nil
			}
			if err := e.Tick(ctx); err != nil {
				return err
			}
		}
	}
}

// Tick runs exactly one batch (spec.md §4.3).
func (e *Engine) Tick(ctx context.Context) error {
	start := time.Now()
	now := e.clock.Now()

	e.refreshVehicles(ctx, now)

	batch := e.drainBatch(now)
	for _, c := range batch {
		if e.shutdown.Load() {
			break
		}
		if err := e.processCustomer(ctx, c, now); err != nil {
			return err
		}
	}

	metrics.TickDuration.Observe(time.Since(start).Seconds())
	return nil
}

// refreshVehicles clears and rebuilds the grid, advances every vehicle's
// KT by the elapsed sim-time since its last observation, and invokes the
// synchronizer wherever the authoritative schedule disagrees with the
// KT's best path (spec.md §4.3 step 1).
func (e *Engine) refreshVehicles(ctx context.Context, now domain.SimTime) {
	e.grid.Clear()
	snap := e.store.Snapshot()

	e.treesMu.Lock()
	defer e.treesMu.Unlock()

	seen := make(map[domain.VehicleID]struct{}, len(snap))
	for _, v := range snap {
		seen[v.ID] = struct{}{}

		if err := e.grid.Insert(ctx, v.ID, v.Origin); err != nil {
			logger.Warn("match: grid insert failed", zap.String("vehicle_id", string(v.ID)), zap.Error(err))
		}

		tree, ok := e.trees[v.ID]
		if !ok {
			tree = kt.New(v.Origin, v.FinalDestination, v.ID, e.oracle, e.cfg.VehicleSpeedMetersPerSimTime)
			e.trees[v.ID] = tree
			e.lastObserved[v.ID] = now
			continue
		}

		if elapsed := now - e.lastObserved[v.ID]; elapsed > 0 {
			tree.Advance(elapsed)
			e.lastObserved[v.ID] = now
		}

		e.maybeSynchronize(ctx, tree, v, now)
	}

	for id := range e.trees {
		if _, ok := seen[id]; !ok {
			delete(e.trees, id)
			delete(e.lastObserved, id)
		}
	}
}

// maybeSynchronize invokes the synchronizer iff the KT's best path next
// stop disagrees with the authoritative schedule's second stop (spec.md
// §4.4). A Synchronizer is optional: with none configured the matcher
// trusts KT-side Advance/Step to stay in sync on its own.
func (e *Engine) maybeSynchronize(ctx context.Context, tree *kt.Tree, v domain.Vehicle, now domain.SimTime) {
	if e.sync == nil || len(v.CurrentSchedule) < 2 {
		return
	}

	next, ok := tree.Next()
	authNext := v.CurrentSchedule[1].Location
	if ok && next == authNext {
		return
	}

	if err := e.sync.Synchronize(ctx, tree, v.CurrentSchedule); err != nil {
		logger.Error("match: synchronize failed", zap.String("vehicle_id", string(v.ID)), zap.Error(err))
		return
	}
	e.publishVehicleSynced(ctx, v.ID, tree.RootLocation(), now)
}

// drainBatch takes the FIFO's contents plus any back-off entries whose
// delay has elapsed (spec.md §4.3 step 2).
func (e *Engine) drainBatch(now domain.SimTime) []domain.Customer {
	e.queueMu.Lock()
	batch := e.queue
	e.queue = nil
	e.queueMu.Unlock()

	return append(batch, e.backoff.drainReady(now)...)
}

// isAssigned reports whether a customer already has a committed vehicle
// (spec.md §4.3 step 2.1: "skip if already assigned or in back-off").
func (e *Engine) isAssigned(id domain.CustomerID) bool {
	e.customersMu.Lock()
	defer e.customersMu.Unlock()
	_, ok := e.assigned[id]
	return ok
}

func (e *Engine) markAssigned(id domain.CustomerID, vid domain.VehicleID) {
	e.customersMu.Lock()
	e.assigned[id] = vid
	e.customersMu.Unlock()
}

// loadByCustomer snapshots every known customer's load, used to re-check
// capacity on a derived schedule (spec.md §7).
func (e *Engine) loadByCustomer() map[domain.CustomerID]int {
	e.customersMu.Lock()
	defer e.customersMu.Unlock()
	m := make(map[domain.CustomerID]int, len(e.customers))
	for id, c := range e.customers {
		m[id] = c.Load
	}
	return m
}

// candidate tracks the best feasible vehicle found so far for one customer.
type candidate struct {
	vehicleID domain.VehicleID
	tree      *kt.Tree
	detour    domain.SimTime
	schedule  domain.Schedule
}

// processCustomer implements spec.md §4.3 step 2: rank candidates via the
// grid, probe each via tentative_insert, track the cheapest feasible one,
// and attempt to commit it.
func (e *Engine) processCustomer(ctx context.Context, c domain.Customer, now domain.SimTime) error {
	if e.isAssigned(c.ID) {
		return nil
	}

	processStart := time.Now()

	candidateIDs, err := e.grid.Within(ctx, e.cfg.PickupRangeKm, c.Origin)
	if err != nil {
		logger.Warn("match: candidate search failed", zap.String("customer_id", string(c.ID)), zap.Error(err))
		e.missCustomer(ctx, c, now)
		return nil
	}

	directMeters, err := e.oracle.Distance(ctx, c.Origin, c.Destination)
	if err != nil {
		logger.Warn("match: direct-distance lookup failed", zap.String("customer_id", string(c.ID)), zap.Error(err))
		e.missCustomer(ctx, c, now)
		return nil
	}
	directTravel := domain.MetersToSimTime(directMeters, e.cfg.VehicleSpeedMetersPerSimTime)
	pickupDeadline := c.PickupDeadline(directTravel)

	loads := e.loadByCustomer()
	deadline := processStart.Add(e.cfg.PerCustomerTimeout)

	var best candidate
	hasBest := false
	probed := 0

	e.treesMu.Lock()
	for _, vid := range candidateIDs {
		if e.shutdown.Load() {
			break
		}
		if e.cfg.MaxCandidatesPerCustomer > 0 && probed >= e.cfg.MaxCandidatesPerCustomer {
			break
		}
		if time.Now().After(deadline) {
			break
		}

		tree, ok := e.trees[vid]
		if !ok {
			continue
		}
		if allower, ok := e.oracle.(breakerAllower); ok && !allower.Allow() {
			metrics.RecordProbeOutcome("oracle_breaker_open")
			continue
		}
		// Fast pre-check (SPEC_FULL §10, original_source/treeTaxiPath.h):
		// a tree with no slack anywhere cannot possibly host a detour.
		if tree.ComputeTotalSlack() <= 0 {
			metrics.RecordProbeOutcome("pruned_no_slack")
			continue
		}

		probed++
		committedCost, err := tree.BestTime(ctx)
		if err != nil {
			metrics.RecordProbeOutcome("oracle_error")
			logger.Warn("match: best-time failed", zap.String("vehicle_id", string(vid)), zap.Error(err))
			continue
		}

		owner := domain.Owner{CustomerID: c.ID}
		shadowCost, err := tree.TentativeInsert(ctx, owner, c.Origin, c.Destination, pickupDeadline, c.LatestDropoff)
		if err != nil {
			if errors.Is(err, kt.ErrInfeasible) {
				metrics.RecordProbeOutcome("infeasible")
			} else {
				metrics.RecordProbeOutcome("oracle_error")
				logger.Warn("match: tentative insert failed", zap.String("vehicle_id", string(vid)), zap.Error(err))
			}
			continue
		}
		detour := shadowCost - committedCost

		if hasBest && detour >= best.detour {
			_ = tree.DiscardTentative()
			continue
		}

		seq, ok := tree.ShadowOrderedStopSequence()
		if !ok {
			continue
		}

		v, ok := e.store.Get(vid)
		if !ok {
			_ = tree.DiscardTentative()
			continue
		}
		sched := appendFinalDestination(scheduleFromStops(seq), v)

		if err := domain.CheckCapacity(sched, loads, v.Capacity); err != nil {
			metrics.RecordProbeOutcome("capacity_violation")
			_ = tree.DiscardTentative()
			continue
		}

		if hasBest {
			_ = best.tree.DiscardTentative()
		}
		best = candidate{vehicleID: vid, tree: tree, detour: detour, schedule: sched}
		hasBest = true
		metrics.RecordProbeOutcome("feasible")
	}
	e.treesMu.Unlock()

	if !hasBest {
		e.missCustomer(ctx, c, now)
		return nil
	}

	route, err := domain.MaterializeRoute(ctx, e.oracle, best.schedule, 0)
	if err != nil {
		logger.Warn("match: route materialization failed", zap.String("vehicle_id", string(best.vehicleID)), zap.Error(err))
		_ = best.tree.DiscardTentative()
		e.missCustomer(ctx, c, now)
		return nil
	}

	req := AssignmentRequest{
		Vehicle:        best.vehicleID,
		CustomersAdded: []domain.CustomerID{c.ID},
		NewRoute:       route,
		NewSchedule:    best.schedule,
	}

	accepted, err := e.sink.Assign(ctx, req)
	if err != nil {
		logger.Error("match: assignment sink error", zap.String("customer_id", string(c.ID)), zap.Error(err))
		_ = best.tree.DiscardTentative()
		e.recordOutOfSync(ctx, c, best.vehicleID, now)
		return nil
	}
	if !accepted {
		_ = best.tree.DiscardTentative()
		e.recordOutOfSync(ctx, c, best.vehicleID, now)
		return nil
	}

	if err := best.tree.CommitTentative(); err != nil {
		return err
	}
	e.markAssigned(c.ID, best.vehicleID)
	e.backoff.remove(c.ID)
	e.recordMatched(time.Since(processStart))
	e.publishAssignmentCommitted(ctx, c.ID, best.vehicleID, int64(best.detour))
	return nil
}

// missCustomer handles a tick where no feasible candidate was found
// (spec.md §4.3 step 3).
func (e *Engine) missCustomer(ctx context.Context, c domain.Customer, now domain.SimTime) {
	refused, _ := e.backoff.retry(c, now, e.cfg.BackoffDelay)
	if refused {
		e.recordRefused()
		e.publishCustomerRefused(ctx, c.ID, e.cfg.MaxRetries)
	}
}

// recordOutOfSync handles an assignment sink rejection (spec.md §7): the
// KT was already rolled back by the caller; this only updates bookkeeping
// and re-queues the customer.
func (e *Engine) recordOutOfSync(ctx context.Context, c domain.Customer, vid domain.VehicleID, now domain.SimTime) {
	e.statsMu.Lock()
	e.outOfSync++
	e.statsMu.Unlock()
	metrics.OutOfSyncRejectionsTotal.Inc()
	e.publishOutOfSyncRejection(ctx, c.ID, vid)

	refused, _ := e.backoff.retry(c, now, e.cfg.BackoffDelay)
	if refused {
		e.recordRefused()
		e.publishCustomerRefused(ctx, c.ID, e.cfg.MaxRetries)
	}
}

func (e *Engine) recordMatched(latency time.Duration) {
	e.statsMu.Lock()
	e.matched++
	e.totalLatency += latency
	e.latencySamples++
	e.statsMu.Unlock()
	metrics.CustomersMatchedTotal.Inc()
}

func (e *Engine) recordRefused() {
	e.statsMu.Lock()
	e.refused++
	e.statsMu.Unlock()
	metrics.CustomersRefusedTotal.Inc()
}

// Statistics reports the matcher's running totals (spec.md §6).
type Statistics struct {
	Matched             int
	Refused             int
	OutOfSyncRejections int
	MeanMatchLatency    time.Duration
}

// Statistics returns the current matched/refused/out-of-sync/latency
// totals (spec.md §6: statistics() → { matched, refused,
// out_of_sync_rejections, mean_match_latency }).
func (e *Engine) Statistics() Statistics {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()

	var mean time.Duration
	if e.latencySamples > 0 {
		mean = e.totalLatency / time.Duration(e.latencySamples)
	}
	return Statistics{
		Matched:             e.matched,
		Refused:             e.refused,
		OutOfSyncRejections: e.outOfSync,
		MeanMatchLatency:    mean,
	}
}

// scheduleFromStops converts a KT's ordered-stop-sequence into a Schedule
// suitable for domain.CheckCapacity; time windows are not reconstructed
// here since the KT already proved time feasibility.
func scheduleFromStops(seq []domain.OrderedStopTriple) domain.Schedule {
	sched := make(domain.Schedule, 0, len(seq))
	for _, t := range seq {
		kind := domain.VehlOrig
		if t.Owner.IsCustomer() {
			if t.IsPickup {
				kind = domain.CustOrig
			} else {
				kind = domain.CustDest
			}
		}
		sched = append(sched, domain.Stop{Owner: t.Owner, Location: t.Location, Kind: kind})
	}
	return sched
}

// appendFinalDestination appends the vehicle's final destination as the
// Schedule's trailing stop (spec §3: "last element is the vehicle's final
// destination"). The kinetic tree itself never materializes this node — its
// cost is only a term in best_time — so the matcher appends it when
// deriving a Schedule. Taxis (no fixed destination) get a sentinel VehlDest
// stop at the location of the schedule's last stop instead (spec §9's design note: "a
// sentinel dropoff node is appended... so downstream consumers see a
// uniform schedule shape").
func appendFinalDestination(sched domain.Schedule, v domain.Vehicle) domain.Schedule {
	if len(sched) == 0 {
		return sched
	}
	dest := sched[len(sched)-1].Location
	if v.FinalDestination != nil {
		dest = *v.FinalDestination
	}
	return append(sched, domain.Stop{
		Owner:    domain.Owner{VehicleID: v.ID},
		Location: dest,
		Kind:     domain.VehlDest,
	})
}
