package eventbus

import "time"

// AssignmentCommittedData is emitted whenever the matcher commits a
// customer to a vehicle (spec §4.3 step 2.5, §6's assignment sink).
type AssignmentCommittedData struct {
	CustomerID  string    `json:"customer_id"`
	VehicleID   string    `json:"vehicle_id"`
	Cost        int64     `json:"cost_sim_time"`
	CommittedAt time.Time `json:"committed_at"`
}

// CustomerRefusedData is emitted when a customer exhausts its retry bound
// without being matched (spec §4.3 step 3).
type CustomerRefusedData struct {
	CustomerID string    `json:"customer_id"`
	Attempts   int       `json:"attempts"`
	RefusedAt  time.Time `json:"refused_at"`
}

// OutOfSyncRejectionData is emitted when the assignment sink rejects a
// commit because the vehicle's authoritative state had already advanced
// past the assumed route prefix (spec §7).
type OutOfSyncRejectionData struct {
	CustomerID string    `json:"customer_id"`
	VehicleID  string    `json:"vehicle_id"`
	RejectedAt time.Time `json:"rejected_at"`
}

// VehicleSyncedData is emitted after the synchronizer reconciles a
// vehicle's kinetic tree with its authoritative schedule (spec §4.4).
type VehicleSyncedData struct {
	VehicleID  string    `json:"vehicle_id"`
	Position   int64     `json:"position_node_id"`
	SyncedAt   time.Time `json:"synced_at"`
}

// CustomerArrivedData is the wire form of a newly arrived customer request
// (spec §6's customer stream), consumed by the matcher's request FIFO.
type CustomerArrivedData struct {
	CustomerID     string `json:"customer_id"`
	Origin         int64  `json:"origin_node_id"`
	Destination    int64  `json:"destination_node_id"`
	EarliestPickup int64  `json:"earliest_pickup"`
	LatestDropoff  int64  `json:"latest_dropoff"`
	Load           int    `json:"load"`
}

// VehicleSnapshotData is the wire form of a vehicle-state stream update
// (spec §6): position, schedule, last-visited index, and load.
type VehicleSnapshotData struct {
	VehicleID        string `json:"vehicle_id"`
	Position         int64  `json:"position_node_id"`
	Schedule         []Stop `json:"schedule"`
	LastVisitedIndex int    `json:"last_visited_index"`
	CurrentLoad      int    `json:"current_load"`
	ObservedAt       int64  `json:"observed_at"`
}

// Stop is the wire form of one domain.Stop entry within a VehicleSnapshotData
// schedule (kept independent of internal/domain so pkg/eventbus has no
// dependency on the module's internal packages).
type Stop struct {
	NodeID        int64  `json:"node_id"`
	OwnerVehicle  string `json:"owner_vehicle,omitempty"`
	OwnerCustomer string `json:"owner_customer,omitempty"`
	Kind          int    `json:"kind"`
}
