package match

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/richxcame/matchengine/internal/domain"
	"github.com/richxcame/matchengine/pkg/async"
	"github.com/richxcame/matchengine/pkg/eventbus"
	"github.com/richxcame/matchengine/pkg/logger"
	"github.com/richxcame/matchengine/pkg/websocket"
)

// publishAssignmentCommitted fans a committed match out to the eventbus and
// the live dashboard websocket feed (SPEC_FULL §4.3 addition). Both
// dependencies are optional.
func (e *Engine) publishAssignmentCommitted(ctx context.Context, customerID domain.CustomerID, vehicleID domain.VehicleID, costSimTime int64) {
	data := eventbus.AssignmentCommittedData{
		CustomerID:  string(customerID),
		VehicleID:   string(vehicleID),
		Cost:        costSimTime,
		CommittedAt: time.Now().UTC(),
	}
	e.publishEvent(ctx, eventbus.SubjectAssignmentCommitted, "assignment.committed", data)
	e.broadcast(vehicleID, "assignment.committed", map[string]interface{}{
		"customer_id": customerID,
		"vehicle_id":  vehicleID,
		"cost":        costSimTime,
	})
}

// publishCustomerRefused fans out a customer exhausting its retry bound
// (spec.md §4.3 step 3).
func (e *Engine) publishCustomerRefused(ctx context.Context, customerID domain.CustomerID, attempts int) {
	data := eventbus.CustomerRefusedData{
		CustomerID: string(customerID),
		Attempts:   attempts,
		RefusedAt:  time.Now().UTC(),
	}
	e.publishEvent(ctx, eventbus.SubjectCustomerRefused, "customer.refused", data)
}

// publishOutOfSyncRejection fans out an assignment sink rejection
// (spec.md §7).
func (e *Engine) publishOutOfSyncRejection(ctx context.Context, customerID domain.CustomerID, vehicleID domain.VehicleID) {
	data := eventbus.OutOfSyncRejectionData{
		CustomerID: string(customerID),
		VehicleID:  string(vehicleID),
		RejectedAt: time.Now().UTC(),
	}
	e.publishEvent(ctx, eventbus.SubjectOutOfSyncRejection, "assignment.out_of_sync", data)
}

// publishVehicleSynced fans out a synchronizer reconciliation (spec.md §4.4).
func (e *Engine) publishVehicleSynced(ctx context.Context, vehicleID domain.VehicleID, position domain.NodeID, _ domain.SimTime) {
	data := eventbus.VehicleSyncedData{
		VehicleID: string(vehicleID),
		Position:  int64(position),
		SyncedAt:  time.Now().UTC(),
	}
	e.publishEvent(ctx, eventbus.SubjectVehicleSynced, "vehicle.synced", data)
	e.broadcast(vehicleID, "vehicle.synced", map[string]interface{}{
		"vehicle_id": vehicleID,
		"position":   position,
	})
}

// publishEvent hands the outbound NATS publish to async.Go so a slow broker
// round-trip never blocks the tick loop waiting on it (spec.md §5: a tick
// must not be held hostage by a side-channel collaborator).
func (e *Engine) publishEvent(ctx context.Context, subject, eventType string, data interface{}) {
	if e.bus == nil {
		return
	}
	evt, err := eventbus.NewEvent(eventType, "matchengine", data)
	if err != nil {
		logger.Warn("match: failed to build event", zap.String("type", eventType), zap.Error(err))
		return
	}
	async.Go(ctx, "publish-"+eventType, func(ctx context.Context) {
		if err := e.bus.Publish(ctx, subject, evt); err != nil {
			logger.Warn("match: failed to publish event", zap.String("subject", subject), zap.Error(err))
		}
	})
}

func (e *Engine) broadcast(vehicleID domain.VehicleID, msgType string, data map[string]interface{}) {
	if e.hub == nil {
		return
	}
	e.hub.SendToVehicle(string(vehicleID), &websocket.Message{
		Type:      msgType,
		VehicleID: string(vehicleID),
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
}
