package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/richxcame/matchengine/internal/domain"
	"github.com/richxcame/matchengine/internal/match"
	"github.com/richxcame/matchengine/pkg/eventbus"
)

// customerArrivedHandler decodes a CustomerArrivedData event and hands it
// to the engine directly (spec.md §6 describes the customer stream as a
// channel; here the NATS consumer callback plays that producer's role, and
// Engine.OnCustomer — already lock-protected and nil-safe — is the consumer
// side, so no intermediate Go channel is introduced).
func customerArrivedHandler(engine *match.Engine) eventbus.HandlerFunc {
	return func(_ context.Context, event *eventbus.Event) error {
		var data eventbus.CustomerArrivedData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return fmt.Errorf("decode customer arrived event: %w", err)
		}
		engine.OnCustomer(domain.Customer{
			ID:             domain.CustomerID(data.CustomerID),
			Origin:         domain.NodeID(data.Origin),
			Destination:    domain.NodeID(data.Destination),
			EarliestPickup: domain.SimTime(data.EarliestPickup),
			LatestDropoff:  domain.SimTime(data.LatestDropoff),
			Load:           data.Load,
		})
		return nil
	}
}

// vehicleSnapshotHandler decodes a VehicleSnapshotData event and merges it
// into the engine's authoritative vehicle-state table (spec.md §6's
// vehicle-state stream).
func vehicleSnapshotHandler(engine *match.Engine) eventbus.HandlerFunc {
	return func(_ context.Context, event *eventbus.Event) error {
		var data eventbus.VehicleSnapshotData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return fmt.Errorf("decode vehicle snapshot event: %w", err)
		}
		engine.OnVehicleSnapshot(domain.Snapshot{
			VehicleID:        domain.VehicleID(data.VehicleID),
			Position:         domain.NodeID(data.Position),
			Schedule:         toDomainSchedule(data.Schedule),
			LastVisitedIndex: data.LastVisitedIndex,
			CurrentLoad:      data.CurrentLoad,
			ObservedAt:       domain.SimTime(data.ObservedAt),
		})
		return nil
	}
}

func toDomainSchedule(stops []eventbus.Stop) domain.Schedule {
	sched := make(domain.Schedule, 0, len(stops))
	for _, s := range stops {
		sched = append(sched, domain.Stop{
			Owner: domain.Owner{
				VehicleID:  domain.VehicleID(s.OwnerVehicle),
				CustomerID: domain.CustomerID(s.OwnerCustomer),
			},
			Location: domain.NodeID(s.NodeID),
			Kind:     domain.StopKind(s.Kind),
		})
	}
	return sched
}
