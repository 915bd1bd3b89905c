// Package grid implements the matcher's spatial index: the structure that
// narrows a customer's candidate vehicles before they are probed against
// the (expensive) kinetic tree (spec §4.2).
//
// The spec describes a uniform G×G cell grid with great-circle
// over-approximation at the cell-boundary. This implementation grounds
// that contract in H3 hexagonal indexing instead of a literal 2D array —
// the teacher's own internal/geo/h3.go already wraps github.com/uber/h3-go
// for exactly this purpose (driver-rider matching at H3 resolution 9). A
// k-ring disk around the query point is a legitimate over-approximation of
// a circular radius (spec explicitly allows over-approximation; "the
// matcher re-filters"), and it avoids hand-rolling bounding-box math the
// ecosystem already solved.
package grid

import (
	"context"
	"math"

	"github.com/uber/h3-go/v4"

	"github.com/richxcame/matchengine/internal/domain"
)

// Geocoder resolves a road-network NodeID to the geographic coordinate the
// grid indexes on. The KT and oracle never see coordinates — only the
// grid and the matcher's candidate-narrowing step do (spec §9's routing
// truth vs. geography split).
type Geocoder interface {
	LatLng(ctx context.Context, node domain.NodeID) (lat, lng float64, err error)
}

// averageEdgeLengthKm is H3's published average hexagon edge length per
// resolution, used to translate a requested radius into a k-ring depth.
var averageEdgeLengthKm = [16]float64{
	1107.712591, 418.6760055, 158.2446558, 59.81085794,
	22.6063794, 8.544408276, 3.229482772, 1.220629759,
	0.461354684, 0.174375668, 0.065907807, 0.024910561,
	0.009415526, 0.003559893, 0.001348575, 0.000509713,
}

// Grid maps H3 cells to the set of vehicle handles currently located
// within them. Owned exclusively by the matcher; no concurrent mutation.
type Grid struct {
	resolution int
	geocoder   Geocoder
	cells      map[h3.Cell][]domain.VehicleID
	positions  map[domain.VehicleID]h3.Cell
}

// New constructs a Grid at the given H3 resolution (spec's grid
// resolution, e.g. 9 — roughly 175m cell edges).
func New(resolution int, geocoder Geocoder) *Grid {
	return &Grid{
		resolution: resolution,
		geocoder:   geocoder,
		cells:      make(map[h3.Cell][]domain.VehicleID),
		positions:  make(map[domain.VehicleID]h3.Cell),
	}
}

// Clear empties all cells. Called at the top of every batch (spec §4.3).
func (g *Grid) Clear() {
	g.cells = make(map[h3.Cell][]domain.VehicleID)
	g.positions = make(map[domain.VehicleID]h3.Cell)
}

// Insert places a vehicle's handle in the cell containing its current
// position (spec §4.2).
func (g *Grid) Insert(ctx context.Context, vehicle domain.VehicleID, position domain.NodeID) error {
	lat, lng, err := g.geocoder.LatLng(ctx, position)
	if err != nil {
		return err
	}
	cell, err := h3.LatLngToCell(h3.NewLatLng(lat, lng), g.resolution)
	if err != nil {
		return err
	}
	g.cells[cell] = append(g.cells[cell], vehicle)
	g.positions[vehicle] = cell
	return nil
}

// Within returns every vehicle handle in any cell whose k-ring disk
// (around the cell containing point) covers radiusKm — an
// over-approximation of a true circular radius query, as the spec
// explicitly permits (spec §4.2: "the matcher re-filters").
func (g *Grid) Within(ctx context.Context, radiusKm float64, point domain.NodeID) ([]domain.VehicleID, error) {
	lat, lng, err := g.geocoder.LatLng(ctx, point)
	if err != nil {
		return nil, err
	}
	origin, err := h3.LatLngToCell(h3.NewLatLng(lat, lng), g.resolution)
	if err != nil {
		return nil, err
	}

	k := kRingForRadius(g.resolution, radiusKm)
	disk, err := origin.GridDisk(k)
	if err != nil {
		// Over-approximate further rather than fail the whole candidate
		// search: fall back to every indexed cell.
		disk = nil
		for c := range g.cells {
			disk = append(disk, c)
		}
	}

	var out []domain.VehicleID
	for _, c := range disk {
		out = append(out, g.cells[c]...)
	}
	return out, nil
}

func kRingForRadius(resolution int, radiusKm float64) int {
	if resolution < 0 || resolution >= len(averageEdgeLengthKm) {
		resolution = 9
	}
	edge := averageEdgeLengthKm[resolution]
	if edge <= 0 {
		return 1
	}
	k := int(math.Ceil(radiusKm / edge))
	if k < 1 {
		k = 1
	}
	return k
}
