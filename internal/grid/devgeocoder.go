package grid

import (
	"context"

	"github.com/richxcame/matchengine/internal/domain"
)

// DevGeocoder synthesizes a deterministic coordinate for every NodeID by
// treating it as an offset into a fixed-size lat/lng lattice. It exists
// solely so cmd/matchengine can run end-to-end without an external
// road-network/geocoding service configured (local/dev runs, tests); it has
// no relationship to real geography and must never be used in production.
type DevGeocoder struct {
	originLat, originLng float64
	stepDeg              float64
	latticeWidth         int64
}

// NewDevGeocoder constructs a DevGeocoder whose node 0 sits at (originLat,
// originLng), with cells stepDeg degrees apart, wrapping every latticeWidth
// nodes; higher node IDs lie north and east of that corner.
func NewDevGeocoder(originLat, originLng, stepDeg float64, latticeWidth int64) *DevGeocoder {
	if latticeWidth <= 0 {
		latticeWidth = 1000
	}
	return &DevGeocoder{originLat: originLat, originLng: originLng, stepDeg: stepDeg, latticeWidth: latticeWidth}
}

// LatLng derives (lat, lng) from node's position in the synthetic lattice.
func (g *DevGeocoder) LatLng(_ context.Context, node domain.NodeID) (float64, float64, error) {
	n := int64(node)
	row := n / g.latticeWidth
	col := n % g.latticeWidth
	return g.originLat + float64(row)*g.stepDeg, g.originLng + float64(col)*g.stepDeg, nil
}
