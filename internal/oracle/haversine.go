package oracle

import (
	"context"

	"github.com/richxcame/matchengine/internal/domain"
	"github.com/richxcame/matchengine/internal/grid"
	"github.com/richxcame/matchengine/pkg/geo"
)

// HaversineShortestPath is a fallback ShortestPath for local/dev runs that
// have no real road-network service configured: it estimates distance as
// great-circle distance between two geocoded points, the same approximation
// the teacher used for ETA display before a routing engine was wired in.
// Path is a straight line (origin, destination) — a reasonable stand-in
// when the real shortest-path oracle isn't available, never used in
// production (spec.md §1 treats the true oracle as an external collaborator).
type HaversineShortestPath struct {
	geocoder grid.Geocoder
}

// NewHaversineShortestPath constructs a HaversineShortestPath over geocoder.
func NewHaversineShortestPath(geocoder grid.Geocoder) *HaversineShortestPath {
	return &HaversineShortestPath{geocoder: geocoder}
}

// Distance returns the great-circle distance in meters between a and b.
func (h *HaversineShortestPath) Distance(ctx context.Context, a, b domain.NodeID) (int, error) {
	lat1, lng1, err := h.geocoder.LatLng(ctx, a)
	if err != nil {
		return 0, err
	}
	lat2, lng2, err := h.geocoder.LatLng(ctx, b)
	if err != nil {
		return 0, err
	}
	km := geo.Haversine(lat1, lng1, lat2, lng2)
	return int(km * 1000), nil
}

// Path returns the direct [a, b] hop; there is no intermediate routing
// without a real road-network graph.
func (h *HaversineShortestPath) Path(_ context.Context, a, b domain.NodeID) ([]domain.NodeID, error) {
	return []domain.NodeID{a, b}, nil
}
