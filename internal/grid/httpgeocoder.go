package grid

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/richxcame/matchengine/internal/domain"
	"github.com/richxcame/matchengine/pkg/httpclient"
)

// HTTPGeocoder resolves NodeIDs to coordinates via the same external
// road-network service the oracle queries (spec §9's routing truth vs.
// geography split: the grid is the only component that needs coordinates
// at all). Grounded in the same httpclient pattern as
// internal/oracle.HTTPShortestPath since both call the one external
// collaborator spec.md §1 excludes from scope.
type HTTPGeocoder struct {
	client *httpclient.Client
}

// NewHTTPGeocoder constructs an HTTPGeocoder calling baseURL.
func NewHTTPGeocoder(baseURL string) *HTTPGeocoder {
	return &HTTPGeocoder{client: httpclient.NewClient(baseURL, httpclient.WithDefaultRetry())}
}

type latLngResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// LatLng queries GET /geocode?node=<id>.
func (g *HTTPGeocoder) LatLng(ctx context.Context, node domain.NodeID) (float64, float64, error) {
	body, err := g.client.Get(ctx, fmt.Sprintf("/geocode?node=%d", node), nil)
	if err != nil {
		return 0, 0, fmt.Errorf("geocoder: request: %w", err)
	}
	var resp latLngResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, 0, fmt.Errorf("geocoder: decode response: %w", err)
	}
	return resp.Lat, resp.Lng, nil
}
