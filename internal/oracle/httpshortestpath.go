package oracle

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/richxcame/matchengine/internal/domain"
	"github.com/richxcame/matchengine/pkg/httpclient"
)

// HTTPShortestPath calls an external road-network service over HTTP for
// distance/path queries (spec.md §1: "the road-network graph and its
// shortest-path oracle" are out of scope and remain an external
// collaborator). It satisfies ShortestPath and is meant to be wrapped in
// BreakerOracle before being handed to a kinetic tree.
type HTTPShortestPath struct {
	client *httpclient.Client
}

// NewHTTPShortestPath constructs an HTTPShortestPath calling baseURL.
func NewHTTPShortestPath(baseURL string) *HTTPShortestPath {
	return &HTTPShortestPath{client: httpclient.NewClient(baseURL, httpclient.WithDefaultRetry())}
}

type distanceResponse struct {
	Meters int `json:"meters"`
}

type pathResponse struct {
	Nodes []domain.NodeID `json:"nodes"`
}

// Distance queries GET /distance?from=a&to=b.
func (h *HTTPShortestPath) Distance(ctx context.Context, a, b domain.NodeID) (int, error) {
	body, err := h.client.Get(ctx, fmt.Sprintf("/distance?from=%d&to=%d", a, b), nil)
	if err != nil {
		return 0, fmt.Errorf("oracle: distance request: %w", err)
	}
	var resp distanceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("oracle: decode distance response: %w", err)
	}
	return resp.Meters, nil
}

// Path queries GET /path?from=a&to=b.
func (h *HTTPShortestPath) Path(ctx context.Context, a, b domain.NodeID) ([]domain.NodeID, error) {
	body, err := h.client.Get(ctx, fmt.Sprintf("/path?from=%d&to=%d", a, b), nil)
	if err != nil {
		return nil, fmt.Errorf("oracle: path request: %w", err)
	}
	var resp pathResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("oracle: decode path response: %w", err)
	}
	return resp.Nodes, nil
}
