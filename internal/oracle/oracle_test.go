package oracle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richxcame/matchengine/internal/domain"
	"github.com/richxcame/matchengine/pkg/resilience"
)

type fakeShortestPath struct {
	distance int
	path     []domain.NodeID
	err      error
	calls    int
}

func (f *fakeShortestPath) Distance(ctx context.Context, a, b domain.NodeID) (int, error) {
	f.calls++
	return f.distance, f.err
}

func (f *fakeShortestPath) Path(ctx context.Context, a, b domain.NodeID) ([]domain.NodeID, error) {
	f.calls++
	return f.path, f.err
}

func TestBreakerOracle_Distance_Success(t *testing.T) {
	fake := &fakeShortestPath{distance: 1500}
	o := New(fake, resilience.Settings{Name: "test-oracle"}, true, "test")

	meters, err := o.Distance(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 1500, meters)
}

func TestBreakerOracle_Distance_PropagatesFailure(t *testing.T) {
	fake := &fakeShortestPath{err: errors.New("upstream down")}
	o := New(fake, resilience.Settings{Name: "test-oracle-fail"}, true, "test")

	_, err := o.Distance(context.Background(), 1, 2)
	assert.Error(t, err)
}

func TestBreakerOracle_Path_Success(t *testing.T) {
	fake := &fakeShortestPath{path: []domain.NodeID{1, 5, 2}}
	o := New(fake, resilience.Settings{Name: "test-oracle-path"}, true, "test")

	path, err := o.Path(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []domain.NodeID{1, 5, 2}, path)
}

func TestBreakerOracle_TripsBreakerAndSkipsCandidate(t *testing.T) {
	fake := &fakeShortestPath{err: errors.New("boom")}
	o := New(fake, resilience.Settings{
		Name:             "test-oracle-trip",
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Timeout:          50 * time.Millisecond,
		Interval:         50 * time.Millisecond,
	}, true, "test")

	for i := 0; i < 2; i++ {
		_, err := o.Distance(context.Background(), 1, 2)
		assert.Error(t, err)
	}

	assert.False(t, o.Allow())
}

func TestBreakerOracle_DisabledPassesThrough(t *testing.T) {
	fake := &fakeShortestPath{distance: 42}
	o := New(fake, resilience.Settings{}, false, "test")

	meters, err := o.Distance(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 42, meters)
	assert.True(t, o.Allow())
}
