package astar_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taro-routing/taro/internal/astar"
	"github.com/taro-routing/taro/internal/budget"
	"github.com/taro-routing/taro/internal/costengine"
	"github.com/taro-routing/taro/internal/label"
	"github.com/taro-routing/taro/internal/profile"
	"github.com/taro-routing/taro/internal/reason"
	"github.com/taro-routing/taro/internal/temporal"
	"github.com/taro-routing/taro/internal/topology"
	"github.com/taro-routing/taro/internal/transition"
	"github.com/taro-routing/taro/internal/turntable"
)

// linearChain builds a 5-node chain 0->1->2->3->4, each edge costing 10
// seconds of free-flow weight with no profile (profile id 0, the reserved
// identity profile).
func linearChain(t *testing.T) *topology.Graph {
	t.Helper()
	g, err := topology.New(topology.Params{
		FirstEdge:     []uint32{0, 1, 2, 3, 4, 4},
		EdgeTarget:    []uint32{1, 2, 3, 4},
		EdgeOrigin:    []uint32{0, 1, 2, 3},
		BaseWeight:    []float64{10, 10, 10, 10},
		EdgeProfileID: []uint32{0, 0, 0, 0},
	})
	require.NoError(t, err)
	return g
}

func newPlainResolver(t *testing.T) *temporal.Resolver {
	t.Helper()
	r, err := temporal.New(temporal.Linear, temporal.UTC, "")
	require.NoError(t, err)
	return r
}

func TestRun_LinearChainReachable(t *testing.T) {
	g := linearChain(t)
	profiles, err := profile.New(nil)
	require.NoError(t, err)
	cost := costengine.New(g, profiles, costengine.Discrete)
	trans := transition.New(transition.NodeBased, (*turntable.Table)(nil))
	resolver := newPlainResolver(t)

	result, err := astar.Run(astar.Config{
		Graph:          g,
		Cost:           cost,
		Transition:     trans,
		Resolver:       resolver,
		Labels:         label.NewStore(64),
		Budget:         budget.NewTracker(budget.Caps{}),
		Source:         0,
		Target:         4,
		DepartureTicks: 0,
	})
	require.NoError(t, err)
	require.True(t, result.Reachable)
	require.Equal(t, 40.0, result.Cost)
	require.Equal(t, int64(40), result.Arrival)
	require.Equal(t, []uint32{0, 1, 2, 3}, result.Edges)
}

func TestRun_SameSourceAndTarget(t *testing.T) {
	g := linearChain(t)
	profiles, err := profile.New(nil)
	require.NoError(t, err)
	cost := costengine.New(g, profiles, costengine.Discrete)
	trans := transition.New(transition.NodeBased, (*turntable.Table)(nil))
	resolver := newPlainResolver(t)

	result, err := astar.Run(astar.Config{
		Graph:          g,
		Cost:           cost,
		Transition:     trans,
		Resolver:       resolver,
		Labels:         label.NewStore(8),
		Budget:         budget.NewTracker(budget.Caps{}),
		Source:         2,
		Target:         2,
		DepartureTicks: 1000,
	})
	require.NoError(t, err)
	require.True(t, result.Reachable)
	require.Equal(t, 0.0, result.Cost)
	require.Equal(t, int64(1000), result.Arrival)
	require.Empty(t, result.Edges)
}

func TestRun_DisconnectedTargetUnreachable(t *testing.T) {
	// Node 0's only edge leads to node 1, which has no outgoing edges, and no
	// edge enters node 2; asking for node 0 to reach the isolated node 2 must
	// report unreachable, not an error.
	g, err := topology.New(topology.Params{
		FirstEdge:     []uint32{0, 1, 1, 1},
		EdgeTarget:    []uint32{1},
		EdgeOrigin:    []uint32{0},
		BaseWeight:    []float64{5},
		EdgeProfileID: []uint32{0},
	})
	require.NoError(t, err)
	profiles, err := profile.New(nil)
	require.NoError(t, err)
	cost := costengine.New(g, profiles, costengine.Discrete)
	trans := transition.New(transition.NodeBased, (*turntable.Table)(nil))
	resolver := newPlainResolver(t)

	result, err := astar.Run(astar.Config{
		Graph:          g,
		Cost:           cost,
		Transition:     trans,
		Resolver:       resolver,
		Labels:         label.NewStore(8),
		Budget:         budget.NewTracker(budget.Caps{}),
		Source:         0,
		Target:         2,
		DepartureTicks: 0,
	})
	require.NoError(t, err)
	require.False(t, result.Reachable)
	require.True(t, math.IsInf(result.Cost, 1))
}

func TestRun_SettledBudgetExceeded(t *testing.T) {
	g := linearChain(t)
	profiles, err := profile.New(nil)
	require.NoError(t, err)
	cost := costengine.New(g, profiles, costengine.Discrete)
	trans := transition.New(transition.NodeBased, (*turntable.Table)(nil))
	resolver := newPlainResolver(t)

	_, err = astar.Run(astar.Config{
		Graph:          g,
		Cost:           cost,
		Transition:     trans,
		Resolver:       resolver,
		Labels:         label.NewStore(8),
		Budget:         budget.NewTracker(budget.Caps{MaxSettled: 1}),
		Source:         0,
		Target:         4,
		DepartureTicks: 0,
	})
	require.Error(t, err)
	require.Equal(t, reason.CodeSearchBudgetExceeded, reason.CodeOf(err))
}
