// Package testfixture builds small, shared graph/engine fixtures for the
// root package's tests, mirroring the concrete scenarios used across the
// component-level test suites (linear chains, disconnected pairs).
package testfixture

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taro-routing/taro/internal/costengine"
	"github.com/taro-routing/taro/internal/idmap"
	"github.com/taro-routing/taro/internal/profile"
	"github.com/taro-routing/taro/internal/topology"
	"github.com/taro-routing/taro/internal/turntable"
)

// LinearChain builds the 5-node chain N0->N1->N2->N3->N4, each edge costing
// 1.0 free-flow second with no profile, plus an id mapper naming the nodes
// N0..N4 in internal-id order.
func LinearChain(t *testing.T) (*topology.Graph, *idmap.Mapper) {
	t.Helper()
	g, err := topology.New(topology.Params{
		FirstEdge:     []uint32{0, 1, 2, 3, 4, 4},
		EdgeTarget:    []uint32{1, 2, 3, 4},
		EdgeOrigin:    []uint32{0, 1, 2, 3},
		BaseWeight:    []float64{1, 1, 1, 1},
		EdgeProfileID: []uint32{0, 0, 0, 0},
	})
	require.NoError(t, err)
	mapper, err := idmap.New([]string{"N0", "N1", "N2", "N3", "N4"})
	require.NoError(t, err)
	return g, mapper
}

// Disconnected builds two 2-node islands: N0->N1 and N2->N3, with no edge
// bridging the two, plus a matching id mapper.
func Disconnected(t *testing.T) (*topology.Graph, *idmap.Mapper) {
	t.Helper()
	g, err := topology.New(topology.Params{
		FirstEdge:     []uint32{0, 1, 2, 2, 2},
		EdgeTarget:    []uint32{1, 3},
		EdgeOrigin:    []uint32{0, 2},
		BaseWeight:    []float64{1, 1},
		EdgeProfileID: []uint32{0, 0},
	})
	require.NoError(t, err)
	mapper, err := idmap.New([]string{"N0", "N1", "N2", "N3"})
	require.NoError(t, err)
	return g, mapper
}

// FlatProfiles returns an empty profile store. Both fixture graphs tag every
// edge with profile id 0, which is never stored, so the cost engine applies
// its identity multiplier of 1.0 at every bucket.
func FlatProfiles(t *testing.T) *profile.Store {
	t.Helper()
	p, err := profile.New(nil)
	require.NoError(t, err)
	return p
}

// NoTurnTable returns an empty, non-nil turn table (no turn restrictions or
// penalties bound).
func NoTurnTable(t *testing.T) *turntable.Table {
	t.Helper()
	tbl, err := turntable.New(nil)
	require.NoError(t, err)
	return tbl
}

// DiscreteCost builds a cost engine bound to g and profiles under discrete
// bucket sampling, the default runtimeconfig.Config sampling policy.
func DiscreteCost(t *testing.T, g *topology.Graph, profiles *profile.Store) *costengine.Engine {
	t.Helper()
	return costengine.New(g, profiles, costengine.Discrete)
}
