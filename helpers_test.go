package taro_test

import (
	"testing"

	"github.com/taro-routing/taro/internal/budget"
	"github.com/taro-routing/taro/internal/costengine"
	"github.com/taro-routing/taro/internal/idmap"
	"github.com/taro-routing/taro/internal/profile"
	"github.com/taro-routing/taro/internal/testfixture"
	"github.com/taro-routing/taro/internal/topology"
	"github.com/taro-routing/taro/internal/turntable"
)

func linearChainFixture(t *testing.T) (*topology.Graph, *idmap.Mapper) {
	t.Helper()
	return testfixture.LinearChain(t)
}

func disconnectedFixture(t *testing.T) (*topology.Graph, *idmap.Mapper) {
	t.Helper()
	return testfixture.Disconnected(t)
}

func fixtureCollaborators(t *testing.T, g *topology.Graph) (*costengine.Engine, *profile.Store, *turntable.Table) {
	t.Helper()
	profiles := testfixture.FlatProfiles(t)
	cost := testfixture.DiscreteCost(t, g, profiles)
	turns := testfixture.NoTurnTable(t)
	return cost, profiles, turns
}

func budgetCapOfOne() budget.MatrixCaps {
	return budget.MatrixCaps{RowWork: 1}
}
