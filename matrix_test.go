package taro_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	taro "github.com/taro-routing/taro"
	"github.com/taro-routing/taro/internal/reason"
	"github.com/taro-routing/taro/internal/runtimeconfig"
)

func TestMatrix_LinearChainAllPairs(t *testing.T) {
	e := newLinearChainEngine(t)

	resp, err := e.Matrix(taro.MatrixRequest{
		Sources:        []taro.Endpoint{extID("N0"), extID("N1")},
		Targets:        []taro.Endpoint{extID("N2"), extID("N4")},
		DepartureTicks: 10,
		Algorithm:      taro.AlgorithmDijkstra,
		HeuristicType:  taro.HeuristicNone,
	})
	require.NoError(t, err)
	require.Len(t, resp.Cells, 2)
	require.Len(t, resp.Cells[0], 2)

	require.True(t, resp.Cells[0][0].Reachable)
	require.Equal(t, 2.0, resp.Cells[0][0].Cost)
	require.Equal(t, int64(12), resp.Cells[0][0].Arrival)

	require.True(t, resp.Cells[0][1].Reachable)
	require.Equal(t, 4.0, resp.Cells[0][1].Cost)
	require.Equal(t, int64(14), resp.Cells[0][1].Arrival)

	require.True(t, resp.Cells[1][0].Reachable)
	require.Equal(t, 1.0, resp.Cells[1][0].Cost)

	require.True(t, resp.Cells[1][1].Reachable)
	require.Equal(t, 3.0, resp.Cells[1][1].Cost)
}

func TestMatrix_DuplicateTargetsMirrorCells(t *testing.T) {
	e := newLinearChainEngine(t)

	resp, err := e.Matrix(taro.MatrixRequest{
		Sources:        []taro.Endpoint{extID("N0")},
		Targets:        []taro.Endpoint{extID("N4"), extID("N4")},
		DepartureTicks: 0,
		Algorithm:      taro.AlgorithmDijkstra,
		HeuristicType:  taro.HeuristicNone,
	})
	require.NoError(t, err)
	require.Equal(t, resp.Cells[0][0], resp.Cells[0][1])
}

func TestMatrix_UnreachableCellDoesNotFailRequest(t *testing.T) {
	g, mapper := disconnectedFixture(t)
	cost, profiles, turns := fixtureCollaborators(t, g)

	e, err := taro.NewEngine(taro.EngineConfig{
		Graph:     g,
		Profiles:  profiles,
		Cost:      cost,
		Mapper:    mapper,
		TurnTable: turns,
		Runtime:   runtimeconfig.Default(),
	})
	require.NoError(t, err)

	resp, err := e.Matrix(taro.MatrixRequest{
		Sources:        []taro.Endpoint{extID("N0")},
		Targets:        []taro.Endpoint{extID("N3")},
		DepartureTicks: 0,
		Algorithm:      taro.AlgorithmDijkstra,
		HeuristicType:  taro.HeuristicNone,
	})
	require.NoError(t, err)
	require.False(t, resp.Cells[0][0].Reachable)
	require.True(t, math.IsInf(resp.Cells[0][0].Cost, 1))
}

func TestMatrix_MissingSourcesRejected(t *testing.T) {
	e := newLinearChainEngine(t)
	_, err := e.Matrix(taro.MatrixRequest{
		Targets:        []taro.Endpoint{extID("N4")},
		DepartureTicks: 0,
		Algorithm:      taro.AlgorithmDijkstra,
		HeuristicType:  taro.HeuristicNone,
	})
	require.Error(t, err)
	require.Equal(t, reason.CodeSourcesRequired, reason.CodeOf(err))
}

func TestMatrix_MissingTargetsRejected(t *testing.T) {
	e := newLinearChainEngine(t)
	_, err := e.Matrix(taro.MatrixRequest{
		Sources:        []taro.Endpoint{extID("N0")},
		DepartureTicks: 0,
		Algorithm:      taro.AlgorithmDijkstra,
		HeuristicType:  taro.HeuristicNone,
	})
	require.Error(t, err)
	require.Equal(t, reason.CodeTargetsRequired, reason.CodeOf(err))
}

func TestMatrix_BudgetExceededFailsWholeRequest(t *testing.T) {
	g, mapper := linearChainFixture(t)
	cost, profiles, turns := fixtureCollaborators(t, g)

	e, err := taro.NewEngine(taro.EngineConfig{
		Graph:     g,
		Profiles:  profiles,
		Cost:      cost,
		Mapper:    mapper,
		TurnTable: turns,
		Runtime: runtimeconfig.New(
			runtimeconfig.WithMatrixBudget(budgetCapOfOne()),
		),
	})
	require.NoError(t, err)

	_, err = e.Matrix(taro.MatrixRequest{
		Sources:        []taro.Endpoint{extID("N0")},
		Targets:        []taro.Endpoint{extID("N4")},
		DepartureTicks: 0,
		Algorithm:      taro.AlgorithmDijkstra,
		HeuristicType:  taro.HeuristicNone,
	})
	require.Error(t, err)
	require.Equal(t, reason.CodeMatrixSearchBudgetExceeded, reason.CodeOf(err))
}
