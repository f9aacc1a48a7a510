package taro

import (
	"github.com/taro-routing/taro/internal/addressing"
	"github.com/taro-routing/taro/internal/budget"
	"github.com/taro-routing/taro/internal/matrixplanner"
	"github.com/taro-routing/taro/internal/reason"
)

// Matrix resolves every source and target endpoint, runs the one-to-many
// planner once per unique source, and assembles a response whose cell
// order and duplicates mirror the request exactly. A budget, validation,
// or configuration failure fails the whole request; an unreachable
// (source, target) pair never does (it is reported as a cell with
// Reachable=false).
func (e *Engine) Matrix(req MatrixRequest) (MatrixResponse, error) {
	internalHeuristic, err := resolveHeuristicType(req.Algorithm, req.HeuristicType)
	if err != nil {
		return MatrixResponse{}, err
	}

	if len(req.Sources) == 0 {
		return MatrixResponse{}, reason.New(reason.CodeSourcesRequired, "matrix request requires at least one source")
	}
	if len(req.Targets) == 0 {
		return MatrixResponse{}, reason.New(reason.CodeTargetsRequired, "matrix request requires at least one target")
	}

	opts := addressing.ResolveOptions{MixedModeAllowed: req.AllowMixed}
	resolvedSources, _, err := e.addressing.ResolveAll(req.Sources, reason.CodeSourcesRequired, opts)
	if err != nil {
		return MatrixResponse{}, err
	}
	resolvedTargets, _, err := e.addressing.ResolveAll(req.Targets, reason.CodeTargetsRequired, opts)
	if err != nil {
		return MatrixResponse{}, err
	}

	algorithm := matrixplanner.Dijkstra
	if req.Algorithm == AlgorithmAStar {
		algorithm = matrixplanner.AStar
	}

	sourceIDs := make([]int, len(resolvedSources))
	for i, r := range resolvedSources {
		sourceIDs[i] = r.InternalNodeID
	}
	targetIDs := make([]int, len(resolvedTargets))
	for i, r := range resolvedTargets {
		targetIDs[i] = r.InternalNodeID
	}

	labels := e.acquireLabels()
	defer e.releaseLabels(labels)

	snapshot := e.overlay.TakeSnapshot(req.DepartureTicks)
	rowTracker := budget.NewRowTracker(e.matrixBudgetCaps())

	result, err := matrixplanner.Run(matrixplanner.Config{
		Graph:             e.graph,
		Cost:              e.cost,
		Transition:        e.transition,
		Resolver:          e.temporal,
		Snapshot:          snapshot,
		Algorithm:         algorithm,
		HeuristicType:     internalHeuristic,
		Landmarks:         e.landmarks,
		MinSecondsPerUnit: e.runtime.MinSecondsPerUnit,
		NativeThreshold:   e.runtime.MatrixNativeThreshold,
		DepartureTicks:    req.DepartureTicks,
		Sources:           sourceIDs,
		Targets:           targetIDs,
		Labels:            labels,
		Budget:            rowTracker,
		RowConcurrency:    e.runtime.MatrixRowConcurrency,
	})
	if err != nil {
		return MatrixResponse{}, err
	}

	cells := make([][]MatrixCell, len(result.Cells))
	for i, row := range result.Cells {
		out := make([]MatrixCell, len(row))
		for j, c := range row {
			out[j] = MatrixCell{Reachable: c.Reachable, Cost: c.Cost, Arrival: c.Arrival}
		}
		cells[i] = out
	}

	return MatrixResponse{
		ResolvedSources:    resolvedSources,
		ResolvedTargets:    resolvedTargets,
		Cells:              cells,
		ImplementationNote: result.ImplementationNote,
	}, nil
}
