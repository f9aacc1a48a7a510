package taro

import (
	"math"

	"github.com/taro-routing/taro/internal/addressing"
	"github.com/taro-routing/taro/internal/astar"
	"github.com/taro-routing/taro/internal/budget"
	"github.com/taro-routing/taro/internal/evaluator"
	"github.com/taro-routing/taro/internal/heuristic"
	"github.com/taro-routing/taro/internal/reason"
)

// Route resolves req's endpoints, runs the bidirectional time-dependent
// search, replays the winning edge path through the path evaluator to
// verify its cost and reconstruct the node sequence, and assembles a
// response. It never mutates req.
func (e *Engine) Route(req RouteRequest) (RouteResponse, error) {
	internalHeuristic, err := resolveHeuristicType(req.Algorithm, req.HeuristicType)
	if err != nil {
		return RouteResponse{}, err
	}

	if isEmptyEndpoint(req.Source) {
		return RouteResponse{}, reason.New(reason.CodeSourceRequired, "request is missing a source endpoint")
	}
	if isEmptyEndpoint(req.Target) {
		return RouteResponse{}, reason.New(reason.CodeTargetRequired, "request is missing a target endpoint")
	}

	resolved, _, err := e.addressing.ResolveAll(
		[]Endpoint{req.Source, req.Target},
		reason.CodeSourceRequired,
		addressing.ResolveOptions{MixedModeAllowed: req.AllowMixed},
	)
	if err != nil {
		return RouteResponse{}, err
	}
	source, target := resolved[0], resolved[1]

	var provider heuristic.Provider
	if internalHeuristic != heuristic.None {
		provider, err = heuristic.New(internalHeuristic, e.graph, target.InternalNodeID, e.landmarks, e.runtime.MinSecondsPerUnit)
		if err != nil {
			return RouteResponse{}, err
		}
	}

	labels := e.acquireLabels()
	defer e.releaseLabels(labels)

	snapshot := e.overlay.TakeSnapshot(req.DepartureTicks)
	tracker := budget.NewTracker(e.budgetCaps())

	result, err := astar.Run(astar.Config{
		Graph:          e.graph,
		Cost:           e.cost,
		Transition:     e.transition,
		Resolver:       e.temporal,
		Snapshot:       snapshot,
		Heuristic:      provider,
		Labels:         labels,
		Budget:         tracker,
		Source:         source.InternalNodeID,
		Target:         target.InternalNodeID,
		DepartureTicks: req.DepartureTicks,
	})
	if err != nil {
		return RouteResponse{}, err
	}

	if !result.Reachable {
		return RouteResponse{
			Reachable:      false,
			TotalCost:      math.Inf(1),
			ArrivalTicks:   req.DepartureTicks,
			Path:           nil,
			ResolvedSource: source,
			ResolvedTarget: target,
			SettledStates:  result.Settled,
		}, nil
	}

	ev := evaluator.New(e.graph, e.cost, e.transition, e.temporal)
	replay, err := ev.Evaluate(result.Edges, req.DepartureTicks, snapshot)
	if err != nil {
		return RouteResponse{}, err
	}

	path := make([]string, len(replay.Nodes))
	for i, n := range replay.Nodes {
		externalID, ok := e.mapper.External(n)
		if !ok {
			return RouteResponse{}, reason.Newf(reason.CodeNodePathReconstruction,
				"reconstructed node %d has no external id mapping", n)
		}
		path[i] = externalID
	}

	return RouteResponse{
		Reachable:      true,
		TotalCost:      replay.TotalCost,
		ArrivalTicks:   replay.Arrival,
		Path:           path,
		ResolvedSource: source,
		ResolvedTarget: target,
		SettledStates:  result.Settled,
	}, nil
}

func isEmptyEndpoint(ep Endpoint) bool {
	return ep.Typed == nil && ep.LegacyExternalID == nil
}
