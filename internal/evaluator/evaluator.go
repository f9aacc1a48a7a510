// Package evaluator replays an edge path deterministically to verify its
// cost and reconstruct its node sequence, independent of whatever search
// produced the path.
package evaluator

import (
	"math"

	"github.com/taro-routing/taro/internal/costengine"
	"github.com/taro-routing/taro/internal/overlay"
	"github.com/taro-routing/taro/internal/reason"
	"github.com/taro-routing/taro/internal/temporal"
	"github.com/taro-routing/taro/internal/topology"
	"github.com/taro-routing/taro/internal/transition"
)

// Result is the outcome of replaying an edge path.
type Result struct {
	TotalCost float64
	Arrival   int64
	Nodes     []int
}

// Evaluator replays paths against a fixed cost engine, transition policy,
// and temporal resolver.
type Evaluator struct {
	graph      *topology.Graph
	cost       *costengine.Engine
	transition *transition.Policy
	resolver   *temporal.Resolver
}

// New builds an Evaluator bound to its collaborators.
func New(graph *topology.Graph, cost *costengine.Engine, trans *transition.Policy, resolver *temporal.Resolver) *Evaluator {
	return &Evaluator{graph: graph, cost: cost, transition: trans, resolver: resolver}
}

// Evaluate replays edges in order starting at departureTicks, against the
// overlay snapshot snap. An empty path is valid and returns zero cost with
// arrival == departureTicks and an empty node sequence.
func (ev *Evaluator) Evaluate(edges []uint32, departureTicks int64, snap *overlay.Snapshot) (Result, error) {
	if len(edges) == 0 {
		return Result{Arrival: departureTicks}, nil
	}

	nodes := make([]int, 0, len(edges)+1)
	nodes = append(nodes, int(ev.graph.EdgeOrigin(edges[0])))

	totalCost := 0.0
	arrival := departureTicks
	var prevEdge uint32
	for i, e := range edges {
		if i > 0 {
			expectedOrigin := ev.graph.EdgeTarget(prevEdge)
			if ev.graph.EdgeOrigin(e) != expectedOrigin {
				return Result{}, reason.New(reason.CodeNodePathReconstruction, "edge chain is not contiguous")
			}
			outcome := ev.transition.Evaluate(prevEdge, e)
			if outcome.Forbidden {
				return Result{}, reason.New(reason.CodeNonFiniteEdgeCost, "forbidden transition in replayed path")
			}
			arrival = saturatingAdd(arrival, outcome.PenaltySeconds)
			totalCost += outcome.PenaltySeconds
		}

		edgeCost, newArrival := ev.cost.Evaluate(e, arrival, snap, ev.resolver)
		if math.IsInf(edgeCost, 1) || math.IsNaN(edgeCost) {
			return Result{}, reason.New(reason.CodeNonFiniteEdgeCost, "non-finite cost while replaying path")
		}

		totalCost += edgeCost
		if math.IsInf(totalCost, 0) || math.IsNaN(totalCost) {
			return Result{}, reason.New(reason.CodeNonFinitePathCost, "cumulative path cost overflowed")
		}

		arrival = newArrival
		nodes = append(nodes, int(ev.graph.EdgeTarget(e)))
		prevEdge = e
	}

	return Result{TotalCost: totalCost, Arrival: arrival, Nodes: nodes}, nil
}

func saturatingAdd(base int64, deltaSeconds float64) int64 {
	if deltaSeconds <= 0 {
		return base
	}
	const int64max = int64(^uint64(0) >> 1)
	rounded := int64(deltaSeconds + 0.5)
	if rounded > int64max-base {
		return int64max
	}
	return base + rounded
}
