// Package astar implements the bidirectional time-dependent planner: an
// edge-based forward search driven by the actual time-dependent cost
// engine, alternated with a node-based backward
// search over time-independent free-flow lower bounds, so the forward pass
// can prune against an admissible remaining-distance estimate even though
// time-dependent costs are not reversible in general.
//
// Adapted from dijkstra/dijkstra.go's runner-plus-lazy-decrease-key-heap
// idiom: two independent nodePQ-style heaps (one edge-based, one
// node-based) replace the single vertex heap, and a settled/active check
// against internal/label's dominance index replaces dijkstra's simple
// visited-set.
package astar

import (
	"container/heap"
	"math"

	"github.com/taro-routing/taro/internal/budget"
	"github.com/taro-routing/taro/internal/costengine"
	"github.com/taro-routing/taro/internal/heuristic"
	"github.com/taro-routing/taro/internal/label"
	"github.com/taro-routing/taro/internal/overlay"
	"github.com/taro-routing/taro/internal/temporal"
	"github.com/taro-routing/taro/internal/topology"
	"github.com/taro-routing/taro/internal/transition"
)

// Config bundles everything one Run call needs. Every field is required
// except Heuristic, which defaults to an always-zero provider (equivalent
// to plain time-dependent Dijkstra) when nil, and Snapshot, which may be nil
// (no live overrides apply).
type Config struct {
	Graph      *topology.Graph
	Cost       *costengine.Engine
	Transition *transition.Policy
	Resolver   *temporal.Resolver
	Snapshot   *overlay.Snapshot
	Heuristic  heuristic.Provider
	Labels     *label.Store
	Budget     *budget.Tracker

	Source         int
	Target         int
	DepartureTicks int64
}

// Result is the outcome of one bidirectional search.
type Result struct {
	Reachable bool
	Cost      float64
	Arrival   int64
	Edges     []uint32
	Settled   int
}

// Run executes the bidirectional search and
// returns either a best path (Reachable=true) or Reachable=false if both
// frontiers are exhausted without reaching the target. A budget breach is
// returned as an error, not as Reachable=false.
func Run(cfg Config) (Result, error) {
	if cfg.Heuristic == nil {
		cfg.Heuristic = noHeuristic{}
	}
	r := &runner{cfg: cfg}
	return r.run()
}

type noHeuristic struct{}

func (noHeuristic) Estimate(int) float64 { return 0 }

// forwardItem is one entry in the forward (edge-based) frontier.
type forwardItem struct {
	priority float64
	cost     float64
	arrival  int64
	edge     uint32
	labelID  int32
}

type forwardPQ []*forwardItem

func (h forwardPQ) Len() int { return len(h) }
func (h forwardPQ) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.priority != b.priority {
		return a.priority < b.priority
	}
	if a.arrival != b.arrival {
		return a.arrival < b.arrival
	}
	if a.edge != b.edge {
		return a.edge < b.edge
	}
	return a.labelID < b.labelID
}
func (h forwardPQ) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *forwardPQ) Push(x interface{}) { *h = append(*h, x.(*forwardItem)) }
func (h *forwardPQ) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// backwardItem is one entry in the backward (node-based) frontier: the
// best-known free-flow lower bound distance from node to the query target.
type backwardItem struct {
	dist float64
	node int
}

type backwardPQ []*backwardItem

func (h backwardPQ) Len() int { return len(h) }
func (h backwardPQ) Less(i, j int) bool {
	if h[i].dist != h[j].dist {
		return h[i].dist < h[j].dist
	}
	return h[i].node < h[j].node
}
func (h backwardPQ) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *backwardPQ) Push(x interface{}) { *h = append(*h, x.(*backwardItem)) }
func (h *backwardPQ) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// runner holds the mutable state for one bidirectional search.
type runner struct {
	cfg Config

	fwd     forwardPQ
	bwd     backwardPQ
	revDist map[int]float64
	revDone map[int]bool

	bestCost    float64
	bestArrival int64
	bestLabel   int32
	haveBest    bool

	forwardTurn bool
}

func (r *runner) run() (Result, error) {
	cfg := r.cfg
	r.revDist = map[int]float64{cfg.Target: 0}
	r.revDone = make(map[int]bool, 64)
	r.bestCost = math.Inf(1)

	heap.Push(&r.bwd, &backwardItem{dist: 0, node: cfg.Target})

	if cfg.Source == cfg.Target {
		return Result{Reachable: true, Cost: 0, Arrival: cfg.DepartureTicks, Edges: nil, Settled: 0}, nil
	}

	if err := r.seedForward(); err != nil {
		return Result{}, err
	}

	for r.fwd.Len() > 0 || r.bwd.Len() > 0 {
		if r.terminated() {
			break
		}

		expandForward := r.shouldExpandForward()
		var err error
		if expandForward {
			err = r.stepForward()
		} else {
			err = r.stepBackward()
		}
		if err != nil {
			return Result{}, err
		}
	}

	if !r.haveBest {
		return Result{Reachable: false, Cost: math.Inf(1), Arrival: cfg.DepartureTicks, Settled: r.cfg.Budget.Settled()}, nil
	}
	edges := r.cfg.Labels.ReconstructEdges(r.bestLabel)
	return Result{
		Reachable: true,
		Cost:      r.bestCost,
		Arrival:   r.bestArrival,
		Edges:     edges,
		Settled:   r.cfg.Budget.Settled(),
	}, nil
}

// shouldExpandForward alternates forward/backward expansion, always
// preferring whichever frontier is non-empty if the other is exhausted.
func (r *runner) shouldExpandForward() bool {
	if r.fwd.Len() == 0 {
		return false
	}
	if r.bwd.Len() == 0 {
		return true
	}
	r.forwardTurn = !r.forwardTurn
	return r.forwardTurn
}

// terminated reports whether the search can stop: either both frontiers are
// empty, or the sum of minimum priorities already meets or exceeds the best
// known goal cost.
func (r *runner) terminated() bool {
	if r.fwd.Len() == 0 && r.bwd.Len() == 0 {
		return true
	}
	if !r.haveBest {
		return false
	}
	fwdMin := math.Inf(1)
	if r.fwd.Len() > 0 {
		fwdMin = r.fwd[0].priority
	}
	bwdMin := 0.0
	if r.bwd.Len() > 0 {
		bwdMin = r.bwd[0].dist
	}
	const epsilon = 1e-9
	return fwdMin+bwdMin >= r.bestCost-epsilon
}

// seedForward pushes one initial label per outgoing edge of the source node.
// Source expansion applies no transition penalty.
func (r *runner) seedForward() error {
	cfg := r.cfg
	start, end := cfg.Graph.OutEdges(cfg.Source)
	for e := start; e < end; e++ {
		cost, arrival := cfg.Cost.Evaluate(e, cfg.DepartureTicks, cfg.Snapshot, cfg.Resolver)
		if math.IsInf(cost, 0) || math.IsNaN(cost) {
			continue
		}
		id := cfg.Labels.Add(label.Label{EdgeID: e, Cost: cost, Arrival: arrival, ParentID: label.SourceParentID})
		if err := r.cfg.Budget.Label(); err != nil {
			return err
		}
		if !cfg.Labels.TryInsert(id) {
			continue
		}
		r.pushForward(id)
		r.checkGoal(int(cfg.Graph.EdgeTarget(e)), id)
	}
	return nil
}

func (r *runner) pushForward(id int32) {
	l := r.cfg.Labels.Get(id)
	node := int(r.cfg.Graph.EdgeTarget(l.EdgeID))
	priority := l.Cost + r.cfg.Heuristic.Estimate(node)
	heap.Push(&r.fwd, &forwardItem{priority: priority, cost: l.Cost, arrival: l.Arrival, edge: l.EdgeID, labelID: id})
}

// checkGoal updates the best known goal (cost, arrival) if node is the
// query target and the label strictly improves // is_better tie-break.
func (r *runner) checkGoal(node int, id int32) {
	if node != r.cfg.Target {
		return
	}
	l := r.cfg.Labels.Get(id)
	if !r.haveBest || isBetter(l.Cost, l.Arrival, r.bestCost, r.bestArrival) {
		r.haveBest = true
		r.bestCost = l.Cost
		r.bestArrival = l.Arrival
		r.bestLabel = id
	}
}

func isBetter(cost1 float64, arr1 int64, cost2 float64, arr2 int64) bool {
	if cost1 != cost2 {
		return cost1 < cost2
	}
	return arr1 < arr2
}

func canImprove(cost1 float64, arr1 int64, cost2 float64, arr2 int64) bool {
	if cost1 != cost2 {
		return cost1 < cost2
	}
	return arr1 <= arr2
}

// stepForward pops one forward frontier item and relaxes its successors,
// applying the transition policy and cost engine to each outgoing edge and
// pushing any improving child label back onto the forward frontier.
func (r *runner) stepForward() error {
	cfg := r.cfg
	item := heap.Pop(&r.fwd).(*forwardItem)

	if !cfg.Labels.IsActive(item.labelID) {
		// Stale entry: superseded by a later dominating label. Still counts
		// against the settled budget (work accounting is total).
		return r.cfg.Budget.Settle()
	}
	if err := r.cfg.Budget.Settle(); err != nil {
		return err
	}

	node := int(cfg.Graph.EdgeTarget(item.edge))
	start, end := cfg.Graph.OutEdges(node)
	for e := start; e < end; e++ {
		outcome := cfg.Transition.Evaluate(item.edge, e)
		if outcome.Forbidden {
			continue
		}

		entryTicks := item.arrival
		if outcome.PenaltySeconds > 0 {
			entryTicks = saturatingAddSeconds(entryTicks, outcome.PenaltySeconds)
		}

		edgeCost, arrival := cfg.Cost.Evaluate(e, entryTicks, cfg.Snapshot, cfg.Resolver)
		if math.IsInf(edgeCost, 0) || math.IsNaN(edgeCost) {
			continue
		}

		nextCost := item.cost + outcome.PenaltySeconds + edgeCost
		if math.IsInf(nextCost, 0) || math.IsNaN(nextCost) {
			continue
		}

		if r.haveBest && !canImprove(nextCost, arrival, r.bestCost, r.bestArrival) {
			continue
		}

		id := cfg.Labels.Add(label.Label{EdgeID: e, Cost: nextCost, Arrival: arrival, ParentID: item.labelID})
		if err := r.cfg.Budget.Label(); err != nil {
			return err
		}
		if !cfg.Labels.TryInsert(id) {
			continue
		}
		r.pushForward(id)
		if err := r.cfg.Budget.Frontier(r.fwd.Len()); err != nil {
			return err
		}
		r.checkGoal(int(cfg.Graph.EdgeTarget(e)), id)
	}
	return nil
}

// stepBackward pops one backward frontier item and relaxes incoming edges,
// extending the free-flow lower-bound distance map used to prune the
// forward search.
func (r *runner) stepBackward() error {
	cfg := r.cfg
	item := heap.Pop(&r.bwd).(*backwardItem)
	if err := r.cfg.Budget.Settle(); err != nil {
		return err
	}
	if r.revDone[item.node] {
		return nil
	}
	if known, ok := r.revDist[item.node]; ok && known < item.dist {
		return nil
	}
	r.revDone[item.node] = true

	if r.haveBest && item.dist > r.bestCost {
		return nil
	}

	start, end := cfg.Graph.InEdges(item.node)
	for pos := start; pos < end; pos++ {
		e := cfg.Graph.RevEdge(pos)
		origin := int(cfg.Graph.EdgeOrigin(e))
		if r.revDone[origin] {
			continue
		}
		weight := cfg.Graph.BaseWeight(e)
		if math.IsNaN(weight) || weight < 0 {
			continue
		}
		candidate := item.dist + weight
		if existing, ok := r.revDist[origin]; !ok || candidate < existing {
			r.revDist[origin] = candidate
			heap.Push(&r.bwd, &backwardItem{dist: candidate, node: origin})
		}
	}
	return nil
}

func saturatingAddSeconds(base int64, deltaSeconds float64) int64 {
	const int64max = int64(^uint64(0) >> 1)
	rounded := int64(deltaSeconds + 0.5)
	if rounded > int64max-base {
		return int64max
	}
	return base + rounded
}
