// Package matrixplanner implements the one-to-many matrix query: for
// DIJKSTRA, one forward-only search per
// unique source records cost and arrival at every unique target
// simultaneously; for A*, either a native multi-target search or a batched
// fallback of per-cell route searches, depending on target-set size.
//
// The native Dijkstra row search generalizes a "one source, every vertex"
// runner to "one source, a fixed target set, time-dependent edge costs" —
// same lazy-decrease-key heap, same visited-set idiom, adapted to
// edge-based time-dependent labels.
package matrixplanner

import (
	"container/heap"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/taro-routing/taro/internal/astar"
	"github.com/taro-routing/taro/internal/budget"
	"github.com/taro-routing/taro/internal/costengine"
	"github.com/taro-routing/taro/internal/heuristic"
	"github.com/taro-routing/taro/internal/label"
	"github.com/taro-routing/taro/internal/overlay"
	"github.com/taro-routing/taro/internal/reason"
	"github.com/taro-routing/taro/internal/temporal"
	"github.com/taro-routing/taro/internal/topology"
	"github.com/taro-routing/taro/internal/transition"
)

// defaultRowConcurrency bounds how many independent source rows search
// concurrently when Config.RowConcurrency is left at zero.
const defaultRowConcurrency = 8

// Algorithm selects the search family the matrix planner runs, mirroring
// the route orchestrator's algorithm choice.
type Algorithm int

const (
	Dijkstra Algorithm = iota
	AStar
)

// Cell is one (source, target) matrix entry.
type Cell struct {
	Reachable bool
	Cost      float64
	Arrival   int64
}

// Result is the full matrix response plus an implementation note
// identifying which planner served the request.
type Result struct {
	Cells              [][]Cell // Cells[i][j] corresponds to Sources[i] x Targets[j], in request order
	ImplementationNote string
}

// At returns the cell for request row i, column j.
func (r Result) At(i, j int) Cell { return r.Cells[i][j] }

const (
	noteNativeDijkstra  = "native Dijkstra"
	noteNativeAStar     = "native A*"
	noteBatchedAStar    = "batched-A*-compatibility"
	notePairwise        = "pairwise-compatibility"
)

// Config bundles one matrix query's collaborators and inputs. Sources and
// Targets are internal node ids in request order (duplicates preserved);
// NativeThreshold is the configured unique-target count at or below which A*
// uses the native multi-target strategy and above which it falls back to
// batched per-cell search.
type Config struct {
	Graph      *topology.Graph
	Cost       *costengine.Engine
	Transition *transition.Policy
	Resolver   *temporal.Resolver
	Snapshot   *overlay.Snapshot

	Algorithm       Algorithm
	HeuristicType   heuristic.Type
	Landmarks       *heuristic.Landmarks
	MinSecondsPerUnit float64
	NativeThreshold int

	DepartureTicks int64
	Sources        []int
	Targets        []int

	// Labels is used only as a sizing template: each concurrently-searched
	// row gets its own label.Store (a Store is not safe for concurrent use
	// by more than one query at a time), pre-sized to Labels.Capacity().
	Labels *label.Store
	Budget *budget.RowTracker

	// RowConcurrency bounds how many source rows search at once. Zero
	// selects defaultRowConcurrency.
	RowConcurrency int
}

// Run executes the matrix query described by cfg and returns a Result whose
// Cells dimensions are exactly len(cfg.Sources) x len(cfg.Targets).
func Run(cfg Config) (Result, error) {
	if len(cfg.Sources) == 0 {
		return Result{}, reason.New(reason.CodeSourcesRequired, "matrix query requires at least one source")
	}
	if len(cfg.Targets) == 0 {
		return Result{}, reason.New(reason.CodeTargetsRequired, "matrix query requires at least one target")
	}

	if cfg.Algorithm != Dijkstra && cfg.Algorithm != AStar {
		return Result{}, reason.Newf(reason.CodeAlgorithmRequired, "unknown matrix algorithm %d", cfg.Algorithm)
	}

	uniqueTargets, targetIndex := dedup(cfg.Targets)
	uniqueSources, _ := dedup(cfg.Sources)

	rowCapacity := 64
	if cfg.Labels != nil {
		rowCapacity = cfg.Labels.Capacity()
	}

	concurrency := cfg.RowConcurrency
	if concurrency <= 0 {
		concurrency = defaultRowConcurrency
	}

	// Independent source rows fan out over a capped worker pool
	// ( DOMAIN STACK: golang.org/x/sync/errgroup), since
	// each row is a self-contained search with its own label.Store and
	// budget.RowScope.
	rows := make([][]Cell, len(uniqueSources))
	notes := make([]string, len(uniqueSources))

	g := new(errgroup.Group)
	g.SetLimit(concurrency)
	var notesMu sync.Mutex

	for i, source := range uniqueSources {
		i, source := i, source
		g.Go(func() error {
			labels := label.NewStore(rowCapacity)
			scope := cfg.Budget.StartRow()

			var row []Cell
			var rowNote string
			var err error
			switch cfg.Algorithm {
			case Dijkstra:
				row, err = runDijkstraRow(cfg, labels, scope, source, uniqueTargets)
				rowNote = noteNativeDijkstra
			case AStar:
				if len(uniqueTargets) <= cfg.NativeThreshold {
					row, err = runNativeAStarRow(cfg, labels, scope, source, uniqueTargets)
					rowNote = noteNativeAStar
				} else {
					row, err = runBatchedRow(cfg, labels, scope, source, uniqueTargets)
					rowNote = noteBatchedAStar
				}
			}
			if err != nil {
				return err
			}
			if rowNote == noteBatchedAStar && len(uniqueTargets) == 1 {
				rowNote = notePairwise
			}

			rows[i] = row
			notesMu.Lock()
			notes[i] = rowNote
			notesMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// A budget-family failure still reports whatever rows finished before
		// the cap was hit: partial success for the multi-row case, mirroring
		// the per-cell "reachable=false" partial-success rule a single route
		// query uses. Any other failure (validation, configuration) fails the
		// request outright with no partial Result.
		if reason.CodeOf(err) != reason.CodeMatrixSearchBudgetExceeded {
			return Result{}, err
		}
		return partialResult(cfg, uniqueSources, rows, notes, uniqueTargets, targetIndex), err
	}

	return assembleResult(cfg, uniqueSources, rows, notes, targetIndex), nil
}

// assembleResult expands each unique-source row back onto the full
// (possibly duplicated) request source/target order.
func assembleResult(cfg Config, uniqueSources []int, rows [][]Cell, notes []string, targetIndex map[int]int) Result {
	rowBySource := make(map[int][]Cell, len(uniqueSources))
	note := ""
	for i, source := range uniqueSources {
		rowBySource[source] = rows[i]
		note = notes[i]
	}

	cells := make([][]Cell, len(cfg.Sources))
	for i, source := range cfg.Sources {
		cells[i] = expandRow(rowBySource[source], targetIndex, cfg.Targets)
	}
	return Result{Cells: cells, ImplementationNote: note}
}

// partialResult is assembleResult's degraded-success counterpart: a row
// that never finished (g.Wait aborted before its goroutine stored a
// result) is treated as entirely unreachable rather than causing a panic
// on the nil slice.
func partialResult(cfg Config, uniqueSources []int, rows [][]Cell, notes []string, uniqueTargets []int, targetIndex map[int]int) Result {
	unreachableRow := make([]Cell, len(uniqueTargets))
	for i := range unreachableRow {
		unreachableRow[i] = unreachableCell(cfg.DepartureTicks)
	}

	rowBySource := make(map[int][]Cell, len(uniqueSources))
	note := ""
	for i, source := range uniqueSources {
		if rows[i] == nil {
			rowBySource[source] = unreachableRow
			continue
		}
		rowBySource[source] = rows[i]
		note = notes[i]
	}

	cells := make([][]Cell, len(cfg.Sources))
	for i, source := range cfg.Sources {
		cells[i] = expandRow(rowBySource[source], targetIndex, cfg.Targets)
	}
	return Result{Cells: cells, ImplementationNote: note}
}

// dedup returns the unique values of ids in first-seen order, plus a map
// from each original id to its index in the unique slice.
func dedup(ids []int) ([]int, map[int]int) {
	index := make(map[int]int, len(ids))
	unique := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := index[id]; ok {
			continue
		}
		index[id] = len(unique)
		unique = append(unique, id)
	}
	return unique, index
}

// expandRow maps a unique-target row back onto the full (possibly
// duplicated) request target order.
func expandRow(row []Cell, targetIndex map[int]int, targets []int) []Cell {
	out := make([]Cell, len(targets))
	for j, t := range targets {
		out[j] = row[targetIndex[t]]
	}
	return out
}

// unreachableCell is the sentinel cell for a target never settled within
// budget or connectivity.
func unreachableCell(departureTicks int64) Cell {
	return Cell{Reachable: false, Cost: math.Inf(1), Arrival: departureTicks}
}

// --- Native one-to-many Dijkstra row -------------------------------------

type rowLabelItem struct {
	cost    float64
	arrival int64
	edge    uint32
	labelID int32
}

type rowPQ []*rowLabelItem

func (h rowPQ) Len() int { return len(h) }
func (h rowPQ) Less(i, j int) bool {
	if h[i].cost != h[j].cost {
		return h[i].cost < h[j].cost
	}
	if h[i].arrival != h[j].arrival {
		return h[i].arrival < h[j].arrival
	}
	return h[i].edge < h[j].edge
}
func (h rowPQ) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *rowPQ) Push(x interface{}) { *h = append(*h, x.(*rowLabelItem)) }
func (h *rowPQ) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// runDijkstraRow runs one forward-only time-dependent search from source,
// recording the first (best, since costs are non-negative) settlement of
// every unique target. labels and scope
// are this row's own, never shared with a concurrently-running row.
func runDijkstraRow(cfg Config, labels *label.Store, scope *budget.RowScope, source int, targets []int) ([]Cell, error) {
	remaining := make(map[int]int, len(targets)) // node id -> index, removed once settled
	for idx, t := range targets {
		remaining[t] = idx
	}
	best := make([]Cell, len(targets))
	for i := range best {
		best[i] = unreachableCell(cfg.DepartureTicks)
	}
	if idx, ok := remaining[source]; ok {
		best[idx] = Cell{Reachable: true, Cost: 0, Arrival: cfg.DepartureTicks}
		delete(remaining, source)
	}

	var pq rowPQ
	start, end := cfg.Graph.OutEdges(source)
	for e := start; e < end; e++ {
		cost, arrival := cfg.Cost.Evaluate(e, cfg.DepartureTicks, cfg.Snapshot, cfg.Resolver)
		if math.IsInf(cost, 0) || math.IsNaN(cost) {
			continue
		}
		id := labels.Add(label.Label{EdgeID: e, Cost: cost, Arrival: arrival, ParentID: label.SourceParentID})
		if err := scope.Label(); err != nil {
			return nil, err
		}
		if !labels.TryInsert(id) {
			continue
		}
		heap.Push(&pq, &rowLabelItem{cost: cost, arrival: arrival, edge: e, labelID: id})
	}

	for pq.Len() > 0 && len(remaining) > 0 {
		item := heap.Pop(&pq).(*rowLabelItem)
		if !labels.IsActive(item.labelID) {
			if err := scope.Settle(); err != nil {
				return nil, err
			}
			continue
		}
		if err := scope.Settle(); err != nil {
			return nil, err
		}

		node := int(cfg.Graph.EdgeTarget(item.edge))
		if idx, ok := remaining[node]; ok {
			best[idx] = Cell{Reachable: true, Cost: item.cost, Arrival: item.arrival}
			delete(remaining, node)
			if len(remaining) == 0 {
				break
			}
		}

		s, e := cfg.Graph.OutEdges(node)
		for edge := s; edge < e; edge++ {
			outcome := cfg.Transition.Evaluate(item.edge, edge)
			if outcome.Forbidden {
				continue
			}
			entryTicks := item.arrival
			if outcome.PenaltySeconds > 0 {
				entryTicks = saturatingAdd(entryTicks, outcome.PenaltySeconds)
			}
			edgeCost, arrival := cfg.Cost.Evaluate(edge, entryTicks, cfg.Snapshot, cfg.Resolver)
			if math.IsInf(edgeCost, 0) || math.IsNaN(edgeCost) {
				continue
			}
			nextCost := item.cost + outcome.PenaltySeconds + edgeCost
			if math.IsInf(nextCost, 0) || math.IsNaN(nextCost) {
				continue
			}
			id := labels.Add(label.Label{EdgeID: edge, Cost: nextCost, Arrival: arrival, ParentID: item.labelID})
			if err := scope.Label(); err != nil {
				return nil, err
			}
			if !labels.TryInsert(id) {
				continue
			}
			heap.Push(&pq, &rowLabelItem{cost: nextCost, arrival: arrival, edge: edge, labelID: id})
			if err := scope.Frontier(pq.Len()); err != nil {
				return nil, err
			}
		}
	}
	return best, nil
}

// --- Native one-to-many A* row --------------------------------------------

// multiTargetHeuristic takes the minimum lower bound across every target of
// the row, remaining admissible for a multi-target search.
type multiTargetHeuristic struct {
	providers []heuristic.Provider
}

func (m *multiTargetHeuristic) Estimate(v int) float64 {
	best := math.Inf(1)
	for _, p := range m.providers {
		if e := p.Estimate(v); e < best {
			best = e
		}
	}
	if math.IsInf(best, 1) {
		return 0
	}
	return best
}

func buildMultiHeuristic(cfg Config, targets []int) (heuristic.Provider, error) {
	if cfg.HeuristicType == heuristic.None {
		return nil, nil
	}
	providers := make([]heuristic.Provider, 0, len(targets))
	for _, t := range targets {
		p, err := heuristic.New(cfg.HeuristicType, cfg.Graph, t, cfg.Landmarks, cfg.MinSecondsPerUnit)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return &multiTargetHeuristic{providers: providers}, nil
}

// runNativeAStarRow reuses runDijkstraRow's loop shape with a multi-target
// admissible heuristic added to the ordering key, which only ever narrows
// the explored frontier and never changes a settled cell's true cost.
func runNativeAStarRow(cfg Config, labels *label.Store, scope *budget.RowScope, source int, targets []int) ([]Cell, error) {
	h, err := buildMultiHeuristic(cfg, targets)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return runDijkstraRow(cfg, labels, scope, source, targets)
	}

	remaining := make(map[int]int, len(targets))
	for idx, t := range targets {
		remaining[t] = idx
	}
	best := make([]Cell, len(targets))
	for i := range best {
		best[i] = unreachableCell(cfg.DepartureTicks)
	}
	if idx, ok := remaining[source]; ok {
		best[idx] = Cell{Reachable: true, Cost: 0, Arrival: cfg.DepartureTicks}
		delete(remaining, source)
	}

	pq := make(priorityHeap, 0)

	pushSeed := func(e uint32) error {
		cost, arrival := cfg.Cost.Evaluate(e, cfg.DepartureTicks, cfg.Snapshot, cfg.Resolver)
		if math.IsInf(cost, 0) || math.IsNaN(cost) {
			return nil
		}
		id := labels.Add(label.Label{EdgeID: e, Cost: cost, Arrival: arrival, ParentID: label.SourceParentID})
		if err := scope.Label(); err != nil {
			return err
		}
		if !labels.TryInsert(id) {
			return nil
		}
		node := int(cfg.Graph.EdgeTarget(e))
		heap.Push(&pq, &priorityItem{priority: cost + h.Estimate(node), cost: cost, arrival: arrival, edge: e, labelID: id})
		return nil
	}

	s0, e0 := cfg.Graph.OutEdges(source)
	for e := s0; e < e0; e++ {
		if err := pushSeed(e); err != nil {
			return nil, err
		}
	}

	for pq.Len() > 0 && len(remaining) > 0 {
		popped := heap.Pop(&pq).(*priorityItem)
		if !labels.IsActive(popped.labelID) {
			if err := scope.Settle(); err != nil {
				return nil, err
			}
			continue
		}
		if err := scope.Settle(); err != nil {
			return nil, err
		}

		node := int(cfg.Graph.EdgeTarget(popped.edge))
		if idx, ok := remaining[node]; ok {
			best[idx] = Cell{Reachable: true, Cost: popped.cost, Arrival: popped.arrival}
			delete(remaining, node)
			if len(remaining) == 0 {
				break
			}
		}

		s, e := cfg.Graph.OutEdges(node)
		for edge := s; edge < e; edge++ {
			outcome := cfg.Transition.Evaluate(popped.edge, edge)
			if outcome.Forbidden {
				continue
			}
			entryTicks := popped.arrival
			if outcome.PenaltySeconds > 0 {
				entryTicks = saturatingAdd(entryTicks, outcome.PenaltySeconds)
			}
			edgeCost, arrival := cfg.Cost.Evaluate(edge, entryTicks, cfg.Snapshot, cfg.Resolver)
			if math.IsInf(edgeCost, 0) || math.IsNaN(edgeCost) {
				continue
			}
			nextCost := popped.cost + outcome.PenaltySeconds + edgeCost
			if math.IsInf(nextCost, 0) || math.IsNaN(nextCost) {
				continue
			}
			id := labels.Add(label.Label{EdgeID: edge, Cost: nextCost, Arrival: arrival, ParentID: popped.labelID})
			if err := scope.Label(); err != nil {
				return nil, err
			}
			if !labels.TryInsert(id) {
				continue
			}
			successor := int(cfg.Graph.EdgeTarget(edge))
			heap.Push(&pq, &priorityItem{priority: nextCost + h.Estimate(successor), cost: nextCost, arrival: arrival, edge: edge, labelID: id})
			if err := scope.Frontier(pq.Len()); err != nil {
				return nil, err
			}
		}
	}
	return best, nil
}

type priorityItem struct {
	priority float64
	cost     float64
	arrival  int64
	edge     uint32
	labelID  int32
}

type priorityHeap []*priorityItem

func (h priorityHeap) Len() int { return len(h) }
func (h priorityHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	if h[i].arrival != h[j].arrival {
		return h[i].arrival < h[j].arrival
	}
	return h[i].edge < h[j].edge
}
func (h priorityHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *priorityHeap) Push(x interface{}) { *h = append(*h, x.(*priorityItem)) }
func (h *priorityHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// --- Batched per-cell fallback ---------------------------------------------

// runBatchedRow falls back to one astar.Run per target when the target set
// exceeds NativeThreshold.
// Each cell gets its own astar-scoped label.Store (reusing labels, this
// row's own Store) and an unbounded per-cell budget.Tracker, since
// route-level search budgets are a separate concern from the shared
// matrix-row/request ceiling that scope still charges one unit per cell.
func runBatchedRow(cfg Config, labels *label.Store, scope *budget.RowScope, source int, targets []int) ([]Cell, error) {
	out := make([]Cell, len(targets))
	for i, target := range targets {
		if target == source {
			out[i] = Cell{Reachable: true, Cost: 0, Arrival: cfg.DepartureTicks}
			continue
		}

		var provider heuristic.Provider
		if cfg.HeuristicType != heuristic.None {
			p, err := heuristic.New(cfg.HeuristicType, cfg.Graph, target, cfg.Landmarks, cfg.MinSecondsPerUnit)
			if err != nil {
				return nil, err
			}
			provider = p
		}

		labels.Reset()
		tracker := budget.NewTracker(budget.Caps{
			MaxSettled:  0,
			MaxLabels:   0,
			MaxFrontier: 0,
		})
		result, err := astar.Run(astar.Config{
			Graph:          cfg.Graph,
			Cost:           cfg.Cost,
			Transition:     cfg.Transition,
			Resolver:       cfg.Resolver,
			Snapshot:       cfg.Snapshot,
			Heuristic:      provider,
			Labels:         labels,
			Budget:         tracker,
			Source:         source,
			Target:         target,
			DepartureTicks: cfg.DepartureTicks,
		})
		if err != nil {
			return nil, err
		}
		if err := scope.Settle(); err != nil {
			return nil, err
		}

		if !result.Reachable {
			out[i] = unreachableCell(cfg.DepartureTicks)
			continue
		}
		out[i] = Cell{Reachable: true, Cost: result.Cost, Arrival: result.Arrival}
	}
	return out, nil
}

func saturatingAdd(base int64, deltaSeconds float64) int64 {
	const int64max = int64(^uint64(0) >> 1)
	rounded := int64(deltaSeconds + 0.5)
	if rounded > int64max-base {
		return int64max
	}
	return base + rounded
}
