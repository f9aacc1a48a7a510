package taro

// RouteResponse is the outcome of a Route call. Reachable is false when the
// search exhausts without finding a path (a budget breach is returned as an
// error instead); TotalCost is +Inf and Path
// is empty in that case (never a partial path). Every slice here is a
// defensive copy: mutating it never affects a subsequently returned
// response.
type RouteResponse struct {
	Reachable    bool
	TotalCost    float64
	ArrivalTicks int64

	// Path is the ordered sequence of external node ids from source to
	// target, inclusive, empty when Reachable is false.
	Path []string

	ResolvedSource ResolvedAddress
	ResolvedTarget ResolvedAddress

	// SettledStates is the total work the planner performed, including
	// stale frontier pops (work accounting is total).
	SettledStates int
}

// MatrixCell is one (source, target) entry in a MatrixResponse. Unreachable
// cells carry Cost = +Inf and Arrival pinned to the query's departure
// instant (never earlier), matching the route response's unreachable
// sentinel.
type MatrixCell struct {
	Reachable bool
	Cost      float64
	Arrival   int64
}

// MatrixResponse is the outcome of a Matrix call. Cells[i][j] corresponds
// to request row i (Sources[i]) and column j (Targets[j]), including
// duplicated rows/columns, which always carry byte-equal cell values.
type MatrixResponse struct {
	ResolvedSources []ResolvedAddress
	ResolvedTargets []ResolvedAddress

	Cells [][]MatrixCell

	// ImplementationNote identifies which planner strategy served the
	// request: "native Dijkstra", "native A*", "batched-A*-compatibility",
	// or "pairwise-compatibility".
	ImplementationNote string
}

// At returns the cell for request row i, column j.
func (r MatrixResponse) At(i, j int) MatrixCell { return r.Cells[i][j] }
