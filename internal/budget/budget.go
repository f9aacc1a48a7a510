// Package budget implements the per-query and per-matrix-row/request work
// caps: settled-state, label, and frontier-size ceilings, each surfaced as
// a typed reason code on breach rather than a panic or silent truncation.
package budget

import (
	"sync"

	"github.com/taro-routing/taro/internal/reason"
)

// Caps bundles the budget ceilings for a single route query. A zero or
// negative value means "unbounded".
type Caps struct {
	MaxSettled  int
	MaxLabels   int
	MaxFrontier int
}

// MatrixCaps bundles the per-row and per-request ceilings for a matrix
// query.
type MatrixCaps struct {
	RowWork      int
	RowLabels    int
	RowFrontier  int
	RequestWork  int
}

func unbounded(v int) bool { return v <= 0 }

// Tracker accumulates work against Caps for a single route query and
// reports a budget Failure the first time any cap is exceeded. Stale
// frontier pops still count against the settled budget: work accounting is
// total, not conditioned on whether the pop turned out useful.
type Tracker struct {
	caps     Caps
	settled  int
	labels   int
	frontier int
}

// NewTracker builds a Tracker bound to caps.
func NewTracker(caps Caps) *Tracker { return &Tracker{caps: caps} }

// Settle records one settled-state pop (stale or not) and returns a budget
// Failure if the cap is now exceeded.
func (t *Tracker) Settle() error {
	t.settled++
	if !unbounded(t.caps.MaxSettled) && t.settled > t.caps.MaxSettled {
		return reason.Newf(reason.CodeSearchBudgetExceeded, "settled-state budget %d exceeded", t.caps.MaxSettled)
	}
	return nil
}

// Label records one label creation and returns a budget Failure if the cap
// is now exceeded.
func (t *Tracker) Label() error {
	t.labels++
	if !unbounded(t.caps.MaxLabels) && t.labels > t.caps.MaxLabels {
		return reason.Newf(reason.CodeSearchBudgetExceeded, "label budget %d exceeded", t.caps.MaxLabels)
	}
	return nil
}

// Frontier records the current frontier size after a push and returns a
// budget Failure if the cap is now exceeded.
func (t *Tracker) Frontier(size int) error {
	if size > t.frontier {
		t.frontier = size
	}
	if !unbounded(t.caps.MaxFrontier) && size > t.caps.MaxFrontier {
		return reason.Newf(reason.CodeSearchBudgetExceeded, "frontier budget %d exceeded", t.caps.MaxFrontier)
	}
	return nil
}

// Settled returns the total settled-state count, used for the response's
// settled-state counter.
func (t *Tracker) Settled() int { return t.settled }

// RowTracker is the matrix-planner equivalent of Tracker, tracking the
// shared request-level ceiling across every row in the matrix. Rows run on
// their own goroutines, so
// the request-level counter is guarded by a mutex; each row's own counters
// live on the RowScope returned by StartRow and need no locking, since a
// RowScope is only ever touched by the single goroutine searching that row.
type RowTracker struct {
	caps MatrixCaps

	mu          sync.Mutex
	requestWork int
}

// NewRowTracker builds a RowTracker bound to caps, shared across all rows
// of one matrix query so RequestWork accumulates across rows.
func NewRowTracker(caps MatrixCaps) *RowTracker { return &RowTracker{caps: caps} }

// StartRow returns a fresh RowScope for one source row's search. Call it
// once per row, even when rows run concurrently.
func (t *RowTracker) StartRow() *RowScope {
	return &RowScope{tracker: t}
}

// RequestWork returns the accumulated cross-row settled-state count.
func (t *RowTracker) RequestWork() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.requestWork
}

// RowScope accumulates one row's work against the row ceilings and folds
// settled-state events into its tracker's shared request-level ceiling.
type RowScope struct {
	tracker *RowTracker

	rowSettled  int
	rowLabels   int
	rowFrontier int
}

// Settle records one settled state against both the row and request
// ceilings.
func (s *RowScope) Settle() error {
	caps := s.tracker.caps
	s.rowSettled++
	if !unbounded(caps.RowWork) && s.rowSettled > caps.RowWork {
		return reason.Newf(reason.CodeMatrixSearchBudgetExceeded, "row work budget %d exceeded", caps.RowWork)
	}

	s.tracker.mu.Lock()
	s.tracker.requestWork++
	requestWork := s.tracker.requestWork
	s.tracker.mu.Unlock()
	if !unbounded(caps.RequestWork) && requestWork > caps.RequestWork {
		return reason.Newf(reason.CodeMatrixSearchBudgetExceeded, "request work budget %d exceeded", caps.RequestWork)
	}
	return nil
}

// Label records one label creation against the row ceiling.
func (s *RowScope) Label() error {
	s.rowLabels++
	if !unbounded(s.tracker.caps.RowLabels) && s.rowLabels > s.tracker.caps.RowLabels {
		return reason.Newf(reason.CodeMatrixSearchBudgetExceeded, "row label budget %d exceeded", s.tracker.caps.RowLabels)
	}
	return nil
}

// Frontier records the current row frontier size against the row ceiling.
func (s *RowScope) Frontier(size int) error {
	if size > s.rowFrontier {
		s.rowFrontier = size
	}
	if !unbounded(s.tracker.caps.RowFrontier) && size > s.tracker.caps.RowFrontier {
		return reason.Newf(reason.CodeMatrixSearchBudgetExceeded, "row frontier budget %d exceeded", s.tracker.caps.RowFrontier)
	}
	return nil
}
