// Package transition implements the NODE_BASED / EDGE_BASED turn-handling
// trait: whether a finite turn penalty is added to
// cumulative cost (EDGE_BASED) or ignored while an infinite penalty still
// forbids the transition either way.
package transition

import (
	"math"

	"github.com/taro-routing/taro/internal/turntable"
)

// Trait selects the transition policy.
type Trait int

const (
	// NodeBased honors an infinite turn penalty (skip) but ignores any
	// finite penalty's cost contribution entirely.
	NodeBased Trait = iota
	// EdgeBased honors both: a finite penalty is added to cumulative cost
	// before the successor edge's own cost is evaluated; infinite still
	// forbids the transition.
	EdgeBased
)

// Outcome is the result of evaluating one edge-to-edge transition.
type Outcome struct {
	Forbidden      bool
	PenaltySeconds float64 // to add to cumulative cost; 0 under NodeBased
}

// Policy is the immutable, startup-bound transition context.
type Policy struct {
	trait Trait
	table *turntable.Table
}

// New builds a Policy bound to trait and table. A nil table is treated as
// "no turn costs anywhere", matching turntable.Table's nil-receiver Penalty
// behavior.
func New(trait Trait, table *turntable.Table) *Policy {
	return &Policy{trait: trait, table: table}
}

// Trait reports the bound transition trait.
func (p *Policy) Trait() Trait { return p.trait }

// Evaluate looks up the penalty for transitioning fromEdge->toEdge and
// applies the bound trait. Source expansions (no incoming edge) must not
// call Evaluate: source expansion applies no penalty, which callers encode
// by simply skipping this call for the first hop.
func (p *Policy) Evaluate(fromEdge, toEdge uint32) Outcome {
	penalty := p.table.Penalty(fromEdge, toEdge)
	if math.IsInf(penalty, 1) {
		return Outcome{Forbidden: true}
	}
	if p.trait == NodeBased {
		return Outcome{PenaltySeconds: 0}
	}
	return Outcome{PenaltySeconds: penalty}
}
