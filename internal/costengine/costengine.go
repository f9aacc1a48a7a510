// Package costengine composes topology, profile, and a live overlay
// snapshot with a temporal context into a finite-or-infinite edge
// traversal cost for a given entry time.
package costengine

import (
	"math"

	"github.com/taro-routing/taro/internal/overlay"
	"github.com/taro-routing/taro/internal/profile"
	"github.com/taro-routing/taro/internal/temporal"
	"github.com/taro-routing/taro/internal/tickclock"
	"github.com/taro-routing/taro/internal/topology"
)

// SamplingPolicy selects how a profile's bucket multiplier is sampled,
// fixed once at engine construction.
type SamplingPolicy int

const (
	Discrete SamplingPolicy = iota
	Interpolated
)

// Engine is the immutable cost function: (edge, entry time) -> cost.
// Engine itself holds no per-query state; a Snapshot is threaded through
// per call so every evaluation within one query is consistent.
type Engine struct {
	graph    *topology.Graph
	profiles *profile.Store
	sampling SamplingPolicy
}

// New builds an Engine bound to graph and profiles. Both must be the exact
// instances later passed to the orchestrator (identity-checked there);
// costengine itself does not re-validate identity.
func New(graph *topology.Graph, profiles *profile.Store, sampling SamplingPolicy) *Engine {
	return &Engine{graph: graph, profiles: profiles, sampling: sampling}
}

// Graph returns the bound topology instance (used by the orchestrator's
// identity check).
func (e *Engine) Graph() *topology.Graph { return e.graph }

// Profiles returns the bound profile store instance (used by the
// orchestrator's identity check).
func (e *Engine) Profiles() *profile.Store { return e.profiles }

// Evaluate computes the traversal cost of edgeID entered at entryTicks
// (Unix seconds), given an overlay snapshot and temporal resolver. It
// returns a non-finite cost (math.Inf(1)) rather than an error whenever the
// edge is impassable at that instant: this is never an exception, just an
// unreachable successor.
func (e *Engine) Evaluate(edgeID uint32, entryTicks int64, snap *overlay.Snapshot, resolver *temporal.Resolver) (cost float64, arrival int64) {
	baseWeight := e.graph.BaseWeight(edgeID)

	if factor, active := snap.Lookup(edgeID); active {
		if factor <= 0 {
			return math.Inf(1), entryTicks
		}
		baseWeight = baseWeight / factor
	}

	multiplier := e.multiplierFor(edgeID, entryTicks, resolver)
	if multiplier == 0 {
		// A zero multiplier marks the edge impassable in that bucket.
		return math.Inf(1), entryTicks
	}

	cost = baseWeight * multiplier
	if math.IsNaN(cost) || math.IsInf(cost, 0) || cost < 0 {
		return math.Inf(1), entryTicks
	}

	arrival = tickclock.SaturatingAddTicks(entryTicks, cost)
	return cost, arrival
}

func (e *Engine) multiplierFor(edgeID uint32, entryTicks int64, resolver *temporal.Resolver) float64 {
	profileID := e.graph.EdgeProfileID(edgeID)
	prof, ok := e.profiles.Lookup(profileID)
	if !ok {
		return 1.0
	}

	if resolver.Kind() == temporal.Linear {
		secondOfDay := int(((entryTicks % profile.SecondsPerDay) + profile.SecondsPerDay) % profile.SecondsPerDay)
		return e.sample(prof, secondOfDay)
	}

	res := resolver.Resolve(entryTicks)
	if !prof.CoversDay(res.DayOfWeek) {
		return prof.DefaultMultiplier
	}
	return e.sample(prof, res.SecondOfDay)
}

func (e *Engine) sample(p profile.Profile, secondOfDay int) float64 {
	if e.sampling == Interpolated {
		return p.InterpolatedMultiplier(secondOfDay)
	}
	return p.Buckets[p.BucketIndex(secondOfDay)]
}
