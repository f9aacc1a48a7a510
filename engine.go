package taro

import (
	"fmt"
	"sync"

	"github.com/taro-routing/taro/internal/addressing"
	"github.com/taro-routing/taro/internal/budget"
	"github.com/taro-routing/taro/internal/costengine"
	"github.com/taro-routing/taro/internal/heuristic"
	"github.com/taro-routing/taro/internal/idmap"
	"github.com/taro-routing/taro/internal/label"
	"github.com/taro-routing/taro/internal/overlay"
	"github.com/taro-routing/taro/internal/profile"
	"github.com/taro-routing/taro/internal/reason"
	"github.com/taro-routing/taro/internal/runtimeconfig"
	"github.com/taro-routing/taro/internal/spatial"
	"github.com/taro-routing/taro/internal/temporal"
	"github.com/taro-routing/taro/internal/topology"
	"github.com/taro-routing/taro/internal/transition"
	"github.com/taro-routing/taro/internal/turntable"
)

// defaultLabelPoolCapacity sizes a fresh per-worker label.Store when the
// pool has none to reuse. Chosen as a reasonable working-set size for one
// route query on a city-scale network; Store grows past this on demand (it
// is a plain slice), it just starts amortizing allocations sooner for
// larger queries.
const defaultLabelPoolCapacity = 1024

// EngineConfig bundles every immutable, startup-bound collaborator an
// Engine needs. Every field but Spatial, Landmarks, and Strategies is
// required; Cost must have been built from the exact Graph and Profiles
// instances passed here (see NewEngine's identity check,
// COST_ENGINE_GRAPH_MISMATCH / COST_ENGINE_PROFILE_MISMATCH).
type EngineConfig struct {
	Graph     *topology.Graph
	Profiles  *profile.Store
	Cost      *costengine.Engine
	Mapper    *idmap.Mapper
	TurnTable *turntable.Table

	// Spatial is required only if requests ever resolve coordinate
	// endpoints; nil is legal for an external-id-only deployment.
	Spatial *spatial.Index

	// Landmarks is required only if a request ever selects the LANDMARK
	// heuristic; its Signature must match Graph+Profiles exactly
	// (HEURISTIC_CONFIGURATION_FAILED otherwise).
	Landmarks *heuristic.Landmarks

	// Strategies defaults to the two built-in coordinate strategies
	// (XY, LAT_LON) when nil.
	Strategies *addressing.StrategyRegistry

	Runtime runtimeconfig.Config
}

// Engine is the immutable, concurrency-safe query-time routing engine.
// Construct with NewEngine; safe for concurrent Route/Matrix/ApplyOverlay
// calls from any number of goroutines.
type Engine struct {
	graph     *topology.Graph
	profiles  *profile.Store
	cost      *costengine.Engine
	mapper    *idmap.Mapper
	turnTable *turntable.Table
	spatial   *spatial.Index
	landmarks *heuristic.Landmarks

	addressing *addressing.Resolver
	transition *transition.Policy
	temporal   *temporal.Resolver
	overlay    *overlay.Overlay

	runtime runtimeconfig.Config

	landmarkSignature string

	labelPool sync.Pool
}

// NewEngine validates cfg and builds an Engine. Validation failures surface
// as *reason.Failure with a configuration-family reason code.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Cost.Graph() != cfg.Graph {
		return nil, reason.New(reason.CodeCostEngineGraphMismatch,
			"cost engine was not built from the exact Graph instance passed to NewEngine")
	}
	if cfg.Cost.Profiles() != cfg.Profiles {
		return nil, reason.New(reason.CodeCostEngineProfileMismatch,
			"cost engine was not built from the exact Profiles instance passed to NewEngine")
	}
	if cfg.Runtime.TransitionTrait != transition.NodeBased && cfg.Runtime.TransitionTrait != transition.EdgeBased {
		return nil, reason.New(reason.CodeUnknownTransitionTrait,
			"runtime config carries an unrecognized transition trait")
	}

	trait, ok := addressing.TraitByID(cfg.Runtime.AddressingTraitID)
	if !ok {
		return nil, reason.Newf(reason.CodeUnknownAddressingTrait,
			"unknown addressing trait id %q", cfg.Runtime.AddressingTraitID)
	}

	temporalResolver, err := temporal.New(cfg.Runtime.TemporalKind, cfg.Runtime.TimezonePolicy, cfg.Runtime.TimezoneID)
	if err != nil {
		return nil, err
	}

	strategies := cfg.Strategies
	if strategies == nil {
		strategies = addressing.NewStrategyRegistry()
	}

	resolver := addressing.New(addressing.Config{
		Trait:             trait,
		Strategies:        strategies,
		Mapper:            cfg.Mapper,
		Graph:             cfg.Graph,
		Spatial:           cfg.Spatial,
		SnapCacheCapacity: cfg.Runtime.SnapCacheCapacity,
		SnapCacheSegments: cfg.Runtime.SnapCacheSegments,
	})

	signature := landmarkSignature(cfg.Graph, cfg.Profiles)
	if cfg.Landmarks != nil && cfg.Landmarks.Signature != signature {
		return nil, reason.New(reason.CodeHeuristicConfigFailed,
			"landmark artifact signature does not match this graph+profile build")
	}

	overlayCapacity := cfg.Runtime.OverlayCapacity
	if overlayCapacity <= 0 {
		overlayCapacity = runtimeconfig.Default().OverlayCapacity
	}

	e := &Engine{
		graph:             cfg.Graph,
		profiles:          cfg.Profiles,
		cost:              cfg.Cost,
		mapper:            cfg.Mapper,
		turnTable:         cfg.TurnTable,
		spatial:           cfg.Spatial,
		landmarks:         cfg.Landmarks,
		addressing:        resolver,
		transition:        transition.New(cfg.Runtime.TransitionTrait, cfg.TurnTable),
		temporal:          temporalResolver,
		overlay:           overlay.New(overlayCapacity),
		runtime:           cfg.Runtime,
		landmarkSignature: signature,
	}
	e.labelPool.New = func() interface{} { return label.NewStore(defaultLabelPoolCapacity) }
	return e, nil
}

// landmarkSignature computes the stable graph+profile fingerprint a
// landmark artifact must match, checked at construction when landmarks are
// supplied.
func landmarkSignature(graph *topology.Graph, profiles *profile.Store) string {
	return fmt.Sprintf("%016x:%016x", graph.Fingerprint(), profiles.Fingerprint())
}

// acquireLabels borrows a reset label.Store from the pool. Callers must
// release it with releaseLabels when the query finishes.
func (e *Engine) acquireLabels() *label.Store {
	store := e.labelPool.Get().(*label.Store)
	store.Reset()
	return store
}

func (e *Engine) releaseLabels(store *label.Store) {
	e.labelPool.Put(store)
}

// ApplyOverlayBatch ingests a batch of live speed-factor updates into the
// engine's overlay. See internal/overlay for the exact accounting
// guarantee (accepted + rejected_expired_at_ingest + rejected_capacity ==
// len(updates)).
func (e *Engine) ApplyOverlayBatch(updates []overlay.Update, nowTicks int64) overlay.BatchResult {
	return e.overlay.ApplyBatch(updates, nowTicks)
}

// UpsertOverlay applies a single live update, returning false if it was
// rejected, either as already expired at ingest or for capacity.
func (e *Engine) UpsertOverlay(update overlay.Update, nowTicks int64) bool {
	return e.overlay.Upsert(update, nowTicks)
}

// Stats is a read-only operability snapshot aggregated over state the
// engine's components already track: no new subsystem, just a view onto
// counters the overlay, snap cache, and offset cache maintain for their
// own purposes.
type Stats struct {
	OverlayActiveEntries int
	OffsetCacheDays      int
	SnapCacheSegments    []addressing.SegmentStats
}

// Stats returns a point-in-time snapshot of the engine's mutable-state
// occupancy and cache hit rates.
func (e *Engine) Stats() Stats {
	return Stats{
		OverlayActiveEntries: e.overlay.Len(),
		OffsetCacheDays:      e.temporal.OffsetCacheSize(),
		SnapCacheSegments:    e.addressing.CacheStats(),
	}
}

// resolveHeuristicType validates an Algorithm/HeuristicType combination
// request-shape-wise (ALGORITHM_REQUIRED, HEURISTIC_REQUIRED,
// DIJKSTRA_HEURISTIC_MISMATCH) and maps HeuristicType to its internal
// counterpart.
func resolveHeuristicType(algorithm Algorithm, ht HeuristicType) (heuristic.Type, error) {
	if algorithm == AlgorithmUnspecified {
		return 0, reason.New(reason.CodeAlgorithmRequired, "request is missing an algorithm")
	}
	if ht == HeuristicUnspecified {
		return 0, reason.New(reason.CodeHeuristicRequired, "request is missing a heuristic_type")
	}

	var internal heuristic.Type
	switch ht {
	case HeuristicNone:
		internal = heuristic.None
	case HeuristicEuclidean:
		internal = heuristic.Euclidean
	case HeuristicSpherical:
		internal = heuristic.Spherical
	case HeuristicLandmark:
		internal = heuristic.Landmark
	default:
		return 0, reason.Newf(reason.CodeHeuristicConfigFailed, "unknown heuristic type %d", ht)
	}

	if algorithm == AlgorithmDijkstra && internal != heuristic.None {
		return 0, reason.New(reason.CodeDijkstraHeuristicMismatch,
			"DIJKSTRA requires heuristic_type NONE")
	}
	return internal, nil
}

// budgetCaps returns the configured per-query route budget, or an
// unbounded Caps{} if none was set.
func (e *Engine) budgetCaps() budget.Caps { return e.runtime.RouteBudget }

func (e *Engine) matrixBudgetCaps() budget.MatrixCaps { return e.runtime.MatrixBudget }
