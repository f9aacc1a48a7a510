// Package runtimeconfig holds the startup-only trait and policy bindings the
// route orchestrator binds its addressing, temporal, transition, and budget
// contexts from.
//
// Construction follows the builder.BuilderOption convention used elsewhere
// in this module: a Config carries defaults, and Option functions mutate it
// in order. Option
// constructors here validate and panic on programmer error (an empty
// addressing trait id or a non-positive overlay capacity); a nil Option
// passed to New is skipped. Runtime data errors (an unknown trait id, a
// malformed timezone) surface as an error from Engine construction instead,
// since those depend on data the caller may not control.
package runtimeconfig

import (
	"github.com/taro-routing/taro/internal/budget"
	"github.com/taro-routing/taro/internal/costengine"
	"github.com/taro-routing/taro/internal/temporal"
	"github.com/taro-routing/taro/internal/transition"
)

// Config bundles every startup-bound binding the orchestrator needs.
// Construct via Default and apply Options.
type Config struct {
	AddressingTraitID string

	TransitionTrait transition.Trait

	TemporalKind     temporal.Kind
	TimezonePolicy   temporal.TimezonePolicy
	TimezoneID       string

	CostSampling costengine.SamplingPolicy

	RouteBudget  budget.Caps
	MatrixBudget budget.MatrixCaps

	OverlayCapacity int

	SnapCacheCapacity int
	SnapCacheSegments int

	MatrixNativeThreshold int
	MatrixRowConcurrency  int

	// MinSecondsPerUnit scales a geometric heuristic's raw distance into a
	// lower-bound time: the fastest seconds-per-coordinate-unit (EUCLIDEAN)
	// or seconds-per-meter (SPHERICAL) achievable anywhere in the network,
	// so the bound never overestimates the true time-dependent cost.
	MinSecondsPerUnit float64
}

// Option mutates a Config being built by Default. Later options override
// earlier ones, applied in the order passed.
type Option func(*Config)

// Default returns a Config with conservative defaults: addressing trait
// DEFAULT, transition trait EDGE_BASED, temporal LINEAR, discrete cost
// sampling, unbounded budgets, a capacity-4096 16-segment snap cache, and a
// matrix native-A*-threshold of 16 unique targets.
func Default() Config {
	return Config{
		AddressingTraitID:     "DEFAULT",
		TransitionTrait:       transition.EdgeBased,
		TemporalKind:          temporal.Linear,
		TimezonePolicy:        temporal.UTC,
		CostSampling:          costengine.Discrete,
		OverlayCapacity:       4096,
		SnapCacheCapacity:     4096,
		SnapCacheSegments:     16,
		MatrixNativeThreshold: 16,
		MatrixRowConcurrency:  8,
		MinSecondsPerUnit:     1.0,
	}
}

// New builds a Config from Default() with opts applied in order.
func New(opts ...Option) Config {
	cfg := Default()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	return cfg
}

// WithAddressingTrait binds the startup addressing trait id. Panics if id
// is empty: a missing trait id is a programmer error, not a runtime data
// condition.
func WithAddressingTrait(id string) Option {
	if id == "" {
		panic("runtimeconfig: WithAddressingTrait requires a non-empty id")
	}
	return func(c *Config) { c.AddressingTraitID = id }
}

// WithTransitionTrait binds the startup transition trait.
func WithTransitionTrait(trait transition.Trait) Option {
	return func(c *Config) { c.TransitionTrait = trait }
}

// WithLinearTemporal selects the LINEAR temporal trait (UTC ticks only,
// day mask ignored).
func WithLinearTemporal() Option {
	return func(c *Config) {
		c.TemporalKind = temporal.Linear
		c.TimezonePolicy = temporal.UTC
		c.TimezoneID = ""
	}
}

// WithCalendarTemporal selects the CALENDAR temporal trait bound to
// policy; zoneID is required and validated at Engine construction when
// policy is ModelTimezone.
func WithCalendarTemporal(policy temporal.TimezonePolicy, zoneID string) Option {
	return func(c *Config) {
		c.TemporalKind = temporal.Calendar
		c.TimezonePolicy = policy
		c.TimezoneID = zoneID
	}
}

// WithCostSampling selects the discrete-vs-interpolated bucket sampling
// policy, fixed once at engine construction.
func WithCostSampling(policy costengine.SamplingPolicy) Option {
	return func(c *Config) { c.CostSampling = policy }
}

// WithRouteBudget sets the per-query settled/label/frontier caps. Zero or
// negative fields mean unbounded.
func WithRouteBudget(caps budget.Caps) Option {
	return func(c *Config) { c.RouteBudget = caps }
}

// WithMatrixBudget sets the per-row and per-request matrix caps.
func WithMatrixBudget(caps budget.MatrixCaps) Option {
	return func(c *Config) { c.MatrixBudget = caps }
}

// WithOverlayCapacity sets the live overlay's maximum active-entry count.
// Panics on a non-positive value: an unbounded overlay is not a supported
// configuration.
func WithOverlayCapacity(capacity int) Option {
	if capacity <= 0 {
		panic("runtimeconfig: WithOverlayCapacity requires a positive capacity")
	}
	return func(c *Config) { c.OverlayCapacity = capacity }
}

// WithSnapCache sets the addressing engine's cross-request segmented LRU
// capacity and segment count. Segment count is rounded up to the next power
// of two, bounded by capacity, inside addressing.NewSnapCache.
func WithSnapCache(capacity, segments int) Option {
	return func(c *Config) {
		c.SnapCacheCapacity = capacity
		c.SnapCacheSegments = segments
	}
}

// WithMatrixStrategy sets the A* native-vs-batched target-count threshold
// and the row fan-out concurrency cap.
func WithMatrixStrategy(nativeThreshold, rowConcurrency int) Option {
	return func(c *Config) {
		c.MatrixNativeThreshold = nativeThreshold
		c.MatrixRowConcurrency = rowConcurrency
	}
}

// WithMinSecondsPerUnit sets the geometric-heuristic admissibility scale: the
// minimum achievable seconds-per-unit anywhere in the network, so a distance
// heuristic never overestimates true cost.
func WithMinSecondsPerUnit(v float64) Option {
	return func(c *Config) { c.MinSecondsPerUnit = v }
}
