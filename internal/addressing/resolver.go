package addressing

import (
	"math"

	"github.com/taro-routing/taro/internal/idmap"
	"github.com/taro-routing/taro/internal/reason"
	"github.com/taro-routing/taro/internal/spatial"
	"github.com/taro-routing/taro/internal/topology"
)

// Resolver is the immutable, startup-bound addressing engine: a trait, a
// strategy registry, the id mapper, the graph (for bounds and
// coordinates), the spatial index, and a cross-request segmented snap
// cache.
type Resolver struct {
	trait      Trait
	strategies *StrategyRegistry
	mapper     *idmap.Mapper
	graph      *topology.Graph
	spatial    *spatial.Index
	snapCache  *SnapCache
}

// Config bundles the construction-time bindings for a Resolver.
type Config struct {
	Trait             Trait
	Strategies        *StrategyRegistry
	Mapper            *idmap.Mapper
	Graph             *topology.Graph
	Spatial           *spatial.Index
	SnapCacheCapacity int
	SnapCacheSegments int
}

// New builds a Resolver from cfg.
func New(cfg Config) *Resolver {
	return &Resolver{
		trait:      cfg.Trait,
		strategies: cfg.Strategies,
		mapper:     cfg.Mapper,
		graph:      cfg.Graph,
		spatial:    cfg.Spatial,
		snapCache:  NewSnapCache(cfg.SnapCacheCapacity, cfg.SnapCacheSegments),
	}
}

// CacheStats exposes the Resolver's segmented snap-cache occupancy and
// hit-rate snapshot, used by the engine's operability Stats().
func (r *Resolver) CacheStats() []SegmentStats { return r.snapCache.Stats() }

// ResolveOptions controls per-request resolution behavior that is not fixed
// at startup.
type ResolveOptions struct {
	// MixedModeAllowed permits a single request to mix external-id and
	// coordinate endpoints. When false, the second distinct kind observed
	// in one ResolveAll call is a MIXED_MODE_DISABLED failure.
	MixedModeAllowed bool
}

// endpointFingerprint is the per-request dedup key: (address-type,
// external-id) for external-id endpoints (typed or legacy alike), or
// (coordinate-strategy-id, canonicalized coordinate bits, max-snap) for
// coordinate endpoints. It deliberately does not include the resolved
// internal node id: the whole point is to recognize a duplicate *before*
// paying for the resolve call, not after.
type endpointFingerprint struct {
	kind       AddressType
	externalID string
	strategyID string
	maxSnap    float64
	xBits      uint64
	yBits      uint64
}

// fingerprintFor computes ep's dedup fingerprint, when its shape is
// unambiguous enough to compute one cheaply. Malformed endpoints (both or
// neither of Typed/LegacyExternalID set) return ok=false: they are always
// routed through the full resolve path, where they fail validation exactly
// as before.
func fingerprintFor(ep Endpoint) (endpointFingerprint, bool) {
	switch {
	case ep.Typed != nil && ep.LegacyExternalID == nil:
		ta := ep.Typed
		switch ta.Kind {
		case AddressExternalID:
			return endpointFingerprint{kind: AddressExternalID, externalID: ta.ExternalID}, true
		case AddressCoordinate:
			return endpointFingerprint{
				kind:       AddressCoordinate,
				strategyID: ta.CoordinateStrategyID,
				maxSnap:    ta.MaxSnapDistance,
				xBits:      canonicalizeCoordBits(ta.X),
				yBits:      canonicalizeCoordBits(ta.Y),
			}, true
		default:
			return endpointFingerprint{}, false
		}
	case ep.LegacyExternalID != nil && ep.Typed == nil:
		return endpointFingerprint{kind: AddressExternalID, externalID: *ep.LegacyExternalID}, true
	default:
		return endpointFingerprint{}, false
	}
}

// ResolveAll resolves every endpoint in order, applying the seven-step
// pipeline: shape validation, trait check, mixed-mode check, external-id
// lookup, coordinate validate/snap/distance, per-request deduplication, and
// cross-request snap-cache reuse. requiredCode
// is the reason code reported when an endpoint has neither Typed nor
// LegacyExternalID set (callers pass CodeSourceRequired, CodeTargetsRequired,
// etc. depending on which request field endpoints came from).
//
// Deduplication happens before the resolve call, not after: a duplicate
// fingerprint reuses an earlier position's ResolvedAddress without touching
// the mapper, spatial index, or snap cache again, so Telemetry.ResolveCalls
// counts only the distinct fingerprints actually resolved.
//
// The returned slice has exactly len(endpoints) entries, in request order,
// even when two endpoints dedup to the same fingerprint: ResolveAll never
// drops positions, since callers must be able to zip results back against
// their original request shape.
func (r *Resolver) ResolveAll(endpoints []Endpoint, requiredCode reason.Code, opts ResolveOptions) ([]ResolvedAddress, Telemetry, error) {
	start := startTimer()
	telemetry := Telemetry{EndpointCount: len(endpoints)}

	results := make([]ResolvedAddress, len(endpoints))
	seen := make(map[endpointFingerprint]int, len(endpoints)) // fingerprint -> first result index
	var firstKind *AddressType

	recordKind := func(kind AddressType) error {
		if firstKind == nil {
			firstKind = &kind
		} else if *firstKind != kind {
			if !opts.MixedModeAllowed {
				return reason.New(reason.CodeMixedModeDisabled,
					"request mixes external-id and coordinate endpoints but mixed mode is disabled")
			}
			telemetry.MixedMode = true
		}
		telemetry.recordMode(kind)
		return nil
	}

	for i, ep := range endpoints {
		fp, fpOK := fingerprintFor(ep)
		if fpOK {
			if firstIdx, dup := seen[fp]; dup {
				if err := recordKind(results[firstIdx].Kind); err != nil {
					return nil, telemetry, err
				}
				telemetry.DedupSaved++
				results[i] = results[firstIdx]
				continue
			}
		}

		resolved, kind, err := r.resolveEndpoint(ep, requiredCode)
		if err != nil {
			if reason.CodeOf(err) == reason.CodeSnapThresholdExceeded {
				telemetry.SnapRejections++
			}
			return nil, telemetry, err
		}
		if err := recordKind(kind); err != nil {
			return nil, telemetry, err
		}
		telemetry.ResolveCalls++

		if fpOK {
			seen[fp] = i
		}
		results[i] = resolved
	}
	telemetry.UniqueCount = telemetry.ResolveCalls
	telemetry.stopTimer(start)
	return results, telemetry, nil
}

// Resolve resolves a single endpoint; a convenience wrapper over ResolveAll
// for callers (route requests) that only ever have one source or target.
func (r *Resolver) Resolve(ep Endpoint, requiredCode reason.Code) (ResolvedAddress, Telemetry, error) {
	results, telemetry, err := r.ResolveAll([]Endpoint{ep}, requiredCode, ResolveOptions{})
	if err != nil {
		return ResolvedAddress{}, telemetry, err
	}
	return results[0], telemetry, nil
}

// resolveEndpoint runs the resolution pipeline for a single
// endpoint: shape validation, trait/runtime checks, and the external-id or
// coordinate resolution path. It does not touch dedup state or
// cross-endpoint telemetry; ResolveAll owns those.
func (r *Resolver) resolveEndpoint(ep Endpoint, requiredCode reason.Code) (ResolvedAddress, AddressType, error) {
	switch {
	case ep.Typed != nil && ep.LegacyExternalID != nil:
		return ResolvedAddress{}, 0, reason.New(reason.CodeTypedLegacyAmbiguity,
			"endpoint sets both a typed address and a legacy external id")
	case ep.Typed == nil && ep.LegacyExternalID == nil:
		return ResolvedAddress{}, 0, reason.New(requiredCode, "endpoint is missing")
	case ep.Typed != nil:
		return r.resolveTyped(*ep.Typed)
	default:
		return r.resolveLegacy(*ep.LegacyExternalID)
	}
}

func (r *Resolver) resolveLegacy(externalID string) (ResolvedAddress, AddressType, error) {
	if !r.trait.Supports(AddressExternalID) {
		return ResolvedAddress{}, 0, reason.New(reason.CodeUnsupportedAddressType,
			"addressing trait does not support external-id endpoints")
	}
	resolved, err := r.resolveExternalID(externalID, reason.CodeUnknownExternalNode)
	return resolved, AddressExternalID, err
}

func (r *Resolver) resolveTyped(ta TypedAddress) (ResolvedAddress, AddressType, error) {
	if ta.AddressingTraitID != "" && ta.AddressingTraitID != r.trait.ID {
		return ResolvedAddress{}, 0, reason.New(reason.CodeAddressingRuntimeMismatch,
			"typed address addressing_trait_id does not match the bound runtime trait")
	}
	if !r.trait.Supports(ta.Kind) {
		return ResolvedAddress{}, 0, reason.New(reason.CodeUnsupportedAddressType,
			"addressing trait does not support this endpoint's address type")
	}

	switch ta.Kind {
	case AddressExternalID:
		if ta.ExternalID == "" {
			return ResolvedAddress{}, 0, reason.New(reason.CodeMalformedTypedPayload,
				"typed external-id endpoint has an empty external id")
		}
		resolved, err := r.resolveExternalID(ta.ExternalID, reason.CodeUnknownTypedExternalNode)
		return resolved, AddressExternalID, err
	case AddressCoordinate:
		resolved, err := r.resolveCoordinate(ta)
		return resolved, AddressCoordinate, err
	default:
		return ResolvedAddress{}, 0, reason.New(reason.CodeUnsupportedAddressType,
			"unrecognized address kind")
	}
}

func (r *Resolver) resolveExternalID(externalID string, notFoundCode reason.Code) (ResolvedAddress, error) {
	internalID, ok := r.mapper.Internal(externalID)
	if !ok {
		return ResolvedAddress{}, reason.Newf(notFoundCode, "external id %q is not mapped to any node", externalID)
	}
	if !r.graph.InBounds(internalID) {
		return ResolvedAddress{}, reason.Newf(reason.CodeInternalNodeOutOfBounds,
			"external id %q maps to internal node %d, which is out of graph bounds", externalID, internalID)
	}
	return ResolvedAddress{InternalNodeID: internalID, ExternalID: externalID, Kind: AddressExternalID}, nil
}

func (r *Resolver) resolveCoordinate(ta TypedAddress) (ResolvedAddress, error) {
	if ta.CoordinateStrategyID == "" {
		return ResolvedAddress{}, reason.New(reason.CodeCoordinateStratRequired,
			"coordinate endpoint is missing a coordinate_strategy_id")
	}
	strategy, ok := r.strategies.Lookup(ta.CoordinateStrategyID)
	if !ok {
		return ResolvedAddress{}, reason.Newf(reason.CodeUnknownCoordinateStrat,
			"unknown coordinate strategy %q", ta.CoordinateStrategyID)
	}
	if err := strategy.Validate(ta.X, ta.Y); err != nil {
		return ResolvedAddress{}, err
	}

	maxSnap := ta.MaxSnapDistance
	if maxSnap == 0 {
		maxSnap = strategy.DefaultMaxSnap()
	}
	if maxSnap < 0 || math.IsNaN(maxSnap) {
		return ResolvedAddress{}, reason.New(reason.CodeInvalidMaxSnapDistance,
			"max_snap_distance must be non-negative")
	}

	key := snapCacheKey{
		traitID:    r.trait.ID,
		strategyID: strategy.ID(),
		maxSnap:    maxSnap,
		xBits:      canonicalizeCoordBits(ta.X),
		yBits:      canonicalizeCoordBits(ta.Y),
	}
	if cached, hit := r.snapCache.Get(key); hit {
		return cached, nil
	}

	resolved, err := r.snapToGraph(ta.X, ta.Y, strategy, maxSnap)
	if err != nil {
		return ResolvedAddress{}, err
	}
	r.snapCache.Put(key, resolved)
	return resolved, nil
}

func (r *Resolver) snapToGraph(x, y float64, strategy CoordinateStrategy, maxSnap float64) (ResolvedAddress, error) {
	if r.spatial == nil || r.spatial.Empty() {
		return ResolvedAddress{}, reason.New(reason.CodeSpatialRuntimeUnavail,
			"no spatial index is available to snap coordinate endpoints")
	}
	nodeID, _, ok := r.spatial.Nearest(topology.Coordinate{X: x, Y: y})
	if !ok {
		return ResolvedAddress{}, reason.New(reason.CodeSpatialRuntimeUnavail,
			"spatial index returned no nearest node")
	}

	nodeCoord, hasCoord := r.graph.Coordinate(nodeID)
	if !hasCoord {
		return ResolvedAddress{}, reason.New(reason.CodeSpatialRuntimeUnavail,
			"nearest node carries no coordinate to measure snap distance against")
	}
	distance, err := strategy.Distance(x, y, nodeCoord.X, nodeCoord.Y)
	if err != nil {
		return ResolvedAddress{}, err
	}
	if distance > maxSnap {
		return ResolvedAddress{}, reason.Newf(reason.CodeSnapThresholdExceeded,
			"nearest node is %.3f away, exceeding max_snap_distance %.3f", distance, maxSnap)
	}

	externalID, _ := r.mapper.External(nodeID)
	return ResolvedAddress{
		InternalNodeID: nodeID,
		ExternalID:     externalID,
		Kind:           AddressCoordinate,
		Snap: &SnapMetadata{
			SnappedNodeExternalID: externalID,
			SnapDistance:          distance,
			CoordinateStrategyID:  strategy.ID(),
		},
	}, nil
}
