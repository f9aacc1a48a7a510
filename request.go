package taro

import "github.com/taro-routing/taro/internal/addressing"

// Endpoint, TypedAddress, AddressType, and ResolvedAddress are re-exported
// from internal/addressing unchanged: the public request/response shape is
// exactly the addressing pipeline's own endpoint and resolution types, so
// callers never pass through a second translation layer to build one.
type (
	Endpoint        = addressing.Endpoint
	TypedAddress    = addressing.TypedAddress
	AddressType     = addressing.AddressType
	ResolvedAddress = addressing.ResolvedAddress
	SnapMetadata    = addressing.SnapMetadata
)

const (
	AddressExternalID = addressing.AddressExternalID
	AddressCoordinate = addressing.AddressCoordinate
)

// Algorithm selects the search family a route or matrix query runs.
// AlgorithmUnspecified is the zero value and is always a request
// validation failure (ALGORITHM_REQUIRED): callers must pick one.
type Algorithm int

const (
	AlgorithmUnspecified Algorithm = iota
	AlgorithmDijkstra
	AlgorithmAStar
)

// HeuristicType selects the lower-bound provider a request uses.
// HeuristicUnspecified is the zero value and is always a request
// validation failure (HEURISTIC_REQUIRED): callers must pick one, even
// when that choice is HeuristicNone.
type HeuristicType int

const (
	HeuristicUnspecified HeuristicType = iota
	HeuristicNone
	HeuristicEuclidean
	HeuristicSpherical
	HeuristicLandmark
)

// RouteRequest describes a single source-to-target query.
type RouteRequest struct {
	Source Endpoint
	Target Endpoint

	// AllowMixed permits Source and Target to use different address kinds
	// (one external id, one coordinate). False rejects the combination
	// with MIXED_MODE_DISABLED.
	AllowMixed bool

	DepartureTicks int64
	Algorithm      Algorithm
	HeuristicType  HeuristicType
}

// MatrixRequest describes a one-to-many (or many-to-many) cost query.
// Sources and Targets preserve request order and duplicates; the response
// mirrors that order and shape exactly.
type MatrixRequest struct {
	Sources []Endpoint
	Targets []Endpoint

	AllowMixed bool

	DepartureTicks int64
	Algorithm      Algorithm
	HeuristicType  HeuristicType
}
