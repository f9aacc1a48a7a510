// Package reason defines the stable reason-code taxonomy surfaced on every
// TARO failure, and the typed Failure error that carries one.
//
// Error policy:
//   - Reason codes are plain comparable strings, not sentinel error values,
//     so they are safe to use in dashboards and logs directly (string
//     equality, not errors.Is chains across package boundaries).
//   - Every Failure optionally carries a cause, attached with
//     github.com/pkg/errors so the chain survives %+v formatting and
//     errors.Cause/errors.Unwrap.
//   - Callers MUST use CodeOf(err) to branch on semantics; never parse
//     Error() strings.
package reason

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code is a stable reason-code string. See the Code constants below for the
// full taxonomy.
type Code string

// Request validation family.
const (
	CodeSourceRequired    Code = "SOURCE_REQUIRED"
	CodeTargetRequired    Code = "TARGET_REQUIRED"
	CodeAlgorithmRequired Code = "ALGORITHM_REQUIRED"
	CodeHeuristicRequired Code = "HEURISTIC_REQUIRED"
	CodeSourcesRequired   Code = "SOURCES_REQUIRED"
	CodeTargetsRequired   Code = "TARGETS_REQUIRED"
)

// Addressing family.
const (
	CodeUnknownExternalNode      Code = "UNKNOWN_EXTERNAL_NODE"
	CodeUnknownTypedExternalNode Code = "UNKNOWN_TYPED_EXTERNAL_NODE"
	CodeTypedLegacyAmbiguity     Code = "TYPED_LEGACY_AMBIGUITY"
	CodeMixedModeDisabled        Code = "MIXED_MODE_DISABLED"
	CodeMalformedTypedPayload    Code = "MALFORMED_TYPED_PAYLOAD"
	CodeUnsupportedAddressType   Code = "UNSUPPORTED_ADDRESS_TYPE"
	CodeUnknownAddressingTrait   Code = "UNKNOWN_ADDRESSING_TRAIT"
	CodeUnknownCoordinateStrat   Code = "UNKNOWN_COORDINATE_STRATEGY"
	CodeCoordinateStratRequired  Code = "COORDINATE_STRATEGY_REQUIRED"
	CodeNonFiniteCoordinates     Code = "NON_FINITE_COORDINATES"
	CodeLatLonRange              Code = "LAT_LON_RANGE"
	CodeSnapThresholdExceeded    Code = "SNAP_THRESHOLD_EXCEEDED"
	CodeInvalidMaxSnapDistance   Code = "INVALID_MAX_SNAP_DISTANCE"
	CodeCoordinateStratFailure   Code = "COORDINATE_STRATEGY_FAILURE"
	CodeSpatialRuntimeUnavail    Code = "SPATIAL_RUNTIME_UNAVAILABLE"
	CodeAddressingRuntimeMismatch Code = "ADDRESSING_RUNTIME_MISMATCH"
	CodeExternalMappingFailed    Code = "EXTERNAL_MAPPING_FAILED"
	CodeInternalNodeOutOfBounds  Code = "INTERNAL_NODE_OUT_OF_BOUNDS"
)

// Configuration family.
const (
	CodeCostEngineGraphMismatch   Code = "COST_ENGINE_GRAPH_MISMATCH"
	CodeCostEngineProfileMismatch Code = "COST_ENGINE_PROFILE_MISMATCH"
	CodeDijkstraHeuristicMismatch Code = "DIJKSTRA_HEURISTIC_MISMATCH"
	CodeHeuristicConfigFailed     Code = "HEURISTIC_CONFIGURATION_FAILED"
	CodeTransitionConfigRequired  Code = "TRANSITION_CONFIG_REQUIRED"
	CodeUnknownTransitionTrait    Code = "UNKNOWN_TRANSITION_TRAIT"
)

// Budget family.
const (
	CodeSearchBudgetExceeded       Code = "SEARCH_BUDGET_EXCEEDED"
	CodeMatrixSearchBudgetExceeded Code = "MATRIX_SEARCH_BUDGET_EXCEEDED"
)

// Temporal family.
const (
	CodeTemporalResolutionFailure Code = "TEMPORAL_RESOLUTION_FAILURE"
)

// Evaluator family.
const (
	CodeNonFiniteEdgeCost       Code = "NON_FINITE_EDGE_COST"
	CodeNonFinitePathCost       Code = "NON_FINITE_PATH_COST"
	CodeNodePathReconstruction  Code = "NODE_PATH_RECONSTRUCTION"
)

// Failure is the single user-visible error type returned by the orchestrator.
// It always carries exactly one reason Code and a human-readable Message; the
// underlying Cause is optional and present only when an internal layer raised
// a lower-level error worth preserving in the chain.
type Failure struct {
	ReasonCode Code
	Message    string
	cause      error
}

// New builds a Failure with no wrapped cause.
func New(code Code, message string) *Failure {
	return &Failure{ReasonCode: code, Message: message}
}

// Newf builds a Failure with a formatted message.
func Newf(code Code, format string, args ...interface{}) *Failure {
	return &Failure{ReasonCode: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds a Failure that attaches cause to its chain via pkg/errors, so
// errors.Cause(f) recovers the original cause and f.Unwrap() returns the
// pkg/errors wrapper, whose %+v formatting carries the stack. Formatting f
// itself with %+v prints only Error().
func Wrap(code Code, message string, cause error) *Failure {
	if cause == nil {
		return New(code, message)
	}
	return &Failure{ReasonCode: code, Message: message, cause: errors.Wrap(cause, message)}
}

// Error implements the error interface.
func (f *Failure) Error() string {
	if f == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", f.ReasonCode, f.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As/errors.Unwrap.
func (f *Failure) Unwrap() error {
	if f == nil {
		return nil
	}
	return f.cause
}

// Cause returns the deepest pkg/errors cause, or nil if none was attached.
func (f *Failure) Cause() error {
	if f == nil || f.cause == nil {
		return nil
	}
	return errors.Cause(f.cause)
}

// CodeOf extracts the reason Code from err if it is (or wraps) a *Failure, and
// the empty Code otherwise. Orchestrator callers use this instead of type
// assertions so reason codes stay the single dispatch key.
func CodeOf(err error) Code {
	var f *Failure
	if errors.As(err, &f) {
		return f.ReasonCode
	}
	return ""
}
