// Package taro is the query-time routing engine: given a precompiled
// road/network model and a query carrying a departure instant, it returns
// the minimum-cost route, or a source x target cost matrix, where edge
// traversal cost is a function of the time the edge is entered rather than
// a static weight.
//
// An Engine is built once from a binary model's typed views (topology,
// profiles, turn table, spatial index, optional landmark artifact) plus a
// runtimeconfig.Config binding the startup-only addressing/temporal/
// transition traits and search budgets. Route and Matrix are safe for
// concurrent use from any number of goroutines: each call uses its own
// per-query scratch (label store, budget tracker), drawn from a pool and
// reset before reuse; the only state Engine itself mutates across calls is
// the live overlay and the addressing snap cache, both internally
// synchronized.
//
// Offline model compilation, binary container decoding, landmark
// preprocessing, and transport (HTTP, CLI) are out of scope: this package
// consumes their output through the internal/topology, internal/profile,
// internal/turntable, internal/spatial, and internal/heuristic types.
//
//	go get github.com/taro-routing/taro
package taro
