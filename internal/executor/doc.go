// Package executor is the runtime's concurrent DAG execution engine. Given a
// pre-partitioned computation graph whose nodes are opaque device-bound
// functions, it drives those nodes to completion across a pool of device
// managers while respecting data dependencies, propagating intermediate
// tensors between nodes, and delivering a single aggregate result per run.
//
// Each node moves through four states: pending (parents remaining), ready
// (all parents done — observed by exactly one caller of the atomic
// parents-done transition), dispatched (handed to a device manager), and
// handled (completion processed, inflight counter decremented). Cancellation
// after a prior failure skips dispatch and retires the node directly.
//
// Shutdown is quiescence-based: a counted barrier tracks every
// dispatched-but-not-yet-handled node execution across all runs, and
// Shutdown blocks until it drains while refusing new work.
package executor
