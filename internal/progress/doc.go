// Package progress carries batch state from the merge worker to whoever
// presents it.
//
// Job is the finite-state machine the worker advances; every transition
// yields an immutable Snapshot which the worker posts on a Channel. The
// consumer only ever sees snapshots, in post order, ending with exactly one
// terminal message.
package progress
