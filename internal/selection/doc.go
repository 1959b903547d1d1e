// Package selection holds the per-track and per-file override state built
// from the sample pair.
//
// A Model is seeded once from the sample's identification results, edited by
// the user (directly, by flags or by a preset) and frozen into a Snapshot
// when a batch starts. The merge worker only ever reads Snapshots, so edits
// made while a batch runs cannot reach it.
package selection
