// Package main hosts the mkvbatch CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves configuration once, validates the
// MKVToolNix directory and the batch folders, and hands the real work to the
// internal packages: matching pairs, probing samples, editing the track
// selection, loading presets and running the merge orchestrator. The merge
// command is the single consumer of the orchestrator's progress channel and
// renders it as a progress bar on a terminal or as plain lines otherwise.
//
// Keep this package lean: add behaviour to the internal packages first, then
// surface it here through flags and output formatting.
package main
