// Package merge drives a batch: it analyzes the sample pair into a selection
// model and runs the sequential, fail-fast merge worker.
//
// Orchestrator.Start spawns exactly one worker goroutine per batch and
// returns the progress channel it reports on. The worker posts one progress
// message before each file and one terminal message after the last file it
// attempted, then closes the channel. A second Start while a batch runs (in
// this process, or another process targeting the same output directory) is
// refused.
package merge
