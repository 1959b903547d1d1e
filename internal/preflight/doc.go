// Package preflight validates the configured tool location and batch
// directories before any analysis or merge starts.
//
// Validate is the gate: any failure is a services.ErrPath and blocks the
// batch. RunAll produces the per-check report the CLI prints.
package preflight
