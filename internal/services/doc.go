// Package services defines shared utilities consumed by the merge engine and
// its external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp batch run IDs, filenames, and file slots
//     for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     as soft (degrade a feature) or fatal (terminate the batch).
//
// Use these helpers when wiring new merge logic so error handling and
// observability stay uniform across the engine.
package services
