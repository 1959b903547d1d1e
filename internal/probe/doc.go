// Package probe inspects a single source file and degrades gracefully when
// the identification tool cannot.
//
// Every failure (missing binary, empty output, non-zero exit, malformed JSON)
// is logged with a distinct reason and reported as an absent result rather
// than an error, so callers only lose section visibility, never the ability
// to merge tracks.
package probe
