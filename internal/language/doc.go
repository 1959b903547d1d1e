// Package language turns the language codes and track types reported by
// mkvmerge into labels for terminal output.
//
// Codes are never rewritten for muxing; whatever the user supplies is passed
// through verbatim. These helpers only affect display.
package language
