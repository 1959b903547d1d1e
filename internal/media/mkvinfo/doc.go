// Package mkvinfo decodes the JSON identification document produced by
// `mkvmerge -J`.
//
// The package only parses; running the binary and classifying failures is the
// job of the mkvtoolnix integration and the probe service. Optional sections
// (chapters, tags, attachments) are kept as raw JSON with presence helpers so
// callers can render them without the package modelling every field mkvmerge
// emits.
package mkvinfo
