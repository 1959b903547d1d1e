// Package mkvtoolnix wraps the mkvmerge and mkvextract command line tools.
//
// A Toolkit resolves both binaries inside one installation directory and
// exposes identification (`mkvmerge -J`), source opening, muxing of an
// assembled Output, attachment extraction and a capability descriptor that
// records which optional-section stripping flags the installed mkvmerge
// accepts. Commands run through an injectable Runner so tests can assert on
// arguments without spawning processes.
package mkvtoolnix
