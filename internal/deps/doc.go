// Package deps reports whether the external binaries mkvbatch shells out to
// are present.
package deps
