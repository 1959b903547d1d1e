package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPath marks missing or invalid configured directories and tool locations.
	ErrPath = errors.New("path error")
	// ErrProbe marks a metadata probe that produced no usable document.
	ErrProbe = errors.New("probe error")
	// ErrMissingSource marks a pair whose source file vanished before merging.
	ErrMissingSource = errors.New("missing source")
	// ErrTrackMismatch marks a selected track id that the real source lacks.
	ErrTrackMismatch = errors.New("track mismatch")
	// ErrCapabilityAbsent marks a stripping feature the tool cannot perform.
	ErrCapabilityAbsent = errors.New("capability absent")
	// ErrMux marks a failed mux invocation.
	ErrMux = errors.New("mux error")
	// ErrExtraction marks a failed attachment extraction.
	ErrExtraction = errors.New("extraction error")
)

var kindLabels = []struct {
	marker error
	label  string
}{
	{ErrPath, "path"},
	{ErrProbe, "probe"},
	{ErrMissingSource, "missing_source"},
	{ErrTrackMismatch, "track_mismatch"},
	{ErrCapabilityAbsent, "capability_absent"},
	{ErrMux, "mux"},
	{ErrExtraction, "extraction"},
}

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrMux
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether err terminates a running batch.
func IsFatal(err error) bool {
	return errors.Is(err, ErrMissingSource) || errors.Is(err, ErrMux)
}

// Kind returns a short label for the first marker found in err, or
// "unknown" when err carries none.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, entry := range kindLabels {
		if errors.Is(err, entry.marker) {
			return entry.label
		}
	}
	return "unknown"
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "merge failure"
	}
	return strings.Join(parts, ": ")
}
