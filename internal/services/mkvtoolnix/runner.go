package mkvtoolnix

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
)

var (
	// ErrBinaryNotFound reports that a tool binary is absent from the tool directory.
	ErrBinaryNotFound = errors.New("mkvtoolnix binary not found")
	// ErrEmptyOutput reports a successful run that wrote nothing to stdout.
	ErrEmptyOutput = errors.New("mkvtoolnix produced no output")
)

// Runner abstracts command execution for testability. Implementations return
// stdout and an *ExitError when the process exits non-zero.
type Runner interface {
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

// ExitError describes a tool invocation that exited with a non-zero status.
type ExitError struct {
	Binary string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	detail := strings.TrimSpace(e.Stderr)
	if detail == "" {
		return fmt.Sprintf("%s exited with status %d", e.Binary, e.Code)
	}
	return fmt.Sprintf("%s exited with status %d: %s", e.Binary, e.Code, detail)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), nil
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrBinaryNotFound, binary)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// mkvmerge prints diagnostics on stdout; keep whichever stream has text.
		detail := stderr.String()
		if strings.TrimSpace(detail) == "" {
			detail = stdout.String()
		}
		return stdout.Bytes(), &ExitError{Binary: binary, Code: exitErr.ExitCode(), Stderr: detail}
	}
	return nil, fmt.Errorf("run %s: %w", binary, err)
}
