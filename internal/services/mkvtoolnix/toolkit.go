package mkvtoolnix

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"mkvbatch/internal/logging"
	"mkvbatch/internal/media/mkvinfo"
	"mkvbatch/internal/services"
)

// Option configures the toolkit.
type Option func(*Toolkit)

// WithRunner injects a custom runner (primarily for tests).
func WithRunner(r Runner) Option {
	return func(t *Toolkit) {
		if r != nil {
			t.run = r
		}
	}
}

// WithLogger sets the logging destination.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Toolkit) {
		t.logger = logging.NewComponentLogger(logger, "mkvtoolnix")
	}
}

// WithBinaryNames overrides the executable names looked up in the tool directory.
func WithBinaryNames(mkvmerge, mkvextract string) Option {
	return func(t *Toolkit) {
		if name := strings.TrimSpace(mkvmerge); name != "" {
			t.mkvmerge = name
		}
		if name := strings.TrimSpace(mkvextract); name != "" {
			t.mkvextract = name
		}
	}
}

// WithProbeTimeout bounds each identification run. Zero disables the bound.
func WithProbeTimeout(d time.Duration) Option {
	return func(t *Toolkit) {
		t.probeTimeout = d
	}
}

// WithCapabilities pins the capability descriptor instead of scanning mkvmerge --help.
func WithCapabilities(caps Capabilities) Option {
	return func(t *Toolkit) {
		t.caps = caps
		t.capsResolved = true
	}
}

// Toolkit runs mkvtoolnix binaries from a single installation directory.
type Toolkit struct {
	toolDir      string
	mkvmerge     string
	mkvextract   string
	probeTimeout time.Duration
	run          Runner
	logger       *slog.Logger

	capsMu       sync.Mutex
	caps         Capabilities
	capsResolved bool
}

// New constructs a toolkit rooted at toolDir.
func New(toolDir string, opts ...Option) (*Toolkit, error) {
	toolDir = strings.TrimSpace(toolDir)
	if toolDir == "" {
		return nil, services.Wrap(services.ErrPath, "mkvtoolnix", "init", "tool directory required", nil)
	}
	t := &Toolkit{
		toolDir:    toolDir,
		mkvmerge:   ExecutableName("mkvmerge"),
		mkvextract: ExecutableName("mkvextract"),
		run:        execRunner{},
		logger:     logging.NewComponentLogger(nil, "mkvtoolnix"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// ExecutableName appends the platform executable suffix to base.
func ExecutableName(base string) string {
	if runtime.GOOS == "windows" && !strings.HasSuffix(strings.ToLower(base), ".exe") {
		return base + ".exe"
	}
	return base
}

// MkvmergePath returns the full path of the mkvmerge binary.
func (t *Toolkit) MkvmergePath() string {
	return filepath.Join(t.toolDir, t.mkvmerge)
}

// MkvextractPath returns the full path of the mkvextract binary.
func (t *Toolkit) MkvextractPath() string {
	return filepath.Join(t.toolDir, t.mkvextract)
}

// Identify runs `mkvmerge -J` against path and decodes the document. Errors
// keep their cause so callers can classify them: ErrBinaryNotFound,
// ErrEmptyOutput, *ExitError or mkvinfo.ErrMalformed.
func (t *Toolkit) Identify(ctx context.Context, path string) (mkvinfo.Result, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return mkvinfo.Result{}, errors.New("mkvmerge identify: empty path")
	}
	if t.probeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.probeTimeout)
		defer cancel()
	}

	output, err := t.run.Run(ctx, t.MkvmergePath(), []string{"-J", path})
	if err != nil {
		return mkvinfo.Result{}, fmt.Errorf("mkvmerge identify %s: %w", filepath.Base(path), err)
	}
	if len(strings.TrimSpace(string(output))) == 0 {
		return mkvinfo.Result{}, fmt.Errorf("mkvmerge identify %s: %w", filepath.Base(path), ErrEmptyOutput)
	}
	result, err := mkvinfo.Parse(output)
	if err != nil {
		return mkvinfo.Result{}, fmt.Errorf("mkvmerge identify %s: %w", filepath.Base(path), err)
	}
	return result, nil
}

// Open identifies path and returns a fresh Source for it.
func (t *Toolkit) Open(ctx context.Context, path string) (*Source, error) {
	info, err := t.Identify(ctx, path)
	if err != nil {
		return nil, err
	}
	return NewSource(path, info), nil
}

// Capabilities resolves, once, which stripping flags mkvmerge accepts. A
// failed scan yields an empty descriptor so every strip request degrades to a
// capability-absence warning.
func (t *Toolkit) Capabilities(ctx context.Context) Capabilities {
	t.capsMu.Lock()
	defer t.capsMu.Unlock()
	if t.capsResolved {
		return t.caps
	}

	output, err := t.run.Run(ctx, t.MkvmergePath(), []string{"--help"})
	if err != nil {
		logging.WarnWithContext(t.logger, "mkvmerge capability scan failed", "capability_scan_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "verify the mkvtoolnix installation directory"),
			logging.String(logging.FieldImpact, "chapters, tags and attachments cannot be stripped"),
		)
		t.caps = Capabilities{}
	} else {
		t.caps = parseCapabilities(string(output))
		t.logger.Debug("mkvmerge capabilities resolved",
			logging.Bool("no_chapters", t.caps.NoChapters),
			logging.Bool("no_global_tags", t.caps.NoGlobalTags),
			logging.Bool("no_attachments", t.caps.NoAttachments),
		)
	}
	t.capsResolved = true
	return t.caps
}

// ExtractAttachment writes attachment id of src to dest using mkvextract.
func (t *Toolkit) ExtractAttachment(ctx context.Context, src, id, dest string) error {
	src = strings.TrimSpace(src)
	id = strings.TrimSpace(id)
	dest = strings.TrimSpace(dest)
	if src == "" || id == "" || dest == "" {
		return services.Wrap(services.ErrExtraction, "mkvtoolnix", "extract attachment", "source, id and destination are required", nil)
	}
	args := []string{"attachments", "extract", src, id + ":" + dest}
	t.logger.Debug("executing mkvextract",
		logging.String("source", src),
		logging.String("attachment_id", id),
		logging.String("destination", dest),
	)
	if _, err := t.run.Run(ctx, t.MkvextractPath(), args); err != nil {
		return services.Wrap(services.ErrExtraction, "mkvtoolnix", "extract attachment", "attachment "+id, err)
	}
	t.logger.Info("attachment extracted",
		logging.String(logging.FieldEventType, "attachment_extracted"),
		logging.String("attachment_id", id),
		logging.String("destination", dest),
	)
	return nil
}
