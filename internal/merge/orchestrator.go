package merge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"mkvbatch/internal/logging"
	"mkvbatch/internal/progress"
	"mkvbatch/internal/selection"
	"mkvbatch/internal/services"
	"mkvbatch/internal/services/mkvtoolnix"
)

// LockFileName is created in the output directory for the duration of a batch.
const LockFileName = ".mkvbatch.lock"

var (
	// ErrBatchRunning reports a Start while another batch is in progress.
	ErrBatchRunning = errors.New("a merge batch is already running")
	// ErrNoFiles reports a Start with an empty file list.
	ErrNoFiles = errors.New("no matching files to merge")
)

// Toolkit is the subset of the mkvtoolnix integration the worker needs.
type Toolkit interface {
	Open(ctx context.Context, path string) (*mkvtoolnix.Source, error)
	Capabilities(ctx context.Context) mkvtoolnix.Capabilities
	Mux(ctx context.Context, out *mkvtoolnix.Output, dst string) error
}

// Recorder persists batch lifecycle events. Errors are logged, never fatal.
type Recorder interface {
	RecordStart(ctx context.Context, batch BatchInfo) error
	RecordFinish(ctx context.Context, snap progress.Snapshot) error
}

// BatchInfo describes a batch as it starts.
type BatchInfo struct {
	RunID     string
	Folder1   string
	Folder2   string
	OutputDir string
	Total     int
}

// Batch is everything a worker needs. Selection is cloned at Start.
type Batch struct {
	Folder1   string
	Folder2   string
	OutputDir string
	Files     []string
	Selection selection.Snapshot
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logging.NewComponentLogger(logger, "merge")
	}
}

// WithRecorder enables batch history.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		o.recorder = r
	}
}

// WithRunIDs replaces the run id generator (primarily for tests).
func WithRunIDs(next func() string) Option {
	return func(o *Orchestrator) {
		if next != nil {
			o.newRunID = next
		}
	}
}

// WithSkipWarnings toggles warnings for selected track ids missing from a pair.
func WithSkipWarnings(enabled bool) Option {
	return func(o *Orchestrator) {
		o.warnSkipped = enabled
	}
}

// Orchestrator runs merge batches.
type Orchestrator struct {
	tool        Toolkit
	logger      *slog.Logger
	recorder    Recorder
	newRunID    func() string
	warnSkipped bool
	running     atomic.Bool
}

func New(tool Toolkit, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		tool:        tool,
		logger:      logging.NewComponentLogger(nil, "merge"),
		newRunID:    uuid.NewString,
		warnSkipped: true,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Running reports whether a batch is in progress in this process.
func (o *Orchestrator) Running() bool {
	return o.running.Load()
}

// Start validates the batch, acquires the output directory lock and spawns
// the worker. The returned channel is closed after the terminal message.
func (o *Orchestrator) Start(ctx context.Context, batch Batch) (*progress.Channel, error) {
	if len(batch.Files) == 0 {
		return nil, ErrNoFiles
	}
	if strings.TrimSpace(batch.OutputDir) == "" {
		return nil, services.Wrap(services.ErrPath, "merge", "start", "output directory not set", nil)
	}
	if !o.running.CompareAndSwap(false, true) {
		return nil, ErrBatchRunning
	}

	if err := os.MkdirAll(batch.OutputDir, 0o755); err != nil {
		o.running.Store(false)
		return nil, services.Wrap(services.ErrPath, "merge", "start", "create output directory", err)
	}
	lockPath := filepath.Join(batch.OutputDir, LockFileName)
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		o.running.Store(false)
		return nil, fmt.Errorf("acquire batch lock: %w", err)
	}
	if !ok {
		o.running.Store(false)
		return nil, fmt.Errorf("%w: %s is locked by another process", ErrBatchRunning, batch.OutputDir)
	}

	runID := o.newRunID()
	job := progress.NewJob(runID)
	if _, err := job.Start(len(batch.Files)); err != nil {
		_ = lock.Unlock()
		o.running.Store(false)
		return nil, err
	}

	batch.Files = append([]string(nil), batch.Files...)
	batch.Selection = batch.Selection.Clone()
	ch := progress.NewChannel(len(batch.Files) + 1)

	runCtx := services.WithRunID(ctx, runID)
	o.record(runCtx, func(r Recorder) error {
		return r.RecordStart(runCtx, BatchInfo{
			RunID:     runID,
			Folder1:   batch.Folder1,
			Folder2:   batch.Folder2,
			OutputDir: batch.OutputDir,
			Total:     len(batch.Files),
		})
	})
	logging.WithContext(runCtx, o.logger).Info("merge batch started",
		logging.String(logging.FieldEventType, "batch_started"),
		logging.Int("total", len(batch.Files)),
		logging.String("output_dir", batch.OutputDir),
	)

	go o.run(runCtx, job, batch, ch, lock)
	return ch, nil
}

func (o *Orchestrator) run(ctx context.Context, job *progress.Job, batch Batch, ch *progress.Channel, lock *flock.Flock) {
	defer ch.Close()
	logger := logging.WithContext(ctx, o.logger)

	final := o.process(ctx, logger, job, batch, ch)

	if err := lock.Unlock(); err != nil {
		logging.WarnWithContext(logger, "failed to release batch lock", "batch_lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove "+filepath.Join(batch.OutputDir, LockFileName)+" if no batch is running"),
		)
	}
	o.record(ctx, func(r Recorder) error { return r.RecordFinish(ctx, final) })
	// Release before the terminal post so a consumer reacting to it can start again.
	o.running.Store(false)
	ch.Post(final)
}

func (o *Orchestrator) process(ctx context.Context, logger *slog.Logger, job *progress.Job, batch Batch, ch *progress.Channel) progress.Snapshot {
	total := len(batch.Files)
	for i, name := range batch.Files {
		snap, err := job.Advance(i+1, name)
		if err != nil {
			final, _ := job.Fail(name, err.Error())
			return final
		}
		ch.Post(snap)

		fileCtx := services.WithFilename(ctx, name)
		if err := o.mergeFile(fileCtx, batch, name); err != nil {
			logging.ErrorWithContext(logging.WithContext(fileCtx, o.logger), "merge failed; stopping batch", "merge_failed",
				logging.Error(err),
				logging.String("error_kind", services.Kind(err)),
				logging.Int("processed", i),
				logging.Int("remaining", total-i-1),
				logging.String(logging.FieldErrorHint, hintFor(err)),
			)
			final, _ := job.Fail(name, fmt.Sprintf("Error processing %s: %v", name, err))
			return final
		}
		logger.Info("pair merged",
			logging.String(logging.FieldEventType, "pair_merged"),
			logging.String(logging.FieldFilename, name),
			logging.Int("index", i+1),
			logging.Int("total", total),
		)
	}
	final, _ := job.Complete(fmt.Sprintf("Merged %d file(s) into %s", total, batch.OutputDir))
	logger.Info("merge batch completed",
		logging.String(logging.FieldEventType, "batch_completed"),
		logging.Int("total", total),
	)
	return final
}

func (o *Orchestrator) mergeFile(ctx context.Context, batch Batch, name string) error {
	paths := map[selection.Slot]string{
		selection.Slot1: filepath.Join(batch.Folder1, name),
		selection.Slot2: filepath.Join(batch.Folder2, name),
	}
	dst := filepath.Join(batch.OutputDir, name)

	for _, slot := range selection.Slots {
		if _, err := os.Stat(paths[slot]); err != nil {
			return services.Wrap(services.ErrMissingSource, "merge", "resolve sources", paths[slot], err)
		}
	}

	sources := make(map[selection.Slot]*mkvtoolnix.Source, len(selection.Slots))
	for _, slot := range selection.Slots {
		src, err := o.tool.Open(services.WithSlot(ctx, int(slot)), paths[slot])
		if err != nil {
			return services.Wrap(services.ErrMux, "merge", "open source", paths[slot], err)
		}
		sources[slot] = src
	}

	snap := batch.Selection
	out := mkvtoolnix.NewOutput(snap.Global.Title)
	for _, slot := range selection.Slots {
		out.AddSource(sources[slot])
	}
	for _, slot := range selection.Slots {
		o.attachTracks(ctx, out, slot, sources[slot], snap.Tracks[slot])
	}

	caps := o.tool.Capabilities(ctx)
	for _, slot := range selection.Slots {
		o.stripSections(ctx, caps, slot, sources[slot], snap.Global.Sections(slot))
	}

	if err := o.tool.Mux(ctx, out, dst); err != nil {
		if !errors.Is(err, services.ErrMux) {
			err = services.Wrap(services.ErrMux, "merge", "mux", dst, err)
		}
		return err
	}
	return nil
}

// attachTracks adds each included selection whose id exists in src, with the
// selection's overrides applied, in selection order.
func (o *Orchestrator) attachTracks(ctx context.Context, out *mkvtoolnix.Output, slot selection.Slot, src *mkvtoolnix.Source, selections []selection.TrackSelection) {
	for _, sel := range selections {
		if !sel.Include {
			continue
		}
		track, ok := src.Track(sel.TrackID)
		if !ok {
			if o.warnSkipped {
				logging.WarnWithContext(logging.WithContext(services.WithSlot(ctx, int(slot)), o.logger),
					"selected track missing from source", "merge_track_skipped",
					logging.Int(logging.FieldTrackID, sel.TrackID),
					logging.String(logging.FieldErrorHint, "this pair has a different track layout than the sample"),
					logging.String(logging.FieldImpact, "track omitted from this output"),
				)
			}
			continue
		}
		track.Language = sel.Language
		track.Name = sel.Name
		track.Default = sel.Default
		track.Forced = sel.Forced
		out.AddTrack(src, track)
	}
}

// stripSections marks excluded sections on src, leaving a section in place
// when mkvmerge cannot strip it.
func (o *Orchestrator) stripSections(ctx context.Context, caps mkvtoolnix.Capabilities, slot selection.Slot, src *mkvtoolnix.Source, keep selection.SectionToggles) {
	include := map[mkvtoolnix.Section]bool{
		mkvtoolnix.SectionChapters:    keep.Chapters,
		mkvtoolnix.SectionGlobalTags:  keep.GlobalTags,
		mkvtoolnix.SectionAttachments: keep.Attachments,
	}
	for _, section := range mkvtoolnix.Sections {
		if include[section] {
			continue
		}
		if !caps.Supports(section) {
			logging.WarnWithContext(logging.WithContext(services.WithSlot(ctx, int(slot)), o.logger),
				"cannot strip section; leaving it in place", "capability_absent",
				logging.String(logging.FieldSection, section.String()),
				logging.String(logging.FieldErrorHint, "upgrade mkvtoolnix to enable section stripping"),
				logging.String(logging.FieldImpact, "section kept in output"),
			)
			continue
		}
		src.Strip(section)
	}
}

func (o *Orchestrator) record(ctx context.Context, fn func(Recorder) error) {
	if o.recorder == nil {
		return
	}
	if err := fn(o.recorder); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, o.logger), "failed to record batch history", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check state_dir permissions"),
			logging.String(logging.FieldImpact, "batch continues without history"),
		)
	}
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, services.ErrMissingSource):
		return "a source file disappeared after matching; re-run the batch"
	case errors.Is(err, mkvtoolnix.ErrBinaryNotFound):
		return "verify paths.tool_dir contains mkvmerge"
	default:
		return "inspect the mkvmerge error above"
	}
}
