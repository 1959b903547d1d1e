package merge_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"mkvbatch/internal/logging"
	"mkvbatch/internal/media/mkvinfo"
	"mkvbatch/internal/merge"
	"mkvbatch/internal/progress"
	"mkvbatch/internal/selection"
	"mkvbatch/internal/services"
	"mkvbatch/internal/services/mkvtoolnix"
)

type muxCall struct {
	out *mkvtoolnix.Output
	dst string
}

type fakeToolkit struct {
	mu       sync.Mutex
	tracks   map[string][]mkvinfo.Track // keyed by directory base name
	caps     mkvtoolnix.Capabilities
	failMux  map[string]bool
	openFail map[string]error
	gate     chan struct{}
	opened   []string
	muxes    []muxCall
}

func newFakeToolkit() *fakeToolkit {
	return &fakeToolkit{
		tracks: map[string][]mkvinfo.Track{
			"one": {{ID: 0, Type: "video"}, {ID: 1, Type: "audio", Properties: mkvinfo.TrackProperties{Language: "eng"}}},
			"two": {{ID: 0, Type: "audio", Properties: mkvinfo.TrackProperties{Language: "jpn"}}},
		},
		caps:     mkvtoolnix.AllCapabilities(),
		failMux:  map[string]bool{},
		openFail: map[string]error{},
	}
}

func (f *fakeToolkit) Open(ctx context.Context, path string) (*mkvtoolnix.Source, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = append(f.opened, path)
	if err := f.openFail[path]; err != nil {
		return nil, err
	}
	dir := filepath.Base(filepath.Dir(path))
	return mkvtoolnix.NewSource(path, mkvinfo.Result{Tracks: f.tracks[dir]}), nil
}

func (f *fakeToolkit) Capabilities(context.Context) mkvtoolnix.Capabilities {
	return f.caps
}

func (f *fakeToolkit) Mux(ctx context.Context, out *mkvtoolnix.Output, dst string) error {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.muxes = append(f.muxes, muxCall{out: out, dst: dst})
	if f.failMux[filepath.Base(dst)] {
		return &mkvtoolnix.ExitError{Binary: "mkvmerge", Code: 2, Stderr: "Error: boom"}
	}
	return nil
}

func (f *fakeToolkit) muxedNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.muxes))
	for _, call := range f.muxes {
		names = append(names, filepath.Base(call.dst))
	}
	return names
}

type fixture struct {
	folder1, folder2, output string
}

func newFixture(t *testing.T, names ...string) fixture {
	t.Helper()
	root := t.TempDir()
	fx := fixture{
		folder1: filepath.Join(root, "one"),
		folder2: filepath.Join(root, "two"),
		output:  filepath.Join(root, "out"),
	}
	for _, dir := range []string{fx.folder1, fx.folder2} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		for _, name := range names {
			if err := os.WriteFile(filepath.Join(dir, name), []byte("mkv"), 0o644); err != nil {
				t.Fatal(err)
			}
		}
	}
	return fx
}

func (fx fixture) batch(files []string, snap selection.Snapshot) merge.Batch {
	return merge.Batch{Folder1: fx.folder1, Folder2: fx.folder2, OutputDir: fx.output, Files: files, Selection: snap}
}

func defaultSnapshot() selection.Snapshot {
	model := selection.NewModel("Title")
	model.Seed(selection.Slot1, []mkvinfo.Track{{ID: 0, Type: "video"}, {ID: 1, Type: "audio", Properties: mkvinfo.TrackProperties{Language: "eng"}}})
	model.Seed(selection.Slot2, []mkvinfo.Track{{ID: 0, Type: "audio", Properties: mkvinfo.TrackProperties{Language: "jpn"}}})
	return model.Snapshot()
}

func drain(t *testing.T, ch *progress.Channel) []progress.Message {
	t.Helper()
	done := make(chan []progress.Message, 1)
	go func() { done <- ch.Drain() }()
	select {
	case msgs := <-done:
		return msgs
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for batch to finish")
		return nil
	}
}

func newOrchestrator(tool merge.Toolkit, opts ...merge.Option) *merge.Orchestrator {
	opts = append([]merge.Option{merge.WithLogger(logging.NewNop()), merge.WithRunIDs(func() string { return "run-test" })}, opts...)
	return merge.New(tool, opts...)
}

func TestBatchAllSucceed(t *testing.T) {
	files := []string{"a.mkv", "b.mkv", "c.mkv"}
	fx := newFixture(t, files...)
	tool := newFakeToolkit()
	orch := newOrchestrator(tool)

	ch, err := orch.Start(context.Background(), fx.batch(files, defaultSnapshot()))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	msgs := drain(t, ch)

	if len(msgs) != len(files)+1 {
		t.Fatalf("got %d messages, want %d", len(msgs), len(files)+1)
	}
	for i, name := range files {
		snap := msgs[i].Snapshot
		if snap.State != progress.StateRunning || snap.Current != i+1 || snap.Total != len(files) || snap.Filename != name {
			t.Fatalf("message %d = %+v", i, snap)
		}
		if snap.RunID != "run-test" {
			t.Fatalf("missing run id in %+v", snap)
		}
	}
	final := msgs[len(files)]
	if !final.Terminal() || final.Snapshot.State != progress.StateCompleted {
		t.Fatalf("unexpected terminal message %+v", final)
	}
	if got := tool.muxedNames(); !reflect.DeepEqual(got, files) {
		t.Fatalf("muxed %v, want %v", got, files)
	}
	if orch.Running() {
		t.Fatal("orchestrator still running after terminal message")
	}
}

func TestBatchFailFastOnMuxError(t *testing.T) {
	files := []string{"a.mkv", "b.mkv", "c.mkv", "d.mkv"}
	fx := newFixture(t, files...)
	tool := newFakeToolkit()
	tool.failMux["b.mkv"] = true

	ch, err := newOrchestrator(tool).Start(context.Background(), fx.batch(files, defaultSnapshot()))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	msgs := drain(t, ch)

	if len(msgs) != 3 {
		t.Fatalf("expected 2 progress + 1 terminal message, got %d: %+v", len(msgs), msgs)
	}
	terminal := 0
	for _, msg := range msgs {
		if msg.Terminal() {
			terminal++
		}
	}
	final := msgs[2].Snapshot
	if terminal != 1 || final.State != progress.StateFailed || final.Filename != "b.mkv" {
		t.Fatalf("unexpected terminal %+v", final)
	}
	if !strings.Contains(final.Message, "b.mkv") {
		t.Fatalf("terminal message should name the file: %q", final.Message)
	}
	if got := tool.muxedNames(); !reflect.DeepEqual(got, []string{"a.mkv", "b.mkv"}) {
		t.Fatalf("muxed %v", got)
	}
	for _, path := range tool.opened {
		if strings.Contains(path, "c.mkv") || strings.Contains(path, "d.mkv") {
			t.Fatalf("file after failure was opened: %s", path)
		}
	}
}

func TestBatchMissingSourceIsFatal(t *testing.T) {
	files := []string{"a.mkv", "b.mkv"}
	fx := newFixture(t, files...)
	if err := os.Remove(filepath.Join(fx.folder2, "a.mkv")); err != nil {
		t.Fatal(err)
	}
	tool := newFakeToolkit()

	ch, err := newOrchestrator(tool).Start(context.Background(), fx.batch(files, defaultSnapshot()))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	msgs := drain(t, ch)
	final := msgs[len(msgs)-1].Snapshot
	if len(msgs) != 2 || final.State != progress.StateFailed || final.Filename != "a.mkv" {
		t.Fatalf("unexpected messages %+v", msgs)
	}
	if !strings.Contains(final.Message, services.ErrMissingSource.Error()) {
		t.Fatalf("expected missing source in message: %q", final.Message)
	}
	if len(tool.opened) != 0 || len(tool.muxes) != 0 {
		t.Fatal("nothing should be opened or muxed after a missing source")
	}
}

func TestBatchOpenFailureIsMuxError(t *testing.T) {
	files := []string{"a.mkv"}
	fx := newFixture(t, files...)
	tool := newFakeToolkit()
	tool.openFail[filepath.Join(fx.folder1, "a.mkv")] = errors.New("unreadable")

	ch, err := newOrchestrator(tool).Start(context.Background(), fx.batch(files, defaultSnapshot()))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	final := drain(t, ch)[1].Snapshot
	if final.State != progress.StateFailed || !strings.Contains(final.Message, services.ErrMux.Error()) {
		t.Fatalf("unexpected terminal %+v", final)
	}
}

func TestEndToEndScenario(t *testing.T) {
	fx := newFixture(t, "movie.mkv")
	tool := newFakeToolkit()

	model := selection.NewModel("movie")
	model.Seed(selection.Slot1, tool.tracks["one"])
	model.Seed(selection.Slot2, tool.tracks["two"])
	if err := model.Update(selection.Slot1, 1, func(sel *selection.TrackSelection) { sel.Language = "fre" }); err != nil {
		t.Fatal(err)
	}
	all := selection.SectionToggles{Chapters: true, GlobalTags: true, Attachments: true}
	model.SetGlobal(selection.GlobalOverrides{
		Title: "movie",
		File1: all,
		File2: selection.SectionToggles{GlobalTags: true, Attachments: true},
	})

	ch, err := newOrchestrator(tool).Start(context.Background(), fx.batch([]string{"movie.mkv"}, model.Snapshot()))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if final := drain(t, ch)[1].Snapshot; final.State != progress.StateCompleted {
		t.Fatalf("unexpected terminal %+v", final)
	}

	call := tool.muxes[0]
	if call.dst != filepath.Join(fx.output, "movie.mkv") {
		t.Fatalf("unexpected destination %s", call.dst)
	}
	var got []string
	for _, entry := range call.out.Tracks() {
		got = append(got, filepath.Base(filepath.Dir(entry.Source.Path))+":"+entry.Track.Type+":"+entry.Track.Language)
	}
	want := []string{"one:video:und", "one:audio:fre", "two:audio:jpn"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("attached %v, want %v", got, want)
	}
	sources := call.out.Sources()
	if sources[0].Stripped(mkvtoolnix.SectionChapters) {
		t.Fatal("slot 1 chapters should be kept")
	}
	if !sources[1].Stripped(mkvtoolnix.SectionChapters) {
		t.Fatal("slot 2 chapters should be stripped")
	}
	if sources[1].Stripped(mkvtoolnix.SectionGlobalTags) || sources[1].Stripped(mkvtoolnix.SectionAttachments) {
		t.Fatal("slot 2 tags and attachments should be kept")
	}
}

func TestExcludedAndStaleTracks(t *testing.T) {
	fx := newFixture(t, "a.mkv")
	tool := newFakeToolkit()
	snap := selection.Snapshot{Tracks: map[selection.Slot][]selection.TrackSelection{
		selection.Slot1: {{TrackID: 0, Include: false}, {TrackID: 7, Include: true}, {TrackID: 1, Include: true, Language: "eng"}},
		selection.Slot2: {{TrackID: 0, Include: false}},
	}}

	ch, err := newOrchestrator(tool).Start(context.Background(), fx.batch([]string{"a.mkv"}, snap))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if final := drain(t, ch)[1].Snapshot; final.State != progress.StateCompleted {
		t.Fatalf("stale id must not abort the merge: %+v", final)
	}
	tracks := tool.muxes[0].out.Tracks()
	if len(tracks) != 1 || tracks[0].Track.ID != 1 {
		t.Fatalf("expected only slot 1 track 1, got %+v", tracks)
	}
	if len(tool.muxes[0].out.Sources()) != 2 {
		t.Fatal("both sources should be inputs even without tracks")
	}
}

func TestCapabilityAbsentLeavesSections(t *testing.T) {
	fx := newFixture(t, "a.mkv")
	tool := newFakeToolkit()
	tool.caps = mkvtoolnix.Capabilities{NoAttachments: true}

	ch, err := newOrchestrator(tool).Start(context.Background(), fx.batch([]string{"a.mkv"}, defaultSnapshot()))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if final := drain(t, ch)[1].Snapshot; final.State != progress.StateCompleted {
		t.Fatalf("capability absence must not abort: %+v", final)
	}
	for _, src := range tool.muxes[0].out.Sources() {
		if src.Stripped(mkvtoolnix.SectionChapters) || src.Stripped(mkvtoolnix.SectionGlobalTags) {
			t.Fatal("unsupported sections must be left untouched")
		}
		if !src.Stripped(mkvtoolnix.SectionAttachments) {
			t.Fatal("supported section should be stripped")
		}
	}
}

func TestStartRejectsEmptyAndConcurrentBatches(t *testing.T) {
	fx := newFixture(t, "a.mkv")
	tool := newFakeToolkit()
	tool.gate = make(chan struct{})
	orch := newOrchestrator(tool)

	if _, err := orch.Start(context.Background(), fx.batch(nil, defaultSnapshot())); !errors.Is(err, merge.ErrNoFiles) {
		t.Fatalf("expected ErrNoFiles, got %v", err)
	}
	if orch.Running() {
		t.Fatal("empty batch must stay idle")
	}

	ch, err := orch.Start(context.Background(), fx.batch([]string{"a.mkv"}, defaultSnapshot()))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := orch.Start(context.Background(), fx.batch([]string{"a.mkv"}, defaultSnapshot())); !errors.Is(err, merge.ErrBatchRunning) {
		t.Fatalf("expected ErrBatchRunning, got %v", err)
	}
	close(tool.gate)
	drain(t, ch)

	tool.gate = nil
	ch, err = orch.Start(context.Background(), fx.batch([]string{"a.mkv"}, defaultSnapshot()))
	if err != nil {
		t.Fatalf("restart after terminal status: %v", err)
	}
	drain(t, ch)
}

func TestStartRespectsOutputLock(t *testing.T) {
	fx := newFixture(t, "a.mkv")
	if err := os.MkdirAll(fx.output, 0o755); err != nil {
		t.Fatal(err)
	}
	other := flock.New(filepath.Join(fx.output, merge.LockFileName))
	ok, err := other.TryLock()
	if err != nil || !ok {
		t.Fatalf("pre-lock: %v %v", ok, err)
	}
	defer other.Unlock()

	orch := newOrchestrator(newFakeToolkit())
	if _, err := orch.Start(context.Background(), fx.batch([]string{"a.mkv"}, defaultSnapshot())); !errors.Is(err, merge.ErrBatchRunning) {
		t.Fatalf("expected ErrBatchRunning, got %v", err)
	}
	if orch.Running() {
		t.Fatal("failed start must not leave the running flag set")
	}
}

type recorder struct {
	mu       sync.Mutex
	started  []merge.BatchInfo
	finished []progress.Snapshot
}

func (r *recorder) RecordStart(_ context.Context, info merge.BatchInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, info)
	return nil
}

func (r *recorder) RecordFinish(_ context.Context, snap progress.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, snap)
	return errors.New("disk full")
}

func TestRecorderSeesLifecycle(t *testing.T) {
	fx := newFixture(t, "a.mkv", "b.mkv")
	rec := &recorder{}
	ch, err := newOrchestrator(newFakeToolkit(), merge.WithRecorder(rec)).Start(context.Background(), fx.batch([]string{"a.mkv", "b.mkv"}, defaultSnapshot()))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	msgs := drain(t, ch)
	if msgs[len(msgs)-1].Snapshot.State != progress.StateCompleted {
		t.Fatal("recorder errors must not fail the batch")
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.started) != 1 || rec.started[0].Total != 2 || rec.started[0].RunID != "run-test" {
		t.Fatalf("unexpected start records %+v", rec.started)
	}
	if len(rec.finished) != 1 || rec.finished[0].State != progress.StateCompleted {
		t.Fatalf("unexpected finish records %+v", rec.finished)
	}
}

func TestBatchSelectionIsSnapshotted(t *testing.T) {
	fx := newFixture(t, "a.mkv")
	tool := newFakeToolkit()
	tool.gate = make(chan struct{})
	snap := defaultSnapshot()

	ch, err := newOrchestrator(tool).Start(context.Background(), fx.batch([]string{"a.mkv"}, snap))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	snap.Tracks[selection.Slot1][1].Language = "mutated"
	close(tool.gate)
	drain(t, ch)

	langs := make([]string, 0)
	for _, entry := range tool.muxes[0].out.Tracks() {
		langs = append(langs, entry.Track.Language)
	}
	if slices.Contains(langs, "mutated") {
		t.Fatalf("worker observed a mutation made after Start: %v", langs)
	}
}
