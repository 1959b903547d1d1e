package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"mkvbatch/internal/merge"
	"mkvbatch/internal/progress"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { clock = clock.Add(time.Minute); return clock }

	info := merge.BatchInfo{RunID: "r1", Folder1: "/a", Folder2: "/b", OutputDir: "/out", Total: 4}
	if err := store.RecordStart(ctx, info); err != nil {
		t.Fatalf("RecordStart: %v", err)
	}
	run, err := store.Get(ctx, "r1")
	if err != nil || run == nil {
		t.Fatalf("Get: %v %v", run, err)
	}
	if run.Status != progress.StateRunning || run.Total != 4 || !run.FinishedAt.IsZero() {
		t.Fatalf("unexpected running record %+v", run)
	}

	err = store.RecordFinish(ctx, progress.Snapshot{RunID: "r1", State: progress.StateFailed, Current: 3, Total: 4, Filename: "c.mkv", Message: "Error processing c.mkv"})
	if err != nil {
		t.Fatalf("RecordFinish: %v", err)
	}
	run, _ = store.Get(ctx, "r1")
	if run.Status != progress.StateFailed || run.Processed != 2 || run.FailedFile != "c.mkv" {
		t.Fatalf("unexpected finished record %+v", run)
	}
	if !run.FinishedAt.After(run.StartedAt) {
		t.Fatalf("finished %v should follow started %v", run.FinishedAt, run.StartedAt)
	}
}

func TestRecentNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { clock = clock.Add(time.Second); return clock }

	for _, id := range []string{"old", "mid", "new"} {
		if err := store.RecordStart(ctx, merge.BatchInfo{RunID: id, Total: 1}); err != nil {
			t.Fatalf("RecordStart: %v", err)
		}
	}
	if err := store.RecordFinish(ctx, progress.Snapshot{RunID: "new", State: progress.StateCompleted, Current: 1, Total: 1}); err != nil {
		t.Fatalf("RecordFinish: %v", err)
	}

	runs, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != "new" || runs[1].RunID != "mid" {
		t.Fatalf("unexpected order %+v", runs)
	}
	if runs[0].Processed != 1 || runs[0].FailedFile != "" {
		t.Fatalf("unexpected completed record %+v", runs[0])
	}
}

func TestGetUnknownRun(t *testing.T) {
	run, err := openTestStore(t).Get(context.Background(), "missing")
	if err != nil || run != nil {
		t.Fatalf("expected nil run, got %+v %v", run, err)
	}
}

func TestReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = first.Close()
	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	_ = second.Close()
}
