package main

import (
	"bytes"
	"strings"
	"testing"

	"mkvbatch/internal/progress"
)

func TestConsumeProgressPlainLines(t *testing.T) {
	job := progress.NewJob("run-1")
	ch := progress.NewChannel(3)
	if _, err := job.Start(2); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i, name := range []string{"a.mkv", "b.mkv"} {
		snap, err := job.Advance(i+1, name)
		if err != nil {
			t.Fatalf("advance: %v", err)
		}
		ch.Post(snap)
	}
	final, err := job.Fail("b.mkv", "Error processing b.mkv: boom")
	if err != nil {
		t.Fatalf("fail: %v", err)
	}
	ch.Post(final)
	ch.Close()

	var buf bytes.Buffer
	got := consumeProgress(&buf, ch, 2)
	if got.State != progress.StateFailed || got.Filename != "b.mkv" {
		t.Fatalf("final snapshot = %+v", got)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{"Processing file 1 of 2: a.mkv", "Processing file 2 of 2: b.mkv"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %q", lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}
