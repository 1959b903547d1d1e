package main

import (
	"encoding/json"
	"path/filepath"
	"reflect"
	"testing"

	"mkvbatch/internal/testsupport"
)

func TestMatchListsPairs(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithPairs("b.mkv", "a.mkv"))
	testsupport.WriteSource(t, env.cfg.Paths.Folder1, "only-one.mkv")

	out, _, err := env.run(t, "match", "--json")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	var files []string
	if err := json.Unmarshal([]byte(out), &files); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if want := []string{"a.mkv", "b.mkv"}; !reflect.DeepEqual(files, want) {
		t.Fatalf("files = %v, want %v", files, want)
	}

	out, _, err = env.run(t, "match")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	requireContains(t, out, "2 matching file(s)")
}

func TestMatchEmptyFoldersPrintsNotice(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := env.run(t, "match")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	requireContains(t, out, "No matching files found")

	out, _, err = env.run(t, "match", "--json")
	if err != nil {
		t.Fatalf("match --json: %v", err)
	}
	requireContains(t, out, "[]")
}

func TestMatchMissingFolderFails(t *testing.T) {
	env := setupCLITestEnv(t)
	missing := filepath.Join(t.TempDir(), "gone")
	if _, _, err := env.run(t, "--folder2", missing, "match"); err == nil {
		t.Fatal("expected error for missing folder")
	}
}
