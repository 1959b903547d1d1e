package main

import (
	"path/filepath"
	"strings"
	"testing"

	"mkvbatch/internal/testsupport"
)

func TestExtractAttachmentToDestination(t *testing.T) {
	env := setupCLITestEnv(t, stubbed()...)
	dest := filepath.Join(t.TempDir(), "font.ttf")

	out, _, err := env.run(t, "extract-attachment", "--slot", "2", "a.mkv", "1", dest)
	if err != nil {
		t.Fatalf("extract-attachment: %v", err)
	}
	requireContains(t, out, "Saved attachment 1 to "+dest)
	requireFile(t, dest)

	var extract string
	for _, call := range testsupport.Calls(t, env.cfg) {
		if strings.HasPrefix(call, "mkvextract ") {
			extract = call
		}
	}
	want := "mkvextract attachments extract " + filepath.Join(env.cfg.Paths.Folder2, "a.mkv") + " 1:" + dest
	if extract != want {
		t.Fatalf("extract call = %q, want %q", extract, want)
	}
}

func TestExtractAttachmentDefaultsToAttachmentName(t *testing.T) {
	env := setupCLITestEnv(t, stubbed()...)
	workdir := t.TempDir()
	t.Chdir(workdir)

	if _, _, err := env.run(t, "extract-attachment", "--slot", "2", "a.mkv", "1"); err != nil {
		t.Fatalf("extract-attachment: %v", err)
	}
	requireFile(t, filepath.Join(workdir, "font.ttf"))
}

func TestExtractAttachmentUnknownID(t *testing.T) {
	env := setupCLITestEnv(t, stubbed()...)
	_, _, err := env.run(t, "extract-attachment", "--slot", "2", "a.mkv", "7")
	if err == nil {
		t.Fatal("expected unknown attachment error")
	}
	requireContains(t, err.Error(), "attachment 7 not found")
}
