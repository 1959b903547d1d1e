package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mkvbatch/internal/config"
)

// Slot1JSON and Slot2JSON are identification documents for a typical pair:
// video plus English audio in slot 1, Japanese audio in slot 2.
const (
	Slot1JSON = `{"container":{"type":"Matroska","properties":{"title":"Sample"}},"chapters":[{"num_entries":3}],"global_tags":[{"num_entries":2}],"tracks":[{"id":0,"type":"video","codec":"AVC/H.264","properties":{"language":"und"}},{"id":1,"type":"audio","codec":"AAC","properties":{"language":"eng","default_track":true}}]}`
	Slot2JSON = `{"container":{"type":"Matroska","properties":{}},"attachments":[{"id":1,"file_name":"font.ttf","content_type":"font/ttf","size":1024}],"tracks":[{"id":0,"type":"audio","codec":"FLAC","properties":{"language":"jpn"}}]}`
)

// StubOptions controls the behaviour of the generated scripts.
type StubOptions struct {
	Slot1JSON string
	Slot2JSON string
	// FailMuxFor makes mkvmerge exit 2 when the output name contains this text.
	FailMuxFor string
	// Help replaces the `mkvmerge --help` text. Empty advertises every
	// stripping flag.
	Help string
}

// WriteStubTools writes mkvmerge and mkvextract stubs into cfg.Paths.ToolDir.
// Every invocation is appended to calls.log in the tool directory.
func WriteStubTools(t testing.TB, cfg *config.Config, opts StubOptions) {
	t.Helper()

	dir := cfg.Paths.ToolDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir tool dir: %v", err)
	}
	write := func(name, content string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	write("slot1.json", opts.Slot1JSON)
	write("slot2.json", opts.Slot2JSON)
	help := opts.Help
	if help == "" {
		help = "  --no-chapters\n  --no-global-tags\n  --no-attachments\n"
	}
	write("help.txt", help)

	failPattern := opts.FailMuxFor
	if failPattern == "" {
		failPattern = "__mkvbatch_never_fail__"
	}
	mkvmerge := fmt.Sprintf(`#!/bin/sh
dir=$(dirname "$0")
echo "mkvmerge $*" >> "$dir/calls.log"
case "$1" in
  --help) cat "$dir/help.txt"; exit 0 ;;
  -J)
    case "$2" in
      %[1]s/*) cat "$dir/slot1.json" ;;
      %[2]s/*) cat "$dir/slot2.json" ;;
    esac
    exit 0 ;;
  -o)
    case "$2" in
      *%[3]s*) echo "Error: stub failure" ; exit 2 ;;
    esac
    : > "$2"
    exit 0 ;;
esac
exit 2
`, shellQuote(cfg.Paths.Folder1), shellQuote(cfg.Paths.Folder2), shellQuote(failPattern))

	mkvextract := `#!/bin/sh
dir=$(dirname "$0")
echo "mkvextract $*" >> "$dir/calls.log"
dest=${4#*:}
echo attachment > "$dest"
`
	for name, script := range map[string]string{
		cfg.MkvmergeBinary():   mkvmerge,
		cfg.MkvextractBinary(): mkvextract,
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(script), 0o755); err != nil {
			t.Fatalf("write stub %s: %v", name, err)
		}
	}
}

// Calls returns the stub invocations recorded so far.
func Calls(t testing.TB, cfg *config.Config) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(cfg.Paths.ToolDir, "calls.log"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatalf("read calls.log: %v", err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

// shellQuote escapes s for use inside a case pattern. Temp dirs never
// contain quotes, so wrapping in double quotes is enough.
func shellQuote(s string) string {
	return `"` + s + `"`
}
