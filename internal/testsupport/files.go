package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"mkvbatch/internal/config"
)

// ebmlMagic opens every Matroska file.
var ebmlMagic = []byte{0x1a, 0x45, 0xdf, 0xa3}

// WriteSource creates dir/name as a placeholder Matroska source and returns
// its path. The content is the EBML magic followed by filler; nothing in the
// tree parses it, mkvmerge stubs answer for it instead.
func WriteSource(t testing.TB, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	body := append([]byte{}, ebmlMagic...)
	body = append(body, []byte(name)...)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WritePair creates name in both input folders of cfg and returns the two
// paths in slot order.
func WritePair(t testing.TB, cfg *config.Config, name string) (string, string) {
	t.Helper()
	return WriteSource(t, cfg.Paths.Folder1, name), WriteSource(t, cfg.Paths.Folder2, name)
}
