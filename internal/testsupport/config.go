package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"mkvbatch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The two input folders and the output directory exist; the tool directory
// is empty until WithStubTools is applied.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.ToolDir = filepath.Join(base, "mkvtoolnix")
	cfgVal.Paths.Folder1 = filepath.Join(base, "one")
	cfgVal.Paths.Folder2 = filepath.Join(base, "two")
	cfgVal.Paths.OutputDir = filepath.Join(base, "out")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Tools.ProbeTimeout = 10

	for _, dir := range []string{cfgVal.Paths.ToolDir, cfgVal.Paths.Folder1, cfgVal.Paths.Folder2, cfgVal.Paths.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithPairs creates each name in both input folders.
func WithPairs(names ...string) ConfigOption {
	return func(b *configBuilder) {
		for _, name := range names {
			WritePair(b.t, b.cfg, name)
		}
	}
}

// WithStubTools writes stub mkvmerge and mkvextract scripts into the tool
// directory. mkvmerge answers -J with slot1JSON for files under folder 1 and
// slot2JSON for files under folder 2, and creates the -o target when muxing.
func WithStubTools(slot1JSON, slot2JSON string) ConfigOption {
	return func(b *configBuilder) {
		WriteStubTools(b.t, b.cfg, StubOptions{Slot1JSON: slot1JSON, Slot2JSON: slot2JSON})
	}
}

// WithHistoryDisabled turns the batch history off.
func WithHistoryDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}
