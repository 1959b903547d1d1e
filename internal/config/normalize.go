package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	if err := c.normalizeMerge(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.ToolDir) == "" {
		if value, ok := os.LookupEnv("MKVTOOLNIX_PATH"); ok {
			c.Paths.ToolDir = strings.TrimSpace(value)
		}
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		if value, ok := os.LookupEnv("MKVBATCH_OUTPUT_DIR"); ok {
			c.Paths.OutputDir = strings.TrimSpace(value)
		}
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}

	fields := []struct {
		key   string
		value *string
	}{
		{"paths.tool_dir", &c.Paths.ToolDir},
		{"paths.folder1", &c.Paths.Folder1},
		{"paths.folder2", &c.Paths.Folder2},
		{"paths.output_dir", &c.Paths.OutputDir},
		{"paths.log_dir", &c.Paths.LogDir},
		{"paths.state_dir", &c.Paths.StateDir},
	}
	for _, field := range fields {
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.Mkvmerge = strings.TrimSpace(c.Tools.Mkvmerge)
	if c.Tools.Mkvmerge == "" {
		c.Tools.Mkvmerge = defaultMkvmerge
	}
	c.Tools.Mkvextract = strings.TrimSpace(c.Tools.Mkvextract)
	if c.Tools.Mkvextract == "" {
		c.Tools.Mkvextract = defaultMkvextract
	}
	if c.Tools.ProbeTimeout == 0 {
		c.Tools.ProbeTimeout = defaultProbeTimeout
	}
}

func (c *Config) normalizeMerge() error {
	preset := strings.TrimSpace(c.Merge.Preset)
	if preset == "" {
		c.Merge.Preset = ""
		return nil
	}
	expanded, err := expandPath(preset)
	if err != nil {
		return fmt.Errorf("merge.preset: %w", err)
	}
	c.Merge.Preset = expanded
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
