package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable. Missing batch directories are
// not an error here: they can be supplied on the command line, and the merge
// preflight reports them before any batch starts.
func (c *Config) Validate() error {
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateTools() error {
	for key, value := range map[string]string{
		"tools.mkvmerge":   c.Tools.Mkvmerge,
		"tools.mkvextract": c.Tools.Mkvextract,
	} {
		if strings.ContainsAny(value, `/\`) {
			return fmt.Errorf("%s must be a bare binary name, got %q (set paths.tool_dir for the directory)", key, value)
		}
	}
	if c.Tools.ProbeTimeout < 0 {
		return errors.New("tools.probe_timeout must be >= 0 (seconds, 0 disables the timeout)")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.OutputDir == "" {
		return nil
	}
	for _, input := range []string{c.Paths.Folder1, c.Paths.Folder2} {
		if input != "" && filepath.Clean(input) == filepath.Clean(c.Paths.OutputDir) {
			return fmt.Errorf("paths.output_dir must differ from the input folders (both are %s)", input)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q (use debug, info, warn, or error)", c.Logging.Level)
	}
}
