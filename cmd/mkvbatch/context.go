package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"mkvbatch/internal/config"
	"mkvbatch/internal/history"
	"mkvbatch/internal/logging"
	"mkvbatch/internal/probe"
	"mkvbatch/internal/services/mkvtoolnix"
)

// pathOverrides holds the persistent path flags that replace config values.
type pathOverrides struct {
	toolDir   string
	folder1   string
	folder2   string
	outputDir string
}

type commandContext struct {
	configFlag *string
	overrides  *pathOverrides

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string, overrides *pathOverrides) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		overrides:  overrides,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := c.applyOverrides(cfg); err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) applyOverrides(cfg *config.Config) error {
	if c.overrides == nil {
		return nil
	}
	fields := []struct {
		flag   string
		value  string
		target *string
	}{
		{"--tool-dir", c.overrides.toolDir, &cfg.Paths.ToolDir},
		{"--folder1", c.overrides.folder1, &cfg.Paths.Folder1},
		{"--folder2", c.overrides.folder2, &cfg.Paths.Folder2},
		{"--output", c.overrides.outputDir, &cfg.Paths.OutputDir},
	}
	for _, field := range fields {
		value := strings.TrimSpace(field.value)
		if value == "" {
			continue
		}
		expanded, err := config.ExpandPath(value)
		if err != nil {
			return fmt.Errorf("%s: %w", field.flag, err)
		}
		*field.target = expanded
	}
	return cfg.Validate()
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// toolkit builds an mkvtoolnix toolkit from the resolved configuration.
func (c *commandContext) toolkit() (*mkvtoolnix.Toolkit, *slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	tool, err := mkvtoolnix.New(cfg.Paths.ToolDir,
		mkvtoolnix.WithLogger(logger),
		mkvtoolnix.WithBinaryNames(cfg.MkvmergeBinary(), cfg.MkvextractBinary()),
		mkvtoolnix.WithProbeTimeout(time.Duration(cfg.Tools.ProbeTimeout)*time.Second),
	)
	if err != nil {
		return nil, nil, err
	}
	return tool, logger, nil
}

// prober wraps the toolkit in the soft-failing probe service.
func (c *commandContext) prober() (*mkvtoolnix.Toolkit, *probe.Service, *slog.Logger, error) {
	tool, logger, err := c.toolkit()
	if err != nil {
		return nil, nil, nil, err
	}
	return tool, probe.NewService(tool, logger), logger, nil
}

// withHistory opens the batch history store for the duration of fn. fn
// receives nil when history is disabled.
func (c *commandContext) withHistory(fn func(*history.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return fn(nil)
	}
	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
