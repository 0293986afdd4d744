package main

import (
	"context"
	"strings"
	"sync"

	"log/slog"

	"github.com/spf13/cobra"

	"pykit/internal/config"
	"pykit/internal/history"
	"pykit/internal/logging"
	"pykit/internal/venv"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
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
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// log returns the process logger, falling back to a no-op logger when
// configuration failed; command error paths surface that failure themselves.
func (c *commandContext) log() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) envManager() (*venv.Manager, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return venv.NewManager(cfg, c.log()), nil
}

// recordRun appends a ledger entry when history is enabled. Recording is
// best-effort; a broken ledger never fails the command that did the work.
func (c *commandContext) recordRun(ctx context.Context, tool, target, outputPath, status, detail string) {
	cfg, err := c.ensureConfig()
	if err != nil || !cfg.History.Enabled {
		return
	}
	store, err := history.Open(cfg)
	if err != nil {
		c.log().Warn("open history ledger", logging.Error(err))
		return
	}
	defer store.Close()
	if _, err := store.Add(ctx, tool, target, outputPath, status, detail); err != nil {
		c.log().Warn("record run", logging.Error(err))
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
