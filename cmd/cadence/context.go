package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"cadence/internal/config"
	"cadence/internal/history"
	"cadence/internal/logging"
	"cadence/internal/queue"
	"cadence/internal/runlock"
)

// clock is replaced in tests.
var clock = time.Now

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	jsonFlag     *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		jsonFlag:     jsonFlag,
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
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) logger(cmd *cobra.Command) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

func (c *commandContext) openQueue(cfg *config.Config, logger *slog.Logger) (*queue.Manager, error) {
	return queue.NewManager(queue.NewFileStore(cfg.Paths.QueueFile), queue.Options{
		Location:   cfg.Location(),
		MinGapDays: cfg.Schedule.MinGapDays,
		Logger:     logger,
	})
}

// withQueue opens the queue without taking the run lock. Read-only commands use it.
func (c *commandContext) withQueue(cmd *cobra.Command, fn func(*config.Config, *slog.Logger, *queue.Manager) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.logger(cmd)
	if err != nil {
		return err
	}
	manager, err := c.openQueue(cfg, logger)
	if err != nil {
		return err
	}
	return fn(cfg, logger, manager)
}

// withLockedQueue holds the run lock while fn mutates the queue.
func (c *commandContext) withLockedQueue(cmd *cobra.Command, fn func(*config.Config, *slog.Logger, *queue.Manager) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	lock, err := runlock.Acquire(cfg.Paths.LockFile)
	if err != nil {
		return err
	}
	defer lock.Release()
	return c.withQueue(cmd, fn)
}

func (c *commandContext) withHistory(cfg *config.Config, fn func(*history.Store) error) error {
	store, err := history.Open(cfg.Paths.HistoryDB)
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
