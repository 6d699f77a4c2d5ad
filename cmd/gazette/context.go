package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"gazette/internal/api"
	"gazette/internal/config"
	"gazette/internal/logging"
	"gazette/internal/pipeline"
	"gazette/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
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

// withService opens the store, wires the pipeline, and hands a command the
// typed service facade. The context is canceled on SIGINT/SIGTERM so
// in-flight runs abort cleanly and still write their ledger row.
func (c *commandContext) withService(fn func(context.Context, *api.Service) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return fn(ctx, c.buildService(cfg, st, logger))
}

func (c *commandContext) buildService(cfg *config.Config, st *store.Store, logger *slog.Logger) *api.Service {
	deps := pipeline.DefaultDeps(cfg, st, logger)
	orchestrator := pipeline.New(st, deps, cfg.RunLockPath(), logger)
	return api.NewService(st, deps.Registry, deps.Gate, orchestrator, logger)
}
