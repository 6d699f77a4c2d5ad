package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"gazette/internal/logging"
	"gazette/internal/pipeline"
	"gazette/internal/scheduler"
	"gazette/internal/store"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the scheduler in the foreground",
		Long:  "Run full pipeline passes at the configured schedule times until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
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

			deps := pipeline.DefaultDeps(cfg, st, logger)
			orchestrator := pipeline.New(st, deps, cfg.RunLockPath(), logger)

			sched, err := scheduler.New(cfg.Schedule, func(runCtx context.Context) error {
				_, runErr := orchestrator.Run(runCtx, pipeline.ModeFull)
				return runErr
			}, logger)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Scheduler running (trigger times: %s). Press Ctrl+C to stop.\n",
				strings.Join(cfg.Schedule.Times, ", "))
			if err := sched.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
