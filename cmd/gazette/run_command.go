package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gazette/internal/api"
	"gazette/internal/pipeline"
	"gazette/internal/store"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one pipeline run",
		Long:  "Execute one pipeline run in the given mode and print its ledger summary.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(cmdCtx context.Context, svc *api.Service) error {
				run, err := svc.TriggerPipeline(cmdCtx, mode)
				if run != nil {
					printRunSummary(cmd, run)
				}
				return err
			})
		},
	}

	modes := make([]string, 0, len(pipeline.Modes()))
	for _, m := range pipeline.Modes() {
		modes = append(modes, string(m))
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", string(pipeline.ModeFull),
		fmt.Sprintf("Pipeline mode (%s)", strings.Join(modes, ", ")))
	return cmd
}

func printRunSummary(cmd *cobra.Command, run *store.Run) {
	out := cmd.OutOrStdout()

	duration := ""
	if run.CompletedAt != nil {
		duration = run.CompletedAt.Sub(run.StartedAt).Round(10 * time.Millisecond).String()
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Run", "Mode", "Collected", "Scored", "Generated", "Validated", "Published", "Duration", "Success"},
		[][]string{{
			run.RunID,
			run.Mode,
			strconv.Itoa(run.Collected),
			strconv.Itoa(run.Scored),
			strconv.Itoa(run.Generated),
			strconv.Itoa(run.Validated),
			strconv.Itoa(run.Published),
			duration,
			yesNo(run.Success),
		}},
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
	))

	if len(run.Errors) > 0 {
		fmt.Fprintf(out, "\n%d item-level error(s):\n", len(run.Errors))
		for _, message := range run.Errors {
			fmt.Fprintf(out, "  - %s\n", message)
		}
	}
}
