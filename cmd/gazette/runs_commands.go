package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"gazette/internal/api"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show the pipeline run ledger, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(cmdCtx context.Context, svc *api.Service) error {
				runs, err := svc.GetRunHistory(cmdCtx, limit)
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
					return nil
				}

				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					duration := "-"
					if run.CompletedAt != nil {
						duration = run.CompletedAt.Sub(run.StartedAt).Round(time.Second).String()
					}
					rows = append(rows, []string{
						run.RunID,
						run.Mode,
						run.StartedAt.Local().Format("2006-01-02 15:04"),
						duration,
						strconv.Itoa(run.Collected),
						strconv.Itoa(run.Scored),
						strconv.Itoa(run.Generated),
						strconv.Itoa(run.Validated),
						strconv.Itoa(run.Published),
						strconv.Itoa(len(run.Errors)),
						yesNo(run.Success),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Run", "Mode", "Started", "Duration", "Col", "Scr", "Gen", "Val", "Pub", "Errs", "Success"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to show (0 for all)")
	return cmd
}
