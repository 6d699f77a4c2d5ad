package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"gazette/internal/api"
	"gazette/internal/store"
)

func newSourcesCommand(ctx *commandContext) *cobra.Command {
	sourcesCmd := &cobra.Command{
		Use:   "sources",
		Short: "Manage feed sources",
	}

	sourcesCmd.AddCommand(newSourcesListCommand(ctx))
	sourcesCmd.AddCommand(newSourcesAddCommand(ctx))
	sourcesCmd.AddCommand(newSourcesEnableCommand(ctx, true))
	sourcesCmd.AddCommand(newSourcesEnableCommand(ctx, false))
	sourcesCmd.AddCommand(newSourcesRemoveCommand(ctx))

	return sourcesCmd
}

func newSourcesListCommand(ctx *commandContext) *cobra.Command {
	var enabledOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configured sources with health counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(cmdCtx context.Context, svc *api.Service) error {
				items, err := svc.ListSources(cmdCtx, enabledOnly)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No sources configured.")
					return nil
				}

				rows := make([][]string, 0, len(items))
				for _, source := range items {
					rows = append(rows, []string{
						strconv.FormatInt(source.ID, 10),
						source.Name,
						source.URL,
						strconv.Itoa(source.Priority),
						yesNo(source.Enabled),
						strconv.FormatInt(source.FetchCount, 10),
						strconv.FormatInt(source.ErrorCount, 10),
						formatTime(source.LastFetched),
						source.LastError,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Name", "URL", "Priority", "Enabled", "Fetches", "Errors", "Last Fetched", "Last Error"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&enabledOnly, "enabled", false, "Show only enabled sources")
	return cmd
}

func newSourcesAddCommand(ctx *commandContext) *cobra.Command {
	var (
		name         string
		url          string
		category     string
		neighborhood string
		priority     int
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a feed source",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(cmdCtx context.Context, svc *api.Service) error {
				source, err := svc.UpsertSource(cmdCtx, &store.Source{
					Name:           name,
					URL:            url,
					CategoryHint:   category,
					NeighborhoodID: neighborhood,
					Priority:       priority,
					Enabled:        true,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added source %d (%s)\n", source.ID, source.Name)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Source display name")
	cmd.Flags().StringVar(&url, "url", "", "Feed URL (RSS or Atom)")
	cmd.Flags().StringVar(&category, "category", "", "Default category hint for collected items")
	cmd.Flags().StringVar(&neighborhood, "neighborhood", "", "Neighborhood identifier")
	cmd.Flags().IntVar(&priority, "priority", 5, "Priority from 1 to 10")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}

func newSourcesEnableCommand(ctx *commandContext, enable bool) *cobra.Command {
	use, short, done := "enable <id>", "Enable a source", "enabled"
	if !enable {
		use, short, done = "disable <id>", "Disable a source", "disabled"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withService(func(cmdCtx context.Context, svc *api.Service) error {
				if err := svc.ToggleSource(cmdCtx, id, enable); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Source %d %s\n", id, done)
				return nil
			})
		},
	}
}

func newSourcesRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a source and its collected items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withService(func(cmdCtx context.Context, svc *api.Service) error {
				if err := svc.DeleteSource(cmdCtx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Source %d removed\n", id)
				return nil
			})
		},
	}
}

func parseID(value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", value)
	}
	return id, nil
}

func formatTime(value *time.Time) string {
	if value == nil {
		return "-"
	}
	return value.Local().Format("2006-01-02 15:04")
}
