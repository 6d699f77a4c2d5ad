package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gazette/internal/api"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check database health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(cmdCtx context.Context, svc *api.Service) error {
				health, err := svc.CheckHealth(cmdCtx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				fmt.Fprintln(out, statusLine("Database", boolKind(health.DatabaseExists && health.DatabaseReadable), health.DBPath, colorize))
				fmt.Fprintln(out, statusLine("Integrity", boolKind(health.IntegrityCheck), "", colorize))
				if len(health.MissingTables) > 0 {
					fmt.Fprintln(out, statusLine("Tables", statusError,
						"missing "+strings.Join(health.MissingTables, ", "), colorize))
				} else {
					fmt.Fprintln(out, statusLine("Tables", statusOK,
						strings.Join(health.TablesPresent, ", "), colorize))
				}
				fmt.Fprintln(out, statusLine("Items", statusInfo, fmt.Sprintf("%d", health.TotalItems), colorize))
				fmt.Fprintln(out, statusLine("Content", statusInfo, fmt.Sprintf("%d", health.TotalContent), colorize))
				fmt.Fprintln(out, statusLine("Runs", statusInfo, fmt.Sprintf("%d", health.TotalRuns), colorize))
				if health.Error != "" {
					fmt.Fprintln(out, statusLine("Last error", statusWarn, health.Error, colorize))
				}

				if !health.IntegrityCheck || len(health.MissingTables) > 0 {
					return fmt.Errorf("database health check failed")
				}
				return nil
			})
		},
	}
}

func boolKind(ok bool) statusKind {
	if ok {
		return statusOK
	}
	return statusError
}

func statusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := fmt.Sprintf("[%s]", statusKindLabel(kind))
	if message != "" {
		statusText += " " + message
	}
	base := fmt.Sprintf("  %-12s %s", label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	default:
		return ""
	}
}
