package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"gazette/internal/api"
)

func newReviewCommand(ctx *commandContext) *cobra.Command {
	reviewCmd := &cobra.Command{
		Use:   "review",
		Short: "Work the content review queue",
	}

	reviewCmd.AddCommand(newReviewListCommand(ctx))
	reviewCmd.AddCommand(newReviewShowCommand(ctx))
	reviewCmd.AddCommand(newReviewApproveCommand(ctx))
	reviewCmd.AddCommand(newReviewRejectCommand(ctx))

	return reviewCmd
}

func newReviewListCommand(ctx *commandContext) *cobra.Command {
	var (
		category     string
		neighborhood string
		limit        int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List drafts awaiting review, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(cmdCtx context.Context, svc *api.Service) error {
				queue, err := svc.ListReviewQueue(cmdCtx, api.ReviewFilters{
					Category:       category,
					NeighborhoodID: neighborhood,
					Limit:          limit,
				})
				if err != nil {
					return err
				}
				if len(queue) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Review queue is empty.")
					return nil
				}

				rows := make([][]string, 0, len(queue))
				for _, content := range queue {
					rows = append(rows, []string{
						strconv.FormatInt(content.ID, 10),
						truncate(content.Title, 60),
						content.Category,
						formatConfidence(content.AIConfidence),
						content.CreatedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Title", "Category", "Confidence", "Created"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Filter by category")
	cmd.Flags().StringVar(&neighborhood, "neighborhood", "", "Filter by neighborhood")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum rows to show (0 for all)")
	return cmd
}

func newReviewShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a draft in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withService(func(cmdCtx context.Context, svc *api.Service) error {
				content, err := svc.GetContent(cmdCtx, id)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:         %d\n", content.ID)
				fmt.Fprintf(out, "Status:     %s\n", content.Status)
				fmt.Fprintf(out, "Category:   %s\n", content.Category)
				fmt.Fprintf(out, "Confidence: %s\n", formatConfidence(content.AIConfidence))
				fmt.Fprintf(out, "Created:    %s by %s\n", content.CreatedAt.Local().Format("2006-01-02 15:04"), content.CreatedBy)
				if content.ValidationNotes != "" {
					fmt.Fprintf(out, "Notes:      %s\n", content.ValidationNotes)
				}
				fmt.Fprintf(out, "\n%s\n\n%s\n", content.Title, content.Body)
				return nil
			})
		},
	}
}

func newReviewApproveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve and publish a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withService(func(cmdCtx context.Context, svc *api.Service) error {
				if err := svc.ApproveContent(cmdCtx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Content %d published\n", id)
				return nil
			})
		},
	}
}

func newReviewRejectCommand(ctx *commandContext) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withService(func(cmdCtx context.Context, svc *api.Service) error {
				if err := svc.RejectContent(cmdCtx, id, strings.TrimSpace(reason)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Content %d rejected\n", id)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Reason recorded alongside the rejection")
	return cmd
}

func formatConfidence(value *float64) string {
	if value == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *value)
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}
