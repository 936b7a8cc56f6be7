package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/lifegoal-go/internal/model"
)

func newMemoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memo",
		Short: "Manage notes pinned on a habit's timer",
	}

	cmd.AddCommand(newMemoAddCmd(), newMemoListCmd(), newMemoRemoveCmd())

	return cmd
}

func newMemoAddCmd() *cobra.Command {
	var (
		items []string
		x, y  float64
	)

	cmd := &cobra.Command{
		Use:   "add <habit-id> [text]",
		Short: "Pin a text note, or a checklist with --item",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := model.Memo{Kind: model.MemoText, X: x, Y: y}

			switch {
			case len(items) > 0:
				m.Kind = model.MemoChecklist
				for _, it := range items {
					m.Items = append(m.Items, model.ChecklistEntry{Text: it})
				}
			case len(args) == 2:
				m.Text = args[1]
			default:
				return fmt.Errorf("memo needs text or at least one --item")
			}

			return withSession(cmd, func(ctx context.Context, cc *CLIContext, s *session) error {
				id, err := s.app.AddMemo(ctx, args[0], m)
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), id)
				cc.Statusf("Pinned memo on %s.\n", args[0])

				return nil
			})
		},
	}

	cmd.Flags().StringArrayVar(&items, "item", nil, "checklist entry (repeatable)")
	cmd.Flags().Float64Var(&x, "x", 0, "horizontal position")
	cmd.Flags().Float64Var(&y, "y", 0, "vertical position")

	return cmd
}

func newMemoListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <habit-id>",
		Short: "List memos pinned on a habit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, cc *CLIContext, s *session) error {
				memos, err := s.app.Memos(ctx, args[0])
				if err != nil {
					return err
				}

				if cc.Flags.JSON {
					return printJSON(cmd.OutOrStdout(), memos)
				}

				w := cmd.OutOrStdout()
				for _, m := range memos {
					fmt.Fprintf(w, "%s  %s\n", m.ID, memoSummary(m))
				}

				return nil
			})
		},
	}
}

func memoSummary(m model.Memo) string {
	if m.Kind != model.MemoChecklist {
		return m.Text
	}

	parts := make([]string, 0, len(m.Items))
	for _, it := range m.Items {
		parts = append(parts, formatDone(it.Done)+" "+it.Text)
	}

	return strings.Join(parts, "; ")
}

func newMemoRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <habit-id> <memo-id>",
		Short: "Remove a memo",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, cc *CLIContext, s *session) error {
				if err := s.app.RemoveMemo(ctx, args[0], args[1]); err != nil {
					return err
				}

				cc.Statusf("Removed memo %s.\n", args[1])

				return nil
			})
		},
	}
}
