package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/lifegoal-go/internal/app"
)

func newUndoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Revert the last change in this session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(ctx context.Context, cc *CLIContext, s *session) error {
				if _, err := s.app.Undo(ctx); err != nil {
					return err
				}

				cc.Statusf("Undone.\n")

				return nil
			})
		},
	}
}

func newRedoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "redo",
		Short: "Reapply the last undone change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(ctx context.Context, cc *CLIContext, s *session) error {
				if _, err := s.app.Redo(ctx); err != nil {
					return err
				}

				cc.Statusf("Redone.\n")

				return nil
			})
		},
	}
}

// historyRow is one activity record as printed.
type historyRow struct {
	Type     string `json:"type"`
	At       string `json:"at"`
	GoalID   string `json:"goalId,omitempty"`
	Title    string `json:"title,omitempty"`
	Progress int    `json:"progress"`
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List goal activity records from the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(ctx context.Context, cc *CLIContext, s *session) error {
				if !s.remote.Enabled() {
					cc.Statusf("Activity history needs the remote backend.\n")
					return nil
				}

				records, err := s.app.Records(ctx)
				if err != nil {
					return err
				}

				rows := make([]historyRow, 0, len(records))
				for _, r := range records {
					row := historyRow{Type: r.Type, At: formatTime(r.CreatedAt)}

					var ev app.GoalEvent
					if err := json.Unmarshal(r.Data, &ev); err == nil {
						row.GoalID, row.Title, row.Progress = ev.GoalID, ev.Title, ev.Progress
					}

					rows = append(rows, row)
				}

				if cc.Flags.JSON {
					return printJSON(cmd.OutOrStdout(), rows)
				}

				table := make([][]string, 0, len(rows))
				for _, r := range rows {
					table = append(table, []string{r.At, r.Type, r.Title, fmt.Sprintf("%d%%", r.Progress)})
				}

				printTable(cmd.OutOrStdout(), []string{"WHEN", "EVENT", "GOAL", "PROGRESS"}, table)

				return nil
			})
		},
	}
}
