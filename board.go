package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/lifegoal-go/internal/model"
	"github.com/tonimelisma/lifegoal-go/internal/mutate"
)

func newBoardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Manage the good and bad habit board",
	}

	cmd.AddCommand(newBoardAddCmd(), newBoardListCmd(), newBoardToggleCmd(), newBoardRemoveCmd())

	return cmd
}

func newBoardAddCmd() *cobra.Command {
	var (
		polarity string
		start    string
		end      string
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a habit to the board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := model.ParsePolarity(polarity)
			if err != nil {
				return err
			}

			return withSession(cmd, func(ctx context.Context, cc *CLIContext, s *session) error {
				var id string

				if _, err := s.app.Apply(ctx, "board add", func(snap *model.Snapshot) (*model.Snapshot, error) {
					next, newID, err := mutate.AddHabitItem(snap, s.app.IDs(), mutate.NewHabitItem{
						Title:     args[0],
						Type:      p,
						StartDate: start,
						EndDate:   end,
					})
					id = newID

					return next, err
				}); err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), id)
				cc.Statusf("Added %s habit %q.\n", p, args[0])

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&polarity, "type", string(model.Good), "good or bad")
	cmd.Flags().StringVar(&start, "start", "", "first active date YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "last active date YYYY-MM-DD")

	return cmd
}

func newBoardListCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List board habits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(_ context.Context, cc *CLIContext, s *session) error {
				d, err := dateFlag(s, date)
				if err != nil {
					return err
				}

				snap, err := s.app.Current()
				if err != nil {
					return err
				}

				items := snap.HabitItems()
				if cc.Flags.JSON {
					return printJSON(cmd.OutOrStdout(), items)
				}

				rows := make([][]string, 0, len(items))
				for _, it := range items {
					rows = append(rows, []string{
						it.ID,
						formatDone(slices.Contains(it.CompletedDates, d)),
						it.Title,
						string(it.Type),
						fmt.Sprintf("%d", len(it.CompletedDates)),
						formatRange(it.StartDate, it.EndDate),
					})
				}

				printTable(cmd.OutOrStdout(), []string{"ID", "DONE", "TITLE", "TYPE", "DAYS", "ACTIVE"}, rows)

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "calendar date YYYY-MM-DD (default today)")

	return cmd
}

func newBoardToggleCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "toggle <item-id>",
		Short: "Flip a board habit for a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, cc *CLIContext, s *session) error {
				d, err := dateFlag(s, date)
				if err != nil {
					return err
				}

				if _, err := s.app.Apply(ctx, "board toggle", func(snap *model.Snapshot) (*model.Snapshot, error) {
					return mutate.ToggleHabitItem(snap, args[0], d)
				}); err != nil {
					return err
				}

				cc.Statusf("Toggled %s on %s.\n", args[0], d)

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "calendar date YYYY-MM-DD (default today)")

	return cmd
}

func newBoardRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <item-id>",
		Short: "Remove a habit from the board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, cc *CLIContext, s *session) error {
				if _, err := s.app.Apply(ctx, "board remove", func(snap *model.Snapshot) (*model.Snapshot, error) {
					return mutate.RemoveHabitItem(snap, args[0])
				}); err != nil {
					return err
				}

				cc.Statusf("Removed %s.\n", args[0])

				return nil
			})
		},
	}
}
