package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/lifegoal-go/internal/model"
	"github.com/tonimelisma/lifegoal-go/internal/mutate"
)

func newHabitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "habit",
		Short: "Complete, edit, or delete habits and schedule tasks",
	}

	cmd.AddCommand(newHabitToggleCmd(), newHabitCompleteCmd(), newHabitUpdateCmd(), newHabitDeleteCmd())

	return cmd
}

// dateFlag resolves a --date value, defaulting to today.
func dateFlag(s *session, value string) (string, error) {
	if value == "" {
		return s.app.Today(), nil
	}

	if _, err := model.ParseDate(value); err != nil {
		return "", err
	}

	return value, nil
}

func newHabitToggleCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "toggle <habit-id>",
		Short: "Flip a habit's completion for a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, cc *CLIContext, s *session) error {
				d, err := dateFlag(s, date)
				if err != nil {
					return err
				}

				snap, err := s.app.Apply(ctx, "habit toggle", func(snap *model.Snapshot) (*model.Snapshot, error) {
					return mutate.ToggleHabit(snap, args[0], d)
				})
				if err != nil {
					return err
				}

				reportHabit(cc, snap, args[0], d)

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "calendar date YYYY-MM-DD (default today)")

	return cmd
}

func newHabitCompleteCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "complete <habit-id>",
		Short: "Mark a habit done for a date (no-op if already done)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, cc *CLIContext, s *session) error {
				d, err := dateFlag(s, date)
				if err != nil {
					return err
				}

				snap, err := s.app.Apply(ctx, "habit complete", func(snap *model.Snapshot) (*model.Snapshot, error) {
					return mutate.CompleteHabit(snap, args[0], d)
				})
				if err != nil {
					return err
				}

				reportHabit(cc, snap, args[0], d)

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "calendar date YYYY-MM-DD (default today)")

	return cmd
}

func reportHabit(cc *CLIContext, snap *model.Snapshot, habitID, date string) {
	h, _, ok := mutate.FindHabit(snap, habitID)
	if !ok {
		return
	}

	state := "not done"
	if h.CompletedOn(date) {
		state = "done"
	}

	cc.Statusf("%s: %s on %s, streak %d\n", h.Title, state, date, h.Streak)
}

func newHabitUpdateCmd() *cobra.Command {
	var (
		title      string
		timeOfDay  string
		duration   int
		targetDays int
		start      string
		end        string
	)

	cmd := &cobra.Command{
		Use:   "update <habit-id>",
		Short: "Edit a habit's schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()

			var p mutate.HabitPatch
			if flags.Changed("title") {
				p.Title = &title
			}

			if flags.Changed("time") {
				p.TimeOfDay = &timeOfDay
			}

			if flags.Changed("duration") {
				p.Duration = &duration
			}

			if flags.Changed("target-days") {
				p.TargetDays = &targetDays
			}

			if flags.Changed("start") {
				p.StartDate = &start
			}

			if flags.Changed("end") {
				p.EndDate = &end
			}

			if err := p.Validate(); err != nil {
				return err
			}

			return withSession(cmd, func(ctx context.Context, cc *CLIContext, s *session) error {
				if _, err := s.app.Apply(ctx, "habit update", func(snap *model.Snapshot) (*model.Snapshot, error) {
					return mutate.UpdateHabit(snap, args[0], p)
				}); err != nil {
					return err
				}

				cc.Statusf("Updated habit %s.\n", args[0])

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&timeOfDay, "time", "", "time of day HH:MM (empty clears)")
	cmd.Flags().IntVar(&duration, "duration", 0, "recommended session length in minutes")
	cmd.Flags().IntVar(&targetDays, "target-days", 0, "number of days to keep the habit")
	cmd.Flags().StringVar(&start, "start", "", "first active date YYYY-MM-DD (empty clears)")
	cmd.Flags().StringVar(&end, "end", "", "last active date YYYY-MM-DD (empty clears)")

	return cmd
}

func newHabitDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <habit-id>",
		Short: "Delete a habit or schedule task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, cc *CLIContext, s *session) error {
				if _, err := s.app.Apply(ctx, "habit delete", func(snap *model.Snapshot) (*model.Snapshot, error) {
					return mutate.DeleteHabit(snap, args[0])
				}); err != nil {
					return err
				}

				cc.Statusf("Deleted habit %s.\n", args[0])

				return nil
			})
		},
	}
}

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage the daily schedule",
	}

	cmd.AddCommand(newTaskAddCmd(), newTaskListCmd())

	return cmd
}

func newTaskAddCmd() *cobra.Command {
	var t mutate.NewTask

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a standalone daily task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t.Title = args[0]

			return withSession(cmd, func(ctx context.Context, cc *CLIContext, s *session) error {
				var id string

				if _, err := s.app.Apply(ctx, "task add", func(snap *model.Snapshot) (*model.Snapshot, error) {
					next, newID, err := mutate.CreateTask(snap, s.app.IDs(), t)
					id = newID

					return next, err
				}); err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), id)
				cc.Statusf("Added task %q.\n", args[0])

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&t.TimeOfDay, "time", "", "time of day HH:MM")
	cmd.Flags().IntVar(&t.Duration, "duration", 0, "recommended session length in minutes")
	cmd.Flags().StringVar(&t.StartDate, "start", "", "first active date YYYY-MM-DD")
	cmd.Flags().StringVar(&t.EndDate, "end", "", "last active date YYYY-MM-DD")

	return cmd
}

// scheduleEntry is one habit on a day's schedule.
type scheduleEntry struct {
	Habit  model.Habit `json:"habit"`
	GoalID string      `json:"goalId,omitempty"`
}

// scheduleFor lists goal habits and standalone tasks active on date,
// ordered by time of day with untimed entries last.
func scheduleFor(snap *model.Snapshot, date string) []scheduleEntry {
	var out []scheduleEntry

	for _, g := range snap.Goals() {
		for _, h := range g.Habits {
			if model.ActiveOn(date, h.StartDate, h.EndDate) {
				out = append(out, scheduleEntry{Habit: h, GoalID: g.ID})
			}
		}
	}

	for _, h := range snap.ScheduleTasks() {
		if model.ActiveOn(date, h.StartDate, h.EndDate) {
			out = append(out, scheduleEntry{Habit: h})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Habit.TimeOfDay, out[j].Habit.TimeOfDay
		if a == "" || b == "" {
			return a != "" && b == ""
		}

		return a < b
	})

	return out
}

func newTaskListCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the schedule for a day",
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

				entries := scheduleFor(snap, d)
				if cc.Flags.JSON {
					return printJSON(cmd.OutOrStdout(), entries)
				}

				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					h := e.Habit
					rows = append(rows, []string{
						h.ID,
						formatDone(h.CompletedOn(d)),
						h.Title,
						orDash(h.TimeOfDay),
						formatDuration(h.RecommendedDuration),
						fmt.Sprintf("%d", h.Streak),
						orDash(e.GoalID),
					})
				}

				printTable(cmd.OutOrStdout(), []string{"ID", "DONE", "TITLE", "TIME", "LENGTH", "STREAK", "GOAL"}, rows)

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "calendar date YYYY-MM-DD (default today)")

	return cmd
}
