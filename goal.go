package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/lifegoal-go/internal/model"
	"github.com/tonimelisma/lifegoal-go/internal/mutate"
)

func newGoalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Manage goals and milestones",
	}

	cmd.AddCommand(newGoalAddCmd(), newGoalListCmd(), newGoalShowCmd(),
		newGoalUpdateCmd(), newGoalDeleteCmd(), newGoalMilestoneCmd())

	return cmd
}

func newGoalAddCmd() *cobra.Command {
	var (
		aspect      string
		description string
		milestones  []string
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := model.ParseAspect(aspect)
			if err != nil {
				return err
			}

			return withSession(cmd, func(ctx context.Context, cc *CLIContext, s *session) error {
				ids := s.app.IDs()
				g := model.Goal{
					ID:          ids(),
					Title:       args[0],
					Description: description,
					Aspect:      a,
					Milestones:  make([]model.Milestone, 0, len(milestones)),
					Habits:      []model.Habit{},
					CreatedAt:   s.app.Now().UnixMilli(),
				}

				for _, m := range milestones {
					g.Milestones = append(g.Milestones, model.Milestone{ID: ids(), Title: m})
				}

				if _, err := s.app.Apply(ctx, "goal add", func(snap *model.Snapshot) (*model.Snapshot, error) {
					return mutate.AddGoal(snap, g)
				}); err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), g.ID)
				cc.Statusf("Created goal %q.\n", g.Title)

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&aspect, "aspect", string(model.AspectHealth), "life aspect (Health, Relationships, Financial, Learning, Career, Spiritual)")
	cmd.Flags().StringVar(&description, "description", "", "longer description")
	cmd.Flags().StringArrayVar(&milestones, "milestone", nil, "milestone title (repeatable)")

	return cmd
}

func newGoalListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List goals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(_ context.Context, cc *CLIContext, s *session) error {
				snap, err := s.app.Current()
				if err != nil {
					return err
				}

				goals := snap.Goals()
				if cc.Flags.JSON {
					return printJSON(cmd.OutOrStdout(), goals)
				}

				rows := make([][]string, 0, len(goals))
				for _, g := range goals {
					rows = append(rows, []string{
						g.ID,
						g.Title,
						string(g.Aspect),
						fmt.Sprintf("%d%%", g.Progress),
						fmt.Sprintf("%d", len(g.Milestones)),
						fmt.Sprintf("%d", len(g.Habits)),
					})
				}

				printTable(cmd.OutOrStdout(), []string{"ID", "TITLE", "ASPECT", "PROGRESS", "MILESTONES", "HABITS"}, rows)

				return nil
			})
		},
	}
}

func newGoalShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <goal-id>",
		Short: "Show a goal with its milestones and habits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(_ context.Context, cc *CLIContext, s *session) error {
				snap, err := s.app.Current()
				if err != nil {
					return err
				}

				g, ok := mutate.FindGoal(snap, args[0])
				if !ok {
					return fmt.Errorf("goal %q: %w", args[0], mutate.ErrNotFound)
				}

				if cc.Flags.JSON {
					return printJSON(cmd.OutOrStdout(), g)
				}

				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "%s  [%s]  %d%%\n", g.Title, g.Aspect, g.Progress)

				if g.Description != "" {
					fmt.Fprintf(w, "%s\n", g.Description)
				}

				if g.CreatedAt > 0 {
					fmt.Fprintf(w, "Created %s\n", formatTime(time.UnixMilli(g.CreatedAt)))
				}

				if g.AIAdvice != "" {
					fmt.Fprintf(w, "Advice: %s\n", g.AIAdvice)
				}

				fmt.Fprintln(w, "\nMilestones:")

				for _, m := range g.Milestones {
					fmt.Fprintf(w, "  %s %s  (%s)\n", formatDone(m.Completed), m.Title, m.ID)
				}

				fmt.Fprintln(w, "\nHabits:")

				rows := make([][]string, 0, len(g.Habits))
				for _, h := range g.Habits {
					rows = append(rows, habitRow(h, s.app.Today()))
				}

				printTable(w, habitHeaders, rows)

				return nil
			})
		},
	}
}

func newGoalUpdateCmd() *cobra.Command {
	var (
		title       string
		description string
		aspect      string
	)

	cmd := &cobra.Command{
		Use:   "update <goal-id>",
		Short: "Change a goal's title, description, or aspect",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("title") && !flags.Changed("description") && !flags.Changed("aspect") {
				return fmt.Errorf("nothing to update: pass --title, --description, or --aspect")
			}

			return withSession(cmd, func(ctx context.Context, cc *CLIContext, s *session) error {
				_, err := s.app.Apply(ctx, "goal update", func(snap *model.Snapshot) (*model.Snapshot, error) {
					g, ok := mutate.FindGoal(snap, args[0])
					if !ok {
						return nil, fmt.Errorf("goal %q: %w", args[0], mutate.ErrNotFound)
					}

					if flags.Changed("title") {
						g.Title = title
					}

					if flags.Changed("description") {
						g.Description = description
					}

					if flags.Changed("aspect") {
						a, err := model.ParseAspect(aspect)
						if err != nil {
							return nil, err
						}

						g.Aspect = a
					}

					return mutate.UpdateGoal(snap, g)
				})
				if err != nil {
					return err
				}

				cc.Statusf("Updated goal %s.\n", args[0])

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&aspect, "aspect", "", "new life aspect")

	return cmd
}

func newGoalDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <goal-id>",
		Short: "Delete a goal with its milestones and habits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, cc *CLIContext, s *session) error {
				if _, err := s.app.Apply(ctx, "goal delete", func(snap *model.Snapshot) (*model.Snapshot, error) {
					return mutate.DeleteGoal(snap, args[0])
				}); err != nil {
					return err
				}

				cc.Statusf("Deleted goal %s.\n", args[0])

				return nil
			})
		},
	}
}

func newGoalMilestoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "milestone <goal-id> <milestone-id>",
		Short: "Toggle a milestone and recompute the goal's progress",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, cc *CLIContext, s *session) error {
				snap, err := s.app.Apply(ctx, "milestone toggle", func(snap *model.Snapshot) (*model.Snapshot, error) {
					return mutate.ToggleMilestone(snap, args[0], args[1])
				})
				if err != nil {
					return err
				}

				if g, ok := mutate.FindGoal(snap, args[0]); ok {
					cc.Statusf("Progress: %d%%\n", g.Progress)
				}

				return nil
			})
		},
	}
}
