package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/lifegoal-go/internal/ai"
	"github.com/tonimelisma/lifegoal-go/internal/config"
	"github.com/tonimelisma/lifegoal-go/internal/model"
	"github.com/tonimelisma/lifegoal-go/internal/mutate"
)

// newAIClient builds the generator client from config.
func newAIClient(cfg *config.Config, logger *slog.Logger) *ai.Client {
	return ai.NewClient(ai.Config{
		APIKey:  cfg.AI.APIKey,
		Model:   cfg.AI.Model,
		BaseURL: cfg.AI.BaseURL,
	}, &http.Client{Timeout: cfg.AI.TimeoutDuration()}, logger)
}

func newPlanCmd() *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "plan <dream>",
		Short: "Turn a dream into a goal plan with milestones and habits",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())
			dream := strings.Join(args, " ")

			plan, err := newAIClient(cc.Cfg, cc.Logger).GeneratePlan(cmd.Context(), dream)
			if err != nil {
				return err
			}

			if !save {
				if cc.Flags.JSON {
					return printJSON(cmd.OutOrStdout(), plan)
				}

				printPlan(cmd, plan)

				return nil
			}

			return withSession(cmd, func(ctx context.Context, cc *CLIContext, s *session) error {
				g := mutate.GoalFromPlan(plan, s.app.IDs(), s.app.Now())

				if _, err := s.app.Apply(ctx, "plan save", func(snap *model.Snapshot) (*model.Snapshot, error) {
					return mutate.AddGoal(snap, g)
				}); err != nil {
					return err
				}

				printPlan(cmd, plan)
				fmt.Fprintln(cmd.OutOrStdout(), g.ID)
				cc.Statusf("Saved goal %q with %d habits.\n", g.Title, len(g.Habits))

				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "create a goal from the plan")

	return cmd
}

func printPlan(cmd *cobra.Command, p *model.Plan) {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "%s  [%s]\n%s\n\nMilestones:\n", p.Title, p.Aspect, p.Description)

	for i, m := range p.Milestones {
		fmt.Fprintf(w, "  %d. %s\n", i+1, m)
	}

	fmt.Fprintln(w, "\nHabits:")

	for _, h := range p.Habits {
		fmt.Fprintf(w, "  - %s (%s)\n", h.Title, formatDuration(h.Duration))
	}

	if p.MotivationalQuote != "" {
		fmt.Fprintf(w, "\n%q\n", p.MotivationalQuote)
	}
}

func newAdviceCmd() *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "advice <goal-id>",
		Short: "Ask for encouragement on a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, cc *CLIContext, s *session) error {
				snap, err := s.app.Current()
				if err != nil {
					return err
				}

				g, ok := mutate.FindGoal(snap, args[0])
				if !ok {
					return fmt.Errorf("goal %q: %w", args[0], mutate.ErrNotFound)
				}

				text, err := newAIClient(s.cfg, s.logger).Advice(ctx, g.Title, g.Progress)
				if err != nil {
					cc.Logger.Warn("advice unavailable", slog.String("error", err.Error()))
					cc.Statusf("%s\n", ai.UserMessage(err))

					text = ai.FallbackAdvice
				}

				fmt.Fprintln(cmd.OutOrStdout(), text)

				if !save {
					return nil
				}

				_, err = s.app.Apply(ctx, "advice save", func(snap *model.Snapshot) (*model.Snapshot, error) {
					return mutate.SetAdvice(snap, g.ID, text)
				})

				return err
			})
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "store the advice on the goal")

	return cmd
}
