package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/tonimelisma/lifegoal-go/internal/mutate"
	"github.com/tonimelisma/lifegoal-go/internal/timer"
)

func newTimerCmd() *cobra.Command {
	var minutes int

	cmd := &cobra.Command{
		Use:   "timer <habit-id>",
		Short: "Run a focus session; the habit is completed for today when it ends",
		Long: `Count down a session for a habit. The length defaults to the habit's
recommended duration. Interrupting with Ctrl-C stops the timer without
completing the habit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if minutes < 0 {
				return fmt.Errorf("--minutes must not be negative")
			}

			return withSession(cmd, func(ctx context.Context, cc *CLIContext, s *session) error {
				habitID := args[0]

				if memos, err := s.app.Memos(ctx, habitID); err == nil {
					for _, m := range memos {
						cc.Statusf("• %s\n", memoSummary(m))
					}
				}

				runCtx, stop := interruptContext(ctx, cc.Logger)
				defer stop()

				live := !cc.Flags.Quiet && isatty.IsTerminal(os.Stderr.Fd())

				onTick := func(remaining time.Duration) {
					if live {
						fmt.Fprintf(os.Stderr, "\r%s ", timer.Format(remaining))
					}
				}

				snap, err := s.app.RunTimer(runCtx, habitID, time.Duration(minutes)*time.Minute, onTick)
				if live {
					fmt.Fprintln(os.Stderr)
				}

				if errors.Is(err, context.Canceled) {
					cc.Statusf("Timer stopped, habit not completed.\n")
					return nil
				}

				if err != nil {
					return err
				}

				if h, _, ok := mutate.FindHabit(snap, habitID); ok {
					cc.Statusf("Session complete: %s, streak %d.\n", h.Title, h.Streak)
				}

				return nil
			})
		},
	}

	cmd.Flags().IntVar(&minutes, "minutes", 0, "session length (default: the habit's recommended duration)")

	return cmd
}
