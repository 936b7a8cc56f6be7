package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tonimelisma/lifegoal-go/internal/model"
	"github.com/tonimelisma/lifegoal-go/internal/mutate"
)

// DefaultSessionLength is used when a habit has no recommended duration.
const DefaultSessionLength = 25 * time.Minute

// SessionLength returns the countdown length for a habit.
func SessionLength(h model.Habit) time.Duration {
	if h.RecommendedDuration != nil && *h.RecommendedDuration > 0 {
		return time.Duration(*h.RecommendedDuration) * time.Minute
	}

	return DefaultSessionLength
}

// RunTimer counts a session for habitID down and, when it finishes, marks
// the habit complete for today. A zero d uses the habit's recommended
// duration. Canceling ctx stops the countdown without completing anything.
// Completion is idempotent: a habit already done today stays unchanged.
func (a *App) RunTimer(ctx context.Context, habitID string, d time.Duration, onTick func(remaining time.Duration)) (*model.Snapshot, error) {
	if a.timer == nil {
		return nil, errors.New("app: no timer configured")
	}

	cur, err := a.Current()
	if err != nil {
		return nil, err
	}

	h, _, ok := mutate.FindHabit(cur, habitID)
	if !ok {
		return nil, fmt.Errorf("app: habit %s: %w", habitID, mutate.ErrNotFound)
	}

	if d == 0 {
		d = SessionLength(h)
	}

	a.logger.Info("timer started",
		slog.String("habit", habitID),
		slog.Duration("length", d),
	)

	if err := a.timer.Run(ctx, d, onTick); err != nil {
		a.logger.Info("timer stopped", slog.String("habit", habitID), slog.String("reason", err.Error()))
		return nil, err
	}

	today := a.Today()

	return a.Apply(ctx, "timer-complete", func(s *model.Snapshot) (*model.Snapshot, error) {
		return mutate.CompleteHabit(s, habitID, today)
	})
}
