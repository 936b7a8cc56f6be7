// Package mutate implements the domain mutators: pure functions that derive
// a new model.Snapshot from the current one plus a user action. Mutators
// never perform I/O and never modify their input, so every committed
// Snapshot stays immutable in the history stack.
//
// Habit mutators apply uniformly to goal-owned habits and standalone
// schedule tasks: the goals collection is searched first, then the
// schedule tasks.
package mutate

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/tonimelisma/lifegoal-go/internal/model"
)

// Sentinel errors returned by mutators. Use errors.Is to check.
var (
	ErrNotFound     = errors.New("mutate: entity not found")
	ErrInvalidPatch = errors.New("mutate: invalid patch")
)

// IDFunc generates a fresh unique entity id.
type IDFunc func() string

// NewID is the default IDFunc, producing random UUIDs.
func NewID() string {
	return uuid.NewString()
}

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %q", ErrNotFound, kind, id)
}

// habitFunc transforms one habit. Returning changed=false leaves the
// snapshot untouched.
type habitFunc func(h model.Habit) (out model.Habit, changed bool)

// updateHabit locates habitID (goal-owned first, then standalone) and applies
// fn to it. When fn reports no change, the input snapshot is returned as is.
func updateHabit(s *model.Snapshot, habitID string, fn habitFunc) (*model.Snapshot, error) {
	goals := s.Goals()

	for gi := range goals {
		hi := slices.IndexFunc(goals[gi].Habits, func(h model.Habit) bool { return h.ID == habitID })
		if hi < 0 {
			continue
		}

		out, changed := fn(goals[gi].Habits[hi])
		if !changed {
			return s, nil
		}

		goals[gi].Habits[hi] = out

		return s.WithGoals(goals), nil
	}

	tasks := s.ScheduleTasks()

	ti := slices.IndexFunc(tasks, func(h model.Habit) bool { return h.ID == habitID })
	if ti < 0 {
		return nil, notFound("habit", habitID)
	}

	out, changed := fn(tasks[ti])
	if !changed {
		return s, nil
	}

	tasks[ti] = out

	return s.WithScheduleTasks(tasks), nil
}

// toggleDate removes date from dates if present, else appends it. The
// returned bool reports whether the date was added.
func toggleDate(dates []string, date string) ([]string, bool) {
	if slices.Contains(dates, date) {
		return slices.DeleteFunc(slices.Clone(dates), func(d string) bool { return d == date }), false
	}

	return append(slices.Clone(dates), date), true
}
