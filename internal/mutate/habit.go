package mutate

import (
	"slices"

	"github.com/tonimelisma/lifegoal-go/internal/model"
)

// ToggleHabit flips completion of habitID on date. Adding a date increments
// the streak; removing it decrements the streak, floored at zero. The streak
// is a counter and is not recomputed from the completion history.
func ToggleHabit(s *model.Snapshot, habitID, date string) (*model.Snapshot, error) {
	return updateHabit(s, habitID, func(h model.Habit) (model.Habit, bool) {
		var added bool

		h.CompletedDates, added = toggleDate(h.CompletedDates, date)
		if added {
			h.Streak++
		} else {
			h.Streak = max(0, h.Streak-1)
		}

		return h, true
	})
}

// CompleteHabit marks habitID complete on date. Unlike ToggleHabit it never
// removes a date: completing an already-completed date is a no-op and the
// input snapshot is returned unchanged. Used when a countdown finishes.
func CompleteHabit(s *model.Snapshot, habitID, date string) (*model.Snapshot, error) {
	return updateHabit(s, habitID, func(h model.Habit) (model.Habit, bool) {
		if h.CompletedOn(date) {
			return h, false
		}

		h.CompletedDates = append(slices.Clone(h.CompletedDates), date)
		h.Streak++

		return h, true
	})
}

// UpdateHabit merges the fields set in p into habitID. Unset fields keep
// their prior values. The patch is validated before anything is applied.
func UpdateHabit(s *model.Snapshot, habitID string, p HabitPatch) (*model.Snapshot, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var mergeErr error

	next, err := updateHabit(s, habitID, func(h model.Habit) (model.Habit, bool) {
		out := p.apply(h)
		if out.StartDate != "" && out.EndDate != "" && out.EndDate < out.StartDate {
			mergeErr = invalid("end date %s before start date %s", out.EndDate, out.StartDate)
			return h, false
		}

		return out, true
	})
	if err != nil {
		return nil, err
	}

	if mergeErr != nil {
		return nil, mergeErr
	}

	return next, nil
}

// NewTask describes a standalone schedule task to create.
type NewTask struct {
	Title     string
	TimeOfDay string
	Duration  int
	StartDate string
	EndDate   string
}

// CreateTask appends a new standalone daily habit with a fresh id, a zero
// streak and no completion dates. It returns the new snapshot and the id.
func CreateTask(s *model.Snapshot, ids IDFunc, t NewTask) (*model.Snapshot, string, error) {
	title := t.Title
	p := HabitPatch{Title: &title, TimeOfDay: optString(t.TimeOfDay), Duration: optInt(t.Duration),
		StartDate: optString(t.StartDate), EndDate: optString(t.EndDate)}

	if err := p.Validate(); err != nil {
		return nil, "", err
	}

	h := p.apply(model.Habit{
		ID:             ids(),
		Frequency:      model.Daily,
		CompletedDates: []string{},
	})

	return s.WithScheduleTasks(append(s.ScheduleTasks(), h)), h.ID, nil
}

// DeleteHabit removes habitID from whichever collection holds it.
func DeleteHabit(s *model.Snapshot, habitID string) (*model.Snapshot, error) {
	goals := s.Goals()

	for gi := range goals {
		if !goals[gi].HasHabit(habitID) {
			continue
		}

		goals[gi].Habits = slices.DeleteFunc(goals[gi].Habits, func(h model.Habit) bool { return h.ID == habitID })

		return s.WithGoals(goals), nil
	}

	tasks := s.ScheduleTasks()
	n := len(tasks)

	tasks = slices.DeleteFunc(tasks, func(h model.Habit) bool { return h.ID == habitID })
	if len(tasks) == n {
		return nil, notFound("habit", habitID)
	}

	return s.WithScheduleTasks(tasks), nil
}

// FindHabit returns a copy of habitID and the owning goal id (empty for a
// standalone schedule task).
func FindHabit(s *model.Snapshot, habitID string) (model.Habit, string, bool) {
	for _, g := range s.Goals() {
		for _, h := range g.Habits {
			if h.ID == habitID {
				return h, g.ID, true
			}
		}
	}

	for _, h := range s.ScheduleTasks() {
		if h.ID == habitID {
			return h, "", true
		}
	}

	return model.Habit{}, "", false
}

func optString(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

func optInt(n int) *int {
	if n == 0 {
		return nil
	}

	return &n
}
