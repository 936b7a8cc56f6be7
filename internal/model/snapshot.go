package model

import "slices"

// Snapshot captures every tracked collection at one instant of authoritative
// state. A Snapshot is never modified after creation; mutators build a new
// one. The collections are exposed read-only through accessor methods that
// return copies so callers cannot alias the stored slices.
type Snapshot struct {
	goals         []Goal
	scheduleTasks []Habit
	habitItems    []HabitItem
}

// NewSnapshot deep-copies the given collections into a new Snapshot.
func NewSnapshot(goals []Goal, tasks []Habit, items []HabitItem) *Snapshot {
	return &Snapshot{
		goals:         CloneGoals(goals),
		scheduleTasks: CloneHabits(tasks),
		habitItems:    CloneHabitItems(items),
	}
}

// EmptySnapshot returns a Snapshot with no entities.
func EmptySnapshot() *Snapshot {
	return &Snapshot{}
}

// Goals returns a copy of the goals collection.
func (s *Snapshot) Goals() []Goal { return CloneGoals(s.goals) }

// ScheduleTasks returns a copy of the standalone habits collection.
func (s *Snapshot) ScheduleTasks() []Habit { return CloneHabits(s.scheduleTasks) }

// HabitItems returns a copy of the habit board collection.
func (s *Snapshot) HabitItems() []HabitItem { return CloneHabitItems(s.habitItems) }

// Counts returns the size of each collection without copying.
func (s *Snapshot) Counts() (goals, tasks, items int) {
	return len(s.goals), len(s.scheduleTasks), len(s.habitItems)
}

// Equal reports whether two snapshots hold identical collections.
func (s *Snapshot) Equal(other *Snapshot) bool {
	if s == other {
		return true
	}

	if s == nil || other == nil {
		return false
	}

	return slices.EqualFunc(s.goals, other.goals, goalEqual) &&
		slices.EqualFunc(s.scheduleTasks, other.scheduleTasks, habitEqual) &&
		slices.EqualFunc(s.habitItems, other.habitItems, habitItemEqual)
}

// Changes flags which collections differ between two snapshots.
type Changes struct {
	Goals         bool
	ScheduleTasks bool
	HabitItems    bool
}

// Any reports whether any collection changed.
func (c Changes) Any() bool {
	return c.Goals || c.ScheduleTasks || c.HabitItems
}

// ChangedFrom compares s against prev collection by collection. A nil prev
// counts as empty.
func (s *Snapshot) ChangedFrom(prev *Snapshot) Changes {
	if prev == nil {
		prev = EmptySnapshot()
	}

	return Changes{
		Goals:         !slices.EqualFunc(s.goals, prev.goals, goalEqual),
		ScheduleTasks: !slices.EqualFunc(s.scheduleTasks, prev.scheduleTasks, habitEqual),
		HabitItems:    !slices.EqualFunc(s.habitItems, prev.habitItems, habitItemEqual),
	}
}

// GoalEqual reports whether two goals are identical, habits included.
func GoalEqual(a, b Goal) bool {
	return goalEqual(a, b)
}

// WithGoals returns a new Snapshot sharing nothing with s, with goals replaced.
func (s *Snapshot) WithGoals(goals []Goal) *Snapshot {
	return NewSnapshot(goals, s.scheduleTasks, s.habitItems)
}

// WithScheduleTasks returns a new Snapshot with the schedule tasks replaced.
func (s *Snapshot) WithScheduleTasks(tasks []Habit) *Snapshot {
	return NewSnapshot(s.goals, tasks, s.habitItems)
}

// WithHabitItems returns a new Snapshot with the habit board replaced.
func (s *Snapshot) WithHabitItems(items []HabitItem) *Snapshot {
	return NewSnapshot(s.goals, s.scheduleTasks, items)
}

// CloneHabits deep-copies a habit slice. A nil input yields an empty slice.
func CloneHabits(in []Habit) []Habit {
	out := make([]Habit, len(in))
	for i := range in {
		out[i] = cloneHabit(in[i])
	}

	return out
}

// CloneGoals deep-copies a goal slice.
func CloneGoals(in []Goal) []Goal {
	out := make([]Goal, len(in))
	for i := range in {
		g := in[i]
		g.Milestones = slices.Clone(g.Milestones)
		g.Habits = CloneHabits(g.Habits)
		out[i] = g
	}

	return out
}

// CloneHabitItems deep-copies a habit board slice.
func CloneHabitItems(in []HabitItem) []HabitItem {
	out := make([]HabitItem, len(in))
	for i := range in {
		it := in[i]
		it.CompletedDates = cloneDates(it.CompletedDates)
		out[i] = it
	}

	return out
}

// CloneMemos deep-copies a memo slice.
func CloneMemos(in []Memo) []Memo {
	out := make([]Memo, len(in))
	for i := range in {
		m := in[i]
		m.Items = slices.Clone(m.Items)
		out[i] = m
	}

	return out
}

func cloneHabit(h Habit) Habit {
	h.CompletedDates = cloneDates(h.CompletedDates)
	h.RecommendedDuration = cloneInt(h.RecommendedDuration)
	h.TargetDays = cloneInt(h.TargetDays)

	return h
}

// cloneDates never returns nil so that serialized collections always carry
// an array, not null.
func cloneDates(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)

	return out
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}

	v := *p

	return &v
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}

func habitEqual(a, b Habit) bool {
	return a.ID == b.ID && a.Title == b.Title && a.Frequency == b.Frequency &&
		slices.Equal(a.CompletedDates, b.CompletedDates) && a.Streak == b.Streak &&
		intPtrEqual(a.RecommendedDuration, b.RecommendedDuration) &&
		a.TimeOfDay == b.TimeOfDay && intPtrEqual(a.TargetDays, b.TargetDays) &&
		a.StartDate == b.StartDate && a.EndDate == b.EndDate
}

func goalEqual(a, b Goal) bool {
	return a.ID == b.ID && a.Title == b.Title && a.Description == b.Description &&
		a.Aspect == b.Aspect && a.Progress == b.Progress &&
		slices.Equal(a.Milestones, b.Milestones) &&
		slices.EqualFunc(a.Habits, b.Habits, habitEqual) &&
		a.AIAdvice == b.AIAdvice && a.CreatedAt == b.CreatedAt
}

func habitItemEqual(a, b HabitItem) bool {
	return a.ID == b.ID && a.Title == b.Title && a.Type == b.Type &&
		slices.Equal(a.CompletedDates, b.CompletedDates) &&
		a.StartDate == b.StartDate && a.EndDate == b.EndDate
}

// SnapshotData is the exported, serializable form of a Snapshot.
type SnapshotData struct {
	Goals         []Goal      `json:"goals"`
	ScheduleTasks []Habit     `json:"scheduleTasks"`
	HabitItems    []HabitItem `json:"habitItems"`
}

// Data returns a deep copy of s in serializable form.
func (s *Snapshot) Data() SnapshotData {
	return SnapshotData{
		Goals:         s.Goals(),
		ScheduleTasks: s.ScheduleTasks(),
		HabitItems:    s.HabitItems(),
	}
}
