// Package model defines the entities tracked by lifegoal-go: goals with their
// milestones and habits, standalone schedule tasks, good/bad habit board
// items, timer memos, and the immutable Snapshot that groups the tracked
// collections at one instant of authoritative state.
package model

import (
	"fmt"
	"slices"
)

// LifeAspect categorizes a goal.
type LifeAspect string

// Life aspects, matching the category names used by the plan generator.
const (
	AspectHealth        LifeAspect = "Health"
	AspectRelationships LifeAspect = "Relationships"
	AspectFinance       LifeAspect = "Financial"
	AspectLearning      LifeAspect = "Learning"
	AspectCareer        LifeAspect = "Career"
	AspectSpiritual     LifeAspect = "Spiritual"
)

// Aspects lists every valid LifeAspect in display order.
var Aspects = []LifeAspect{
	AspectHealth, AspectRelationships, AspectFinance,
	AspectLearning, AspectCareer, AspectSpiritual,
}

// ParseAspect validates s as a LifeAspect.
func ParseAspect(s string) (LifeAspect, error) {
	a := LifeAspect(s)
	if slices.Contains(Aspects, a) {
		return a, nil
	}

	return "", fmt.Errorf("model: unknown life aspect %q", s)
}

// Frequency is a habit recurrence.
type Frequency string

const (
	Daily  Frequency = "daily"
	Weekly Frequency = "weekly"
)

// Polarity distinguishes good habits (to build) from bad ones (to break).
type Polarity string

const (
	Good Polarity = "good"
	Bad  Polarity = "bad"
)

// ParsePolarity validates s as a Polarity.
func ParsePolarity(s string) (Polarity, error) {
	switch Polarity(s) {
	case Good, Bad:
		return Polarity(s), nil
	default:
		return "", fmt.Errorf("model: unknown habit polarity %q (want good or bad)", s)
	}
}

// Milestone is an achievable sub-goal owned by exactly one Goal.
type Milestone struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Habit is a recurring activity. The same shape is used for habits owned by
// a goal and for standalone schedule tasks.
//
// Streak is a counter bumped on completion and decremented on un-completion;
// it is not derived from CompletedDates and may drift from the actual run of
// consecutive days.
type Habit struct {
	ID                  string    `json:"id"`
	Title               string    `json:"title"`
	Frequency           Frequency `json:"frequency"`
	CompletedDates      []string  `json:"completedDates"`
	Streak              int       `json:"streak"`
	RecommendedDuration *int      `json:"recommendedDuration,omitempty"`
	TimeOfDay           string    `json:"timeOfDay,omitempty"`
	TargetDays          *int      `json:"targetDays,omitempty"`
	StartDate           string    `json:"startDate,omitempty"`
	EndDate             string    `json:"endDate,omitempty"`
}

// CompletedOn reports whether date is among the habit's completion dates.
func (h *Habit) CompletedOn(date string) bool {
	return slices.Contains(h.CompletedDates, date)
}

// HabitItem is an entry on the good/bad habit board. It has no streak.
type HabitItem struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Type           Polarity `json:"type"`
	CompletedDates []string `json:"completedDates"`
	StartDate      string   `json:"startDate,omitempty"`
	EndDate        string   `json:"endDate,omitempty"`
}

// Goal is a user objective with ordered milestones and owned habits.
type Goal struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Aspect      LifeAspect  `json:"aspect"`
	Progress    int         `json:"progress"`
	Milestones  []Milestone `json:"milestones"`
	Habits      []Habit     `json:"habits"`
	AIAdvice    string      `json:"aiAdvice,omitempty"`
	CreatedAt   int64       `json:"createdAt"`
}

// HasHabit reports whether the goal owns a habit with the given id.
func (g *Goal) HasHabit(id string) bool {
	return slices.ContainsFunc(g.Habits, func(h Habit) bool { return h.ID == id })
}

// MemoKind distinguishes free-text notes from checklists.
type MemoKind string

const (
	MemoText      MemoKind = "text"
	MemoChecklist MemoKind = "checklist"
)

// ChecklistEntry is one line of a checklist memo.
type ChecklistEntry struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// Memo is a note pinned on a habit's timer screen.
type Memo struct {
	ID    string           `json:"id"`
	Kind  MemoKind         `json:"kind"`
	Text  string           `json:"text,omitempty"`
	Items []ChecklistEntry `json:"items,omitempty"`
	X     float64          `json:"x"`
	Y     float64          `json:"y"`
}
