package mutate

import (
	"math"
	"slices"
	"time"

	"github.com/tonimelisma/lifegoal-go/internal/model"
)

// AddGoal prepends g to the goals collection.
func AddGoal(s *model.Snapshot, g model.Goal) (*model.Snapshot, error) {
	if normalizeTitle(g.Title) == "" {
		return nil, invalid("goal title must not be empty")
	}

	if slices.ContainsFunc(s.Goals(), func(x model.Goal) bool { return x.ID == g.ID }) {
		return nil, invalid("goal %q already exists", g.ID)
	}

	g = model.CloneGoals([]model.Goal{g})[0]
	g.Title = normalizeTitle(g.Title)

	return s.WithGoals(append([]model.Goal{g}, s.Goals()...)), nil
}

// UpdateGoal replaces the goal with the same id.
func UpdateGoal(s *model.Snapshot, g model.Goal) (*model.Snapshot, error) {
	goals := s.Goals()

	i := slices.IndexFunc(goals, func(x model.Goal) bool { return x.ID == g.ID })
	if i < 0 {
		return nil, notFound("goal", g.ID)
	}

	goals[i] = model.CloneGoals([]model.Goal{g})[0]

	return s.WithGoals(goals), nil
}

// DeleteGoal removes goalID together with its milestones and habits.
func DeleteGoal(s *model.Snapshot, goalID string) (*model.Snapshot, error) {
	goals := s.Goals()
	n := len(goals)

	goals = slices.DeleteFunc(goals, func(x model.Goal) bool { return x.ID == goalID })
	if len(goals) == n {
		return nil, notFound("goal", goalID)
	}

	return s.WithGoals(goals), nil
}

// ToggleMilestone flips a milestone's completed flag and recomputes the
// goal's progress as the rounded percentage of completed milestones.
func ToggleMilestone(s *model.Snapshot, goalID, milestoneID string) (*model.Snapshot, error) {
	goals := s.Goals()

	gi := slices.IndexFunc(goals, func(x model.Goal) bool { return x.ID == goalID })
	if gi < 0 {
		return nil, notFound("goal", goalID)
	}

	g := &goals[gi]

	mi := slices.IndexFunc(g.Milestones, func(m model.Milestone) bool { return m.ID == milestoneID })
	if mi < 0 {
		return nil, notFound("milestone", milestoneID)
	}

	g.Milestones[mi].Completed = !g.Milestones[mi].Completed
	g.Progress = Progress(g.Milestones, g.Progress)

	return s.WithGoals(goals), nil
}

// Progress returns round(100 * completed / total). With no milestones the
// fallback value is returned unchanged.
func Progress(milestones []model.Milestone, fallback int) int {
	if len(milestones) == 0 {
		return fallback
	}

	done := 0

	for _, m := range milestones {
		if m.Completed {
			done++
		}
	}

	return int(math.Round(100 * float64(done) / float64(len(milestones))))
}

// SetAdvice stores AI advice text on goalID.
func SetAdvice(s *model.Snapshot, goalID, advice string) (*model.Snapshot, error) {
	goals := s.Goals()

	i := slices.IndexFunc(goals, func(x model.Goal) bool { return x.ID == goalID })
	if i < 0 {
		return nil, notFound("goal", goalID)
	}

	goals[i].AIAdvice = advice

	return s.WithGoals(goals), nil
}

// FindGoal returns a copy of goalID.
func FindGoal(s *model.Snapshot, goalID string) (model.Goal, bool) {
	for _, g := range s.Goals() {
		if g.ID == goalID {
			return g, true
		}
	}

	return model.Goal{}, false
}

// Defaults applied when turning a generated plan into a goal.
const (
	defaultPlanDuration   = 20
	defaultPlanTargetDays = 30
)

// planTimes assigns times of day to plan habits by position.
var planTimes = []string{"07:00", "20:00"}

const planFallbackTime = "12:00"

// GoalFromPlan converts a generated plan into a new goal. Progress starts at
// zero; the motivational quote becomes the goal's advice text.
func GoalFromPlan(p *model.Plan, ids IDFunc, now time.Time) model.Goal {
	g := model.Goal{
		ID:          ids(),
		Title:       normalizeTitle(p.Title),
		Description: p.Description,
		Aspect:      p.Aspect,
		Milestones:  make([]model.Milestone, 0, len(p.Milestones)),
		Habits:      make([]model.Habit, 0, len(p.Habits)),
		AIAdvice:    p.MotivationalQuote,
		CreatedAt:   now.UnixMilli(),
	}

	for _, m := range p.Milestones {
		g.Milestones = append(g.Milestones, model.Milestone{ID: ids(), Title: m})
	}

	for i, ph := range p.Habits {
		duration := defaultPlanDuration
		if ph.Duration != nil {
			duration = *ph.Duration
		}

		target := defaultPlanTargetDays

		tod := planFallbackTime
		if i < len(planTimes) {
			tod = planTimes[i]
		}

		g.Habits = append(g.Habits, model.Habit{
			ID:                  ids(),
			Title:               normalizeTitle(ph.Title),
			Frequency:           model.Daily,
			CompletedDates:      []string{},
			RecommendedDuration: &duration,
			TimeOfDay:           tod,
			TargetDays:          &target,
		})
	}

	return g
}
