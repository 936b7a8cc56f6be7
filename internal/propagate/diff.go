// Package propagate pushes authoritative-state transitions to the remote
// store. A transition is reduced to a Plan of deletes and upserts per
// collection, and a Plan is sent as one concurrent batch.
package propagate

import (
	"github.com/tonimelisma/lifegoal-go/internal/model"
)

// Plan is the remote work needed to move the remote store from one snapshot
// to the next. Habit items are local-only and never appear in a plan.
type Plan struct {
	GoalDeletes []string
	GoalUpserts []model.Goal
	TaskDeletes []string
	TaskUpserts []model.Habit
}

// Len returns the number of remote calls in the plan.
func (p Plan) Len() int {
	return len(p.GoalDeletes) + len(p.GoalUpserts) + len(p.TaskDeletes) + len(p.TaskUpserts)
}

// Empty reports whether the plan has no work.
func (p Plan) Empty() bool {
	return p.Len() == 0
}

// Diff computes the plan from prev to next. Entities present in prev but
// absent from next are deleted; every entity in next is upserted, changed or
// not. A nil prev means nothing is known remotely.
func Diff(prev, next *model.Snapshot) Plan {
	if next == nil {
		next = model.EmptySnapshot()
	}

	if prev == nil {
		prev = model.EmptySnapshot()
	}

	goals := next.Goals()
	tasks := next.ScheduleTasks()

	return Plan{
		GoalDeletes: removed(prev.Goals(), goals, goalID),
		GoalUpserts: goals,
		TaskDeletes: removed(prev.ScheduleTasks(), tasks, habitID),
		TaskUpserts: tasks,
	}
}

func goalID(g model.Goal) string   { return g.ID }
func habitID(h model.Habit) string { return h.ID }

// removed returns the ids in prev that are absent from next, in prev order.
func removed[T any](prev, next []T, id func(T) string) []string {
	keep := make(map[string]struct{}, len(next))
	for _, e := range next {
		keep[id(e)] = struct{}{}
	}

	var out []string

	for _, e := range prev {
		if _, ok := keep[id(e)]; !ok {
			out = append(out, id(e))
		}
	}

	return out
}
