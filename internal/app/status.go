package app

import (
	"time"

	"github.com/tonimelisma/lifegoal-go/internal/propagate"
	"github.com/tonimelisma/lifegoal-go/internal/reconcile"
)

// Status summarizes the session for display.
type Status struct {
	UserID        string
	RemoteEnabled bool
	Sources       reconcile.Sources
	GoalsAt       time.Time
	TasksAt       time.Time
	RemoteErr     error
	Goals         int
	ScheduleTasks int
	HabitItems    int
	HistoryIndex  int
	HistoryLen    int
	Divergent     []propagate.Divergence
}

// Status returns the current session summary.
func (a *App) Status() (Status, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.userID == "" {
		return Status{}, ErrNoSession
	}

	goals, tasks, items := a.history.Current().Counts()

	return Status{
		UserID:        a.userID,
		RemoteEnabled: a.remoteOn(),
		Sources:       a.start.Sources,
		GoalsAt:       a.start.GoalsAt,
		TasksAt:       a.start.TasksAt,
		RemoteErr:     a.start.RemoteErr,
		Goals:         goals,
		ScheduleTasks: tasks,
		HabitItems:    items,
		HistoryIndex:  a.history.Index(),
		HistoryLen:    a.history.Len(),
		Divergent:     a.prop.Divergent(),
	}, nil
}
