package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/tonimelisma/lifegoal-go/internal/model"
	"github.com/tonimelisma/lifegoal-go/internal/remote"
)

// remoteWriteTimeout bounds each background remote write.
const remoteWriteTimeout = 30 * time.Second

// GoalEvent is the data column of a goal activity record.
type GoalEvent struct {
	GoalID   string `json:"goalId"`
	Title    string `json:"title"`
	Progress int    `json:"progress"`
}

// recordGoalEvents logs created, updated, and deleted goals between prev
// and next to the activity log. Inserts run in the background and failures
// are only logged. Caller holds a.mu.
func (a *App) recordGoalEvents(ctx context.Context, prev, next *model.Snapshot) {
	if !a.remoteOn() || !next.ChangedFrom(prev).Goals {
		return
	}

	before := make(map[string]model.Goal)
	for _, g := range prev.Goals() {
		before[g.ID] = g
	}

	type event struct {
		kind string
		data GoalEvent
	}

	var events []event

	for _, g := range next.Goals() {
		old, ok := before[g.ID]
		delete(before, g.ID)

		switch {
		case !ok:
			events = append(events, event{remote.RecordGoalCreated, GoalEvent{g.ID, g.Title, g.Progress}})
		case !model.GoalEqual(old, g):
			events = append(events, event{remote.RecordGoalUpdated, GoalEvent{g.ID, g.Title, g.Progress}})
		}
	}

	for _, g := range prev.Goals() {
		if _, gone := before[g.ID]; gone {
			events = append(events, event{remote.RecordGoalDeleted, GoalEvent{g.ID, g.Title, g.Progress}})
		}
	}

	userID := a.userID
	detached := context.WithoutCancel(ctx)

	for _, ev := range events {
		a.background.Add(1)

		go func() {
			defer a.background.Done()

			rctx, cancel := context.WithTimeout(detached, remoteWriteTimeout)
			defer cancel()

			if err := a.remote.InsertRecord(rctx, userID, ev.kind, ev.data); err != nil {
				a.logger.Warn("activity record failed",
					slog.String("type", ev.kind),
					slog.String("goal", ev.data.GoalID),
					slog.String("error", err.Error()),
				)
			}
		}()
	}
}

// Records lists the session user's activity log, newest first.
func (a *App) Records(ctx context.Context) ([]remote.Record, error) {
	userID, ok := a.User()
	if !ok {
		return nil, ErrNoSession
	}

	if !a.remoteOn() {
		return nil, nil
	}

	return a.remote.ListRecords(ctx, userID)
}

func (a *App) remoteOn() bool {
	return a.remote != nil && a.remote.Enabled()
}
