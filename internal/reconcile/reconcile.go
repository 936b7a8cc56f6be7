package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tonimelisma/lifegoal-go/internal/model"
)

// LocalReader reads the on-device collections. Reads never fail; missing
// or corrupt values come back empty.
type LocalReader interface {
	LoadGoals(ctx context.Context, userID string) model.Collection[model.Goal]
	LoadScheduleTasks(ctx context.Context, userID string) model.Collection[model.Habit]
	LoadHabitItems(ctx context.Context, userID string) model.Collection[model.HabitItem]
}

// RemoteReader fetches the remote collections together with the latest
// modification instant of each.
type RemoteReader interface {
	FetchGoals(ctx context.Context, userID string) (model.Collection[model.Goal], error)
	FetchScheduleTasks(ctx context.Context, userID string) (model.Collection[model.Habit], error)
}

// Sources records where each collection of the starting snapshot came from.
type Sources struct {
	Goals         Source
	ScheduleTasks Source
	HabitItems    Source
}

// Result is the outcome of reconciling one user's state.
type Result struct {
	Snapshot *model.Snapshot
	Sources  Sources

	// GoalsAt and TasksAt are the instants of the chosen collections
	// (zero when unknown).
	GoalsAt time.Time
	TasksAt time.Time

	// RemoteErr is set when the remote read failed. The snapshot is then
	// built from local data alone.
	RemoteErr error
}

// DefaultTimeout bounds the remote read of Load. A backend that is down or
// retrying must not hold the session start longer than this.
const DefaultTimeout = 5 * time.Second

// Engine loads both sides and decides per collection.
type Engine struct {
	local   LocalReader
	remote  RemoteReader
	logger  *slog.Logger
	timeout time.Duration
}

// New creates an Engine. remote may be nil, in which case every session
// starts from local data.
func New(local LocalReader, remote RemoteReader, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{local: local, remote: remote, logger: logger, timeout: DefaultTimeout}
}

// SetTimeout changes the bound on the remote read. Zero or negative
// removes it, leaving only ctx.
func (e *Engine) SetTimeout(d time.Duration) {
	e.timeout = d
}

// Load produces the authoritative starting snapshot for userID. It never
// returns an error: a failed remote read is reported in Result.RemoteErr.
// Habit items are local-only.
func (e *Engine) Load(ctx context.Context, userID string) Result {
	localGoals := e.local.LoadGoals(ctx, userID)
	localTasks := e.local.LoadScheduleTasks(ctx, userID)
	habitItems := e.local.LoadHabitItems(ctx, userID)

	res := Result{Sources: Sources{HabitItems: SourceLocal}}

	remoteGoals, remoteTasks, err := e.fetch(ctx, userID)
	if err != nil {
		e.logger.Warn("remote read failed, starting from local state",
			slog.String("user", userID),
			slog.String("error", err.Error()),
		)

		res.RemoteErr = err
		res.Snapshot = model.NewSnapshot(localGoals.Items, localTasks.Items, habitItems.Items)
		res.GoalsAt = localGoals.UpdatedAt
		res.TasksAt = localTasks.UpdatedAt

		return res
	}

	res.Sources.Goals = DecideGoals(localGoals, remoteGoals)
	res.Sources.ScheduleTasks = Decide(localTasks, remoteTasks)

	goals := pick(res.Sources.Goals, localGoals, remoteGoals)
	tasks := pick(res.Sources.ScheduleTasks, localTasks, remoteTasks)

	res.Snapshot = model.NewSnapshot(goals.Items, tasks.Items, habitItems.Items)
	res.GoalsAt = goals.UpdatedAt
	res.TasksAt = tasks.UpdatedAt

	e.logger.Info("reconciled session state",
		slog.String("user", userID),
		slog.String("goals", res.Sources.Goals.String()),
		slog.Int("goal_count", len(goals.Items)),
		slog.String("schedule_tasks", res.Sources.ScheduleTasks.String()),
		slog.Int("task_count", len(tasks.Items)),
	)

	return res
}

func (e *Engine) fetch(ctx context.Context, userID string) (
	model.Collection[model.Goal], model.Collection[model.Habit], error,
) {
	var (
		goals model.Collection[model.Goal]
		tasks model.Collection[model.Habit]
	)

	if e.remote == nil {
		return goals, tasks, nil
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		c, err := e.remote.FetchGoals(gctx, userID)
		if err != nil {
			return fmt.Errorf("reconcile: fetching goals: %w", err)
		}

		goals = c

		return nil
	})

	g.Go(func() error {
		c, err := e.remote.FetchScheduleTasks(gctx, userID)
		if err != nil {
			return fmt.Errorf("reconcile: fetching schedule tasks: %w", err)
		}

		tasks = c

		return nil
	})

	if err := g.Wait(); err != nil {
		return model.Collection[model.Goal]{}, model.Collection[model.Habit]{}, err
	}

	return goals, tasks, nil
}
