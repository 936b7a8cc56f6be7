package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/lifegoal-go/internal/model"
	"github.com/tonimelisma/lifegoal-go/internal/remote"
)

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()

	return slog.New(slog.NewTextHandler(&testLogWriter{t: t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type testLogWriter struct {
	t *testing.T
}

func (w *testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))

	return len(p), nil
}

var (
	t1 = time.UnixMilli(1_700_000_000_000)
	t2 = time.UnixMilli(1_700_000_060_000)
)

func tasks(at time.Time, ids ...string) model.Collection[model.Habit] {
	c := model.Collection[model.Habit]{UpdatedAt: at}
	for _, id := range ids {
		c.Items = append(c.Items, model.Habit{ID: id, Title: id, Frequency: model.Daily})
	}

	return c
}

func goals(at time.Time, ids ...string) model.Collection[model.Goal] {
	c := model.Collection[model.Goal]{UpdatedAt: at}
	for _, id := range ids {
		c.Items = append(c.Items, model.Goal{ID: id, Title: id})
	}

	return c
}

func TestDecide(t *testing.T) {
	t.Parallel()

	var unknown time.Time

	tests := []struct {
		name   string
		local  model.Collection[model.Habit]
		remote model.Collection[model.Habit]
		want   Source
	}{
		{"remote empty picks local", tasks(unknown, "a"), tasks(t2), SourceLocal},
		{"local empty picks remote", tasks(t2), tasks(t1, "b"), SourceRemote},
		{"both empty picks remote", tasks(unknown), tasks(unknown), SourceRemote},
		{"local newer", tasks(t2, "a"), tasks(t1, "b"), SourceLocal},
		{"equal instants prefer local", tasks(t1, "a"), tasks(t1, "b"), SourceLocal},
		{"remote newer", tasks(t1, "a"), tasks(t2, "b"), SourceRemote},
		{"local unknown", tasks(unknown, "a"), tasks(t1, "b"), SourceRemote},
		{"remote unknown", tasks(t1, "a"), tasks(unknown, "b"), SourceLocal},
		{"both unknown", tasks(unknown, "a"), tasks(unknown, "b"), SourceRemote},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, Decide(tt.local, tt.remote))
		})
	}
}

func TestDecide_LocalIffNotOlder(t *testing.T) {
	t.Parallel()

	base := time.UnixMilli(1_700_000_000_000)

	for dl := -3; dl <= 3; dl++ {
		for dr := -3; dr <= 3; dr++ {
			lt := base.Add(time.Duration(dl) * time.Minute)
			rt := base.Add(time.Duration(dr) * time.Minute)

			got := Decide(tasks(lt, "a"), tasks(rt, "b"))
			if !lt.Before(rt) {
				assert.Equal(t, SourceLocal, got, "local=%v remote=%v", lt, rt)
			} else {
				assert.Equal(t, SourceRemote, got, "local=%v remote=%v", lt, rt)
			}
		}
	}
}

func TestDecideGoals(t *testing.T) {
	t.Parallel()

	var unknown time.Time

	// Without instants on both sides remote wins whenever non-empty.
	assert.Equal(t, SourceRemote, DecideGoals(goals(t2, "a"), goals(unknown, "b")))
	assert.Equal(t, SourceRemote, DecideGoals(goals(unknown, "a"), goals(unknown, "b")))
	assert.Equal(t, SourceLocal, DecideGoals(goals(unknown, "a"), goals(unknown)))

	// With both instants the timestamp rule applies.
	assert.Equal(t, SourceLocal, DecideGoals(goals(t2, "a"), goals(t1, "b")))
	assert.Equal(t, SourceRemote, DecideGoals(goals(t1, "a"), goals(t2, "b")))
}

type fakeLocal struct {
	goals model.Collection[model.Goal]
	tasks model.Collection[model.Habit]
	items model.Collection[model.HabitItem]
}

func (f *fakeLocal) LoadGoals(context.Context, string) model.Collection[model.Goal] {
	return f.goals
}

func (f *fakeLocal) LoadScheduleTasks(context.Context, string) model.Collection[model.Habit] {
	return f.tasks
}

func (f *fakeLocal) LoadHabitItems(context.Context, string) model.Collection[model.HabitItem] {
	return f.items
}

type fakeRemote struct {
	goals    model.Collection[model.Goal]
	tasks    model.Collection[model.Habit]
	goalsErr error
	tasksErr error
}

func (f *fakeRemote) FetchGoals(context.Context, string) (model.Collection[model.Goal], error) {
	return f.goals, f.goalsErr
}

func (f *fakeRemote) FetchScheduleTasks(context.Context, string) (model.Collection[model.Habit], error) {
	return f.tasks, f.tasksErr
}

func TestLoad_PicksPerCollection(t *testing.T) {
	t.Parallel()

	local := &fakeLocal{
		goals: goals(time.Time{}, "lg"),
		tasks: tasks(t2, "lt"),
		items: model.Collection[model.HabitItem]{Items: []model.HabitItem{{ID: "hi"}}},
	}
	remote := &fakeRemote{
		goals: goals(t1, "rg"),
		tasks: tasks(t1, "rt"),
	}

	res := New(local, remote, testLogger(t)).Load(context.Background(), "u1")
	require.NoError(t, res.RemoteErr)

	assert.Equal(t, SourceRemote, res.Sources.Goals)
	assert.Equal(t, SourceLocal, res.Sources.ScheduleTasks)
	assert.Equal(t, SourceLocal, res.Sources.HabitItems)

	assert.Equal(t, "rg", res.Snapshot.Goals()[0].ID)
	assert.Equal(t, "lt", res.Snapshot.ScheduleTasks()[0].ID)
	assert.Equal(t, "hi", res.Snapshot.HabitItems()[0].ID)
	assert.True(t, res.GoalsAt.Equal(t1))
	assert.True(t, res.TasksAt.Equal(t2))
}

func TestLoad_RemoteFailureFallsBackToLocal(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	local := &fakeLocal{goals: goals(time.Time{}, "lg"), tasks: tasks(t1, "lt")}
	remote := &fakeRemote{
		goals:    goals(t2, "rg"),
		tasksErr: boom,
	}

	res := New(local, remote, testLogger(t)).Load(context.Background(), "u1")

	require.ErrorIs(t, res.RemoteErr, boom)
	assert.Equal(t, SourceLocal, res.Sources.Goals)
	assert.Equal(t, SourceLocal, res.Sources.ScheduleTasks)
	assert.Equal(t, "lg", res.Snapshot.Goals()[0].ID)
	assert.Equal(t, "lt", res.Snapshot.ScheduleTasks()[0].ID)
}

func TestLoad_NoRemote(t *testing.T) {
	t.Parallel()

	local := &fakeLocal{tasks: tasks(t1, "lt")}

	res := New(local, nil, testLogger(t)).Load(context.Background(), "u1")

	require.NoError(t, res.RemoteErr)
	goalCount, taskCount, itemCount := res.Snapshot.Counts()
	assert.Equal(t, 0, goalCount)
	assert.Equal(t, 1, taskCount)
	assert.Equal(t, 0, itemCount)
}

// stalledRemote blocks every fetch until ctx is done, like a backend that
// keeps failing and being retried.
type stalledRemote struct{}

func (stalledRemote) FetchGoals(ctx context.Context, _ string) (model.Collection[model.Goal], error) {
	<-ctx.Done()
	return model.Collection[model.Goal]{}, ctx.Err()
}

func (stalledRemote) FetchScheduleTasks(ctx context.Context, _ string) (model.Collection[model.Habit], error) {
	<-ctx.Done()
	return model.Collection[model.Habit]{}, ctx.Err()
}

func TestLoad_StalledRemoteIsBounded(t *testing.T) {
	t.Parallel()

	local := &fakeLocal{tasks: tasks(t1, "lt")}
	e := New(local, stalledRemote{}, testLogger(t))
	e.SetTimeout(50 * time.Millisecond)

	start := time.Now()
	res := e.Load(context.Background(), "u1")

	assert.Less(t, time.Since(start), 2*time.Second)
	require.ErrorIs(t, res.RemoteErr, context.DeadlineExceeded)
	assert.Equal(t, "lt", res.Snapshot.ScheduleTasks()[0].ID)
}

func TestLoad_UnavailableBackendFallsBackWithinTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	client := remote.NewClient(srv.URL, "anon", nil, srv.Client(), testLogger(t))
	store := remote.NewStore(client, testLogger(t))

	local := &fakeLocal{goals: goals(t1, "lg")}
	e := New(local, store, testLogger(t))
	e.SetTimeout(300 * time.Millisecond)

	start := time.Now()
	res := e.Load(context.Background(), "u1")

	assert.Less(t, time.Since(start), 3*time.Second, "retry backoff must not outlast the fetch bound")
	require.Error(t, res.RemoteErr)
	assert.Equal(t, SourceLocal, res.Sources.Goals)
	assert.Equal(t, "lg", res.Snapshot.Goals()[0].ID)
}

func TestNew_DefaultTimeout(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultTimeout, New(&fakeLocal{}, nil, testLogger(t)).timeout)
}
