// Package app is the application-state container. It owns one user session
// at a time: reconciliation on start, the history stack, the commit path
// that persists locally and propagates remotely, and teardown on sign-out.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tonimelisma/lifegoal-go/internal/auth"
	"github.com/tonimelisma/lifegoal-go/internal/history"
	"github.com/tonimelisma/lifegoal-go/internal/model"
	"github.com/tonimelisma/lifegoal-go/internal/mutate"
	"github.com/tonimelisma/lifegoal-go/internal/propagate"
	"github.com/tonimelisma/lifegoal-go/internal/reconcile"
	"github.com/tonimelisma/lifegoal-go/internal/remote"
)

// ErrNoSession is returned by operations that need a started session.
var ErrNoSession = errors.New("app: no active session")

// LocalStore is the on-device persistence the app writes through.
type LocalStore interface {
	reconcile.LocalReader
	SaveGoals(ctx context.Context, userID string, goals []model.Goal, at time.Time) error
	SaveScheduleTasks(ctx context.Context, userID string, tasks []model.Habit, at time.Time) error
	SaveHabitItems(ctx context.Context, userID string, items []model.HabitItem) error
	LoadMemos(ctx context.Context, userID, habitID string) model.Collection[model.Memo]
	SaveMemos(ctx context.Context, userID, habitID string, memos []model.Memo, at time.Time) error
}

// RemoteStore is the backend the app reads at session start and writes
// memos and activity records to.
type RemoteStore interface {
	reconcile.RemoteReader
	Enabled() bool
	FetchMemos(ctx context.Context, userID, habitID string) ([]model.Memo, error)
	UpsertMemo(ctx context.Context, userID, habitID string, m model.Memo) error
	DeleteMemo(ctx context.Context, userID, habitID, memoID string) error
	InsertRecord(ctx context.Context, userID, kind string, data any) error
	ListRecords(ctx context.Context, userID string) ([]remote.Record, error)
}

// Dispatcher sends snapshot transitions to the remote store in the
// background.
type Dispatcher interface {
	Dispatch(userID string, prev, next *model.Snapshot)
	Drain(ctx context.Context) error
	Divergent() []propagate.Divergence
	Forget()
}

// AuthProvider reports the signed-in user.
type AuthProvider interface {
	CurrentUser() (*auth.User, error)
	OnAuthChange(ctx context.Context) (<-chan auth.Event, error)
}

// Countdown runs a habit session timer.
type Countdown interface {
	Run(ctx context.Context, total time.Duration, onTick func(remaining time.Duration)) error
}

// Mutator computes the next snapshot from the current one.
type Mutator func(s *model.Snapshot) (*model.Snapshot, error)

// Deps are the collaborators of an App. Local, Remote, and Propagator are
// required; the rest have defaults.
type Deps struct {
	Local      LocalStore
	Remote     RemoteStore
	Propagator Dispatcher
	Auth       AuthProvider
	Timer      Countdown
	Now        func() time.Time
	IDs        mutate.IDFunc
	Logger     *slog.Logger

	// FetchTimeout bounds remote reads made while the user waits: the
	// session-start fetch and memo lookups. Zero uses
	// reconcile.DefaultTimeout.
	FetchTimeout time.Duration
}

// App holds the state of the current session.
type App struct {
	local  LocalStore
	remote RemoteStore
	prop   Dispatcher
	auth   AuthProvider
	timer  Countdown
	now    func() time.Time
	ids    mutate.IDFunc
	logger *slog.Logger
	engine *reconcile.Engine

	mu      sync.Mutex
	userID  string
	history *history.Stack
	start   reconcile.Result

	background sync.WaitGroup

	fetchTimeout time.Duration

	memoMu   sync.Mutex
	memoTail chan struct{}
}

// New creates an App with no session.
func New(d Deps) *App {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	if d.Now == nil {
		d.Now = time.Now
	}

	if d.IDs == nil {
		d.IDs = mutate.NewID
	}

	if d.FetchTimeout <= 0 {
		d.FetchTimeout = reconcile.DefaultTimeout
	}

	var reader reconcile.RemoteReader
	if d.Remote != nil && d.Remote.Enabled() {
		reader = d.Remote
	}

	engine := reconcile.New(d.Local, reader, d.Logger)
	engine.SetTimeout(d.FetchTimeout)

	return &App{
		local:   d.Local,
		remote:  d.Remote,
		prop:    d.Propagator,
		auth:    d.Auth,
		timer:   d.Timer,
		now:     d.Now,
		ids:     d.IDs,
		logger:  d.Logger,
		engine:  engine,
		history: history.New(),

		fetchTimeout: d.FetchTimeout,
	}
}

// Start begins a session for userID. Local and remote state are reconciled
// into the first history entry; nothing is written until the first commit.
// A failed remote read is logged and reported in the result, never returned
// as an error.
func (a *App) Start(ctx context.Context, userID string) (reconcile.Result, error) {
	if userID == "" {
		return reconcile.Result{}, fmt.Errorf("app: starting session: %w", remote.ErrNoUser)
	}

	a.mu.Lock()
	active := a.userID
	a.mu.Unlock()

	if active != "" {
		if err := a.Stop(ctx); err != nil {
			a.logger.Warn("previous session did not stop cleanly", slog.String("error", err.Error()))
		}
	}

	res := a.engine.Load(ctx, userID)

	a.mu.Lock()
	defer a.mu.Unlock()

	a.history.Reset()
	a.history.Hydrate(res.Snapshot)
	a.userID = userID
	a.start = res

	goals, tasks, items := res.Snapshot.Counts()
	a.logger.Info("session started",
		slog.String("user", userID),
		slog.Int("goals", goals),
		slog.Int("schedule_tasks", tasks),
		slog.Int("habit_items", items),
	)

	return res, nil
}

// StartCurrent starts a session for whoever is signed in.
func (a *App) StartCurrent(ctx context.Context) (reconcile.Result, error) {
	if a.auth == nil {
		return reconcile.Result{}, ErrNoSession
	}

	u, err := a.auth.CurrentUser()
	if err != nil {
		return reconcile.Result{}, fmt.Errorf("app: reading session: %w", err)
	}

	if u == nil {
		return reconcile.Result{}, auth.ErrSignedOut
	}

	return a.Start(ctx, u.ID)
}

// Stop ends the session: waits for in-flight propagations and activity
// records until ctx is done, then clears history. Stop on an idle App is a
// no-op.
func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	userID := a.userID
	a.mu.Unlock()

	if userID == "" {
		return nil
	}

	drainErr := a.prop.Drain(ctx)

	done := make(chan struct{})
	go func() {
		a.background.Wait()
		close(done)
	}()

	var bgErr error
	select {
	case <-done:
	case <-ctx.Done():
		bgErr = fmt.Errorf("app: waiting for background remote writes: %w", ctx.Err())
	}

	a.mu.Lock()
	a.history.Reset()
	a.userID = ""
	a.start = reconcile.Result{}
	a.mu.Unlock()

	a.prop.Forget()

	a.logger.Info("session stopped", slog.String("user", userID))

	return errors.Join(drainErr, bgErr)
}

// Watch follows auth changes until ctx is done: a sign-out tears the
// session down and a sign-in (or user switch) starts a new one.
func (a *App) Watch(ctx context.Context) error {
	if a.auth == nil {
		return ErrNoSession
	}

	events, err := a.auth.OnAuthChange(ctx)
	if err != nil {
		return fmt.Errorf("app: watching auth: %w", err)
	}

	for ev := range events {
		current, _ := a.User()

		switch {
		case ev.User == nil:
			if err := a.Stop(ctx); err != nil {
				a.logger.Warn("stopping session after sign-out", slog.String("error", err.Error()))
			}
		case ev.User.ID != current:
			if _, err := a.Start(ctx, ev.User.ID); err != nil {
				a.logger.Warn("starting session after sign-in", slog.String("error", err.Error()))
			}
		}
	}

	return nil
}

// User returns the session's user id.
func (a *App) User() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.userID, a.userID != ""
}

// Current returns the authoritative snapshot.
func (a *App) Current() (*model.Snapshot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.userID == "" {
		return nil, ErrNoSession
	}

	return a.history.Current(), nil
}

// Apply runs m against the current snapshot and commits the result. The
// changed collections are written locally, goal changes are recorded in the
// activity log, and the transition is propagated in the background. A
// mutator that changes nothing commits nothing.
func (a *App) Apply(ctx context.Context, name string, m Mutator) (*model.Snapshot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.userID == "" {
		return nil, ErrNoSession
	}

	prev := a.history.Current()

	next, err := m(prev)
	if err != nil {
		return nil, err
	}

	if next == prev || next.Equal(prev) {
		a.logger.Debug("mutation changed nothing", slog.String("action", name))
		return prev, nil
	}

	if !a.history.Commit(next) {
		return nil, fmt.Errorf("app: %s: %w", name, history.ErrNotHydrated)
	}

	a.logger.Debug("committed",
		slog.String("action", name),
		slog.Int("index", a.history.Index()),
	)

	a.persist(ctx, prev, next)
	a.recordGoalEvents(ctx, prev, next)
	a.prop.Dispatch(a.userID, prev, next)

	return next, nil
}

// Undo steps back one entry. The target is applied without a new commit
// and the inverse transition is propagated.
func (a *App) Undo(ctx context.Context) (*model.Snapshot, error) {
	return a.move(ctx, "undo", (*history.Stack).Undo)
}

// Redo steps forward one entry.
func (a *App) Redo(ctx context.Context) (*model.Snapshot, error) {
	return a.move(ctx, "redo", (*history.Stack).Redo)
}

func (a *App) move(ctx context.Context, name string, step func(*history.Stack) (history.Transition, error)) (*model.Snapshot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.userID == "" {
		return nil, ErrNoSession
	}

	tr, err := step(a.history)
	if err != nil {
		return nil, err
	}

	a.logger.Debug(name,
		slog.Int("index", a.history.Index()),
		slog.Int("len", a.history.Len()),
	)

	a.persist(ctx, tr.From, tr.To)
	a.prop.Dispatch(a.userID, tr.From, tr.To)

	return tr.To, nil
}

// CanUndo reports whether Undo would succeed.
func (a *App) CanUndo() bool {
	return a.history.CanUndo()
}

// CanRedo reports whether Redo would succeed.
func (a *App) CanRedo() bool {
	return a.history.CanRedo()
}

// persist writes the collections that differ between prev and next. Write
// failures are logged; in-memory state stays authoritative.
func (a *App) persist(ctx context.Context, prev, next *model.Snapshot) {
	changed := next.ChangedFrom(prev)
	at := a.now()

	if changed.Goals {
		a.logWriteErr("goals", a.local.SaveGoals(ctx, a.userID, next.Goals(), at))
	}

	if changed.ScheduleTasks {
		a.logWriteErr("schedule-tasks", a.local.SaveScheduleTasks(ctx, a.userID, next.ScheduleTasks(), at))
	}

	if changed.HabitItems {
		a.logWriteErr("habit-items", a.local.SaveHabitItems(ctx, a.userID, next.HabitItems()))
	}
}

func (a *App) logWriteErr(collection string, err error) {
	if err != nil {
		a.logger.Warn("local write failed, keeping in-memory state",
			slog.String("collection", collection),
			slog.String("error", err.Error()),
		)
	}
}

// Today returns the current calendar date.
func (a *App) Today() string {
	return model.DateOf(a.now())
}

// IDs returns the id generator used for new entities.
func (a *App) IDs() mutate.IDFunc {
	return a.ids
}

// Now returns the app clock's current time.
func (a *App) Now() time.Time {
	return a.now()
}
