package propagate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tonimelisma/lifegoal-go/internal/model"
)

// Default limits.
const (
	DefaultWorkers     = 8
	DefaultMaxInFlight = 4
)

// Remote is the subset of the remote store the propagator writes to.
type Remote interface {
	UpsertGoal(ctx context.Context, userID string, g model.Goal) error
	DeleteGoal(ctx context.Context, userID, goalID string) error
	UpsertScheduleTask(ctx context.Context, userID string, task model.Habit) error
	DeleteScheduleTask(ctx context.Context, userID, taskID string) error
}

// Config bounds the propagator's concurrency.
type Config struct {
	// Workers caps concurrent remote calls within one batch.
	Workers int
	// MaxInFlight caps concurrently running batches. Further transitions
	// wait until a batch finishes.
	MaxInFlight int
	// Coalesce collapses waiting transitions of the same user into one,
	// from the oldest previous snapshot to the newest next snapshot.
	Coalesce bool
}

// BatchError aggregates every failed call of one batch.
type BatchError struct {
	Attempted int
	Failed    int
	Err       error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("propagate: %d of %d remote calls failed: %v", e.Failed, e.Attempted, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

type transition struct {
	userID string
	prev   *model.Snapshot
	next   *model.Snapshot
}

// Propagator dispatches transitions to the remote store as detached
// batches. Local state is never blocked on it; failures are logged and
// tracked per entity.
type Propagator struct {
	remote  Remote
	cfg     Config
	logger  *slog.Logger
	tracker *failureTracker

	mu       sync.Mutex
	inFlight int
	waiting  []transition
	idle     chan struct{} // closed when inFlight drops to zero
	ctx      context.Context
	cancel   context.CancelFunc

	// onBatch, when set, is called after every detached batch. Tests use
	// it to observe results.
	onBatch func(plan Plan, err error)
}

// New creates a Propagator. Zero config fields take the defaults.
func New(remote Remote, cfg Config, logger *slog.Logger) *Propagator {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}

	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = DefaultMaxInFlight
	}

	ctx, cancel := context.WithCancel(context.Background())

	idle := make(chan struct{})
	close(idle)

	return &Propagator{
		remote:  remote,
		cfg:     cfg,
		logger:  logger,
		tracker: newFailureTracker(logger),
		idle:    idle,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Push sends plan for userID as one batch and waits for it. Every call is
// attempted regardless of the others; all failures come back as a
// *BatchError.
func (p *Propagator) Push(ctx context.Context, userID string, plan Plan) error {
	if plan.Empty() {
		return nil
	}

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)

	g.SetLimit(p.cfg.Workers)

	run := func(key string, call func() error) {
		g.Go(func() error {
			if err := call(); err != nil {
				p.tracker.recordFailure(key, err.Error())

				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()

				return nil
			}

			p.tracker.recordSuccess(key)

			return nil
		})
	}

	for _, id := range plan.GoalDeletes {
		run("goal/"+id, func() error { return p.remote.DeleteGoal(ctx, userID, id) })
	}

	for _, goal := range plan.GoalUpserts {
		run("goal/"+goal.ID, func() error { return p.remote.UpsertGoal(ctx, userID, goal) })
	}

	for _, id := range plan.TaskDeletes {
		run("task/"+id, func() error { return p.remote.DeleteScheduleTask(ctx, userID, id) })
	}

	for _, task := range plan.TaskUpserts {
		run("task/"+task.ID, func() error { return p.remote.UpsertScheduleTask(ctx, userID, task) })
	}

	_ = g.Wait()

	if len(errs) == 0 {
		return nil
	}

	return &BatchError{Attempted: plan.Len(), Failed: len(errs), Err: errors.Join(errs...)}
}

// Dispatch propagates the transition prev -> next for userID without
// waiting. Batches run concurrently up to MaxInFlight; beyond that the
// transition waits, and with Coalesce it is merged into the last waiting
// transition of the same user.
func (p *Propagator) Dispatch(userID string, prev, next *model.Snapshot) {
	t := transition{userID: userID, prev: prev, next: next}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.inFlight < p.cfg.MaxInFlight {
		p.startLocked(t)
		return
	}

	if p.cfg.Coalesce && len(p.waiting) > 0 {
		last := &p.waiting[len(p.waiting)-1]
		if last.userID == userID {
			last.next = next

			p.logger.Debug("coalesced propagation",
				slog.String("user", userID),
				slog.Int("in_flight", p.inFlight),
			)

			return
		}
	}

	p.waiting = append(p.waiting, t)
}

// startLocked launches a batch. Caller holds p.mu.
func (p *Propagator) startLocked(t transition) {
	if p.inFlight == 0 {
		p.idle = make(chan struct{})
	}

	p.inFlight++

	go p.run(t)
}

func (p *Propagator) run(t transition) {
	for {
		plan := Diff(t.prev, t.next)
		start := time.Now()

		err := p.Push(p.ctx, t.userID, plan)
		if err != nil {
			p.logger.Warn("propagation batch failed",
				slog.String("user", t.userID),
				slog.Int("calls", plan.Len()),
				slog.Duration("elapsed", time.Since(start)),
				slog.String("error", err.Error()),
			)
		} else if !plan.Empty() {
			p.logger.Debug("propagation batch succeeded",
				slog.String("user", t.userID),
				slog.Int("calls", plan.Len()),
				slog.Duration("elapsed", time.Since(start)),
			)
		}

		if p.onBatch != nil {
			p.onBatch(plan, err)
		}

		p.mu.Lock()

		if len(p.waiting) > 0 {
			t = p.waiting[0]
			p.waiting = p.waiting[1:]
			p.mu.Unlock()

			continue
		}

		p.inFlight--
		if p.inFlight == 0 {
			close(p.idle)
		}

		p.mu.Unlock()

		return
	}
}

// Drain waits until no batch is running or waiting, or ctx is done.
func (p *Propagator) Drain(ctx context.Context) error {
	p.mu.Lock()
	idle := p.idle
	p.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("propagate: draining: %w", ctx.Err())
	}
}

// Close cancels running batches and drops waiting ones.
func (p *Propagator) Close() {
	p.mu.Lock()
	p.waiting = nil
	p.mu.Unlock()

	p.cancel()
}

// InFlight returns the number of running batches and waiting transitions.
func (p *Propagator) InFlight() (running, waiting int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.inFlight, len(p.waiting)
}

// Divergent lists entities whose last remote write failed.
func (p *Propagator) Divergent() []Divergence {
	return p.tracker.divergent()
}

// Forget clears divergence tracking, for example on sign-out.
func (p *Propagator) Forget() {
	p.tracker.reset()
}
