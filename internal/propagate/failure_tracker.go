package propagate

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// failureThreshold is the consecutive failure count at which an entity is
// reported as persistently divergent.
const failureThreshold = 3

// Divergence describes an entity whose most recent remote write failed.
type Divergence struct {
	Key       string
	Failures  int
	LastError string
	LastAt    time.Time
}

// failureRecord tracks failures for a single entity.
type failureRecord struct {
	count   int
	lastErr string
	lastAt  time.Time
}

// failureTracker remembers which entities the remote store disagrees with.
// Thread-safe. A success clears the record.
type failureTracker struct {
	mu      sync.Mutex
	records map[string]*failureRecord
	logger  *slog.Logger
	nowFunc func() time.Time
}

func newFailureTracker(logger *slog.Logger) *failureTracker {
	return &failureTracker{
		records: make(map[string]*failureRecord),
		logger:  logger,
		nowFunc: time.Now,
	}
}

// recordFailure increments the failure counter for key.
func (ft *failureTracker) recordFailure(key, errMsg string) {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	rec, ok := ft.records[key]
	if !ok {
		rec = &failureRecord{}
		ft.records[key] = rec
	}

	rec.count++
	rec.lastErr = errMsg
	rec.lastAt = ft.nowFunc()

	if rec.count == failureThreshold {
		ft.logger.Warn("remote copy diverged after repeated failures",
			slog.String("entity", key),
			slog.Int("failures", rec.count),
			slog.String("last_error", errMsg),
		)
	}
}

// recordSuccess clears the failure record for key.
func (ft *failureTracker) recordSuccess(key string) {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	delete(ft.records, key)
}

// divergent lists all entities with an outstanding failure, sorted by key.
func (ft *failureTracker) divergent() []Divergence {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	out := make([]Divergence, 0, len(ft.records))
	for key, rec := range ft.records {
		out = append(out, Divergence{
			Key:       key,
			Failures:  rec.count,
			LastError: rec.lastErr,
			LastAt:    rec.lastAt,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })

	return out
}

func (ft *failureTracker) reset() {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	clear(ft.records)
}
