package propagate

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailureTracker_CountsAndClears(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	ft := newFailureTracker(logger)

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	ft.nowFunc = func() time.Time { return now }

	for range failureThreshold {
		ft.recordFailure("goal/g1", "HTTP 503")
	}

	ft.recordFailure("task/t1", "timeout")

	div := ft.divergent()
	require.Len(t, div, 2)
	assert.Equal(t, Divergence{Key: "goal/g1", Failures: failureThreshold, LastError: "HTTP 503", LastAt: now}, div[0])
	assert.Equal(t, "task/t1", div[1].Key)

	ft.recordSuccess("goal/g1")
	require.Len(t, ft.divergent(), 1)

	ft.reset()
	assert.Empty(t, ft.divergent())
}
