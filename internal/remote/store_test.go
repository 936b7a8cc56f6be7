package remote

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/lifegoal-go/internal/model"
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

func newTestStore(t *testing.T, h http.HandlerFunc) *Store {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return NewStore(newTestClient(t, srv.URL), testLogger(t))
}

func TestFetchGoals_LatestInstant(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1/app_goals", r.URL.Path)
		assert.Equal(t, "eq.u1", r.URL.Query().Get("user_id"))
		assert.Equal(t, "created_at.desc", r.URL.Query().Get("order"))

		_, _ = w.Write([]byte(`[
			{"payload":{"id":"g2","title":"Run","progress":50},"updated_at":"2024-01-02T10:00:00Z"},
			{"payload":"garbage","updated_at":"2024-03-01T00:00:00Z"},
			{"payload":{"id":"g1","title":"Read","progress":0},"updated_at":"2024-01-03T08:30:00Z"}
		]`))
	})

	c, err := s.FetchGoals(context.Background(), "u1")
	require.NoError(t, err)

	require.Len(t, c.Items, 2)
	assert.Equal(t, "g2", c.Items[0].ID)
	assert.Equal(t, "g1", c.Items[1].ID)
	assert.True(t, c.UpdatedAt.Equal(time.Date(2024, 1, 3, 8, 30, 0, 0, time.UTC)))
}

func TestFetchScheduleTasks_EmptyHasUnknownInstant(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	c, err := s.FetchScheduleTasks(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, c.Empty())
	assert.False(t, c.Known())
}

func TestFetch_ServerErrorPropagates(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"JWT expired"}`))
	})

	_, err := s.FetchScheduleTasks(context.Background(), "u1")
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "JWT expired")
}

func TestUpsertGoal_SendsMergeRow(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/app_goals", r.URL.Path)
		assert.Equal(t, "id", r.URL.Query().Get("on_conflict"))
		assert.Contains(t, r.Header.Get("Prefer"), "resolution=merge-duplicates")

		b, err := io.ReadAll(r.Body)
		assert.NoError(t, err)

		var rows []struct {
			ID       string     `json:"id"`
			UserID   string     `json:"user_id"`
			Title    string     `json:"title"`
			Progress int        `json:"progress"`
			Payload  model.Goal `json:"payload"`
		}
		assert.NoError(t, json.Unmarshal(b, &rows))
		if !assert.Len(t, rows, 1) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		assert.Equal(t, "g1", rows[0].ID)
		assert.Equal(t, "u1", rows[0].UserID)
		assert.Equal(t, "Learn Go", rows[0].Title)
		assert.Equal(t, 40, rows[0].Progress)
		assert.Equal(t, "g1", rows[0].Payload.ID)

		w.WriteHeader(http.StatusCreated)
	})

	err := s.UpsertGoal(context.Background(), "u1", model.Goal{ID: "g1", Title: "Learn Go", Progress: 40})
	require.NoError(t, err)
}

func TestDeleteScheduleTask_FiltersByUser(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/rest/v1/app_schedule_tasks", r.URL.Path)
		assert.Equal(t, "eq.t1", r.URL.Query().Get("id"))
		assert.Equal(t, "eq.u1", r.URL.Query().Get("user_id"))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, s.DeleteScheduleTask(context.Background(), "u1", "t1"))
}

func TestMemos(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/app_timer_memos", r.URL.Path)
		assert.Equal(t, "eq.h1", r.URL.Query().Get("habit_id"))

		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "created_at.asc", r.URL.Query().Get("order"))
			_, _ = w.Write([]byte(`[{"payload":{"id":"m1","kind":"text","text":"hi","x":1,"y":2},"updated_at":"2024-01-01T00:00:00Z"}]`))
		case http.MethodDelete:
			assert.Equal(t, "eq.m1", r.URL.Query().Get("id"))
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	})

	ctx := context.Background()

	memos, err := s.FetchMemos(ctx, "u1", "h1")
	require.NoError(t, err)
	require.Len(t, memos, 1)
	assert.Equal(t, "hi", memos[0].Text)

	require.NoError(t, s.DeleteMemo(ctx, "u1", "h1", "m1"))
}

func TestRecords(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/records", r.URL.Path)

		switch r.Method {
		case http.MethodPost:
			var rec map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&rec))
			assert.Equal(t, RecordGoalCreated, rec["type"])
			assert.Equal(t, "u1", rec["user_id"])
			w.WriteHeader(http.StatusCreated)
		case http.MethodGet:
			_, _ = w.Write([]byte(`[{"id":"r1","user_id":"u1","type":"goal_created","data":{"goalId":"g1"},"created_at":"2024-01-01T00:00:00Z"}]`))
		}
	})

	ctx := context.Background()

	require.NoError(t, s.InsertRecord(ctx, "u1", RecordGoalCreated, map[string]string{"goalId": "g1"}))

	recs, err := s.ListRecords(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "goal_created", recs[0].Type)
	assert.JSONEq(t, `{"goalId":"g1"}`, string(recs[0].Data))
}

func TestDisabledStore(t *testing.T) {
	t.Parallel()

	s := Disabled()
	ctx := context.Background()

	assert.False(t, s.Enabled())

	goals, err := s.FetchGoals(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, goals.Empty())

	require.NoError(t, s.UpsertGoal(ctx, "u1", model.Goal{ID: "g"}))
	require.NoError(t, s.DeleteScheduleTask(ctx, "u1", "t"))
	require.NoError(t, s.InsertRecord(ctx, "u1", RecordGoalDeleted, nil))

	recs, err := s.ListRecords(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestStore_RequiresUser(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected")
	})

	assert.ErrorIs(t, s.UpsertScheduleTask(context.Background(), "", model.Habit{ID: "t"}), ErrNoUser)

	_, err := s.FetchGoals(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoUser)
}
