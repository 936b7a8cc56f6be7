package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/tonimelisma/lifegoal-go/internal/model"
)

// Table names.
const (
	tableGoals   = "app_goals"
	tableTasks   = "app_schedule_tasks"
	tableMemos   = "app_timer_memos"
	tableRecords = "records"
)

const preferMerge = "resolution=merge-duplicates,return=minimal"

// Activity record kinds.
const (
	RecordGoalCreated = "goal_created"
	RecordGoalUpdated = "goal_updated"
	RecordGoalDeleted = "goal_deleted"
)

// Record is one entry of the user's activity log.
type Record struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

// Store reads and writes a user's collections on the backend. A Store
// without a client is disabled: fetches return empty collections and
// writes succeed without doing anything.
type Store struct {
	client *Client
	logger *slog.Logger
}

// NewStore wraps client. A nil client yields a disabled store.
func NewStore(client *Client, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{client: client, logger: logger}
}

// Disabled returns a store that never talks to the network.
func Disabled() *Store {
	return &Store{logger: slog.Default()}
}

// Enabled reports whether the store is backed by a client.
func (s *Store) Enabled() bool {
	return s != nil && s.client != nil
}

type payloadRow struct {
	Payload   json.RawMessage `json:"payload"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// FetchGoals returns the user's goals, newest first, and the latest
// updated_at across them.
func (s *Store) FetchGoals(ctx context.Context, userID string) (model.Collection[model.Goal], error) {
	return fetchCollection[model.Goal](ctx, s, tableGoals, userID)
}

// FetchScheduleTasks returns the user's standalone habits, newest first,
// and the latest updated_at across them.
func (s *Store) FetchScheduleTasks(ctx context.Context, userID string) (model.Collection[model.Habit], error) {
	return fetchCollection[model.Habit](ctx, s, tableTasks, userID)
}

// UpsertGoal creates or replaces one goal row.
func (s *Store) UpsertGoal(ctx context.Context, userID string, g model.Goal) error {
	row := map[string]any{
		"id":       g.ID,
		"user_id":  userID,
		"title":    g.Title,
		"aspect":   g.Aspect,
		"progress": g.Progress,
		"payload":  g,
	}

	return s.upsert(ctx, tableGoals, userID, row)
}

// DeleteGoal removes one goal row.
func (s *Store) DeleteGoal(ctx context.Context, userID, goalID string) error {
	return s.delete(ctx, tableGoals, userID, url.Values{"id": {"eq." + goalID}})
}

// UpsertScheduleTask creates or replaces one schedule task row.
func (s *Store) UpsertScheduleTask(ctx context.Context, userID string, task model.Habit) error {
	row := map[string]any{
		"id":      task.ID,
		"user_id": userID,
		"payload": task,
	}

	return s.upsert(ctx, tableTasks, userID, row)
}

// DeleteScheduleTask removes one schedule task row.
func (s *Store) DeleteScheduleTask(ctx context.Context, userID, taskID string) error {
	return s.delete(ctx, tableTasks, userID, url.Values{"id": {"eq." + taskID}})
}

// FetchMemos returns the memos pinned on habitID, oldest first.
func (s *Store) FetchMemos(ctx context.Context, userID, habitID string) ([]model.Memo, error) {
	if !s.Enabled() {
		return nil, nil
	}

	q := url.Values{
		"select":   {"payload,updated_at"},
		"user_id":  {"eq." + userID},
		"habit_id": {"eq." + habitID},
		"order":    {"created_at.asc"},
	}

	c, err := fetchRows[model.Memo](ctx, s, tableMemos, userID, q)
	if err != nil {
		return nil, err
	}

	return c.Items, nil
}

// UpsertMemo creates or replaces one memo on habitID.
func (s *Store) UpsertMemo(ctx context.Context, userID, habitID string, m model.Memo) error {
	row := map[string]any{
		"id":       m.ID,
		"user_id":  userID,
		"habit_id": habitID,
		"payload":  m,
	}

	return s.upsert(ctx, tableMemos, userID, row)
}

// DeleteMemo removes one memo from habitID.
func (s *Store) DeleteMemo(ctx context.Context, userID, habitID, memoID string) error {
	return s.delete(ctx, tableMemos, userID, url.Values{
		"id":       {"eq." + memoID},
		"habit_id": {"eq." + habitID},
	})
}

// InsertRecord appends an activity record. data is stored as JSON.
func (s *Store) InsertRecord(ctx context.Context, userID, kind string, data any) error {
	if !s.Enabled() {
		return nil
	}

	if userID == "" {
		return ErrNoUser
	}

	body, err := json.Marshal(map[string]any{
		"user_id": userID,
		"type":    kind,
		"data":    data,
	})
	if err != nil {
		return fmt.Errorf("remote: encoding record: %w", err)
	}

	resp, err := s.client.Do(ctx, http.MethodPost, tableRecords, nil, body, "return=minimal")
	if err != nil {
		return fmt.Errorf("remote: inserting %s record: %w", kind, err)
	}

	drain(resp)

	return nil
}

// ListRecords returns the user's activity records, newest first.
func (s *Store) ListRecords(ctx context.Context, userID string) ([]Record, error) {
	if !s.Enabled() {
		return nil, nil
	}

	if userID == "" {
		return nil, ErrNoUser
	}

	q := url.Values{
		"select":  {"*"},
		"user_id": {"eq." + userID},
		"order":   {"created_at.desc"},
	}

	resp, err := s.client.Do(ctx, http.MethodGet, tableRecords, q, nil, "")
	if err != nil {
		return nil, fmt.Errorf("remote: listing records: %w", err)
	}
	defer resp.Body.Close()

	var records []Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("remote: decoding records: %w", err)
	}

	return records, nil
}

func fetchCollection[T any](ctx context.Context, s *Store, table, userID string) (model.Collection[T], error) {
	if !s.Enabled() {
		return model.Collection[T]{}, nil
	}

	q := url.Values{
		"select":  {"payload,updated_at"},
		"user_id": {"eq." + userID},
		"order":   {"created_at.desc"},
	}

	return fetchRows[T](ctx, s, table, userID, q)
}

// fetchRows reads payload rows. Rows whose payload does not decode are
// skipped and logged. UpdatedAt is the newest row instant, zero when the
// table has no rows for the user.
func fetchRows[T any](ctx context.Context, s *Store, table, userID string, q url.Values) (model.Collection[T], error) {
	if userID == "" {
		return model.Collection[T]{}, ErrNoUser
	}

	resp, err := s.client.Do(ctx, http.MethodGet, table, q, nil, "")
	if err != nil {
		return model.Collection[T]{}, fmt.Errorf("remote: fetching %s: %w", table, err)
	}
	defer resp.Body.Close()

	var rows []payloadRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return model.Collection[T]{}, fmt.Errorf("remote: decoding %s: %w", table, err)
	}

	var c model.Collection[T]

	for i, row := range rows {
		var item T
		if err := json.Unmarshal(row.Payload, &item); err != nil {
			s.logger.Warn("skipping undecodable remote row",
				slog.String("table", table),
				slog.Int("row", i),
				slog.String("error", err.Error()),
			)

			continue
		}

		c.Items = append(c.Items, item)

		if row.UpdatedAt.After(c.UpdatedAt) {
			c.UpdatedAt = row.UpdatedAt
		}
	}

	s.logger.Debug("fetched remote collection",
		slog.String("table", table),
		slog.Int("rows", len(c.Items)),
	)

	return c, nil
}

func (s *Store) upsert(ctx context.Context, table, userID string, row map[string]any) error {
	if !s.Enabled() {
		return nil
	}

	if userID == "" {
		return ErrNoUser
	}

	body, err := json.Marshal([]map[string]any{row})
	if err != nil {
		return fmt.Errorf("remote: encoding %s row: %w", table, err)
	}

	resp, err := s.client.Do(ctx, http.MethodPost, table, url.Values{"on_conflict": {"id"}}, body, preferMerge)
	if err != nil {
		return fmt.Errorf("remote: upserting %s %v: %w", table, row["id"], err)
	}

	drain(resp)

	return nil
}

func (s *Store) delete(ctx context.Context, table, userID string, filter url.Values) error {
	if !s.Enabled() {
		return nil
	}

	if userID == "" {
		return ErrNoUser
	}

	filter.Set("user_id", "eq."+userID)

	resp, err := s.client.Do(ctx, http.MethodDelete, table, filter, nil, "")
	if err != nil {
		return fmt.Errorf("remote: deleting from %s (%s): %w", table, filter.Get("id"), err)
	}

	drain(resp)

	return nil
}

// drain discards and closes a response body so the connection is reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
