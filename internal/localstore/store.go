// Package localstore persists each user's entity collections to an on-device
// SQLite database. Every collection is stored whole under a logical key as
// the same JSON document the web client kept in local storage, so values
// written by older versions (bare arrays) stay readable next to the current
// {updatedAt, ...} envelopes.
//
// Reads never fail the caller: a missing, unreadable, or corrupt value is
// logged and treated as an empty collection. Writes are full-collection
// overwrites and return their error so the caller can log it; in-memory
// state stays authoritative either way.
package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	// Pure-Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"

	"github.com/tonimelisma/lifegoal-go/internal/model"
)

// Logical keys, one per collection. Memo keys are suffixed with the habit id.
const (
	KeyGoals         = "goals"
	KeyScheduleTasks = "schedule-tasks"
	KeyHabitItems    = "habits"
	keyMemoPrefix    = "memos:"
)

// Envelope field names.
const (
	fieldGoals = "goals"
	fieldTasks = "tasks"
	fieldMemos = "memos"
)

const (
	sqlGet = `SELECT value FROM collections WHERE user_id = ? AND key = ?`

	sqlPut = `INSERT INTO collections (user_id, key, value, written_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, key) DO UPDATE SET
		 value = excluded.value,
		 written_at = excluded.written_at`

	sqlDeleteUser = `DELETE FROM collections WHERE user_id = ?`
)

// Store is the sole reader and writer of the local database.
type Store struct {
	db      *sql.DB
	logger  *slog.Logger
	nowFunc func() time.Time
}

// Open opens (creating if needed) the SQLite database at dbPath and runs
// migrations. The database uses WAL mode with synchronous=FULL.
func Open(ctx context.Context, dbPath string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)"+
			"&_pragma=busy_timeout(5000)",
		dbPath,
	)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("localstore: opening database %s: %w", dbPath, err)
	}

	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("local store opened", slog.String("db_path", dbPath))

	return &Store{db: db, logger: logger, nowFunc: time.Now}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadGoals reads the goals collection. Envelopes written by this version
// carry an updatedAt; older bare arrays do not.
func (s *Store) LoadGoals(ctx context.Context, userID string) model.Collection[model.Goal] {
	return load[model.Goal](ctx, s, userID, KeyGoals, fieldGoals)
}

// LoadScheduleTasks reads the standalone habits collection.
func (s *Store) LoadScheduleTasks(ctx context.Context, userID string) model.Collection[model.Habit] {
	return load[model.Habit](ctx, s, userID, KeyScheduleTasks, fieldTasks)
}

// LoadHabitItems reads the habit board. It is always a bare array.
func (s *Store) LoadHabitItems(ctx context.Context, userID string) model.Collection[model.HabitItem] {
	return load[model.HabitItem](ctx, s, userID, KeyHabitItems, "items")
}

// LoadMemos reads the timer memos pinned on habitID.
func (s *Store) LoadMemos(ctx context.Context, userID, habitID string) model.Collection[model.Memo] {
	return load[model.Memo](ctx, s, userID, keyMemoPrefix+habitID, fieldMemos)
}

// SaveGoals overwrites the goals collection, stamped with at.
func (s *Store) SaveGoals(ctx context.Context, userID string, goals []model.Goal, at time.Time) error {
	data, err := encodeEnvelope(fieldGoals, goals, at)
	if err != nil {
		return err
	}

	return s.put(ctx, userID, KeyGoals, data)
}

// SaveScheduleTasks overwrites the standalone habits, stamped with at.
func (s *Store) SaveScheduleTasks(ctx context.Context, userID string, tasks []model.Habit, at time.Time) error {
	data, err := encodeEnvelope(fieldTasks, tasks, at)
	if err != nil {
		return err
	}

	return s.put(ctx, userID, KeyScheduleTasks, data)
}

// SaveHabitItems overwrites the habit board.
func (s *Store) SaveHabitItems(ctx context.Context, userID string, items []model.HabitItem) error {
	data, err := encodeArray(items)
	if err != nil {
		return err
	}

	return s.put(ctx, userID, KeyHabitItems, data)
}

// SaveMemos overwrites the memos of habitID, stamped with at.
func (s *Store) SaveMemos(ctx context.Context, userID, habitID string, memos []model.Memo, at time.Time) error {
	data, err := encodeEnvelope(fieldMemos, memos, at)
	if err != nil {
		return err
	}

	return s.put(ctx, userID, keyMemoPrefix+habitID, data)
}

// PutRaw stores an arbitrary value under key. Used to seed legacy layouts
// and by tests; normal writes go through the typed Save methods.
func (s *Store) PutRaw(ctx context.Context, userID, key string, value []byte) error {
	return s.put(ctx, userID, key, value)
}

// Forget deletes every collection stored for userID.
func (s *Store) Forget(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, sqlDeleteUser, userID); err != nil {
		return fmt.Errorf("localstore: deleting data for %s: %w", userID, err)
	}

	return nil
}

func load[T any](ctx context.Context, s *Store, userID, key, field string) model.Collection[T] {
	raw, err := s.get(ctx, userID, key)
	if err != nil {
		s.logger.Warn("reading local collection failed, treating as empty",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)

		return model.Collection[T]{}
	}

	c, format, err := decode[T](raw, field)
	if err != nil {
		s.logger.Warn("local collection is corrupt, treating as empty",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)

		return model.Collection[T]{}
	}

	s.logger.Debug("local collection loaded",
		slog.String("key", key),
		slog.String("format", format.String()),
		slog.Int("items", len(c.Items)),
	)

	return c
}

func (s *Store) get(ctx context.Context, userID, key string) ([]byte, error) {
	var value []byte

	err := s.db.QueryRowContext(ctx, sqlGet, userID, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("localstore: reading %s: %w", key, err)
	}

	return value, nil
}

func (s *Store) put(ctx context.Context, userID, key string, value []byte) error {
	if userID == "" {
		return fmt.Errorf("localstore: writing %s: empty user id", key)
	}

	if _, err := s.db.ExecContext(ctx, sqlPut, userID, key, value, s.nowFunc().UnixMilli()); err != nil {
		return fmt.Errorf("localstore: writing %s: %w", key, err)
	}

	return nil
}
