package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/lifegoal-go/internal/app"
	"github.com/tonimelisma/lifegoal-go/internal/auth"
	"github.com/tonimelisma/lifegoal-go/internal/config"
	"github.com/tonimelisma/lifegoal-go/internal/history"
	"github.com/tonimelisma/lifegoal-go/internal/model"
	"github.com/tonimelisma/lifegoal-go/internal/propagate"
	"github.com/tonimelisma/lifegoal-go/internal/reconcile"
)

// testEnv writes a local-only config under a temp dir and clears the
// environment overrides. It returns the config path.
func testEnv(t *testing.T) string {
	t.Helper()

	for _, k := range []string{config.EnvConfig, config.EnvDB, config.EnvRemoteURL, config.EnvRemoteKey, config.EnvAIKey} {
		t.Setenv(k, "")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `[storage]
db_path = "` + filepath.ToSlash(filepath.Join(dir, "data", "lifegoal.db")) + `"
session_path = "` + filepath.ToSlash(filepath.Join(dir, "data", "session.json")) + `"

[remote]
enabled = false

[logging]
log_level = "error"
log_format = "text"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

// runCLI executes one command line and returns what it wrote to stdout.
func runCLI(t *testing.T, in string, args ...string) (string, error) {
	t.Helper()
	resetFlags(t)

	root := newRootCmd()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(in))
	root.SetArgs(args)

	err := root.ExecuteContext(t.Context())

	return out.String(), err
}

func TestCLI_LoginGoalExportLogout(t *testing.T) {
	cfgPath := testEnv(t)

	_, err := runCLI(t, "", "--config", cfgPath, "-q", "login", "--user", "u1", "--email", "u1@example.com")
	require.NoError(t, err)

	out, err := runCLI(t, "", "--config", cfgPath, "--json", "whoami")
	require.NoError(t, err)

	var who whoamiOutput
	require.NoError(t, json.Unmarshal([]byte(out), &who))
	assert.Equal(t, whoamiOutput{ID: "u1", Email: "u1@example.com"}, who)

	out, err = runCLI(t, "", "--config", cfgPath, "-q", "goal", "add", "Run a marathon", "--aspect", "Health", "--milestone", "Run 10k")
	require.NoError(t, err)
	goalID := strings.TrimSpace(out)
	require.NotEmpty(t, goalID)

	out, err = runCLI(t, "", "--config", cfgPath, "--json", "goal", "list")
	require.NoError(t, err)

	var goals []model.Goal
	require.NoError(t, json.Unmarshal([]byte(out), &goals))
	require.Len(t, goals, 1)
	assert.Equal(t, goalID, goals[0].ID)
	assert.Equal(t, "Run 10k", goals[0].Milestones[0].Title)

	out, err = runCLI(t, "", "--config", cfgPath, "export", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "title: Run a marathon")
	assert.Contains(t, out, "scheduleTasks:")

	_, err = runCLI(t, "", "--config", cfgPath, "-q", "logout")
	require.NoError(t, err)

	_, err = runCLI(t, "", "--config", cfgPath, "whoami")
	assert.ErrorIs(t, err, auth.ErrSignedOut)
}

func TestCLI_DataSurvivesAcrossInvocations(t *testing.T) {
	cfgPath := testEnv(t)

	_, err := runCLI(t, "", "--config", cfgPath, "-q", "login", "--user", "u1")
	require.NoError(t, err)

	out, err := runCLI(t, "", "--config", cfgPath, "-q", "task", "add", "Stretch", "--time", "07:00")
	require.NoError(t, err)
	taskID := strings.TrimSpace(out)

	_, err = runCLI(t, "", "--config", cfgPath, "-q", "habit", "toggle", taskID, "--date", "2024-01-01")
	require.NoError(t, err)

	out, err = runCLI(t, "", "--config", cfgPath, "--json", "task", "list", "--date", "2024-01-01")
	require.NoError(t, err)

	var entries []scheduleEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"2024-01-01"}, entries[0].Habit.CompletedDates)
	assert.Equal(t, 1, entries[0].Habit.Streak)
}

func TestCLI_UndoOutsideShell(t *testing.T) {
	cfgPath := testEnv(t)

	_, err := runCLI(t, "", "--config", cfgPath, "-q", "login", "--user", "u1")
	require.NoError(t, err)

	_, err = runCLI(t, "", "--config", cfgPath, "-q", "undo")
	assert.ErrorIs(t, err, history.ErrNothingToUndo)
}

func TestCLI_SignedOutCommandFails(t *testing.T) {
	cfgPath := testEnv(t)

	_, err := runCLI(t, "", "--config", cfgPath, "goal", "list")
	assert.ErrorIs(t, err, auth.ErrSignedOut)
}

func TestCLI_ConfigShowRedactsSecrets(t *testing.T) {
	cfgPath := testEnv(t)
	t.Setenv(config.EnvAIKey, "secret-key")

	out, err := runCLI(t, "", "--config", cfgPath, "config", "show")
	require.NoError(t, err)
	assert.NotContains(t, out, "secret-key")
}

func TestCLI_ExportRejectsUnknownFormat(t *testing.T) {
	cfgPath := testEnv(t)

	_, err := runCLI(t, "", "--config", cfgPath, "export", "--format", "xml")
	assert.ErrorContains(t, err, "--format")
}

func TestScheduleFor(t *testing.T) {
	snap := model.NewSnapshot(
		[]model.Goal{{
			ID: "g1",
			Habits: []model.Habit{
				{ID: "h-late", Title: "Read", TimeOfDay: "21:00"},
				{ID: "h-ended", Title: "Old", EndDate: "2023-12-31"},
			},
		}},
		[]model.Habit{
			{ID: "t-untimed", Title: "Tidy"},
			{ID: "t-early", Title: "Stretch", TimeOfDay: "07:00"},
			{ID: "t-future", Title: "Later", StartDate: "2024-02-01"},
		},
		nil,
	)

	entries := scheduleFor(snap, "2024-01-01")

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.Habit.ID)
	}

	assert.Equal(t, []string{"t-early", "h-late", "t-untimed"}, ids)
	assert.Equal(t, "g1", entries[1].GoalID)
	assert.Empty(t, entries[0].GoalID)
}

func TestMemoSummary(t *testing.T) {
	assert.Equal(t, "bring water", memoSummary(model.Memo{Kind: model.MemoText, Text: "bring water"}))

	list := model.Memo{Kind: model.MemoChecklist, Items: []model.ChecklistEntry{
		{Text: "warm up", Done: true},
		{Text: "cool down"},
	}}
	assert.Equal(t, "[x] warm up; [ ] cool down", memoSummary(list))
}

func TestStatusJSON(t *testing.T) {
	at := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	out := statusJSON(app.Status{
		UserID:        "u1",
		RemoteEnabled: true,
		Sources:       reconcile.Sources{Goals: reconcile.SourceRemote, ScheduleTasks: reconcile.SourceLocal},
		GoalsAt:       at,
		RemoteErr:     errors.New("offline"),
		Goals:         2,
		HistoryIndex:  1,
		HistoryLen:    3,
		Divergent:     []propagate.Divergence{{Key: "goals", Failures: 3, LastError: "503", LastAt: at}},
	})

	assert.Equal(t, "u1", out.User)
	assert.Equal(t, "offline", out.RemoteError)
	assert.Equal(t, sourceOutput{Count: 2, Source: "remote", UpdatedAt: &at}, out.Goals)
	assert.Equal(t, "local", out.ScheduleTasks.Source)
	assert.Nil(t, out.ScheduleTasks.UpdatedAt)
	assert.Equal(t, historyOutput{Index: 1, Len: 3}, out.History)
	require.Len(t, out.Divergent, 1)
	assert.Equal(t, "goals", out.Divergent[0].Entity)
}

func TestWriteExport(t *testing.T) {
	data := model.SnapshotData{
		Goals:         []model.Goal{{ID: "g1", Title: "Read", Milestones: []model.Milestone{}, Habits: []model.Habit{}}},
		ScheduleTasks: []model.Habit{},
		HabitItems:    []model.HabitItem{{ID: "i1", Title: "No sugar", Type: model.Bad, CompletedDates: []string{}}},
	}

	var js bytes.Buffer
	require.NoError(t, writeExport(&js, data, formatJSON))

	var back model.SnapshotData
	require.NoError(t, json.Unmarshal(js.Bytes(), &back))
	assert.Equal(t, data, back)

	var ym bytes.Buffer
	require.NoError(t, writeExport(&ym, data, formatYAML))
	assert.Contains(t, ym.String(), "habitItems:")
	assert.Contains(t, ym.String(), "completedDates: []")
	assert.Contains(t, ym.String(), "type: bad")
}
