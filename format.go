package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/tonimelisma/lifegoal-go/internal/ai"
	"github.com/tonimelisma/lifegoal-go/internal/app"
	"github.com/tonimelisma/lifegoal-go/internal/auth"
	"github.com/tonimelisma/lifegoal-go/internal/history"
	"github.com/tonimelisma/lifegoal-go/internal/model"
	"github.com/tonimelisma/lifegoal-go/internal/remote"
)

// statusf prints a status message to stderr unless quiet mode is set.
func statusf(quiet bool, format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// Statusf prints a status message to stderr unless quiet mode is set.
func (cc *CLIContext) Statusf(format string, args ...any) {
	statusf(cc.Flags.Quiet, format, args...)
}

// describeError turns an error into the message shown to the user.
func describeError(err error) string {
	var svc *ai.ServiceError

	switch {
	case errors.Is(err, auth.ErrSignedOut):
		return "not signed in, run 'lifegoal-go login' first"
	case errors.Is(err, history.ErrNothingToUndo), errors.Is(err, history.ErrNothingToRedo):
		return err.Error() + " (history lives for one session, use 'lifegoal-go shell')"
	case errors.Is(err, remote.ErrUnauthorized):
		return "the backend rejected your session, sign in again"
	case errors.As(err, &svc), errors.Is(err, ai.ErrMissingCredential), errors.Is(err, ai.ErrEmptyResponse):
		return ai.UserMessage(err)
	case errors.Is(err, app.ErrNoSession):
		return "no active session"
	default:
		return err.Error()
	}
}

// formatTime returns a compact timestamp for display.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}

	now := time.Now()

	// Same calendar year: show "Jan  2 15:04"
	if t.Year() == now.Year() {
		return t.Local().Format("Jan _2 15:04")
	}

	return t.Local().Format("Jan _2  2006")
}

// formatDuration renders an optional minute count.
func formatDuration(minutes *int) string {
	if minutes == nil {
		return "-"
	}

	return fmt.Sprintf("%dm", *minutes)
}

// formatDone renders a completion checkbox.
func formatDone(done bool) string {
	if done {
		return "[x]"
	}

	return "[ ]"
}

// formatRange renders a habit's active date range.
func formatRange(start, end string) string {
	if start == "" && end == "" {
		return "-"
	}

	return orDash(start) + ".." + orDash(end)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}

// habitRow is one line of a habit table.
func habitRow(h model.Habit, today string) []string {
	return []string{
		h.ID,
		formatDone(h.CompletedOn(today)),
		h.Title,
		orDash(h.TimeOfDay),
		formatDuration(h.RecommendedDuration),
		fmt.Sprintf("%d", h.Streak),
		formatRange(h.StartDate, h.EndDate),
	}
}

var habitHeaders = []string{"ID", "TODAY", "TITLE", "TIME", "LENGTH", "STREAK", "ACTIVE"}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}

	return nil
}

// printTable writes aligned columns to the given writer.
// headers and each row must have the same length.
func printTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}

	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	printRow(w, headers, widths)

	for _, row := range rows {
		printRow(w, row, widths)
	}
}

// printRow writes a single padded row.
func printRow(w io.Writer, cells []string, widths []int) {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
	}

	fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
}
