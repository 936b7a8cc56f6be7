package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/lifegoal-go/internal/app"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the session, data sources, and unsynced changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(_ context.Context, cc *CLIContext, s *session) error {
				st, err := s.app.Status()
				if err != nil {
					return err
				}

				if cc.Flags.JSON {
					return printJSON(cmd.OutOrStdout(), statusJSON(st))
				}

				printStatus(cmd, st)

				return nil
			})
		},
	}
}

// statusOutput is the JSON schema for `status --json`.
type statusOutput struct {
	User          string             `json:"user"`
	Remote        bool               `json:"remote"`
	RemoteError   string             `json:"remote_error,omitempty"`
	Goals         sourceOutput       `json:"goals"`
	ScheduleTasks sourceOutput       `json:"schedule_tasks"`
	HabitItems    int                `json:"habit_items"`
	History       historyOutput      `json:"history"`
	Divergent     []divergenceOutput `json:"divergent"`
}

type sourceOutput struct {
	Count     int        `json:"count"`
	Source    string     `json:"source"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type historyOutput struct {
	Index int `json:"index"`
	Len   int `json:"len"`
}

type divergenceOutput struct {
	Entity    string    `json:"entity"`
	Failures  int       `json:"failures"`
	LastError string    `json:"last_error"`
	LastAt    time.Time `json:"last_at"`
}

func optTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}

	return &t
}

func statusJSON(st app.Status) statusOutput {
	out := statusOutput{
		User:          st.UserID,
		Remote:        st.RemoteEnabled,
		Goals:         sourceOutput{Count: st.Goals, Source: st.Sources.Goals.String(), UpdatedAt: optTime(st.GoalsAt)},
		ScheduleTasks: sourceOutput{Count: st.ScheduleTasks, Source: st.Sources.ScheduleTasks.String(), UpdatedAt: optTime(st.TasksAt)},
		HabitItems:    st.HabitItems,
		History:       historyOutput{Index: st.HistoryIndex, Len: st.HistoryLen},
		Divergent:     make([]divergenceOutput, 0, len(st.Divergent)),
	}

	if st.RemoteErr != nil {
		out.RemoteError = st.RemoteErr.Error()
	}

	for _, d := range st.Divergent {
		out.Divergent = append(out.Divergent, divergenceOutput{
			Entity:    d.Key,
			Failures:  d.Failures,
			LastError: d.LastError,
			LastAt:    d.LastAt,
		})
	}

	return out
}

func printStatus(cmd *cobra.Command, st app.Status) {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "User:   %s\n", st.UserID)

	switch {
	case !st.RemoteEnabled:
		fmt.Fprintln(w, "Remote: disabled (local only)")
	case st.RemoteErr != nil:
		fmt.Fprintf(w, "Remote: unreachable at start (%v)\n", st.RemoteErr)
	default:
		fmt.Fprintln(w, "Remote: connected")
	}

	fmt.Fprintln(w)
	printTable(w, []string{"COLLECTION", "COUNT", "SOURCE", "UPDATED"}, [][]string{
		{"goals", fmt.Sprintf("%d", st.Goals), st.Sources.Goals.String(), formatTime(st.GoalsAt)},
		{"schedule-tasks", fmt.Sprintf("%d", st.ScheduleTasks), st.Sources.ScheduleTasks.String(), formatTime(st.TasksAt)},
		{"habits", fmt.Sprintf("%d", st.HabitItems), "local", "-"},
	})

	if len(st.Divergent) == 0 {
		return
	}

	fmt.Fprintln(w, "\nUnsynced:")

	rows := make([][]string, 0, len(st.Divergent))
	for _, d := range st.Divergent {
		rows = append(rows, []string{d.Key, fmt.Sprintf("%d", d.Failures), d.LastError})
	}

	printTable(w, []string{"ENTITY", "FAILURES", "LAST ERROR"}, rows)
}
