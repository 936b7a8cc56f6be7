package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/tonimelisma/lifegoal-go/internal/history"
)

const shellPrompt = "lifegoal> "

// errUnterminatedQuote is returned by splitArgs for a line with an open quote.
var errUnterminatedQuote = errors.New("unterminated quote")

func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Run commands against one session, with undo and redo",
		Long: `Start an interactive session. Every line is a lifegoal-go command
without the program name. Undo and redo work across lines for as long as the
shell runs. Type "exit" or "quit" (or send EOF) to leave. Ctrl-C also
leaves after pending remote writes finish; a second Ctrl-C exits at once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			s, err := openSession(cmd.Context(), cc.Cfg, cc.Logger)
			if err != nil {
				return err
			}

			cc.Session = s
			defer func() { cc.Session = nil }()

			watchCtx, stopWatch := context.WithCancel(cmd.Context())
			watchDone := make(chan struct{})

			go func() {
				defer close(watchDone)

				if err := s.app.Watch(watchCtx); err != nil {
					cc.Logger.Warn("auth watch stopped", slog.String("error", err.Error()))
				}
			}()

			shellCtx, stop := interruptContext(cmd.Context(), cc.Logger)
			defer stop()

			interactive := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
			runErr := runShell(shellCtx, cc, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), interactive)

			stopWatch()
			<-watchDone

			return errors.Join(runErr, s.close())
		},
	}
}

// runShell reads commands from in until EOF, exit, or ctx is canceled.
// Command errors are printed and the loop continues; only a read failure
// ends it with an error.
func runShell(ctx context.Context, cc *CLIContext, in io.Reader, out, errOut io.Writer, prompt bool) error {
	lines, readErr := readLines(ctx, in)

	for {
		if prompt {
			fmt.Fprint(out, shellPrompt)
		}

		var (
			line string
			ok   bool
		)

		select {
		case <-ctx.Done():
			return nil
		case line, ok = <-lines:
		}

		if !ok {
			break
		}

		args, err := splitArgs(line)
		if err != nil {
			fmt.Fprintf(errOut, "Error: %s\n", err)
			continue
		}

		if len(args) == 0 {
			continue
		}

		switch args[0] {
		case "exit", "quit":
			return nil
		case "shell":
			fmt.Fprintln(errOut, "Error: already in a shell")
			continue
		}

		if err := runShellLine(ctx, cc, args, out, errOut); err != nil {
			fmt.Fprintf(errOut, "Error: %s\n", describeShellError(err))
		}
	}

	if err := <-readErr; err != nil {
		return fmt.Errorf("reading shell input: %w", err)
	}

	return nil
}

// readLines scans in on its own goroutine so the shell can stop on an
// interrupt while waiting for input. The error channel holds the scan
// result, or nil, by the time lines is closed.
func readLines(ctx context.Context, in io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)

	go func() {
		defer close(lines)
		defer close(errc)

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}

		errc <- scanner.Err()
	}()

	return lines, errc
}

func runShellLine(ctx context.Context, cc *CLIContext, args []string, out, errOut io.Writer) error {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)

	return root.ExecuteContext(withCLIContext(ctx, cc))
}

// describeShellError drops the hint about starting a shell from history
// errors, which only makes sense outside one.
func describeShellError(err error) string {
	if errors.Is(err, history.ErrNothingToUndo) || errors.Is(err, history.ErrNothingToRedo) {
		return err.Error()
	}

	return describeError(err)
}

// splitArgs splits a shell line into words. Single and double quotes group
// words, and a backslash escapes the next character outside single quotes.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)

	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
			inWord = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inWord = true
		case r == ' ' || r == '\t':
			if inWord {
				args = append(args, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}

	if quote != 0 || escaped {
		return nil, errUnterminatedQuote
	}

	if inWord {
		args = append(args, cur.String())
	}

	return args, nil
}
