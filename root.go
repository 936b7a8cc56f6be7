package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/tonimelisma/lifegoal-go/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagDBPath     string
	flagJSON       bool
	flagVerbose    bool
	flagDebug      bool
	flagQuiet      bool
	flagOffline    bool
)

// skipConfigAnnotation marks commands that run without resolving config.
const skipConfigAnnotation = "skipConfig"

// CLIFlags is a snapshot of the global flags taken once per invocation.
type CLIFlags struct {
	ConfigPath string
	JSON       bool
	Verbose    bool
	Debug      bool
	Quiet      bool
}

// CLIContext carries everything a subcommand needs: flags, the logger, the
// effective config, and (inside the shell) the running session.
type CLIContext struct {
	Flags   CLIFlags
	Logger  *slog.Logger
	Cfg     *config.Config
	CfgPath string
	Session *session
}

type cliContextKey struct{}

func withCLIContext(ctx context.Context, cc *CLIContext) context.Context {
	return context.WithValue(ctx, cliContextKey{}, cc)
}

func cliContextFrom(ctx context.Context) *CLIContext {
	if ctx == nil {
		return nil
	}

	cc, _ := ctx.Value(cliContextKey{}).(*CLIContext)

	return cc
}

// mustCLIContext returns the CLIContext installed by the root pre-run.
// Subcommands only run after it, so a missing context is a programming bug.
func mustCLIContext(ctx context.Context) *CLIContext {
	cc := cliContextFrom(ctx)
	if cc == nil {
		panic("lifegoal-go: CLIContext missing from command context")
	}

	return cc
}

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "lifegoal-go",
		Short:   "Local-first goal and habit tracker",
		Long:    "Track life goals, milestones, and daily habits. Works offline and syncs to a hosted backend when configured.",
		Version: version,
		// Errors and usage are printed by main.
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: preRun,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flagConfigPath, "config", "", "config file path")
	pf.StringVar(&flagDBPath, "db", "", "local database path")
	pf.BoolVar(&flagJSON, "json", false, "output in JSON format")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "enable info logging")
	pf.BoolVar(&flagDebug, "debug", false, "enable debug logging")
	pf.BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")
	pf.BoolVar(&flagOffline, "offline", false, "do not contact the remote backend")

	cmd.AddCommand(
		newGoalCmd(),
		newHabitCmd(),
		newTaskCmd(),
		newBoardCmd(),
		newMemoCmd(),
		newPlanCmd(),
		newAdviceCmd(),
		newTimerCmd(),
		newUndoCmd(),
		newRedoCmd(),
		newShellCmd(),
		newStatusCmd(),
		newExportCmd(),
		newHistoryCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newConfigCmd(),
	)

	return cmd
}

// preRun resolves config and installs the CLIContext. Inside the shell the
// context already exists and is reused so every line shares one session.
func preRun(cmd *cobra.Command, _ []string) error {
	if shared := cliContextFrom(cmd.Context()); shared != nil {
		// Output flags given on a shell line apply to that line only.
		line := *shared
		line.Flags.JSON = shared.Flags.JSON || flagJSON
		line.Flags.Quiet = shared.Flags.Quiet || flagQuiet
		cmd.SetContext(withCLIContext(cmd.Context(), &line))

		return nil
	}

	cc := &CLIContext{
		Flags: CLIFlags{
			ConfigPath: flagConfigPath,
			JSON:       flagJSON,
			Verbose:    flagVerbose,
			Debug:      flagDebug,
			Quiet:      flagQuiet,
		},
		Logger: bootstrapLogger(),
	}

	if cwd, err := os.Getwd(); err == nil {
		if err := config.LoadDotEnv(cwd, cc.Logger); err != nil {
			return err
		}
	}

	if cmd.Annotations[skipConfigAnnotation] != "true" {
		if err := loadConfig(cmd, cc); err != nil {
			return err
		}

		cc.Logger = buildLogger(cc.Cfg)
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}

	cmd.SetContext(withCLIContext(parent, cc))

	return nil
}

// loadConfig resolves the effective configuration from the override chain
// and stores it in cc.
func loadConfig(cmd *cobra.Command, cc *CLIContext) error {
	cli := config.CLIOverrides{ConfigPath: flagConfigPath}

	if cmd.Flags().Changed("db") {
		cli.DBPath = &flagDBPath
	}

	if flagOffline {
		cli.Offline = &flagOffline
	}

	cfg, path, err := config.Resolve(config.ReadEnvOverrides(cc.Logger), cli, cc.Logger)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cc.Cfg = cfg
	cc.CfgPath = path

	return nil
}

// bootstrapLogger creates the logger used before config is loaded. Only
// CLI flags apply; the default level is Warn.
func bootstrapLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: flagLevel(slog.LevelWarn)}))
}

// buildLogger creates the logger for the rest of the invocation. The config
// file's level is the baseline and CLI flags override it.
func buildLogger(cfg *config.Config) *slog.Logger {
	base := slog.LevelWarn
	format := "auto"

	if cfg != nil {
		base = parseLevel(cfg.Logging.LogLevel)
		format = cfg.Logging.LogFormat
	}

	opts := &slog.HandlerOptions{Level: flagLevel(base)}

	if useJSONLogs(format, os.Stderr.Fd()) {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}

	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// flagLevel applies --verbose, --debug, and --quiet on top of base.
func flagLevel(base slog.Level) slog.Level {
	switch {
	case flagQuiet:
		return slog.LevelError
	case flagDebug:
		return slog.LevelDebug
	case flagVerbose:
		return slog.LevelInfo
	default:
		return base
	}
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// useJSONLogs resolves the "auto" format: text on a terminal, JSON when
// stderr is redirected.
func useJSONLogs(format string, fd uintptr) bool {
	switch format {
	case "json":
		return true
	case "text":
		return false
	default:
		return !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)
	}
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", describeError(err))
	os.Exit(1)
}
