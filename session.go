package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/lifegoal-go/internal/app"
	"github.com/tonimelisma/lifegoal-go/internal/auth"
	"github.com/tonimelisma/lifegoal-go/internal/config"
	"github.com/tonimelisma/lifegoal-go/internal/localstore"
	"github.com/tonimelisma/lifegoal-go/internal/propagate"
	"github.com/tonimelisma/lifegoal-go/internal/reconcile"
	"github.com/tonimelisma/lifegoal-go/internal/remote"
	"github.com/tonimelisma/lifegoal-go/internal/timer"
)

// dataDirPerms restricts the data directory to the owner.
const dataDirPerms = 0o700

// session is one running application: the stores, the propagator, and the
// app container with a started user session.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	local  *localstore.Store
	remote *remote.Store
	prop   *propagate.Propagator
	auth   *auth.Provider
	app    *app.App
	start  reconcile.Result
}

// openSession wires every component from cfg and starts a session for the
// signed-in user.
func openSession(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*session, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DBPath), dataDirPerms); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	local, err := localstore.Open(ctx, cfg.Storage.DBPath, logger)
	if err != nil {
		return nil, err
	}

	provider := auth.NewProvider(cfg.Storage.SessionPath, logger)
	store := newRemoteStore(cfg, provider, logger)

	prop := propagate.New(store, propagate.Config{
		Workers:     cfg.Sync.PropagationWorkers,
		MaxInFlight: cfg.Sync.MaxInFlight,
		Coalesce:    cfg.Sync.Coalesce,
	}, logger)

	a := app.New(app.Deps{
		Local:      local,
		Remote:     store,
		Propagator: prop,
		Auth:       provider,
		Timer:      timer.New(),
		Logger:     logger,

		FetchTimeout: cfg.Remote.FetchDuration(),
	})

	res, err := a.StartCurrent(ctx)
	if err != nil {
		prop.Close()

		if cerr := local.Close(); cerr != nil {
			logger.Warn("closing local store", slog.String("error", cerr.Error()))
		}

		return nil, err
	}

	if res.RemoteErr != nil {
		logger.Warn("working offline, remote fetch failed", slog.String("error", res.RemoteErr.Error()))
	}

	return &session{
		cfg:    cfg,
		logger: logger,
		local:  local,
		remote: store,
		prop:   prop,
		auth:   provider,
		app:    a,
		start:  res,
	}, nil
}

func newRemoteStore(cfg *config.Config, provider *auth.Provider, logger *slog.Logger) *remote.Store {
	if !cfg.RemoteActive() {
		logger.Debug("remote disabled, running local-only")
		return remote.Disabled()
	}

	httpClient := &http.Client{Timeout: cfg.Remote.TimeoutDuration()}
	client := remote.NewClient(cfg.Remote.URL, cfg.Remote.APIKey, provider.TokenSource(), httpClient, logger)

	if cfg.Remote.RequestsPerSecond > 0 {
		client.SetRateLimit(cfg.Remote.RequestsPerSecond)
	}

	return remote.NewStore(client, logger)
}

// close stops the session, waiting up to the configured shutdown timeout
// for pending remote writes.
func (s *session) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Sync.ShutdownDuration())
	defer cancel()

	stopErr := s.app.Stop(ctx)
	if stopErr != nil {
		running, waiting := s.prop.InFlight()
		s.logger.Warn("exiting with unsynced changes",
			slog.Int("running", running),
			slog.Int("waiting", waiting),
			slog.String("error", stopErr.Error()),
		)
	}

	s.prop.Close()

	if err := s.local.Close(); err != nil {
		return fmt.Errorf("closing local store: %w", err)
	}

	return nil
}

// withSession runs fn against the shell's session when there is one, or
// against a session opened for this command alone.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, cc *CLIContext, s *session) error) error {
	cc := mustCLIContext(cmd.Context())
	ctx := cmd.Context()

	if cc.Session != nil {
		return fn(ctx, cc, cc.Session)
	}

	s, err := openSession(ctx, cc.Cfg, cc.Logger)
	if err != nil {
		return err
	}

	runErr := fn(ctx, cc, s)

	return errors.Join(runErr, s.close())
}
