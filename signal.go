package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// interruptContext returns a context canceled by the first SIGINT/SIGTERM.
// A second signal exits the process at once. The returned stop function
// releases the signal handler; call it when the guarded work is done.
func interruptContext(parent context.Context, logger *slog.Logger) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})

	go func() {
		defer signal.Stop(sigCh)

		select {
		case sig := <-sigCh:
			logger.Info("interrupted, finishing pending writes",
				slog.String("signal", sig.String()),
			)
			cancel()
		case <-done:
			return
		case <-parent.Done():
			return
		}

		select {
		case sig := <-sigCh:
			logger.Warn("second interrupt, exiting without waiting",
				slog.String("signal", sig.String()),
			)
			os.Exit(1)
		case <-done:
		case <-parent.Done():
		}
	}()

	stop := func() {
		select {
		case <-done:
		default:
			close(done)
		}

		cancel()
	}

	return ctx, stop
}
