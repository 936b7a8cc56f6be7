package main

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"
)

func TestInterruptContext_FirstSignalCancels(t *testing.T) {
	ctx, stop := interruptContext(context.Background(), testLogger(t))
	defer stop()

	if err := syscall.Kill(os.Getpid(), syscall.SIGINT); err != nil {
		t.Fatalf("failed to send SIGINT: %v", err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not canceled within 2 seconds of SIGINT")
	}
}

func TestInterruptContext_ParentCancel(t *testing.T) {
	t.Parallel()

	parent, cancel := context.WithCancel(context.Background())
	ctx, stop := interruptContext(parent, testLogger(t))
	defer stop()

	cancel()

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not canceled within 2 seconds of parent cancel")
	}
}

func TestInterruptContext_StopIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx, stop := interruptContext(context.Background(), testLogger(t))
	stop()
	stop()

	select {
	case <-ctx.Done():
	default:
		t.Fatal("stop did not cancel the context")
	}
}
