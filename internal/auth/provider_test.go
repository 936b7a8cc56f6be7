package auth

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()

	return slog.New(slog.NewTextHandler(&testLogWriter{t: t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type testLogWriter struct {
	t *testing.T
}

func (w *testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))

	return len(p), nil
}

type mockWatcher struct {
	events chan fsnotify.Event
	errs   chan error
	added  []string
}

func newMockWatcher() *mockWatcher {
	return &mockWatcher{
		events: make(chan fsnotify.Event, 10),
		errs:   make(chan error, 10),
	}
}

func (m *mockWatcher) Add(name string) error {
	m.added = append(m.added, name)
	return nil
}

func (m *mockWatcher) Close() error                  { return nil }
func (m *mockWatcher) Events() <-chan fsnotify.Event { return m.events }
func (m *mockWatcher) Errors() <-chan error          { return m.errs }

func newTestProvider(t *testing.T) (*Provider, *mockWatcher) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "auth", "session.json")
	p := NewProvider(path, testLogger(t))

	w := newMockWatcher()
	p.newWatcher = func() (FsWatcher, error) { return w, nil }
	p.sleepFunc = func(context.Context, time.Duration) error { return nil }

	return p, w
}

func recv(t *testing.T, ch <-chan Event) Event {
	t.Helper()

	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for auth event")
		return Event{}
	}
}

func TestSignInOut(t *testing.T) {
	t.Parallel()

	p, _ := newTestProvider(t)

	u, err := p.CurrentUser()
	require.NoError(t, err)
	assert.Nil(t, u)

	require.NoError(t, p.SignIn("u1", "ada@example.com", &oauth2.Token{AccessToken: "tok"}))

	u, err = p.CurrentUser()
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, User{ID: "u1", Email: "ada@example.com"}, *u)

	tok, err := p.TokenSource().Token()
	require.NoError(t, err)
	assert.Equal(t, "tok", tok.AccessToken)

	require.NoError(t, p.SignOut())

	u, err = p.CurrentUser()
	require.NoError(t, err)
	assert.Nil(t, u)

	_, err = p.TokenSource().Token()
	assert.ErrorIs(t, err, ErrSignedOut)
}

func TestOnAuthChange_EmitsOnUserChange(t *testing.T) {
	t.Parallel()

	p, w := newTestProvider(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := p.OnAuthChange(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Dir(p.Path())}, w.added)

	require.NoError(t, p.SignIn("u1", "", &oauth2.Token{AccessToken: "a"}))
	w.events <- fsnotify.Event{Name: p.Path(), Op: fsnotify.Create}

	ev := recv(t, events)
	require.NotNil(t, ev.User)
	assert.Equal(t, "u1", ev.User.ID)

	// Token refresh for the same user, an unrelated file, and a chmod
	// produce no event; the sign-out that follows does.
	require.NoError(t, p.SignIn("u1", "", &oauth2.Token{AccessToken: "b"}))
	w.events <- fsnotify.Event{Name: p.Path(), Op: fsnotify.Write}
	w.events <- fsnotify.Event{Name: filepath.Join(filepath.Dir(p.Path()), "other.json"), Op: fsnotify.Write}
	w.events <- fsnotify.Event{Name: p.Path(), Op: fsnotify.Chmod}
	w.errs <- errors.New("queue overflow")

	require.NoError(t, p.SignOut())
	w.events <- fsnotify.Event{Name: p.Path(), Op: fsnotify.Remove}

	ev = recv(t, events)
	assert.Nil(t, ev.User)
}

func TestOnAuthChange_ClosesOnCancel(t *testing.T) {
	t.Parallel()

	p, _ := newTestProvider(t)

	ctx, cancel := context.WithCancel(context.Background())

	events, err := p.OnAuthChange(ctx)
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestOnAuthChange_RealWatcher(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.json")
	p := NewProvider(path, testLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := p.OnAuthChange(ctx)
	require.NoError(t, err)

	require.NoError(t, p.SignIn("u2", "", &oauth2.Token{AccessToken: "x"}))

	ev := recv(t, events)
	require.NotNil(t, ev.User)
	assert.Equal(t, "u2", ev.User.ID)
}
