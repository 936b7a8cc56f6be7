// Package auth tracks the signed-in user. The session lives in a file on
// disk, so signing in or out from one process is observed by every other
// running session through OnAuthChange.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/oauth2"

	"github.com/tonimelisma/lifegoal-go/internal/tokenfile"
)

// ErrSignedOut is returned when an operation needs a signed-in user.
var ErrSignedOut = errors.New("auth: not signed in")

// Watcher error backoff.
const (
	watchErrInitBackoff = 1 * time.Second
	watchErrMaxBackoff  = 30 * time.Second
)

// User identifies the signed-in account.
type User struct {
	ID    string
	Email string
}

// Event reports an auth state change. User is nil after sign-out.
type Event struct {
	User *User
}

// FsWatcher is the subset of *fsnotify.Watcher the provider uses.
type FsWatcher interface {
	Add(name string) error
	Close() error
	Events() <-chan fsnotify.Event
	Errors() <-chan error
}

type fsnotifyWatcher struct {
	w *fsnotify.Watcher
}

func (f fsnotifyWatcher) Add(name string) error         { return f.w.Add(name) }
func (f fsnotifyWatcher) Close() error                  { return f.w.Close() }
func (f fsnotifyWatcher) Events() <-chan fsnotify.Event { return f.w.Events }
func (f fsnotifyWatcher) Errors() <-chan error          { return f.w.Errors }

// Provider reads and writes the session file at path.
type Provider struct {
	path   string
	logger *slog.Logger

	mu   sync.Mutex
	last *User // last user reported by CurrentUser or an event

	newWatcher func() (FsWatcher, error)
	sleepFunc  func(ctx context.Context, d time.Duration) error
}

// NewProvider creates a Provider for the session file at path.
func NewProvider(path string, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}

	return &Provider{
		path:   path,
		logger: logger,
		newWatcher: func() (FsWatcher, error) {
			w, err := fsnotify.NewWatcher()
			if err != nil {
				return nil, err
			}

			return fsnotifyWatcher{w: w}, nil
		},
		sleepFunc: timeSleep,
	}
}

// Path returns the session file path.
func (p *Provider) Path() string {
	return p.path
}

// CurrentUser returns the signed-in user, or nil when nobody is signed in.
func (p *Provider) CurrentUser() (*User, error) {
	s, err := tokenfile.Load(p.path)
	if err != nil {
		return nil, fmt.Errorf("auth: loading session: %w", err)
	}

	u := userOf(s)

	p.mu.Lock()
	p.last = u
	p.mu.Unlock()

	return u, nil
}

// SignIn stores a session for userID with the given access token.
func (p *Provider) SignIn(userID, email string, tok *oauth2.Token) error {
	s := &tokenfile.Session{UserID: userID, Email: email, Token: tok}
	if err := tokenfile.Save(p.path, s); err != nil {
		return fmt.Errorf("auth: signing in: %w", err)
	}

	p.logger.Info("signed in", slog.String("user", userID))

	return nil
}

// SignOut removes the session.
func (p *Provider) SignOut() error {
	if err := tokenfile.Remove(p.path); err != nil {
		return fmt.Errorf("auth: signing out: %w", err)
	}

	p.logger.Info("signed out")

	return nil
}

// TokenSource returns a source that reads the session's token on every
// call, so a new sign-in takes effect without restarting.
func (p *Provider) TokenSource() oauth2.TokenSource {
	return sessionTokenSource{path: p.path}
}

type sessionTokenSource struct {
	path string
}

func (s sessionTokenSource) Token() (*oauth2.Token, error) {
	sess, err := tokenfile.Load(s.path)
	if err != nil {
		return nil, fmt.Errorf("auth: loading session: %w", err)
	}

	if !sess.Valid() {
		return nil, ErrSignedOut
	}

	return sess.Token, nil
}

// OnAuthChange watches the session file and sends an Event whenever the
// signed-in user changes. The channel is closed when ctx is done.
func (p *Provider) OnAuthChange(ctx context.Context) (<-chan Event, error) {
	w, err := p.newWatcher()
	if err != nil {
		return nil, fmt.Errorf("auth: creating watcher: %w", err)
	}

	// Watch the directory: the file is replaced by rename on every save
	// and may not exist yet.
	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, tokenfile.DirPerms); err != nil {
		w.Close()
		return nil, fmt.Errorf("auth: creating %s: %w", dir, err)
	}

	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("auth: watching %s: %w", dir, err)
	}

	if _, err := p.CurrentUser(); err != nil {
		p.logger.Warn("session file unreadable", slog.String("error", err.Error()))
	}

	out := make(chan Event, 1)

	go p.watchLoop(ctx, w, out)

	return out, nil
}

func (p *Provider) watchLoop(ctx context.Context, w FsWatcher, out chan<- Event) {
	defer close(out)
	defer w.Close()

	name := filepath.Base(p.path)
	errBackoff := watchErrInitBackoff

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.Events():
			if !ok {
				return
			}

			if filepath.Base(ev.Name) != name || ev.Op == fsnotify.Chmod {
				continue
			}

			if changed, u := p.refresh(); changed {
				select {
				case out <- Event{User: u}:
				case <-ctx.Done():
					return
				}
			}

			errBackoff = watchErrInitBackoff

		case watchErr, ok := <-w.Errors():
			if !ok {
				return
			}

			p.logger.Warn("session watcher error",
				slog.String("error", watchErr.Error()),
				slog.Duration("backoff", errBackoff),
			)

			if sleepErr := p.sleepFunc(ctx, errBackoff); sleepErr != nil {
				return
			}

			errBackoff = min(errBackoff*2, watchErrMaxBackoff)
		}
	}
}

// refresh re-reads the session file and reports whether the user differs
// from the last one seen. An unreadable file counts as signed out.
func (p *Provider) refresh() (bool, *User) {
	s, err := tokenfile.Load(p.path)
	if err != nil {
		p.logger.Warn("session file unreadable", slog.String("error", err.Error()))
		s = nil
	}

	u := userOf(s)

	p.mu.Lock()
	defer p.mu.Unlock()

	if sameUser(p.last, u) {
		return false, u
	}

	p.last = u

	p.logger.Info("auth state changed", slog.Bool("signed_in", u != nil))

	return true, u
}

func userOf(s *tokenfile.Session) *User {
	if !s.Valid() {
		return nil
	}

	return &User{ID: s.UserID, Email: s.Email}
}

func sameUser(a, b *User) bool {
	if a == nil || b == nil {
		return a == b
	}

	return a.ID == b.ID
}

// timeSleep waits for the given duration or until the context is canceled.
func timeSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
