package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tonimelisma/lifegoal-go/internal/model"
	"github.com/tonimelisma/lifegoal-go/internal/mutate"
)

// Memos returns the notes pinned on habitID. Any local value wins, an empty
// list included; only a habit with nothing stored on the device reads the
// remote copy, bounded by the fetch timeout, and caches it locally.
func (a *App) Memos(ctx context.Context, habitID string) ([]model.Memo, error) {
	userID, ok := a.User()
	if !ok {
		return nil, ErrNoSession
	}

	local := a.local.LoadMemos(ctx, userID, habitID)
	if local.Known() || !local.Empty() || !a.remoteOn() {
		return local.Items, nil
	}

	fetchCtx, cancel := a.fetchContext(ctx)
	defer cancel()

	memos, err := a.remote.FetchMemos(fetchCtx, userID, habitID)
	if err != nil {
		a.logger.Warn("fetching remote memos failed",
			slog.String("habit", habitID),
			slog.String("error", err.Error()),
		)

		return local.Items, nil
	}

	if len(memos) > 0 {
		a.logWriteErr("memos", a.local.SaveMemos(ctx, userID, habitID, memos, a.now()))
	}

	return memos, nil
}

// AddMemo pins a new memo on habitID and returns its id.
func (a *App) AddMemo(ctx context.Context, habitID string, m model.Memo) (string, error) {
	memos, err := a.Memos(ctx, habitID)
	if err != nil {
		return "", err
	}

	next, id, err := mutate.AddMemo(memos, a.ids, m)
	if err != nil {
		return "", err
	}

	if err := a.saveMemos(ctx, habitID, next); err != nil {
		return "", err
	}

	for _, memo := range next {
		if memo.ID == id {
			a.pushMemo(ctx, habitID, memo)
		}
	}

	return id, nil
}

// UpdateMemo replaces a memo by id.
func (a *App) UpdateMemo(ctx context.Context, habitID string, m model.Memo) error {
	memos, err := a.Memos(ctx, habitID)
	if err != nil {
		return err
	}

	next, err := mutate.UpdateMemo(memos, m)
	if err != nil {
		return err
	}

	if err := a.saveMemos(ctx, habitID, next); err != nil {
		return err
	}

	a.pushMemo(ctx, habitID, m)

	return nil
}

// RemoveMemo deletes a memo by id.
func (a *App) RemoveMemo(ctx context.Context, habitID, memoID string) error {
	memos, err := a.Memos(ctx, habitID)
	if err != nil {
		return err
	}

	next, err := mutate.RemoveMemo(memos, memoID)
	if err != nil {
		return err
	}

	if err := a.saveMemos(ctx, habitID, next); err != nil {
		return err
	}

	if a.remoteOn() {
		userID, _ := a.User()
		a.queueMemoWrite(ctx, "delete", memoID, func(wctx context.Context) error {
			return a.remote.DeleteMemo(wctx, userID, habitID, memoID)
		})
	}

	return nil
}

// saveMemos writes memos locally. Memos are not part of the snapshot, so a
// failed write is returned rather than absorbed.
func (a *App) saveMemos(ctx context.Context, habitID string, memos []model.Memo) error {
	userID, ok := a.User()
	if !ok {
		return ErrNoSession
	}

	if err := a.local.SaveMemos(ctx, userID, habitID, memos, a.now()); err != nil {
		return fmt.Errorf("app: saving memos: %w", err)
	}

	return nil
}

func (a *App) pushMemo(ctx context.Context, habitID string, m model.Memo) {
	if !a.remoteOn() {
		return
	}

	userID, _ := a.User()
	a.queueMemoWrite(ctx, "upsert", m.ID, func(wctx context.Context) error {
		return a.remote.UpsertMemo(wctx, userID, habitID, m)
	})
}

// queueMemoWrite runs a remote memo write in the background after every
// write queued before it, so a delete never overtakes the upsert of the
// same memo. Failures are logged; the local copy already holds the change.
// Stop waits for queued writes.
func (a *App) queueMemoWrite(ctx context.Context, op, memoID string, write func(context.Context) error) {
	a.memoMu.Lock()
	prev := a.memoTail
	done := make(chan struct{})
	a.memoTail = done
	a.memoMu.Unlock()

	detached := context.WithoutCancel(ctx)

	a.background.Add(1)

	go func() {
		defer a.background.Done()
		defer close(done)

		if prev != nil {
			<-prev
		}

		wctx, cancel := context.WithTimeout(detached, remoteWriteTimeout)
		defer cancel()

		if err := write(wctx); err != nil {
			a.logger.Warn("remote memo write failed",
				slog.String("op", op),
				slog.String("memo", memoID),
				slog.String("error", err.Error()),
			)
		}
	}()
}

// fetchContext bounds a read from the remote made on the user's behalf.
func (a *App) fetchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.fetchTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, a.fetchTimeout)
}
