package mutate

import (
	"slices"

	"github.com/tonimelisma/lifegoal-go/internal/model"
)

// Memo lists are per-habit and live outside the Snapshot, so these mutators
// operate on plain slices. Inputs are never modified.

// AddMemo appends a memo with a fresh id and returns the new list and id.
func AddMemo(memos []model.Memo, ids IDFunc, m model.Memo) ([]model.Memo, string, error) {
	if m.Kind == "" {
		m.Kind = model.MemoText
	}

	if m.Kind != model.MemoText && m.Kind != model.MemoChecklist {
		return nil, "", invalid("unknown memo kind %q", m.Kind)
	}

	m.ID = ids()
	m.Items = slices.Clone(m.Items)

	for i := range m.Items {
		if m.Items[i].ID == "" {
			m.Items[i].ID = ids()
		}
	}

	return append(model.CloneMemos(memos), m), m.ID, nil
}

// UpdateMemo replaces the memo with the same id.
func UpdateMemo(memos []model.Memo, m model.Memo) ([]model.Memo, error) {
	out := model.CloneMemos(memos)

	i := slices.IndexFunc(out, func(x model.Memo) bool { return x.ID == m.ID })
	if i < 0 {
		return nil, notFound("memo", m.ID)
	}

	out[i] = model.CloneMemos([]model.Memo{m})[0]

	return out, nil
}

// RemoveMemo deletes memoID.
func RemoveMemo(memos []model.Memo, memoID string) ([]model.Memo, error) {
	out := model.CloneMemos(memos)
	n := len(out)

	out = slices.DeleteFunc(out, func(x model.Memo) bool { return x.ID == memoID })
	if len(out) == n {
		return nil, notFound("memo", memoID)
	}

	return out, nil
}
