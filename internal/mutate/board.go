package mutate

import (
	"errors"
	"slices"

	"github.com/tonimelisma/lifegoal-go/internal/model"
)

// NewHabitItem describes a habit board entry to create.
type NewHabitItem struct {
	Title     string
	Type      model.Polarity
	StartDate string
	EndDate   string
}

// AddHabitItem prepends a new board entry and returns its id.
func AddHabitItem(s *model.Snapshot, ids IDFunc, n NewHabitItem) (*model.Snapshot, string, error) {
	var errs []error

	title := normalizeTitle(n.Title)
	if title == "" {
		errs = append(errs, invalid("title must not be empty"))
	}

	if _, err := model.ParsePolarity(string(n.Type)); err != nil {
		errs = append(errs, invalid("%v", err))
	}

	errs = append(errs, validateRange(optString(n.StartDate), optString(n.EndDate))...)
	if err := errors.Join(errs...); err != nil {
		return nil, "", err
	}

	item := model.HabitItem{
		ID:             ids(),
		Title:          title,
		Type:           n.Type,
		CompletedDates: []string{},
		StartDate:      n.StartDate,
		EndDate:        n.EndDate,
	}

	return s.WithHabitItems(append([]model.HabitItem{item}, s.HabitItems()...)), item.ID, nil
}

// ToggleHabitItem flips completion of itemID on date.
func ToggleHabitItem(s *model.Snapshot, itemID, date string) (*model.Snapshot, error) {
	items := s.HabitItems()

	i := slices.IndexFunc(items, func(x model.HabitItem) bool { return x.ID == itemID })
	if i < 0 {
		return nil, notFound("habit item", itemID)
	}

	items[i].CompletedDates, _ = toggleDate(items[i].CompletedDates, date)

	return s.WithHabitItems(items), nil
}

// RemoveHabitItem deletes itemID from the board.
func RemoveHabitItem(s *model.Snapshot, itemID string) (*model.Snapshot, error) {
	items := s.HabitItems()
	n := len(items)

	items = slices.DeleteFunc(items, func(x model.HabitItem) bool { return x.ID == itemID })
	if len(items) == n {
		return nil, notFound("habit item", itemID)
	}

	return s.WithHabitItems(items), nil
}
