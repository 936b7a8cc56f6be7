package mutate

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/tonimelisma/lifegoal-go/internal/model"
)

// HabitPatch is a partial update of a habit's schedule fields. Nil fields
// are left untouched. An empty StartDate or EndDate clears the bound.
type HabitPatch struct {
	Title      *string
	TimeOfDay  *string
	Duration   *int
	TargetDays *int
	StartDate  *string
	EndDate    *string
}

// IsEmpty reports whether the patch sets no fields.
func (p HabitPatch) IsEmpty() bool {
	return p.Title == nil && p.TimeOfDay == nil && p.Duration == nil &&
		p.TargetDays == nil && p.StartDate == nil && p.EndDate == nil
}

// Validate checks every set field and returns all problems found.
func (p HabitPatch) Validate() error {
	var errs []error

	if p.IsEmpty() {
		errs = append(errs, invalid("no fields to update"))
	}

	if p.Title != nil && normalizeTitle(*p.Title) == "" {
		errs = append(errs, invalid("title must not be empty"))
	}

	if p.TimeOfDay != nil && *p.TimeOfDay != "" {
		if err := model.ParseTimeOfDay(*p.TimeOfDay); err != nil {
			errs = append(errs, invalid("%v", err))
		}
	}

	if p.Duration != nil && *p.Duration <= 0 {
		errs = append(errs, invalid("duration must be positive, got %d", *p.Duration))
	}

	if p.TargetDays != nil && *p.TargetDays <= 0 {
		errs = append(errs, invalid("target days must be positive, got %d", *p.TargetDays))
	}

	errs = append(errs, validateRange(p.StartDate, p.EndDate)...)

	return errors.Join(errs...)
}

func (p HabitPatch) apply(h model.Habit) model.Habit {
	if p.Title != nil {
		h.Title = normalizeTitle(*p.Title)
	}

	if p.TimeOfDay != nil {
		h.TimeOfDay = *p.TimeOfDay
	}

	if p.Duration != nil {
		d := *p.Duration
		h.RecommendedDuration = &d
	}

	if p.TargetDays != nil {
		d := *p.TargetDays
		h.TargetDays = &d
	}

	if p.StartDate != nil {
		h.StartDate = *p.StartDate
	}

	if p.EndDate != nil {
		h.EndDate = *p.EndDate
	}

	return h
}

// validateRange checks optional date bounds. Cross-field ordering against
// values already stored on the entity is checked after the merge.
func validateRange(start, end *string) []error {
	var errs []error

	for _, d := range []*string{start, end} {
		if d == nil || *d == "" {
			continue
		}

		if _, err := model.ParseDate(*d); err != nil {
			errs = append(errs, invalid("%v", err))
		}
	}

	if start != nil && end != nil && *start != "" && *end != "" && *end < *start {
		errs = append(errs, invalid("end date %s before start date %s", *end, *start))
	}

	return errs
}

// normalizeTitle trims whitespace and applies Unicode NFC so titles typed on
// different platforms compare equal.
func normalizeTitle(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidPatch, fmt.Sprintf(format, args...))
}
