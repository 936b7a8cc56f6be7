package model

import "time"

// Collection is one entity collection as read from a store, together with
// the instant it was last modified. A zero UpdatedAt means the instant is
// unknown (legacy on-device format, or a remote table with no rows).
type Collection[T any] struct {
	Items     []T
	UpdatedAt time.Time
}

// Known reports whether the last-modified instant is known.
func (c Collection[T]) Known() bool {
	return !c.UpdatedAt.IsZero()
}

// Empty reports whether the collection holds no entities.
func (c Collection[T]) Empty() bool {
	return len(c.Items) == 0
}
