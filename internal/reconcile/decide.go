// Package reconcile merges the on-device and remote copies of a user's
// collections into the authoritative starting snapshot of a session.
package reconcile

import (
	"fmt"

	"github.com/tonimelisma/lifegoal-go/internal/model"
)

// Source names the side a collection was taken from.
type Source int

const (
	SourceLocal Source = iota
	SourceRemote
)

func (s Source) String() string {
	switch s {
	case SourceLocal:
		return "local"
	case SourceRemote:
		return "remote"
	default:
		return fmt.Sprintf("Source(%d)", int(s))
	}
}

// Decide applies the last-write-wins rule to one timestamped collection:
//
//   - remote empty, local non-empty: local
//   - local empty: remote (possibly also empty)
//   - both non-empty: local iff local's instant is known and remote's is
//     unknown or not newer
func Decide[T any](local, remote model.Collection[T]) Source {
	switch {
	case local.Empty():
		return SourceRemote
	case remote.Empty():
		return SourceLocal
	case local.Known() && (!remote.Known() || !local.UpdatedAt.Before(remote.UpdatedAt)):
		return SourceLocal
	default:
		return SourceRemote
	}
}

// DecideGoals picks the goals collection. Goals written before envelopes
// existed carry no instant, so the timestamp rule only applies when both
// sides have one; otherwise remote wins whenever it has any goals.
func DecideGoals(local, remote model.Collection[model.Goal]) Source {
	if local.Known() && remote.Known() {
		return Decide(local, remote)
	}

	if !remote.Empty() {
		return SourceRemote
	}

	return SourceLocal
}

func pick[T any](src Source, local, remote model.Collection[T]) model.Collection[T] {
	if src == SourceRemote {
		return remote
	}

	return local
}
