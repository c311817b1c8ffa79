package lychee

import "fmt"

// EventKind identifies the variant of an Event.
type EventKind int

const (
	// EventCreated carries the path of a new file or directory.
	EventCreated EventKind = iota
	// EventDeleted carries the path of a removed file or directory.
	EventDeleted
	// EventMoved carries the old path in Path and the new path in ToPath.
	EventMoved
)

// String returns a human-readable representation of the kind.
func (k EventKind) String() string {
	switch k {
	case EventCreated:
		return "created"
	case EventDeleted:
		return "deleted"
	case EventMoved:
		return "moved"
	default:
		return "unknown"
	}
}

// Event is a filesystem change in the watched source tree.
type Event struct {
	Kind   EventKind
	Path   string
	ToPath string // only set for EventMoved
}

func Created(path string) Event { return Event{Kind: EventCreated, Path: path} }

func Deleted(path string) Event { return Event{Kind: EventDeleted, Path: path} }

func Moved(from, to string) Event { return Event{Kind: EventMoved, Path: from, ToPath: to} }

func (e Event) String() string {
	if e.Kind == EventMoved {
		return fmt.Sprintf("%s %s -> %s", e.Kind, e.Path, e.ToPath)
	}
	return fmt.Sprintf("%s %s", e.Kind, e.Path)
}
