package core

import (
	"fmt"
	"strings"
)

// ChangeKind represents the type of a change record.
type ChangeKind int

const (
	SectionInserted ChangeKind = iota + 1
	SectionDeleted
	ObjectInserted
	ObjectDeleted
	ObjectMoved
	ObjectUpdated
)

func (k ChangeKind) String() string {
	switch k {
	case SectionInserted:
		return "SECTION_INSERT"
	case SectionDeleted:
		return "SECTION_DELETE"
	case ObjectInserted:
		return "INSERT"
	case ObjectDeleted:
		return "DELETE"
	case ObjectMoved:
		return "MOVE"
	case ObjectUpdated:
		return "UPDATE"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
}

// IsSection reports whether the kind describes a whole section.
func (k ChangeKind) IsSection() bool {
	return k == SectionInserted || k == SectionDeleted
}

// Change is a single record of a batch.
//
// Old is meaningful for deletes, moves and updates; New for inserts, moves and updates.
// For section records only the Section field of the path is used, and Section carries
// the inserted or removed section with its objects.
type Change[T comparable] struct {
	Kind      ChangeKind
	SectionID string
	Section   *Section[T]
	Object    T
	Old       IndexPath
	New       IndexPath
}

func (c Change[T]) String() string {
	switch c.Kind {
	case SectionInserted:
		return fmt.Sprintf("%s %q at %d", c.Kind, c.SectionID, c.New.Section)
	case SectionDeleted:
		return fmt.Sprintf("%s %q at %d", c.Kind, c.SectionID, c.Old.Section)
	case ObjectInserted:
		return fmt.Sprintf("%s %v at %s", c.Kind, c.Object, c.New)
	case ObjectDeleted:
		return fmt.Sprintf("%s %v at %s", c.Kind, c.Object, c.Old)
	default:
		return fmt.Sprintf("%s %v %s -> %s", c.Kind, c.Object, c.Old, c.New)
	}
}

// Batch is the ordered set of changes describing one transition between two snapshots.
type Batch[T comparable] struct {
	ID      string
	Changes []Change[T]
}

// Empty reports whether the batch carries no records.
func (b Batch[T]) Empty() bool {
	return len(b.Changes) == 0
}

// Count returns the number of records of the given kind.
func (b Batch[T]) Count(kind ChangeKind) int {
	n := 0
	for _, c := range b.Changes {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

func (b Batch[T]) String() string {
	if len(b.Changes) == 0 {
		return fmt.Sprintf("batch %s: no changes", b.ID)
	}
	parts := make([]string, len(b.Changes))
	for i, c := range b.Changes {
		parts[i] = c.String()
	}
	return fmt.Sprintf("batch %s: %s", b.ID, strings.Join(parts, "; "))
}
