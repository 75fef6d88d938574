// Package core defines the domain of sectioned, observable collections.
package core

import "fmt"

// IndexPath identifies a position inside a snapshot: a section index and an offset
// within that section.
type IndexPath struct {
	Section int `json:"section" yaml:"section"`
	Item    int `json:"item" yaml:"item"`
}

// Path is shorthand for IndexPath{Section: section, Item: item}.
func Path(section, item int) IndexPath {
	return IndexPath{Section: section, Item: item}
}

func (p IndexPath) String() string {
	return fmt.Sprintf("[%d,%d]", p.Section, p.Item)
}

// Less orders index paths by section, then item.
func (p IndexPath) Less(o IndexPath) bool {
	if p.Section != o.Section {
		return p.Section < o.Section
	}
	return p.Item < o.Item
}

// Section is an ordered group of objects identified by ID.
// Title is optional display metadata and never takes part in identity.
type Section[T comparable] struct {
	ID      string `json:"id" yaml:"id"`
	Title   string `json:"title,omitempty" yaml:"title,omitempty"`
	Objects []T    `json:"objects" yaml:"objects"`
}

// NewSection builds a section holding a private copy of objects.
func NewSection[T comparable](id string, objects ...T) Section[T] {
	return Section[T]{ID: id, Objects: append([]T(nil), objects...)}
}

// Len returns the number of objects in the section.
func (s Section[T]) Len() int {
	return len(s.Objects)
}

// Clone returns a section whose object slice is not shared with s.
func (s Section[T]) Clone() Section[T] {
	s.Objects = append([]T(nil), s.Objects...)
	return s
}

// Snapshot is the state of a collection at one instant.
// A snapshot handed out by a collection is never mutated afterwards.
type Snapshot[T comparable] struct {
	Sections []Section[T] `json:"sections" yaml:"sections"`
}

// NewSnapshot builds a snapshot from deep copies of sections.
func NewSnapshot[T comparable](sections ...Section[T]) Snapshot[T] {
	out := Snapshot[T]{Sections: make([]Section[T], len(sections))}
	for i, s := range sections {
		out.Sections[i] = s.Clone()
	}
	return out
}

// Clone returns a deep copy of the snapshot structure.
func (s Snapshot[T]) Clone() Snapshot[T] {
	return NewSnapshot(s.Sections...)
}

// NumSections returns the number of sections.
func (s Snapshot[T]) NumSections() int {
	return len(s.Sections)
}

// Len returns the total number of objects across all sections.
func (s Snapshot[T]) Len() int {
	n := 0
	for _, sec := range s.Sections {
		n += len(sec.Objects)
	}
	return n
}

// Objects returns all objects flattened in section order.
func (s Snapshot[T]) Objects() []T {
	out := make([]T, 0, s.Len())
	for _, sec := range s.Sections {
		out = append(out, sec.Objects...)
	}
	return out
}

// Object returns the object at p.
func (s Snapshot[T]) Object(p IndexPath) (T, error) {
	var zero T
	if p.Section < 0 || p.Section >= len(s.Sections) {
		return zero, fmt.Errorf("%w: section %d of %d", ErrIndexOutOfRange, p.Section, len(s.Sections))
	}
	objs := s.Sections[p.Section].Objects
	if p.Item < 0 || p.Item >= len(objs) {
		return zero, fmt.Errorf("%w: item %d of %d in section %d", ErrIndexOutOfRange, p.Item, len(objs), p.Section)
	}
	return objs[p.Item], nil
}

// IndexPathOf scans the snapshot for the first object equal to obj.
func (s Snapshot[T]) IndexPathOf(obj T) (IndexPath, bool) {
	for si, sec := range s.Sections {
		for oi, o := range sec.Objects {
			if o == obj {
				return Path(si, oi), true
			}
		}
	}
	return IndexPath{}, false
}

// SectionIndex returns the position of the section with the given ID, or -1.
func (s Snapshot[T]) SectionIndex(id string) int {
	for i, sec := range s.Sections {
		if sec.ID == id {
			return i
		}
	}
	return -1
}

// Equal reports whether both snapshots hold the same sections (by ID and title)
// with the same objects in the same order.
func (s Snapshot[T]) Equal(o Snapshot[T]) bool {
	if len(s.Sections) != len(o.Sections) {
		return false
	}
	for i := range s.Sections {
		a, b := s.Sections[i], o.Sections[i]
		if a.ID != b.ID || a.Title != b.Title || len(a.Objects) != len(b.Objects) {
			return false
		}
		for j := range a.Objects {
			if a.Objects[j] != b.Objects[j] {
				return false
			}
		}
	}
	return true
}
