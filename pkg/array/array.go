// Package array implements the baseline mutable collection.
//
// Every mutating call validates its arguments first and fails with
// core.ErrIndexOutOfRange before touching any state. Outside an explicit batch each
// call publishes its own batch whose records are the caller's intent. Between
// BeginUpdates and the matching outermost EndUpdates, mutations are only applied; the
// closing call diffs the snapshot captured at BeginUpdates against the current one
// and publishes a single batch.
package array

import (
	"fmt"
	"slices"

	"github.com/aretw0/introspection"

	"github.com/aretw0/collist/internal/platform"
	"github.com/aretw0/collist/pkg/core"
	"github.com/aretw0/collist/pkg/diff"
	"github.com/aretw0/collist/pkg/index"
	"github.com/aretw0/collist/pkg/notify"
)

// Option configures a collection.
type Option = platform.Option

// Collection is a directly mutable collection of sections.
type Collection[T comparable] struct {
	opts      *platform.Options
	snap      core.Snapshot[T]
	observers *notify.Registry[T]
	lookups   *index.Cache[T]

	depth   int
	base    core.Snapshot[T]
	updated map[T]bool
}

// New creates a collection holding copies of sections.
// Section IDs must be unique.
func New[T comparable](sections []core.Section[T], opts ...Option) (*Collection[T], error) {
	seen := make(map[string]bool, len(sections))
	for _, s := range sections {
		if seen[s.ID] {
			return nil, fmt.Errorf("%w: %q", core.ErrDuplicateSection, s.ID)
		}
		seen[s.ID] = true
	}

	o := platform.Resolve("array", opts...)
	return &Collection[T]{
		opts:      o,
		snap:      core.NewSnapshot(sections...),
		observers: notify.NewRegistry[T](o.Logger),
		lookups:   index.New[T](o.LookupCache),
	}, nil
}

// NewList creates a collection with a single unnamed section.
func NewList[T comparable](objects []T, opts ...Option) *Collection[T] {
	c, _ := New([]core.Section[T]{core.NewSection("", objects...)}, opts...)
	return c
}

// Name returns the configured collection name.
func (c *Collection[T]) Name() string {
	return c.opts.Name
}

func (c *Collection[T]) Snapshot() core.Snapshot[T] {
	return c.snap
}

func (c *Collection[T]) Sections() []core.Section[T] {
	return c.snap.Sections
}

func (c *Collection[T]) Objects() []T {
	return c.snap.Objects()
}

func (c *Collection[T]) Object(p core.IndexPath) (T, error) {
	return c.snap.Object(p)
}

func (c *Collection[T]) IndexPathOf(obj T) (core.IndexPath, bool) {
	return c.lookups.Lookup(c.snap, obj)
}

func (c *Collection[T]) AddObserver(o core.Observer[T]) {
	c.observers.Add(o)
}

func (c *Collection[T]) RemoveObserver(o core.Observer[T]) {
	c.observers.Remove(o)
}

// InsertObjects inserts objs starting at p. p.Item may equal the section length to append.
func (c *Collection[T]) InsertObjects(p core.IndexPath, objs ...T) error {
	if err := c.checkSection(p.Section); err != nil {
		return err
	}
	sec := c.snap.Sections[p.Section]
	if p.Item < 0 || p.Item > len(sec.Objects) {
		return fmt.Errorf("%w: insert at %s with %d objects", core.ErrIndexOutOfRange, p, len(sec.Objects))
	}
	if len(objs) == 0 {
		return nil
	}

	next := c.withSection(p.Section, slices.Insert(slices.Clone(sec.Objects), p.Item, objs...))
	changes := make([]core.Change[T], len(objs))
	for k, obj := range objs {
		changes[k] = core.Change[T]{
			Kind:      core.ObjectInserted,
			SectionID: sec.ID,
			Object:    obj,
			New:       core.Path(p.Section, p.Item+k),
		}
	}
	c.commit(next, changes)
	return nil
}

// AppendObject adds obj at the end of the given section.
func (c *Collection[T]) AppendObject(section int, obj T) error {
	if err := c.checkSection(section); err != nil {
		return err
	}
	return c.InsertObjects(core.Path(section, len(c.snap.Sections[section].Objects)), obj)
}

// RemoveObjectAt removes and returns the object at p.
func (c *Collection[T]) RemoveObjectAt(p core.IndexPath) (T, error) {
	obj, err := c.snap.Object(p)
	if err != nil {
		return obj, err
	}
	sec := c.snap.Sections[p.Section]
	next := c.withSection(p.Section, slices.Delete(slices.Clone(sec.Objects), p.Item, p.Item+1))
	c.commit(next, []core.Change[T]{{
		Kind:      core.ObjectDeleted,
		SectionID: sec.ID,
		Object:    obj,
		Old:       p,
	}})
	return obj, nil
}

// RemoveObject removes the first object equal to obj. It reports whether one was found.
func (c *Collection[T]) RemoveObject(obj T) bool {
	p, ok := c.snap.IndexPathOf(obj)
	if !ok {
		return false
	}
	_, err := c.RemoveObjectAt(p)
	return err == nil
}

// ReplaceObjectAt stores obj at p and reports the position as updated.
// Passing the object already stored at p signals an in-place content change.
func (c *Collection[T]) ReplaceObjectAt(p core.IndexPath, obj T) error {
	if _, err := c.snap.Object(p); err != nil {
		return err
	}
	sec := c.snap.Sections[p.Section]
	objs := slices.Clone(sec.Objects)
	objs[p.Item] = obj
	next := c.withSection(p.Section, objs)
	if c.depth > 0 {
		c.updated[obj] = true
	}
	c.commit(next, []core.Change[T]{{
		Kind:      core.ObjectUpdated,
		SectionID: sec.ID,
		Object:    obj,
		Old:       p,
		New:       p,
	}})
	return nil
}

// MoveObject moves the object at from so that it ends up at to.
// to is interpreted against the snapshot after the move; moving an object onto its
// own position is valid and reported as a move with identical paths.
func (c *Collection[T]) MoveObject(from, to core.IndexPath) error {
	obj, err := c.snap.Object(from)
	if err != nil {
		return err
	}
	if err := c.checkSection(to.Section); err != nil {
		return err
	}
	limit := len(c.snap.Sections[to.Section].Objects)
	if to.Section == from.Section {
		limit--
	}
	if to.Item < 0 || to.Item > limit {
		return fmt.Errorf("%w: move to %s", core.ErrIndexOutOfRange, to)
	}

	sections := slices.Clone(c.snap.Sections)
	src := sections[from.Section]
	src.Objects = slices.Delete(slices.Clone(src.Objects), from.Item, from.Item+1)
	sections[from.Section] = src
	dst := sections[to.Section]
	if to.Section != from.Section {
		dst.Objects = slices.Clone(dst.Objects)
	}
	dst.Objects = slices.Insert(dst.Objects, to.Item, obj)
	sections[to.Section] = dst

	c.commit(core.Snapshot[T]{Sections: sections}, []core.Change[T]{{
		Kind:      core.ObjectMoved,
		SectionID: dst.ID,
		Object:    obj,
		Old:       from,
		New:       to,
	}})
	return nil
}

// InsertSection inserts a copy of sec at position i.
func (c *Collection[T]) InsertSection(i int, sec core.Section[T]) error {
	if i < 0 || i > len(c.snap.Sections) {
		return fmt.Errorf("%w: insert section at %d of %d", core.ErrIndexOutOfRange, i, len(c.snap.Sections))
	}
	if c.snap.SectionIndex(sec.ID) >= 0 {
		return fmt.Errorf("%w: %q", core.ErrDuplicateSection, sec.ID)
	}

	sec = sec.Clone()
	next := core.Snapshot[T]{Sections: slices.Insert(slices.Clone(c.snap.Sections), i, sec)}
	record := sec.Clone()
	c.commit(next, []core.Change[T]{{
		Kind:      core.SectionInserted,
		SectionID: sec.ID,
		Section:   &record,
		New:       core.Path(i, 0),
	}})
	return nil
}

// RemoveSectionAt removes and returns the section at position i.
func (c *Collection[T]) RemoveSectionAt(i int) (core.Section[T], error) {
	if err := c.checkSection(i); err != nil {
		return core.Section[T]{}, err
	}
	sec := c.snap.Sections[i]
	next := core.Snapshot[T]{Sections: slices.Delete(slices.Clone(c.snap.Sections), i, i+1)}
	record := sec.Clone()
	c.commit(next, []core.Change[T]{{
		Kind:      core.SectionDeleted,
		SectionID: sec.ID,
		Section:   &record,
		Old:       core.Path(i, 0),
	}})
	return sec.Clone(), nil
}

// BeginUpdates opens a batch. Nested calls only increase the nesting depth.
func (c *Collection[T]) BeginUpdates() {
	if c.depth == 0 {
		c.base = c.snap
		c.updated = make(map[T]bool)
	}
	c.depth++
}

// EndUpdates closes a batch. The outermost call publishes everything applied since the
// outermost BeginUpdates as one batch, possibly empty.
func (c *Collection[T]) EndUpdates() error {
	if c.depth == 0 {
		return core.ErrNoBatchOpen
	}
	c.depth--
	if c.depth > 0 {
		return nil
	}

	changes := diff.Compute(c.base, c.snap, c.updated)
	c.base = core.Snapshot[T]{}
	c.updated = nil
	c.lookups.Reset()
	c.observers.Publish(notify.NewBatch(changes))
	return nil
}

// Update runs fn inside BeginUpdates/EndUpdates. Mutations that succeeded before fn
// returns an error are still published.
func (c *Collection[T]) Update(fn func(*Collection[T]) error) error {
	c.BeginUpdates()
	err := fn(c)
	if endErr := c.EndUpdates(); err == nil {
		err = endErr
	}
	return err
}

// State implements introspection.Introspectable.
func (c *Collection[T]) State() any {
	return core.CollectionState{
		Name:       c.opts.Name,
		Kind:       "array",
		Sections:   c.snap.NumSections(),
		Objects:    c.snap.Len(),
		Observers:  c.observers.Len(),
		Batches:    c.observers.Published(),
		BatchDepth: c.depth,
	}
}

// ComponentType implements introspection.Component.
func (c *Collection[T]) ComponentType() string {
	return "collection"
}

var (
	_ core.Collection[int]         = (*Collection[int])(nil)
	_ introspection.Introspectable = (*Collection[int])(nil)
	_ introspection.Component      = (*Collection[int])(nil)
)

func (c *Collection[T]) commit(next core.Snapshot[T], changes []core.Change[T]) {
	c.snap = next
	c.lookups.Reset()
	if c.depth > 0 {
		return
	}
	c.observers.Publish(notify.NewBatch(changes))
}

func (c *Collection[T]) checkSection(i int) error {
	if i < 0 || i >= len(c.snap.Sections) {
		return fmt.Errorf("%w: section %d of %d", core.ErrIndexOutOfRange, i, len(c.snap.Sections))
	}
	return nil
}

// withSection returns a snapshot sharing every section with the current one except i.
func (c *Collection[T]) withSection(i int, objects []T) core.Snapshot[T] {
	sections := slices.Clone(c.snap.Sections)
	sections[i].Objects = objects
	return core.Snapshot[T]{Sections: sections}
}
