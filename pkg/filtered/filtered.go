// Package filtered implements a collection that shows the subset of a source
// collection matching a set of predicates.
//
// The filtered snapshot is re-derived from the source snapshot every time the source
// publishes a batch, and the change set is computed by diffing the previous filtered
// snapshot against the new one. Objects the source reports as updated are forwarded
// as updates when they stay visible; objects that start or stop matching become
// inserts or deletes.
package filtered

import (
	"github.com/aretw0/introspection"

	"github.com/aretw0/collist/internal/platform"
	"github.com/aretw0/collist/pkg/core"
	"github.com/aretw0/collist/pkg/diff"
	"github.com/aretw0/collist/pkg/index"
	"github.com/aretw0/collist/pkg/notify"
)

// Option configures a collection.
type Option = platform.Option

// EmptySections decides what happens to sections left without objects.
type EmptySections int

const (
	// KeepEmpty mirrors every source section that passes the section predicate.
	KeepEmpty EmptySections = iota
	// DropEmpty hides sections without matching objects.
	DropEmpty
)

// Rules describe which sections and objects are visible.
type Rules[T comparable] struct {
	// Object selects visible objects. Nil keeps every object.
	Object func(T) bool
	// Section selects visible sections; it sees the unfiltered source section.
	// Nil keeps every section.
	Section func(core.Section[T]) bool
	// Empty is the policy for sections left without objects.
	Empty EmptySections
}

// Apply filters snap according to the rules.
func (r Rules[T]) Apply(snap core.Snapshot[T]) core.Snapshot[T] {
	out := core.Snapshot[T]{Sections: make([]core.Section[T], 0, len(snap.Sections))}
	for _, sec := range snap.Sections {
		if r.Section != nil && !r.Section(sec) {
			continue
		}
		kept := core.Section[T]{ID: sec.ID, Title: sec.Title}
		for _, obj := range sec.Objects {
			if r.Object == nil || r.Object(obj) {
				kept.Objects = append(kept.Objects, obj)
			}
		}
		if r.Empty == DropEmpty && len(kept.Objects) == 0 {
			continue
		}
		out.Sections = append(out.Sections, kept)
	}
	return out
}

// Collection is a filtered view over a source collection.
type Collection[T comparable] struct {
	opts      *platform.Options
	source    core.Collection[T]
	rules     Rules[T]
	snap      core.Snapshot[T]
	observers *notify.Registry[T]
	lookups   *index.Cache[T]
	link      *sourceLink[T]
}

// New creates a filtered view of source and subscribes to it.
// Call Close to unsubscribe.
func New[T comparable](source core.Collection[T], rules Rules[T], opts ...Option) *Collection[T] {
	o := platform.Resolve("filtered", opts...)
	c := &Collection[T]{
		opts:      o,
		source:    source,
		rules:     rules,
		snap:      rules.Apply(source.Snapshot()),
		observers: notify.NewRegistry[T](o.Logger),
		lookups:   index.New[T](o.LookupCache),
	}
	c.link = &sourceLink[T]{target: c}
	source.AddObserver(c.link)
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

// Rules returns the rules currently in effect.
func (c *Collection[T]) Rules() Rules[T] {
	return c.rules
}

// SetRules replaces the rules, re-derives the snapshot and publishes the difference.
func (c *Collection[T]) SetRules(rules Rules[T]) error {
	if c.link == nil {
		return core.ErrClosed
	}
	c.rules = rules
	c.refresh(nil)
	return nil
}

// SetObjectPredicate replaces only the object predicate.
func (c *Collection[T]) SetObjectPredicate(fn func(T) bool) error {
	rules := c.rules
	rules.Object = fn
	return c.SetRules(rules)
}

// SetSectionPredicate replaces only the section predicate.
func (c *Collection[T]) SetSectionPredicate(fn func(core.Section[T]) bool) error {
	rules := c.rules
	rules.Section = fn
	return c.SetRules(rules)
}

// Close unsubscribes from the source. The last snapshot stays readable.
func (c *Collection[T]) Close() error {
	if c.link == nil {
		return core.ErrClosed
	}
	c.source.RemoveObserver(c.link)
	c.link = nil
	c.opts.Logger.Debug("filtered collection closed")
	return nil
}

func (c *Collection[T]) refresh(updated map[T]bool) {
	next := c.rules.Apply(c.source.Snapshot())
	changes := diff.Compute(c.snap, next, updated)
	c.snap = next
	c.lookups.Reset()
	c.observers.Publish(notify.NewBatch(changes))
}

// State implements introspection.Introspectable.
func (c *Collection[T]) State() any {
	return core.CollectionState{
		Name:      c.opts.Name,
		Kind:      "filtered",
		Sections:  c.snap.NumSections(),
		Objects:   c.snap.Len(),
		Observers: c.observers.Len(),
		Batches:   c.observers.Published(),
		Sources:   1,
		Closed:    c.link == nil,
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

// sourceLink receives the source notifications on behalf of a filtered collection.
type sourceLink[T comparable] struct {
	target  *Collection[T]
	updated map[T]bool
}

func (l *sourceLink[T]) WillChangeContent() {
	l.updated = make(map[T]bool)
}

func (l *sourceLink[T]) DidChange(c core.Change[T]) {
	if c.Kind == core.ObjectUpdated {
		l.updated[c.Object] = true
	}
}

func (l *sourceLink[T]) DidChangeContent() {
	updated := l.updated
	l.updated = nil
	l.target.refresh(updated)
}
