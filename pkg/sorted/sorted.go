// Package sorted implements a collection that merges one or more source collections
// and orders the objects of every section with a comparator.
//
// Sections with the same ID in different sources are unified, in order of first
// appearance. When a section key function is configured, objects are regrouped into
// sections named by that key instead. Sorting is stable: ties keep the merge order.
// Every source batch re-derives the merged snapshot and publishes the difference, so
// a sort key change surfaces as a move.
package sorted

import (
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

// Rules describe how sources are merged and ordered.
type Rules[T comparable] struct {
	// Compare orders objects within a section. It must be a strict weak ordering;
	// violations yield an unspecified order. Nil keeps the merge order.
	Compare func(a, b T) int
	// SectionKey regroups objects into sections named by the returned key.
	// Nil unifies source sections by ID.
	SectionKey func(T) string
}

// Apply merges sources in order and sorts the result.
func (r Rules[T]) Apply(sources ...core.Snapshot[T]) core.Snapshot[T] {
	if r.SectionKey != nil {
		return r.regroup(sources)
	}

	var out core.Snapshot[T]
	pos := make(map[string]int)
	for _, src := range sources {
		for _, sec := range src.Sections {
			i, ok := pos[sec.ID]
			if !ok {
				i = len(out.Sections)
				pos[sec.ID] = i
				out.Sections = append(out.Sections, core.Section[T]{ID: sec.ID, Title: sec.Title})
			}
			out.Sections[i].Objects = append(out.Sections[i].Objects, sec.Objects...)
		}
	}
	if r.Compare != nil {
		for i := range out.Sections {
			slices.SortStableFunc(out.Sections[i].Objects, r.Compare)
		}
	}
	return out
}

func (r Rules[T]) regroup(sources []core.Snapshot[T]) core.Snapshot[T] {
	var all []T
	for _, src := range sources {
		all = append(all, src.Objects()...)
	}
	if r.Compare != nil {
		slices.SortStableFunc(all, r.Compare)
	}

	var out core.Snapshot[T]
	pos := make(map[string]int)
	for _, obj := range all {
		key := r.SectionKey(obj)
		i, ok := pos[key]
		if !ok {
			i = len(out.Sections)
			pos[key] = i
			out.Sections = append(out.Sections, core.Section[T]{ID: key, Title: key})
		}
		out.Sections[i].Objects = append(out.Sections[i].Objects, obj)
	}
	return out
}

// Collection is a sorted, merged view over source collections.
type Collection[T comparable] struct {
	opts      *platform.Options
	sources   []core.Collection[T]
	links     []*sourceLink[T]
	rules     Rules[T]
	snap      core.Snapshot[T]
	observers *notify.Registry[T]
	lookups   *index.Cache[T]
	closed    bool
}

// New creates a sorted view merging sources in the given order and subscribes to each.
// Call Close to unsubscribe.
func New[T comparable](sources []core.Collection[T], rules Rules[T], opts ...Option) *Collection[T] {
	o := platform.Resolve("sorted", opts...)
	c := &Collection[T]{
		opts:      o,
		sources:   slices.Clone(sources),
		rules:     rules,
		observers: notify.NewRegistry[T](o.Logger),
		lookups:   index.New[T](o.LookupCache),
	}
	c.snap = c.derive()
	for _, src := range c.sources {
		link := &sourceLink[T]{target: c}
		c.links = append(c.links, link)
		src.AddObserver(link)
	}
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
	if c.closed {
		return core.ErrClosed
	}
	c.rules = rules
	c.refresh(nil)
	return nil
}

// SetComparator replaces only the comparator.
func (c *Collection[T]) SetComparator(cmp func(a, b T) int) error {
	rules := c.rules
	rules.Compare = cmp
	return c.SetRules(rules)
}

// Close unsubscribes from every source. The last snapshot stays readable.
func (c *Collection[T]) Close() error {
	if c.closed {
		return core.ErrClosed
	}
	for i, src := range c.sources {
		src.RemoveObserver(c.links[i])
	}
	c.links = nil
	c.closed = true
	c.opts.Logger.Debug("sorted collection closed", "sources", len(c.sources))
	return nil
}

func (c *Collection[T]) derive() core.Snapshot[T] {
	snaps := make([]core.Snapshot[T], len(c.sources))
	for i, src := range c.sources {
		snaps[i] = src.Snapshot()
	}
	return c.rules.Apply(snaps...)
}

func (c *Collection[T]) refresh(updated map[T]bool) {
	next := c.derive()
	changes := diff.Compute(c.snap, next, updated)
	c.snap = next
	c.lookups.Reset()
	c.observers.Publish(notify.NewBatch(changes))
}

// State implements introspection.Introspectable.
func (c *Collection[T]) State() any {
	return core.CollectionState{
		Name:      c.opts.Name,
		Kind:      "sorted",
		Sections:  c.snap.NumSections(),
		Objects:   c.snap.Len(),
		Observers: c.observers.Len(),
		Batches:   c.observers.Published(),
		Sources:   len(c.sources),
		Closed:    c.closed,
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

// sourceLink receives the notifications of one source on behalf of a sorted collection.
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
