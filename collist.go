package collist

import (
	"log/slog"

	"github.com/aretw0/collist/internal/platform"
	"github.com/aretw0/collist/pkg/array"
	"github.com/aretw0/collist/pkg/core"
	"github.com/aretw0/collist/pkg/diff"
	"github.com/aretw0/collist/pkg/filtered"
	"github.com/aretw0/collist/pkg/sorted"
)

// --- Types ---

// IndexPath is a public alias for core.IndexPath.
type IndexPath = core.IndexPath

// Section is a public alias for core.Section.
type Section[T comparable] = core.Section[T]

// Snapshot is a public alias for core.Snapshot.
type Snapshot[T comparable] = core.Snapshot[T]

// Change is a public alias for core.Change.
type Change[T comparable] = core.Change[T]

// Batch is a public alias for core.Batch.
type Batch[T comparable] = core.Batch[T]

// Observer is a public alias for core.Observer.
type Observer[T comparable] = core.Observer[T]

// ObserverFuncs is a public alias for core.ObserverFuncs.
type ObserverFuncs[T comparable] = core.ObserverFuncs[T]

// Collection is a public alias for core.Collection.
type Collection[T comparable] = core.Collection[T]

// Array is a public alias for the mutable collection.
type Array[T comparable] = array.Collection[T]

// Filtered is a public alias for the filtered view.
type Filtered[T comparable] = filtered.Collection[T]

// Sorted is a public alias for the sorted view.
type Sorted[T comparable] = sorted.Collection[T]

// FilterRules is a public alias for filtered.Rules.
type FilterRules[T comparable] = filtered.Rules[T]

// SortRules is a public alias for sorted.Rules.
type SortRules[T comparable] = sorted.Rules[T]

// Change kinds.
const (
	SectionInserted = core.SectionInserted
	SectionDeleted  = core.SectionDeleted
	ObjectInserted  = core.ObjectInserted
	ObjectDeleted   = core.ObjectDeleted
	ObjectMoved     = core.ObjectMoved
	ObjectUpdated   = core.ObjectUpdated
)

// Empty section policies for filtered views.
const (
	KeepEmpty = filtered.KeepEmpty
	DropEmpty = filtered.DropEmpty
)

// Errors.
var (
	ErrIndexOutOfRange  = core.ErrIndexOutOfRange
	ErrDuplicateSection = core.ErrDuplicateSection
	ErrNoBatchOpen      = core.ErrNoBatchOpen
	ErrClosed           = core.ErrClosed
)

// --- Configuration ---

// Option defines a functional option for configuring a collection.
type Option = platform.Option

// WithName sets the name used in logs, metrics and introspection.
func WithName(name string) Option {
	return platform.WithName(name)
}

// WithLogger sets the logger for the collection.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithLookupCache sets how many IndexPathOf answers are cached. Zero disables caching.
func WithLookupCache(size int) Option {
	return platform.WithLookupCache(size)
}

// --- Factories ---

// Path builds an index path.
func Path(section, item int) IndexPath {
	return core.Path(section, item)
}

// NewSection builds a section holding a copy of objects.
func NewSection[T comparable](id string, objects ...T) Section[T] {
	return core.NewSection(id, objects...)
}

// NewArray creates a mutable collection. Section IDs must be unique.
func NewArray[T comparable](sections []Section[T], opts ...Option) (*Array[T], error) {
	return array.New(sections, opts...)
}

// NewList creates a mutable collection with a single unnamed section.
func NewList[T comparable](objects []T, opts ...Option) *Array[T] {
	return array.NewList(objects, opts...)
}

// NewFiltered creates a filtered view of source.
func NewFiltered[T comparable](source Collection[T], rules FilterRules[T], opts ...Option) *Filtered[T] {
	return filtered.New(source, rules, opts...)
}

// NewSorted creates a sorted view merging sources.
func NewSorted[T comparable](sources []Collection[T], rules SortRules[T], opts ...Option) *Sorted[T] {
	return sorted.New(sources, rules, opts...)
}

// --- Change engine ---

// Diff computes the batch turning old into next. Objects in updated that stay in place
// are reported as updates.
func Diff[T comparable](old, next Snapshot[T], updated map[T]bool) []Change[T] {
	return diff.Compute(old, next, updated)
}

// Apply replays changes onto old.
func Apply[T comparable](old Snapshot[T], changes []Change[T]) (Snapshot[T], error) {
	return diff.Apply(old, changes)
}
