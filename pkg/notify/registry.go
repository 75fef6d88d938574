// Package notify delivers change batches to observers.
package notify

import (
	"log/slog"
	"reflect"
	"slices"

	"github.com/google/uuid"

	"github.com/aretw0/collist/pkg/core"
)

// NewBatch wraps changes into a batch with a fresh ID.
func NewBatch[T comparable](changes []core.Change[T]) core.Batch[T] {
	return core.Batch[T]{ID: uuid.NewString(), Changes: changes}
}

// Registry keeps observers in registration order and publishes batches to them.
// It is not safe for concurrent use; collections serialize access to it.
type Registry[T comparable] struct {
	logger    *slog.Logger
	observers []core.Observer[T]
	published uint64
}

// NewRegistry creates a registry logging through logger, which is expected to carry the
// collection attributes already. A nil logger discards.
func NewRegistry[T comparable](logger *slog.Logger) *Registry[T] {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry[T]{logger: logger}
}

// Add registers o at the end of the list. Registering twice is a no-op.
// Observers that cannot be compared (a struct holding a slice, say) are rejected.
func (r *Registry[T]) Add(o core.Observer[T]) {
	if !isComparable(o) {
		if o != nil {
			r.logger.Warn("ignoring non-comparable observer", "type", reflect.TypeOf(o).String())
		}
		return
	}
	if slices.Contains(r.observers, o) {
		return
	}
	r.observers = append(r.observers, o)
}

// Remove unregisters o.
// Removal never mutates a slice being iterated by Publish.
func (r *Registry[T]) Remove(o core.Observer[T]) {
	if !isComparable(o) {
		return
	}
	i := slices.Index(r.observers, o)
	if i < 0 {
		return
	}
	r.observers = slices.Delete(slices.Clone(r.observers), i, i+1)
}

// Len returns the number of registered observers.
func (r *Registry[T]) Len() int {
	return len(r.observers)
}

// Published returns how many batches were delivered so far.
func (r *Registry[T]) Published() uint64 {
	return r.published
}

// Publish delivers b to every observer registered when the call starts, one observer
// at a time in registration order, each bracketed by WillChangeContent and
// DidChangeContent. Observers implementing core.BatchObserver learn b.ID first.
func (r *Registry[T]) Publish(b core.Batch[T]) {
	r.published++
	observers := r.observers

	r.logger.Debug("publishing batch",
		"batch", b.ID,
		"changes", len(b.Changes),
		"observers", len(observers),
	)

	for _, o := range observers {
		if bo, ok := o.(core.BatchObserver); ok {
			bo.BeginBatch(b.ID)
		}
		o.WillChangeContent()
		for _, c := range b.Changes {
			o.DidChange(c)
		}
		o.DidChangeContent()
	}
}

func isComparable(o any) bool {
	return o != nil && reflect.TypeOf(o).Comparable()
}
