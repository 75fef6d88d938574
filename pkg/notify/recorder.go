package notify

import (
	"fmt"

	"github.com/aretw0/collist/pkg/core"
)

// Recorder is an Observer that keeps every batch it receives.
// It reports protocol violations (unbalanced brackets, records outside a batch) through
// Err instead of panicking.
type Recorder[T comparable] struct {
	batches []core.Batch[T]
	current *core.Batch[T]
	nextID  string
	err     error
}

// NewRecorder creates an empty recorder.
func NewRecorder[T comparable]() *Recorder[T] {
	return &Recorder[T]{}
}

// BeginBatch remembers the ID of the batch about to be delivered.
func (r *Recorder[T]) BeginBatch(id string) {
	r.nextID = id
}

func (r *Recorder[T]) WillChangeContent() {
	if r.current != nil && r.err == nil {
		r.err = fmt.Errorf("nested WillChangeContent after %d batches", len(r.batches))
	}
	r.current = &core.Batch[T]{ID: r.nextID}
	r.nextID = ""
}

func (r *Recorder[T]) DidChange(c core.Change[T]) {
	if r.current == nil {
		if r.err == nil {
			r.err = fmt.Errorf("change %s outside of a batch", c)
		}
		return
	}
	r.current.Changes = append(r.current.Changes, c)
}

func (r *Recorder[T]) DidChangeContent() {
	if r.current == nil {
		if r.err == nil {
			r.err = fmt.Errorf("DidChangeContent without WillChangeContent")
		}
		return
	}
	r.batches = append(r.batches, *r.current)
	r.current = nil
}

// Batches returns the completed batches in arrival order.
func (r *Recorder[T]) Batches() []core.Batch[T] {
	return r.batches
}

// Last returns the most recent completed batch.
func (r *Recorder[T]) Last() (core.Batch[T], bool) {
	if len(r.batches) == 0 {
		return core.Batch[T]{}, false
	}
	return r.batches[len(r.batches)-1], true
}

// Reset drops everything recorded so far.
func (r *Recorder[T]) Reset() {
	r.batches = nil
	r.current = nil
	r.nextID = ""
	r.err = nil
}

// Err returns the first protocol violation seen, if any.
func (r *Recorder[T]) Err() error {
	return r.err
}

var (
	_ core.Observer[int] = (*Recorder[int])(nil)
	_ core.BatchObserver = (*Recorder[int])(nil)
)
