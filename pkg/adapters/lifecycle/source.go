// Package lifecycle bridges collection notifications to the lifecycle event model,
// so a collection can feed a lifecycle router or supervisor like any other source.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/collist/internal/platform"
	"github.com/aretw0/collist/pkg/core"
)

// DefaultBuffer is the number of batches queued before new ones are dropped.
const DefaultBuffer = 64

// Event carries one batch published by a collection.
type Event[T comparable] struct {
	Collection string
	Batch      core.Batch[T]
}

func (e Event[T]) String() string {
	return fmt.Sprintf("%s %s", e.Collection, e.Batch)
}

// Source is a lifecycle.Source that emits one Event per batch of a collection.
//
// The collection side never blocks: when the queue is full the batch is dropped and
// counted. Close must be called from the goroutine that mutates the collection.
type Source[T comparable] struct {
	opts       *platform.Options
	collection core.Collection[T]
	link       *batchLink[T]
	queue      chan Event[T]
	out        chan lifecycle.Event
	dropped    atomic.Uint64
	closeOnce  sync.Once
}

// NewSource subscribes to c and queues up to buffer batches (DefaultBuffer when zero
// or negative). Events are tagged with the collection name unless WithName says otherwise.
func NewSource[T comparable](c core.Collection[T], buffer int, opts ...platform.Option) *Source[T] {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if named, ok := c.(interface{ Name() string }); ok {
		opts = append([]platform.Option{platform.WithName(named.Name())}, opts...)
	}
	s := &Source[T]{
		opts:       platform.Resolve("source", opts...),
		collection: c,
		queue:      make(chan Event[T], buffer),
		out:        make(chan lifecycle.Event),
	}
	s.link = &batchLink[T]{source: s}
	c.AddObserver(s.link)
	return s
}

func (s *Source[T]) Events() <-chan lifecycle.Event {
	return s.out
}

// Start forwards queued batches until ctx is done or the source is closed.
func (s *Source[T]) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.queue:
				if !ok {
					return nil
				}
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		s.opts.Logger.Error("source bridge failed", "error", err)
	}))
	return nil
}

// Close unsubscribes from the collection. Batches already queued are still delivered.
func (s *Source[T]) Close() error {
	s.closeOnce.Do(func() {
		s.collection.RemoveObserver(s.link)
		close(s.queue)
	})
	return nil
}

// Dropped returns the number of batches discarded because the queue was full.
func (s *Source[T]) Dropped() uint64 {
	return s.dropped.Load()
}

func (s *Source[T]) enqueue(b core.Batch[T]) {
	select {
	case s.queue <- Event[T]{Collection: s.opts.Name, Batch: b}:
	default:
		n := s.dropped.Add(1)
		s.opts.Logger.Warn("event queue full, dropping batch", "batch", b.ID, "dropped", n)
	}
}

var _ lifecycle.Source = (*Source[int])(nil)

// batchLink rebuilds each published batch, keeping the ID the collection logged.
type batchLink[T comparable] struct {
	source  *Source[T]
	id      string
	pending []core.Change[T]
}

func (l *batchLink[T]) BeginBatch(id string) {
	l.id = id
}

func (l *batchLink[T]) WillChangeContent() {
	l.pending = nil
}

func (l *batchLink[T]) DidChange(c core.Change[T]) {
	l.pending = append(l.pending, c)
}

func (l *batchLink[T]) DidChangeContent() {
	b := core.Batch[T]{ID: l.id, Changes: l.pending}
	l.id, l.pending = "", nil
	l.source.enqueue(b)
}
