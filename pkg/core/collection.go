package core

// Observer receives the change notifications of a collection.
//
// Every logical mutation produces exactly one WillChangeContent, zero or more DidChange
// calls in apply order, and one DidChangeContent. Observers must not mutate the
// collection they are notified by from inside a callback.
//
// Observers are registered and removed by equality, so they must be comparable:
// register pointers. A non-comparable observer is ignored by AddObserver.
type Observer[T comparable] interface {
	WillChangeContent()
	DidChange(c Change[T])
	DidChangeContent()
}

// BatchObserver is implemented by observers that want the ID of the batch about to be
// delivered. BeginBatch is called right before WillChangeContent.
type BatchObserver interface {
	BeginBatch(id string)
}

// Collection is the contract shared by every collection variant.
type Collection[T comparable] interface {
	// Snapshot returns the current state. It must not be modified by the caller.
	Snapshot() Snapshot[T]

	// Sections returns the current sections in order.
	Sections() []Section[T]

	// Objects returns every object flattened in section order.
	Objects() []T

	// Object returns the object at p or an error wrapping ErrIndexOutOfRange.
	Object(p IndexPath) (T, error)

	// IndexPathOf returns the position of the first object equal to obj.
	IndexPathOf(obj T) (IndexPath, bool)

	// AddObserver registers o. Adding the same observer twice is a no-op.
	AddObserver(o Observer[T])

	// RemoveObserver unregisters o. It is safe to call from inside a callback.
	RemoveObserver(o Observer[T])
}

// ObserverFuncs adapts plain functions to Observer. Nil functions are skipped.
// Register it by pointer so it can be removed again.
type ObserverFuncs[T comparable] struct {
	OnWillChange func()
	OnChange     func(Change[T])
	OnDidChange  func()
}

func (f *ObserverFuncs[T]) WillChangeContent() {
	if f.OnWillChange != nil {
		f.OnWillChange()
	}
}

func (f *ObserverFuncs[T]) DidChange(c Change[T]) {
	if f.OnChange != nil {
		f.OnChange(c)
	}
}

func (f *ObserverFuncs[T]) DidChangeContent() {
	if f.OnDidChange != nil {
		f.OnDidChange()
	}
}

var _ Observer[int] = (*ObserverFuncs[int])(nil)
