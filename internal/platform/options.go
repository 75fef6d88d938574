package platform

import (
	"log/slog"
)

// DefaultLookupCache is the reverse index cache size used when none is configured.
const DefaultLookupCache = 256

// Options holds the configuration shared by every collection variant.
type Options struct {
	Name        string
	Logger      *slog.Logger
	LookupCache int
}

// Option defines a functional option for configuring a collection.
type Option func(*Options)

// Resolve applies opts over the defaults for a collection of the given kind.
func Resolve(kind string, opts ...Option) *Options {
	o := &Options{
		Name:        kind,
		LookupCache: DefaultLookupCache,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	o.Logger = o.Logger.With("collection", o.Name)
	return o
}

// WithName sets the name used in logs, metrics and introspection.
// Defaults to the collection kind ("array", "filtered", "sorted").
func WithName(name string) Option {
	return func(o *Options) {
		if name != "" {
			o.Name = name
		}
	}
}

// WithLogger sets the logger for the collection.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithLookupCache sets how many IndexPathOf answers are cached per snapshot.
// Zero disables the cache and every lookup scans the snapshot.
func WithLookupCache(size int) Option {
	return func(o *Options) {
		if size < 0 {
			size = 0
		}
		o.LookupCache = size
	}
}
