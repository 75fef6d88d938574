package filtered

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// Glob returns an object predicate matching strings against a doublestar pattern
// (e.g. "a*", "{apple,pear}", "fruit/**").
func Glob(pattern string) (func(string) bool, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}
	return func(s string) bool {
		ok, _ := doublestar.Match(pattern, s)
		return ok
	}, nil
}

// Not negates a predicate.
func Not[T any](fn func(T) bool) func(T) bool {
	return func(v T) bool { return !fn(v) }
}
