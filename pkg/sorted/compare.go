package sorted

import "golang.org/x/exp/constraints"

// ByKey orders values by an extracted ordered key.
func ByKey[T any, K constraints.Ordered](key func(T) K) func(a, b T) int {
	return func(a, b T) int {
		ka, kb := key(a), key(b)
		switch {
		case ka < kb:
			return -1
		case ka > kb:
			return 1
		default:
			return 0
		}
	}
}

// Ascending orders ordered values naturally.
func Ascending[T constraints.Ordered](a, b T) int {
	return ByKey(func(v T) T { return v })(a, b)
}

// Reverse inverts a comparator.
func Reverse[T any](cmp func(a, b T) int) func(a, b T) int {
	return func(a, b T) int { return cmp(b, a) }
}

// Then breaks ties of first with second.
func Then[T any](first, second func(a, b T) int) func(a, b T) int {
	return func(a, b T) int {
		if c := first(a, b); c != 0 {
			return c
		}
		return second(a, b)
	}
}
