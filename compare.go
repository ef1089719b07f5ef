package knuffimap

import "golang.org/x/exp/constraints"

// Comparator is a total order over values: negative when a sorts before b,
// zero when they rank equally, positive otherwise. It must not change for the
// lifetime of a KnuffiMap.
type Comparator[T any] func(a, b T) int

// OrderedBy ranks values ascending by the key extracted from them.
func OrderedBy[T any, K constraints.Ordered](key func(T) K) Comparator[T] {
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

func Reverse[T any](c Comparator[T]) Comparator[T] {
	return func(a, b T) int {
		return c(b, a)
	}
}

// Then breaks ties of c with the given comparators, in order.
func Then[T any](c Comparator[T], next ...Comparator[T]) Comparator[T] {
	return func(a, b T) int {
		if r := c(a, b); r != 0 {
			return r
		}
		for _, n := range next {
			if r := n(a, b); r != 0 {
				return r
			}
		}
		return 0
	}
}
