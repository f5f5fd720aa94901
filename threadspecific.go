package racer

import "github.com/zeebo/racer/internal/thread"

// ThreadSpecific caches a value computed for one thread and recomputes it
// when it is read from another. It does no locking: concurrent Value calls
// on the same ThreadSpecific race.
type ThreadSpecific[T any] struct {
	tid       thread.ID
	value     T
	recompute func() T
}

// NewThreadSpecific computes the initial value on the calling thread.
func NewThreadSpecific[T any](recompute func() T) ThreadSpecific[T] {
	return ThreadSpecific[T]{
		tid:       thread.Current(),
		value:     recompute(),
		recompute: recompute,
	}
}

// NewThreadSpecificValue caches v for the calling thread.
func NewThreadSpecificValue[T any](v T, recompute func() T) ThreadSpecific[T] {
	return ThreadSpecific[T]{
		tid:       thread.Current(),
		value:     v,
		recompute: recompute,
	}
}

// Value returns the cached value, recomputing it first if the calling thread
// is not the one it was computed on.
func (ts *ThreadSpecific[T]) Value() T {
	if id := thread.Current(); id != ts.tid {
		ts.tid = id
		ts.value = ts.recompute()
	}
	return ts.value
}
