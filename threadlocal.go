package racer

import (
	"fmt"
	"runtime"
	"weak"

	"github.com/zeebo/racer/internal/syncutil"
	"github.com/zeebo/racer/internal/thread"
)

// ThreadLocal holds one value of T per thread. A thread that never set a
// value reads the default. When a managed thread exits its value is
// released. Values of other goroutines are released by a Sweep once the
// goroutine is gone.
//
// The zero value is not usable; use NewThreadLocal.
type ThreadLocal[T any] struct {
	def T
	key *thread.Key

	mu     syncutil.Mutex
	values map[thread.Slot]T
	closed bool
}

// NewThreadLocal returns a ThreadLocal whose unset value is def.
//
// If too many ThreadLocal values are live it logs and panics with an error
// wrapping ErrResourceExhausted. The panic is fatal: the process cannot
// allocate thread-local state, and callers must not recover it.
func NewThreadLocal[T any](def T) *ThreadLocal[T] {
	ensure()

	tl := &ThreadLocal[T]{
		def:    def,
		values: make(map[thread.Slot]T),
	}

	// the destructor outlives tl in the registry, so it must not keep tl
	// reachable.
	owner := weak.Make(tl)
	key, err := thread.NewKey(func(s thread.Slot) {
		if tl := owner.Value(); tl != nil {
			tl.release(s)
		}
	})
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrResourceExhausted, err)
		logger().Error("unable to allocate thread-local key", "err", err)
		panic(err)
	}
	tl.key = key

	runtime.AddCleanup(tl, func(key *thread.Key) { key.Delete() }, key)

	return tl
}

// Get returns the calling thread's value, or the default if it has none.
func (tl *ThreadLocal[T]) Get() T {
	slot, ok := tl.key.Get()
	if !ok {
		return tl.def
	}

	tl.mu.Lock()
	v, ok := tl.values[slot]
	tl.mu.Unlock()

	if !ok {
		return tl.def
	}
	return v
}

// Set sets the calling thread's value. It does nothing after Close.
func (tl *ThreadLocal[T]) Set(v T) {
	slot, ok := tl.key.Get()
	if !ok {
		slot = thread.NewSlot()
		if !tl.key.Set(slot) {
			return
		}
	}

	tl.mu.Lock()
	if !tl.closed {
		tl.values[slot] = v
	}
	tl.mu.Unlock()
}

// Reset removes the calling thread's value so that Get returns the default.
func (tl *ThreadLocal[T]) Reset() {
	slot, ok := tl.key.Get()
	if !ok {
		return
	}
	tl.key.Clear()
	tl.release(slot)
}

// Len returns how many threads currently hold a value.
func (tl *ThreadLocal[T]) Len() int {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return len(tl.values)
}

// Close releases every thread's value and the underlying key. Later calls
// to Set do nothing and Get returns the default.
func (tl *ThreadLocal[T]) Close() {
	tl.key.Delete()

	tl.mu.Lock()
	tl.closed = true
	clear(tl.values)
	tl.mu.Unlock()
}

func (tl *ThreadLocal[T]) release(slot thread.Slot) {
	tl.mu.Lock()
	delete(tl.values, slot)
	tl.mu.Unlock()
}
