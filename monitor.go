package racer

// Monitor guards a value of T with a Mutex. The value is only reachable
// while the mutex is held.
//
// Monitor is a Locker, so several monitors can be held at once with
// AcquireAll or a MutexGroup; Apply2 and Apply3 do that and hand over the
// values.
//
// The zero value holds the zero T and is unlocked.
type Monitor[T any] struct {
	mu    Mutex
	value T
}

// NewMonitor returns a Monitor holding v. If T holds pointers, v must not be
// used afterwards except through the Monitor.
func NewMonitor[T any](v T) *Monitor[T] {
	return &Monitor[T]{value: v}
}

// Acquire runs work while holding the monitor's mutex.
func (m *Monitor[T]) Acquire(work func()) { m.mu.Acquire(work) }

// Update runs fn on the guarded value. fn must not keep the pointer.
func (m *Monitor[T]) Update(fn func(v *T)) {
	m.mu.Acquire(func() { fn(&m.value) })
}

// Load returns a copy of the guarded value.
func (m *Monitor[T]) Load() (v T) {
	m.mu.Acquire(func() { v = m.value })
	return v
}

// Store replaces the guarded value.
func (m *Monitor[T]) Store(v T) {
	m.mu.Acquire(func() { m.value = v })
}

// Apply runs fn on the value of a and returns its result.
func Apply[A, R any](a *Monitor[A], fn func(a *A) R) (r R) {
	a.mu.Acquire(func() { r = fn(&a.value) })
	return r
}

// Apply2 holds a then b, runs fn on both values and returns its result.
func Apply2[A, B, R any](a *Monitor[A], b *Monitor[B], fn func(a *A, b *B) R) (r R) {
	AcquireAll(func() { r = fn(&a.value, &b.value) }, a, b)
	return r
}

// Apply3 holds a, b, then c, runs fn on the three values and returns its
// result.
func Apply3[A, B, C, R any](a *Monitor[A], b *Monitor[B], c *Monitor[C], fn func(a *A, b *B, c *C) R) (r R) {
	AcquireAll(func() { r = fn(&a.value, &b.value, &c.value) }, a, b, c)
	return r
}
