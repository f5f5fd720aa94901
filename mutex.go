package racer

import "sync"

// Locker runs work while holding a lock. The lock is released when work
// returns or panics.
type Locker interface {
	Acquire(work func())
}

// With runs work under l and returns its result.
func With[R any](l Locker, work func() R) (r R) {
	l.Acquire(func() { r = work() })
	return r
}

// WithErr runs work under l and returns its result and error.
func WithErr[R any](l Locker, work func() (R, error)) (r R, err error) {
	l.Acquire(func() { r, err = work() })
	return r, err
}

// Mutex is a mutual exclusion lock. Acquiring it again from the thread that
// holds it deadlocks; use RecursiveMutex for that.
//
// The zero value is an unlocked Mutex.
type Mutex struct {
	once sync.Once
	sem  Semaphore
}

// NewMutex returns an unlocked Mutex.
func NewMutex() *Mutex { return new(Mutex) }

// Acquire runs work while holding the mutex.
func (m *Mutex) Acquire(work func()) {
	// seed the single permit.
	m.once.Do(func() { m.sem.Signal() })

	m.sem.Wait()
	defer m.sem.Signal()

	work()
}

// RecursiveMutex is a Mutex that the holding thread may acquire again.
// Nested acquisitions run their work directly, and only the outermost one
// releases the lock.
//
// The zero value is not usable; use NewRecursiveMutex.
type RecursiveMutex struct {
	mu   Mutex
	held *ThreadLocal[bool]
}

// NewRecursiveMutex returns an unlocked RecursiveMutex. It allocates a
// ThreadLocal and so may panic like NewThreadLocal.
func NewRecursiveMutex() *RecursiveMutex {
	return &RecursiveMutex{held: NewThreadLocal(false)}
}

// Acquire runs work while holding the mutex.
func (m *RecursiveMutex) Acquire(work func()) {
	if m.held.Get() {
		work()
		return
	}

	m.held.Set(true)
	defer m.held.Reset()

	m.mu.Acquire(work)
}

// Close releases the thread-local state of the mutex. It must not be held.
func (m *RecursiveMutex) Close() { m.held.Close() }

// MutexGroup acquires several lockers as one, in the order given, and
// releases them in reverse.
type MutexGroup struct {
	lockers []Locker
}

// NewMutexGroup returns a group of lockers. The first locker is acquired
// first and released last.
func NewMutexGroup(lockers ...Locker) *MutexGroup {
	return &MutexGroup{lockers: append([]Locker(nil), lockers...)}
}

// Acquire runs work while holding every locker of the group.
func (g *MutexGroup) Acquire(work func()) {
	nested := work
	for i := len(g.lockers) - 1; i >= 0; i-- {
		l, inner := g.lockers[i], nested
		nested = func() { l.Acquire(inner) }
	}
	nested()
}

// AcquireAll runs work while holding every locker, acquired in order.
func AcquireAll(work func(), lockers ...Locker) {
	NewMutexGroup(lockers...).Acquire(work)
}
