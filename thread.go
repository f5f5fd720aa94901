package racer

import "github.com/zeebo/racer/internal/thread"

// ThreadID returns the identity of the calling thread. Two live threads never
// share an id and ids are not reused.
func ThreadID() int64 { return int64(thread.Current()) }

// RunThread runs fn as a managed thread on the calling goroutine: when the
// outermost RunThread returns, every ThreadLocal value the goroutine set is
// released. Nested calls on the same goroutine do nothing extra.
//
// Tasks started by a Queue are already managed.
func RunThread(fn func()) { thread.Run(fn) }

// Sweep releases the ThreadLocal values of goroutines that never ran as
// managed threads and have since exited. It returns how many goroutines were
// reclaimed. Sweeps also start on their own as new goroutines set values, so
// calling it is only needed to reclaim promptly.
func Sweep() int { return thread.Sweep() }
