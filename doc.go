// package racer provides synchronization primitives built on thread-local storage.
//
// A thread in this package is a goroutine. Go does not tell anyone when a goroutine
// exits, so the package makes thread lifetime explicit: tasks started by a Queue, and
// functions passed to RunThread, run as managed threads. When a managed thread exits,
// every ThreadLocal value it set is released:
//
//	var depth = racer.NewThreadLocal(0)
//
//	racer.Wait(func(dispatch func(func())) {
//		for i := 0; i < 10; i++ {
//			dispatch(func() {
//				depth.Set(depth.Get() + 1)
//			})
//		}
//	})
//
//	depth.Len() // 0: every task's value was released when it returned
//
// Goroutines started with the go statement are unmanaged. Their values are released by a
// sweep after the goroutine is gone. Sweeps run on their own as new goroutines set values,
// and Sweep runs one immediately.
//
// A Monitor guards a value instead of a section of code:
//
//	balances := racer.NewMonitor(map[string]int{})
//	balances.Update(func(m *map[string]int) { (*m)["alice"] += 10 })
//
// The locks all take the work to run instead of a Lock/Unlock pair, so that a panic or
// early return cannot leave them held:
//
//	mu := racer.NewRecursiveMutex()
//	mu.Acquire(func() {
//		mu.Acquire(func() {
//			// reentry from the holding thread does not deadlock
//		})
//	})
//
// Several locks are acquired together, in a fixed order, with a MutexGroup:
//
//	racer.AcquireAll(func() {
//		transfer(from, to)
//	}, from.mu, to.mu)
//
// A CancelableSemaphore wakes every blocked waiter with ErrCanceled when it is
// canceled, which is useful to shut down a pool of workers:
//
//	sem := racer.NewCancelableSemaphore(0)
//	for i := 0; i < 5; i++ {
//		racer.Go(func() {
//			for sem.Wait() == nil {
//				work()
//			}
//		})
//	}
//	sem.Cancel()
//
// Barriers on a concurrent Queue are cheap for the tasks around them. Submitting a task
// touches a rarely-changing shared value and a counter picked by the submitting thread,
// and only the barrier visits every counter. A barrier does not stop the submission of
// later tasks; they are held back until it finishes.
package racer
