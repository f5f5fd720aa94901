package stress

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/zeebo/racer"
)

// Checks returns every check, in the order they run.
func Checks() []Check {
	return []Check{
		{Name: "mutex", Run: MutualExclusion},
		{Name: "recursive", Run: RecursiveReentry},
		{Name: "isolation", Run: ThreadLocalIsolation},
		{Name: "reclamation", Run: Reclamation},
		{Name: "cancel", Run: Cancellation},
		{Name: "migration", Run: Migration},
		{Name: "waitgroup", Run: WaitGroupCount},
		{Name: "barrier", Run: BarrierOrdering},
	}
}

// MutualExclusion increments a counter under a Mutex from every thread.
func MutualExclusion(threads int) error {
	var (
		mu       racer.Mutex
		inside   atomic.Int32
		overlaps atomic.Int32
		count    int
	)

	racer.Wait(func(dispatch func(func())) {
		for range threads {
			dispatch(func() {
				mu.Acquire(func() {
					if inside.Add(1) != 1 {
						overlaps.Add(1)
					}
					count++
					inside.Add(-1)
				})
			})
		}
	})

	if n := overlaps.Load(); n != 0 {
		return fmt.Errorf("%d overlapping critical sections", n)
	}
	if count != threads {
		return fmt.Errorf("counter is %d, want %d", count, threads)
	}
	return nil
}

// RecursiveReentry acquires a RecursiveMutex threads times nested on one
// thread while other threads contend for it.
func RecursiveReentry(threads int) error {
	mu := racer.NewRecursiveMutex()
	defer mu.Close()

	var depth func(n int) int
	depth = func(n int) int {
		return racer.With(mu, func() int {
			if n == 1 {
				return 1
			}
			return depth(n-1) + 1
		})
	}

	var bad atomic.Int32
	racer.Wait(func(dispatch func(func())) {
		for range threads {
			dispatch(func() {
				if got := depth(threads); got != threads {
					bad.Add(1)
				}
			})
		}
	})

	if n := bad.Load(); n != 0 {
		return fmt.Errorf("%d threads reached the wrong depth", n)
	}
	return nil
}

// ThreadLocalIsolation checks that no thread sees another's value, including
// threads dispatched from inside a task.
func ThreadLocalIsolation(threads int) error {
	tl := racer.NewThreadLocal(int64(-1))
	defer tl.Close()

	var leaked atomic.Int32
	check := func() {
		if tl.Get() != -1 {
			leaked.Add(1)
		}
		id := racer.ThreadID()
		tl.Set(id)
		if tl.Get() != id {
			leaked.Add(1)
		}
	}

	racer.Wait(func(dispatch func(func())) {
		for range threads {
			dispatch(func() {
				check()
				dispatch(check)
			})
		}
	})

	if n := leaked.Load(); n != 0 {
		return fmt.Errorf("%d reads observed another thread's value", n)
	}
	return nil
}

// Reclamation checks that every value set by an exited thread is released.
func Reclamation(threads int) error {
	tl := racer.NewThreadLocal("")
	defer tl.Close()

	racer.Wait(func(dispatch func(func())) {
		for range threads {
			dispatch(func() { tl.Set("held") })
		}
	})

	if n := tl.Len(); n != 0 {
		return fmt.Errorf("%d values outlived their threads", n)
	}

	// plain goroutines are only released by a sweep once they are gone.
	done := make(chan struct{})
	for range threads {
		go func() {
			tl.Set("held")
			done <- struct{}{}
		}()
	}
	for range threads {
		<-done
	}

	deadline := time.Now().Add(sweepTimeout)
	for tl.Len() != 0 {
		if time.Now().After(deadline) {
			return fmt.Errorf("%d values outlived their goroutines", tl.Len())
		}
		racer.Sweep()
		time.Sleep(time.Millisecond)
	}
	return nil
}

// sweepTimeout bounds how long exited goroutines may take to disappear.
const sweepTimeout = 5 * time.Second

// Cancellation blocks threads waiters on a semaphore and cancels it. It uses
// its own unbounded queue so the waiters cannot starve the canceler.
func Cancellation(threads int) error {
	sem := racer.NewCancelableSemaphore(0)
	g := racer.NewQueue(racer.WithLabel("stress.cancel")).Group()

	var (
		entered  atomic.Int32
		canceled atomic.Int32
	)
	for range threads {
		g.Go(func() error {
			entered.Add(1)
			err := sem.Wait()
			if errors.Is(err, racer.ErrCanceled) {
				canceled.Add(1)
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		// waiters may still be arriving. they fail either way.
		for entered.Load() < int32(threads) {
			runtime.Gosched()
		}
		sem.Cancel()
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if n := canceled.Load(); n != int32(threads) {
		return fmt.Errorf("%d of %d waiters were canceled", n, threads)
	}
	return nil
}

// Migration checks that a ThreadSpecific recomputes on every new thread.
func Migration(threads int) error {
	var computed atomic.Int32
	ts := racer.NewThreadSpecific(func() int64 {
		computed.Add(1)
		return racer.ThreadID()
	})

	var wrong atomic.Int32
	for range threads {
		racer.Global().Sync(func() {
			if ts.Value() != racer.ThreadID() {
				wrong.Add(1)
			}
		})
	}

	if n := wrong.Load(); n != 0 {
		return fmt.Errorf("%d reads returned another thread's value", n)
	}
	if n := computed.Load(); n != int32(threads)+1 {
		return fmt.Errorf("computed %d times, want %d", n, threads+1)
	}
	return nil
}

// WaitGroupCount checks that Wait returns only after every task ran.
func WaitGroupCount(threads int) error {
	var count atomic.Int32

	racer.Wait(func(dispatch func(func())) {
		for range threads {
			dispatch(func() { count.Add(1) })
		}
	})

	if n := count.Load(); n != int32(threads) {
		return fmt.Errorf("%d of %d tasks ran before Wait returned", n, threads)
	}
	return nil
}

// BarrierOrdering checks that a barrier separates the tasks around it.
func BarrierOrdering(threads int) error {
	q := racer.NewQueue(racer.WithLabel("stress.barrier"))

	var (
		before     atomic.Int32
		passed     atomic.Bool
		violations atomic.Int32
	)
	for range threads {
		q.Async(func() { before.Add(1) })
	}
	q.Barrier(func() {
		if before.Load() != int32(threads) {
			violations.Add(1)
		}
		passed.Store(true)
	})
	for range threads {
		q.Async(func() {
			if !passed.Load() {
				violations.Add(1)
			}
		})
	}
	q.BarrierSync(func() {})

	if n := violations.Load(); n != 0 {
		return fmt.Errorf("%d tasks crossed the barrier", n)
	}
	return nil
}
