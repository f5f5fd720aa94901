package racer

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"

	"github.com/zeebo/racer/internal/syncutil"
	"github.com/zeebo/racer/internal/thread"
)

// Queue runs tasks on their own threads. A concurrent queue runs tasks in
// parallel, and a serial queue runs them one at a time in submission order.
// Every task runs in a managed thread (see RunThread).
type Queue struct {
	label  string
	serial bool
	pinned bool
	limit  *semaphore.Weighted

	// concurrent queues
	gens generations

	// serial queues
	mu      syncutil.Mutex
	pending []func()
	running bool
	wake    chan struct{}
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithLabel names the queue.
func WithLabel(label string) QueueOption {
	return func(q *Queue) { q.label = label }
}

// WithWidth bounds how many tasks of a concurrent queue run at once. A
// non-positive n means unbounded. Serial queues ignore it.
func WithWidth(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.limit = semaphore.NewWeighted(int64(n))
		} else {
			q.limit = nil
		}
	}
}

// NewQueue returns a concurrent queue.
func NewQueue(opts ...QueueOption) *Queue {
	q := new(Queue)
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// NewSerialQueue returns a queue that runs one task at a time in the order
// they were submitted. Tasks run on an executor thread that exits once the
// queue is empty.
func NewSerialQueue(opts ...QueueOption) *Queue {
	q := NewQueue(opts...)
	q.serial = true
	q.limit = nil
	return q
}

// newMainQueue returns a serial queue whose executor is locked to one OS
// thread and never exits.
func newMainQueue() *Queue {
	q := NewSerialQueue(WithLabel("racer.main"))
	q.pinned = true
	q.running = true
	q.wake = make(chan struct{}, 1)
	go q.execute()
	return q
}

// Global returns the process-wide concurrent queue.
func Global() *Queue {
	ensure()
	return rt.global
}

// Main returns the process-wide serial queue whose tasks all run on the same
// thread, locked to one OS thread.
func Main() *Queue {
	ensure()
	return rt.main
}

// Go runs task asynchronously on the Global queue.
func Go(task func()) { Global().Async(task) }

// OnMain runs task asynchronously on the Main queue.
func OnMain(task func()) { Main().Async(task) }

// Label returns the name the queue was created with.
func (q *Queue) Label() string { return q.label }

// Async submits task and returns without waiting for it.
func (q *Queue) Async(task func()) {
	if q.serial {
		q.enqueue(task)
		return
	}
	go q.admit(task)()
}

// Sync submits task and waits for it to return. Calling Sync on a serial
// queue from one of its own tasks deadlocks, as does calling it on a
// concurrent queue from one of its tasks while a barrier is pending.
func (q *Queue) Sync(task func()) {
	done := make(chan struct{})
	if q.serial {
		q.enqueue(func() {
			defer close(done)
			task()
		})
	} else {
		run := q.admit(task)
		go func() {
			defer close(done)
			run()
		}()
	}
	<-done
}

// Barrier submits task so that it starts after every task submitted before
// it has returned, and tasks submitted after it start after it returns. On a
// serial queue it is the same as Async.
func (q *Queue) Barrier(task func()) {
	if q.serial {
		q.enqueue(task)
		return
	}
	go q.barrier(q.gens.advance(), task)
}

// BarrierSync is like Barrier but waits for task to return. Calling it from
// a task of the same queue deadlocks.
func (q *Queue) BarrierSync(task func()) {
	if q.serial {
		q.Sync(task)
		return
	}
	d := q.gens.advance()
	done := make(chan struct{})
	go func() {
		defer close(done)
		q.barrier(d, task)
	}()
	<-done
}

// admit reserves task's place in the current generation and returns the
// function that runs it. The returned function must be called exactly once.
func (q *Queue) admit(task func()) (run func()) {
	t := q.gens.acquire()
	return func() {
		defer t.release()
		t.wait()

		if q.limit != nil {
			// cannot fail with a background context.
			_ = q.limit.Acquire(context.Background(), 1)
			defer q.limit.Release(1)
		}

		thread.Run(task)
	}
}

func (q *Queue) barrier(d drain, task func()) {
	defer d.open()
	gen := d.wait()

	logger().Debug("queue barrier", "queue", q.label, "generation", gen)
	thread.Run(task)
}

// enqueue appends task to a serial queue, starting an executor if none is
// running.
func (q *Queue) enqueue(task func()) {
	q.mu.Lock()
	q.pending = append(q.pending, task)
	start := !q.running
	q.running = true
	q.mu.Unlock()

	if q.pinned {
		select {
		case q.wake <- struct{}{}:
		default:
		}
	} else if start {
		go q.execute()
	}
}

// execute runs the pending tasks of a serial queue in order. All of them
// run on one managed thread.
func (q *Queue) execute() {
	if q.pinned {
		runtime.LockOSThread()
	}

	thread.Run(func() {
		for {
			task, ok := q.next()
			if !ok {
				return
			}
			task()
		}
	})
}

// next pops the oldest pending task. An unpinned queue with nothing pending
// stops running; a pinned one waits.
func (q *Queue) next() (func(), bool) {
	q.mu.Lock()
	for len(q.pending) == 0 {
		if !q.pinned {
			q.running = false
			q.mu.Unlock()
			return nil, false
		}
		q.mu.Unlock()
		<-q.wake
		q.mu.Lock()
	}
	task := q.pending[0]
	q.pending[0] = nil
	q.pending = q.pending[1:]
	q.mu.Unlock()

	return task, true
}
