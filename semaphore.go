package racer

import (
	"container/list"
	"context"
	"errors"
	"time"

	"github.com/zeebo/racer/internal/syncutil"
)

var errExpired = errors.New("racer: wait expired")

// Semaphore is a counting semaphore. Waiters that block are woken in the
// order they arrived, but a thread that calls Wait while permits are free
// takes one without queueing.
//
// The zero value is a semaphore with no permits.
type Semaphore struct {
	mu       syncutil.Mutex
	permits  int
	waiters  list.List // of chan struct{}
	canceled bool
}

// NewSemaphore returns a Semaphore holding permits permits. It panics if
// permits is negative.
func NewSemaphore(permits int) *Semaphore {
	if permits < 0 {
		panic("racer: negative semaphore permits")
	}
	return &Semaphore{permits: permits}
}

// Wait takes a permit, blocking until one is available.
func (s *Semaphore) Wait() { _ = s.wait(nil) }

// WaitTimeout takes a permit, blocking for at most d. It reports whether a
// permit was taken. A non-positive d only takes a free permit.
func (s *Semaphore) WaitTimeout(d time.Duration) bool {
	if d <= 0 {
		return s.tryWait()
	}

	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	return s.wait(ctx.Done()) == nil
}

// WaitContext takes a permit, blocking until one is available or ctx is
// done. It returns ctx.Err() if no permit was taken.
func (s *Semaphore) WaitContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.wait(ctx.Done()); err != nil {
		if errors.Is(err, errExpired) {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// Signal returns a permit. If a thread is blocked in Wait the permit is
// handed to it and Signal reports true.
func (s *Semaphore) Signal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if front := s.waiters.Front(); front != nil {
		close(s.waiters.Remove(front).(chan struct{}))
		return true
	}
	s.permits++
	return false
}

func (s *Semaphore) tryWait() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.canceled || s.permits == 0 {
		return false
	}
	s.permits--
	return true
}

// wait blocks until a permit is handed over or done is closed. A nil done
// never expires.
func (s *Semaphore) wait(done <-chan struct{}) error {
	s.mu.Lock()
	if s.canceled {
		s.mu.Unlock()
		return ErrCanceled
	}
	if s.permits > 0 {
		s.permits--
		s.mu.Unlock()
		return nil
	}
	ready := make(chan struct{})
	elem := s.waiters.PushBack(ready)
	s.mu.Unlock()

	select {
	case <-ready:
		return nil

	case <-done:
		s.mu.Lock()
		defer s.mu.Unlock()

		select {
		case <-ready:
			// signaled while expiring. keep the permit.
			return nil
		default:
		}
		s.waiters.Remove(elem)
		return errExpired
	}
}

// cancel wakes every queued waiter and makes later waits fail. It returns
// how many waiters were woken.
func (s *Semaphore) cancel() (woken int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.canceled = true
	for e := s.waiters.Front(); e != nil; e = s.waiters.Front() {
		close(s.waiters.Remove(e).(chan struct{}))
		woken++
	}
	return woken
}

// CancelableSemaphore is a Semaphore that can be canceled. Once canceled,
// every operation returns ErrCanceled and every blocked waiter is woken
// with ErrCanceled.
type CancelableSemaphore struct {
	sem Semaphore

	mu       syncutil.Mutex
	canceled bool
}

// NewCancelableSemaphore returns a CancelableSemaphore holding permits
// permits. It panics if permits is negative.
func NewCancelableSemaphore(permits int) *CancelableSemaphore {
	if permits < 0 {
		panic("racer: negative semaphore permits")
	}
	c := new(CancelableSemaphore)
	c.sem.permits = permits
	return c
}

// Canceled reports whether Cancel has been called.
func (c *CancelableSemaphore) Canceled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canceled
}

func (c *CancelableSemaphore) check() error {
	if c.Canceled() {
		return ErrCanceled
	}
	return nil
}

// Wait takes a permit, blocking until one is available or the semaphore is
// canceled.
func (c *CancelableSemaphore) Wait() error {
	if err := c.check(); err != nil {
		return err
	}
	c.sem.Wait()
	return c.check()
}

// WaitTimeout is like Semaphore.WaitTimeout but fails with ErrCanceled once
// the semaphore is canceled.
func (c *CancelableSemaphore) WaitTimeout(d time.Duration) (bool, error) {
	if err := c.check(); err != nil {
		return false, err
	}
	ok := c.sem.WaitTimeout(d)
	if err := c.check(); err != nil {
		return false, err
	}
	return ok, nil
}

// WaitContext is like Semaphore.WaitContext but fails with ErrCanceled once
// the semaphore is canceled.
func (c *CancelableSemaphore) WaitContext(ctx context.Context) error {
	if err := c.check(); err != nil {
		return err
	}
	err := c.sem.WaitContext(ctx)
	if cerr := c.check(); cerr != nil {
		return cerr
	}
	return err
}

// Signal returns a permit and reports whether a blocked waiter was woken.
func (c *CancelableSemaphore) Signal() (bool, error) {
	if err := c.check(); err != nil {
		return false, err
	}
	woke := c.sem.Signal()
	return woke, c.check()
}

// Cancel cancels the semaphore and wakes every blocked waiter. It is
// idempotent.
func (c *CancelableSemaphore) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.canceled {
		return
	}
	c.canceled = true

	woken := 0
	for c.sem.Signal() {
		woken++
	}
	// waiters that passed the first check but had not queued yet.
	woken += c.sem.cancel()

	logger().Debug("semaphore canceled", "woken", woken)
}
