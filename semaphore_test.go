package racer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zeebo/assert"
)

func TestSemaphore(t *testing.T) {
	s := NewSemaphore(2)
	s.Wait()
	s.Wait()
	assert.That(t, !s.WaitTimeout(0))
	assert.That(t, !s.WaitTimeout(10*time.Millisecond))

	assert.That(t, !s.Signal())
	assert.That(t, s.WaitTimeout(0))
	assert.Equal(t, queued(s), 0)
}

func TestSemaphoreSignalWakes(t *testing.T) {
	var s Semaphore

	woke := make(chan struct{})
	go func() {
		s.Wait()
		close(woke)
	}()

	waitFor(t, func() bool { return queued(&s) == 1 })
	assert.That(t, s.Signal())
	<-woke

	// the permit was handed over, not stored.
	assert.That(t, !s.WaitTimeout(0))
}

func TestSemaphoreWaitContext(t *testing.T) {
	s := NewSemaphore(0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.That(t, errors.Is(s.WaitContext(ctx), context.Canceled))

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.That(t, errors.Is(s.WaitContext(ctx), context.DeadlineExceeded))
	assert.Equal(t, queued(s), 0)

	s.Signal()
	assert.NoError(t, s.WaitContext(context.Background()))
}

func TestSemaphoreNegative(t *testing.T) {
	defer func() { assert.That(t, recover() != nil) }()
	NewSemaphore(-1)
}

func TestCancelableSemaphore(t *testing.T) {
	c := NewCancelableSemaphore(1)
	assert.NoError(t, c.Wait())

	ok, err := c.WaitTimeout(0)
	assert.NoError(t, err)
	assert.That(t, !ok)

	woke, err := c.Signal()
	assert.NoError(t, err)
	assert.That(t, !woke)
	assert.That(t, !c.Canceled())

	c.Cancel()
	c.Cancel()
	assert.That(t, c.Canceled())

	assert.That(t, errors.Is(c.Wait(), ErrCanceled))
	assert.That(t, errors.Is(c.WaitContext(context.Background()), ErrCanceled))
	_, err = c.WaitTimeout(time.Second)
	assert.That(t, errors.Is(err, ErrCanceled))
	_, err = c.Signal()
	assert.That(t, errors.Is(err, ErrCanceled))

	// a waiter that got past the first check still cannot block.
	assert.That(t, errors.Is(c.sem.wait(nil), ErrCanceled))
}

func TestCancelableSemaphoreWakesWaiters(t *testing.T) {
	c := NewCancelableSemaphore(0)

	errs := make(chan error, 5)
	g := Global().Group()
	for i := 0; i < 5; i++ {
		g.Async(func() { errs <- c.Wait() })
	}

	waitFor(t, func() bool { return queued(&c.sem) == 5 })
	c.Cancel()

	assert.NoError(t, g.Wait())
	close(errs)

	n := 0
	for err := range errs {
		assert.That(t, errors.Is(err, ErrCanceled))
		n++
	}
	assert.Equal(t, n, 5)
}

func TestCancelableSemaphoreContext(t *testing.T) {
	c := NewCancelableSemaphore(0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.That(t, errors.Is(c.WaitContext(ctx), context.DeadlineExceeded))

	done := make(chan error)
	go func() { done <- c.WaitContext(context.Background()) }()
	waitFor(t, func() bool { return queued(&c.sem) == 1 })

	c.Cancel()
	assert.That(t, errors.Is(<-done, ErrCanceled))
}

func TestCancelableSemaphoreMixed(t *testing.T) {
	c := NewCancelableSemaphore(1)

	var ok, canceled, other atomic.Int32
	g := NewQueue().Group()
	for i := 0; i < 5; i++ {
		g.Async(func() {
			switch err := c.Wait(); {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, ErrCanceled):
				canceled.Add(1)
			default:
				other.Add(1)
			}
		})
	}

	// one waiter takes the permit, the rest block.
	waitFor(t, func() bool { return queued(&c.sem) == 4 && ok.Load() == 1 })
	c.Cancel()

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("waiters still blocked after cancel")
	}

	assert.Equal(t, ok.Load(), int32(1))
	assert.Equal(t, canceled.Load(), int32(4))
	assert.Equal(t, other.Load(), int32(0))
}
