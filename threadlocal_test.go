package racer

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/zeebo/assert"

	"github.com/zeebo/racer/internal/thread"
)

func TestThreadLocal(t *testing.T) {
	tl := NewThreadLocal(7)
	defer tl.Close()

	RunThread(func() {
		assert.Equal(t, tl.Get(), 7)
		tl.Set(3)
		assert.Equal(t, tl.Get(), 3)
		tl.Set(4)
		assert.Equal(t, tl.Get(), 4)
		assert.Equal(t, tl.Len(), 1)

		tl.Reset()
		assert.Equal(t, tl.Get(), 7)
		assert.Equal(t, tl.Len(), 0)
	})
}

func TestThreadLocalIsolation(t *testing.T) {
	tl := NewThreadLocal(-1)
	defer tl.Close()

	var leaked atomic.Int32
	Wait(func(dispatch func(func())) {
		for i := 0; i < 10; i++ {
			dispatch(func() {
				if tl.Get() != -1 {
					leaked.Add(1)
				}
				tl.Set(i)

				for j := 0; j < 3; j++ {
					dispatch(func() {
						// a nested task is a new thread.
						if tl.Get() != -1 {
							leaked.Add(1)
						}
						tl.Set(100*i + j)
						jitter()
						if tl.Get() != 100*i+j {
							leaked.Add(1)
						}
					})
				}

				jitter()
				if tl.Get() != i {
					leaked.Add(1)
				}
			})
		}
	})

	assert.Equal(t, leaked.Load(), int32(0))
	assert.Equal(t, tl.Len(), 0)
}

func TestThreadLocalReclaimed(t *testing.T) {
	tl := NewThreadLocal("")
	defer tl.Close()

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			RunThread(func() { tl.Set("value") })
			done <- struct{}{}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	assert.Equal(t, tl.Len(), 0)
}

func TestThreadLocalSweep(t *testing.T) {
	tl := NewThreadLocal("")
	defer tl.Close()

	before := thread.Default().Len()

	done := make(chan struct{})
	for i := 0; i < 100; i++ {
		go func() {
			tl.Set("value")
			done <- struct{}{}
		}()
	}
	for i := 0; i < 100; i++ {
		<-done
	}

	waitFor(t, func() bool {
		Sweep()
		return tl.Len() == 0
	})
	assert.That(t, thread.Default().Len() <= before)
}

func TestThreadLocalUnmanaged(t *testing.T) {
	tl := NewThreadLocal(0)
	defer tl.Close()

	tl.Set(1)
	assert.Equal(t, tl.Len(), 1)
	tl.Reset()
	assert.Equal(t, tl.Len(), 0)
	assert.Equal(t, tl.Get(), 0)

	// a later managed scope releases values set while unmanaged.
	tl.Set(2)
	RunThread(func() { assert.Equal(t, tl.Get(), 2) })
	assert.Equal(t, tl.Len(), 0)
	assert.Equal(t, tl.Get(), 0)
}

func TestThreadLocalClose(t *testing.T) {
	tl := NewThreadLocal(5)

	RunThread(func() {
		tl.Set(6)
		tl.Close()

		assert.Equal(t, tl.Get(), 5)
		assert.Equal(t, tl.Len(), 0)

		tl.Set(7)
		assert.Equal(t, tl.Get(), 5)
		assert.Equal(t, tl.Len(), 0)
	})

	tl.Close()
}

func TestThreadLocalExhausted(t *testing.T) {
	// hold keeps at least one key live so the limit below is reached.
	hold := NewThreadLocal(0)
	defer hold.Close()

	var logs bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&logs, nil)))
	defer SetLogger(nil)

	thread.SetMaxKeys(1)
	defer thread.SetMaxKeys(thread.DefaultMaxKeys)

	defer func() {
		err, _ := recover().(error)
		assert.That(t, errors.Is(err, ErrResourceExhausted))
		assert.That(t, errors.Is(err, thread.ErrKeysExhausted))

		// the failure is logged before the panic.
		assert.That(t, strings.Contains(logs.String(), "level=ERROR"))
		assert.That(t, strings.Contains(logs.String(), "unable to allocate thread-local key"))
	}()

	NewThreadLocal(0)
	t.Fatal("expected a panic")
}

func TestThreadLocalNestedThread(t *testing.T) {
	tl := NewThreadLocal(0)
	defer tl.Close()

	var outer, nested, after []int
	outer = append(outer, tl.Get())

	Wait(func(dispatch func(func())) {
		dispatch(func() {
			tl.Set(1)

			finished := make(chan struct{})
			dispatch(func() {
				defer close(finished)
				nested = append(nested, tl.Get())
				tl.Set(2)
				nested = append(nested, tl.Get())
			})
			<-finished

			after = append(after, tl.Get())
		})
		outer = append(outer, tl.Get())
	})
	outer = append(outer, tl.Get())

	assert.DeepEqual(t, nested, []int{0, 2})
	assert.DeepEqual(t, after, []int{1})
	assert.DeepEqual(t, outer, []int{0, 0, 0})
	assert.Equal(t, tl.Len(), 0)
}
