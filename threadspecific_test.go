package racer

import (
	"testing"

	"github.com/zeebo/assert"
)

func TestThreadSpecific(t *testing.T) {
	calls := 0
	ts := NewThreadSpecific(func() int64 {
		calls++
		return ThreadID()
	})
	assert.Equal(t, calls, 1)
	assert.Equal(t, ts.Value(), ThreadID())
	assert.Equal(t, ts.Value(), ThreadID())
	assert.Equal(t, calls, 1)

	var there int64
	Global().Sync(func() { there = ts.Value() })
	assert.Equal(t, calls, 2)
	assert.That(t, there != ThreadID())

	// moving back recomputes again.
	assert.Equal(t, ts.Value(), ThreadID())
	assert.Equal(t, calls, 3)
}

func TestThreadSpecificValue(t *testing.T) {
	ts := NewThreadSpecificValue("initial", func() string { return "recomputed" })
	assert.Equal(t, ts.Value(), "initial")

	var there string
	Global().Sync(func() { there = ts.Value() })
	assert.Equal(t, there, "recomputed")
}
