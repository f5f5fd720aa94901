//go:build deadlock

package syncutil

import (
	"time"

	deadlock "github.com/sasha-s/go-deadlock"
)

// Instrumented reports whether the locks detect deadlocks.
const Instrumented = true

// bookkeeping sections never block, so anything held this long is stuck.
const holdLimit = 10 * time.Second

func init() { deadlock.Opts.DeadlockTimeout = holdLimit }

type (
	Mutex   = deadlock.Mutex
	RWMutex = deadlock.RWMutex
)
