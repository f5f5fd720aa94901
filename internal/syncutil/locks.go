//go:build !deadlock

package syncutil

import "sync"

// Instrumented reports whether the locks detect deadlocks.
const Instrumented = false

type (
	Mutex   = sync.Mutex
	RWMutex = sync.RWMutex
)
