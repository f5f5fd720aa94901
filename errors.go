package racer

import "errors"

// Semaphore errors.
var (
	// ErrCanceled is returned by every operation on a CancelableSemaphore
	// once it has been canceled, including waits it interrupts.
	ErrCanceled = errors.New("racer: semaphore canceled")
)

// Thread-local storage errors.
var (
	// ErrResourceExhausted is wrapped by the value NewThreadLocal panics with
	// when no more thread keys can be allocated. The panic is fatal and must
	// not be recovered.
	ErrResourceExhausted = errors.New("racer: thread-local keys exhausted")
)

// Configuration errors.
var (
	ErrAlreadyInitialized = errors.New("racer: already initialized")
	ErrInvalidConfig      = errors.New("racer: invalid config")
)
