// Package thread gives goroutines the lifecycle that per-thread storage
// needs: a stable identity, keys whose values are private to each thread,
// and exit hooks.
//
// Go has no goroutine exit callback, so a thread's lifetime is explicit. A
// goroutine becomes a managed thread for the duration of Run; when the
// outermost Run returns, the thread exits and the destructor of every key it
// still holds a slot for is called exactly once with that slot.
//
// Goroutines that set a key without ever entering Run are unmanaged. Their
// associations remain until the key is cleared or deleted, the goroutine
// later enters and leaves Run, or a Sweep finds the goroutine gone. A sweep
// starts on its own every DefaultSweepInterval new unmanaged threads.
package thread
