package thread

import (
	"fmt"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"

	"github.com/zeebo/racer/internal/syncutil"
)

// DefaultMaxKeys is the number of live keys a registry allows unless
// configured otherwise.
const DefaultMaxKeys = 4096

// record is the registry's view of one thread.
type record struct {
	depth int // nesting of Run scopes; 0 means unmanaged
	slots map[*Key]Slot
}

// Registry tracks the threads that hold slots and the keys that are live.
type Registry struct {
	mu      syncutil.RWMutex
	threads map[ID]*record
	keys    int
	maxKeys int

	// unmanaged records created, and how many of them trigger a sweep.
	created       atomic.Uint64
	sweepInterval atomic.Int64
}

// NewRegistry returns a Registry allowing at most maxKeys live keys. A
// non-positive maxKeys means DefaultMaxKeys.
func NewRegistry(maxKeys int) *Registry {
	if maxKeys <= 0 {
		maxKeys = DefaultMaxKeys
	}
	r := &Registry{
		threads: make(map[ID]*record),
		maxKeys: maxKeys,
	}
	r.sweepInterval.Store(DefaultSweepInterval)
	return r
}

var defaultRegistry = NewRegistry(DefaultMaxKeys)

// Default returns the process-wide Registry.
func Default() *Registry { return defaultRegistry }

// NewKey creates a key in the default registry.
func NewKey(destructor func(Slot)) (*Key, error) { return defaultRegistry.NewKey(destructor) }

// Run runs fn as a managed thread of the default registry.
func Run(fn func()) { defaultRegistry.Run(fn) }

// Sweep reclaims exited unmanaged threads of the default registry.
func Sweep() int { return defaultRegistry.Sweep() }

// SetMaxKeys changes the key limit of the default registry. Keys that are
// already live are unaffected.
func SetMaxKeys(n int) { defaultRegistry.SetMaxKeys(n) }

// SetMaxKeys changes the key limit. A non-positive n means DefaultMaxKeys.
func (r *Registry) SetMaxKeys(n int) {
	if n <= 0 {
		n = DefaultMaxKeys
	}
	r.mu.Lock()
	r.maxKeys = n
	r.mu.Unlock()
}

// NewKey allocates a key whose destructor runs on thread exit. It fails with
// ErrKeysExhausted when the key limit is reached.
func (r *Registry) NewKey(destructor func(Slot)) (*Key, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.keys >= r.maxKeys {
		return nil, fmt.Errorf("%w: %d keys in use", ErrKeysExhausted, r.keys)
	}
	r.keys++

	return &Key{reg: r, destructor: destructor}, nil
}

// Keys returns the number of live keys.
func (r *Registry) Keys() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.keys
}

// Len returns the number of threads the registry holds a record for.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.threads)
}

// Run runs fn with the calling goroutine as a managed thread. Nested calls
// on the same goroutine share the outermost scope, and only its return is a
// thread exit. Destructors run even if fn panics.
func (r *Registry) Run(fn func()) {
	id := Current()
	r.enter(id)
	defer r.exit(id)
	fn()
}

func (r *Registry) enter(id ID) {
	r.mu.Lock()
	r.lookup(id).depth++
	r.mu.Unlock()
}

type pendingDestructor struct {
	fn   func(Slot)
	slot Slot
}

func (r *Registry) exit(id ID) {
	r.mu.Lock()
	rec := r.threads[id]
	if rec == nil {
		r.mu.Unlock()
		return
	}
	rec.depth--
	if rec.depth > 0 {
		r.mu.Unlock()
		return
	}
	delete(r.threads, id)
	pending := collect(rec)
	r.mu.Unlock()

	destroy(id, pending)
}

// collect returns the destructors owed by a removed record. It must be
// called with r.mu held.
func collect(rec *record) []pendingDestructor {
	pending := make([]pendingDestructor, 0, len(rec.slots))
	for k, s := range rec.slots {
		if !k.deleted && k.destructor != nil {
			pending = append(pending, pendingDestructor{fn: k.destructor, slot: s})
		}
	}
	return pending
}

// destroy runs the destructors of an exited thread. Destructors take their
// owner's lock, so it must be called without r.mu.
func destroy(id ID, pending []pendingDestructor) {
	var merr error
	for _, p := range pending {
		if err := p.call(); err != nil {
			merr = multierror.Append(merr, err)
		}
	}

	if merr != nil {
		currentLogger().Error("thread exit cleanup failed", "thread", id, "err", merr)
	} else if len(pending) > 0 {
		currentLogger().Debug("thread exited", "thread", id, "slots", len(pending))
	}
}

func (p pendingDestructor) call() (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("slot %d: destructor panicked: %v", p.slot, v)
		}
	}()
	p.fn(p.slot)
	return nil
}

// lookup returns the record for id, creating an unmanaged one if needed.
// It must be called with r.mu held for writing.
func (r *Registry) lookup(id ID) *record {
	rec := r.threads[id]
	if rec == nil {
		rec = &record{slots: make(map[*Key]Slot)}
		r.threads[id] = rec
	}
	return rec
}

// prune drops an unmanaged record that no longer holds any slot. It must be
// called with r.mu held for writing.
func (r *Registry) prune(id ID, rec *record) {
	if rec.depth == 0 && len(rec.slots) == 0 {
		delete(r.threads, id)
	}
}
