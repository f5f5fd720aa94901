package thread

// Key associates each thread with at most one Slot. The destructor is
// called with the thread's Slot when that thread exits.
type Key struct {
	reg        *Registry
	destructor func(Slot)
	deleted    bool // guarded by reg.mu
}

// Get returns the calling thread's Slot for the key.
func (k *Key) Get() (Slot, bool) {
	id := Current()

	k.reg.mu.RLock()
	defer k.reg.mu.RUnlock()

	rec := k.reg.threads[id]
	if rec == nil {
		return 0, false
	}
	s, ok := rec.slots[k]
	return s, ok
}

// Set associates the calling thread with s. It reports false if the key has
// been deleted. The first association of an unmanaged thread may start a
// background Sweep.
func (k *Key) Set(s Slot) bool {
	id := Current()

	k.reg.mu.Lock()
	if k.deleted {
		k.reg.mu.Unlock()
		return false
	}
	_, known := k.reg.threads[id]
	k.reg.lookup(id).slots[k] = s
	k.reg.mu.Unlock()

	if !known && k.reg.sweepDue() {
		go k.reg.Sweep()
	}
	return true
}

// Clear drops the calling thread's association without calling the
// destructor.
func (k *Key) Clear() {
	id := Current()

	k.reg.mu.Lock()
	defer k.reg.mu.Unlock()

	if rec := k.reg.threads[id]; rec != nil {
		delete(rec.slots, k)
		k.reg.prune(id, rec)
	}
}

// Delete releases the key and every thread's association with it. No
// destructors are called. Delete is idempotent.
func (k *Key) Delete() {
	k.reg.mu.Lock()
	defer k.reg.mu.Unlock()

	if k.deleted {
		return
	}
	k.deleted = true
	k.reg.keys--

	for id, rec := range k.reg.threads {
		delete(rec.slots, k)
		k.reg.prune(id, rec)
	}
}
