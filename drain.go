package racer

import "sync/atomic"

// drain is a generation that has been advanced past. Once wait returns, no
// ticket of that generation is outstanding and every earlier barrier has
// finished.
type drain struct {
	page  *genPage
	gen   uint64
	pgen  uint64
	ready <-chan struct{} // gate of the drained generation
	next  chan struct{}   // gate of the following generation
}

// wait blocks until the generation is open and all of its tickets are
// released. It returns the drained generation.
func (d drain) wait() uint64 {
	// tickets of an unopened generation have not started, and the barrier
	// that will open it has not finished.
	<-d.ready

	// a read lock signals we intend to inspect the page. if pgen moved, the
	// page was already drained and may be in the pool.
	d.page.mu.RLock()
	if pgen := atomic.LoadUint64(&d.page.pgen); pgen != d.pgen {
		d.page.mu.RUnlock()
		return d.gen
	}
	for i := range d.page.shards {
		ctr := &d.page.shards[i].ctr
		if !ctr.zero() {
			ctr.wait()
		}
	}
	d.page.mu.RUnlock()

	// whoever bumps pgen first owns the page. the write lock waits for any
	// other drain still reading it before it goes back to the pool.
	if atomic.CompareAndSwapUint64(&d.page.pgen, d.pgen, d.pgen+1) {
		d.page.mu.Lock()
		d.page.mu.Unlock()

		d.page.recycle()
	}

	return d.gen
}

// open lets tickets of the following generation run.
func (d drain) open() { close(d.next) }
