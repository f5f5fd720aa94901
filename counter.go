package racer

import "sync"

// counter tracks how many tickets of one shard are outstanding. Unlike a
// sync.WaitGroup it may be acquired while a wait is in progress, and
// acquiring never blocks on waiters.
type counter struct {
	mu    sync.Mutex
	count int32
	idle  chan struct{} // non-nil while someone waits; closed when count hits zero
}

// acquire increments the counter.
func (c *counter) acquire() {
	c.mu.Lock()
	c.count++
	c.mu.Unlock()
}

// release decrements the counter and wakes waiters if it reaches zero.
func (c *counter) release() {
	c.mu.Lock()
	c.count--
	if c.count == 0 && c.idle != nil {
		close(c.idle)
		c.idle = nil
	}
	c.mu.Unlock()
}

// zero reports if nothing is acquired.
func (c *counter) zero() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count == 0
}

// wait blocks until the counter is zero.
func (c *counter) wait() {
	c.mu.Lock()
	if c.count == 0 {
		c.mu.Unlock()
		return
	}
	if c.idle == nil {
		c.idle = make(chan struct{})
	}
	idle := c.idle
	c.mu.Unlock()

	<-idle
}
