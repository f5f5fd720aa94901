package racer

// ticket pins a task to the generation it was submitted in. It must be
// released exactly once.
type ticket struct {
	ctr   *counter
	gen   uint64
	ready <-chan struct{}
}

// release lets drains of the ticket's generation proceed.
func (t ticket) release() { t.ctr.release() }

// wait blocks until the ticket's generation is open.
func (t ticket) wait() { <-t.ready }
