package thread

import (
	"bytes"
	"runtime"
	"strconv"
)

// DefaultSweepInterval is how many unmanaged threads may appear between
// automatic sweeps.
const DefaultSweepInterval = 1024

// SetSweepInterval sets how many unmanaged threads may appear between
// automatic sweeps. A non-positive n disables them; Sweep still works.
func (r *Registry) SetSweepInterval(n int) { r.sweepInterval.Store(int64(n)) }

// sweepDue counts a new unmanaged thread and reports whether it is time to
// sweep.
func (r *Registry) sweepDue() bool {
	n := r.sweepInterval.Load()
	if n <= 0 {
		return false
	}
	return r.created.Add(1)%uint64(n) == 0
}

// Sweep reclaims unmanaged threads that have exited: their records are
// removed and the destructor of every key they held a slot for is called
// once, as if they had left Run. It returns how many threads were
// reclaimed.
//
// Sweep inspects every goroutine in the process, so it is not cheap.
func (r *Registry) Sweep() int {
	// only records that exist before the goroutines are listed can be
	// judged: their goroutine either shows up or is gone for good.
	r.mu.RLock()
	candidates := make([]ID, 0, len(r.threads))
	for id, rec := range r.threads {
		if rec.depth == 0 {
			candidates = append(candidates, id)
		}
	}
	r.mu.RUnlock()

	if len(candidates) == 0 {
		return 0
	}

	live := liveThreads()

	type exited struct {
		id      ID
		pending []pendingDestructor
	}
	var dead []exited

	r.mu.Lock()
	for _, id := range candidates {
		if _, ok := live[id]; ok {
			continue
		}
		rec := r.threads[id]
		if rec == nil || rec.depth > 0 {
			continue
		}
		delete(r.threads, id)
		dead = append(dead, exited{id: id, pending: collect(rec)})
	}
	r.mu.Unlock()

	for _, e := range dead {
		destroy(e.id, e.pending)
	}
	if len(dead) > 0 {
		currentLogger().Debug("swept exited threads", "threads", len(dead))
	}
	return len(dead)
}

// liveThreads returns the ids of every goroutine in the process.
func liveThreads() map[ID]struct{} {
	// a truncated dump would make live goroutines look dead.
	buf := make([]byte, 64<<10)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			buf = buf[:n]
			break
		}
		buf = make([]byte, 2*len(buf))
	}

	live := make(map[ID]struct{})
	for len(buf) > 0 {
		var line []byte
		line, buf, _ = bytes.Cut(buf, []byte("\n"))

		// goroutine 18 [chan receive]:
		rest, ok := bytes.CutPrefix(line, []byte("goroutine "))
		if !ok {
			continue
		}
		num, _, _ := bytes.Cut(rest, []byte(" "))
		if id, err := strconv.ParseInt(string(num), 10, 64); err == nil {
			live[ID(id)] = struct{}{}
		}
	}
	return live
}
