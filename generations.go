package racer

import (
	"sync"
	"sync/atomic"

	"github.com/zeebo/racer/internal/thread"
)

// generations is the ordering behind concurrent queue barriers. Every task
// holds a ticket of the generation it was submitted in. A barrier advances
// the generation, drains the tickets of the old one, runs, and then opens
// the gate of the new one. The zero value is ready to use.
type generations struct {
	page atomic.Pointer[genPage]
	mu   sync.Mutex // serializes advance
}

// current loads the current page, allocating the first one if needed.
func (g *generations) current() *genPage {
	page := g.page.Load()
	if page != nil {
		return page
	}

	page = newGenPage()
	page.gen = 0
	close(page.ready)
	if !g.page.CompareAndSwap(nil, page) {
		page.recycle()
		page = g.page.Load()
	}
	return page
}

// acquire returns a ticket of the current generation. It is safe to be
// called concurrently and never waits for a barrier.
func (g *generations) acquire() ticket {
	// spread submitters over the shards by their goroutine.
	shard := uint64(thread.Current()) % numShards

	page := g.current()
	for {
		ctr := &page.shards[shard].ctr
		ctr.acquire()

		// double check that the generation didn't move so that any drain
		// of this page is aware of our ticket.
		next := g.page.Load()
		if page == next {
			return ticket{ctr: ctr, gen: page.gen, ready: page.ready}
		}

		// lost the race with advance. retry on the new page.
		ctr.release()
		page = next
	}
}

// advance moves future tickets to the next generation and returns a drain of
// the one being left. The drain must be opened exactly once.
func (g *generations) advance() drain {
	g.mu.Lock()

	page := g.current()

	// no CAS needed: acquire only swaps from nil and mu serializes us.
	next := newGenPage()
	next.gen = page.gen + 1
	g.page.Store(next)

	g.mu.Unlock()

	return drain{
		page:  page,
		gen:   page.gen,
		pgen:  page.pgen,
		ready: page.ready,
		next:  next.ready,
	}
}
