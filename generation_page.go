package racer

import (
	"sync"
	"unsafe"
)

const (
	cacheLine = 64 // typical size of a cache line
	numShards = 32 // number of padded counters per page
)

// genPageHeader is the metadata in front of a page's counters. it is a
// separate struct so the padding up to a cache line can be computed.
type genPageHeader struct {
	// the generation represented by the page
	gen uint64
	// bumped each time the page is handed back to the pool, so that only
	// one drain of the generation recycles it.
	pgen uint64
	// closed when tickets of this generation may start running. the first
	// page is born open; later ones are opened by the barrier that created
	// them.
	ready chan struct{}
	// held for reading by drains inspecting the page, and for writing by
	// the drain that recycles it.
	mu sync.RWMutex
}

// genPage counts the outstanding tickets of one generation, spread across
// padded shards.
type genPage struct {
	genPageHeader
	_      [cacheLine - unsafe.Sizeof(genPageHeader{})%cacheLine]byte
	shards [numShards]struct {
		ctr counter
		_   [cacheLine - unsafe.Sizeof(counter{})%cacheLine]byte
	}
}

var genPagePool = sync.Pool{New: func() any { return new(genPage) }}

// newGenPage returns a page with a fresh, unopened gate. It may be reused
// from the pool.
func newGenPage() *genPage {
	page, _ := genPagePool.Get().(*genPage)
	page.ready = make(chan struct{})
	return page
}

// recycle returns the page to the pool. the page must not be touched
// afterwards.
func (p *genPage) recycle() { genPagePool.Put(p) }
