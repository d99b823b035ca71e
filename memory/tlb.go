package memory

import (
	"github.com/eth2030/rvsim/bits"
	"github.com/eth2030/rvsim/isa"
	"github.com/eth2030/rvsim/metrics"
)

type tlbEntry struct {
	tag   uint32
	page  PageHandle
	valid bool
}

// TLBStats is a snapshot of the TLB counters.
type TLBStats struct {
	Requests uint64
	Hits     uint64
	Misses   uint64
}

// TLB is a direct-mapped translation cache from page index to page handle.
// The slot is selected by address bits [TLBBits+PageBits-1:PageBits] and
// the full page index is kept as the tag.
type TLB struct {
	entries [TLBSize]tlbEntry

	requests *metrics.Counter
	hits     *metrics.Counter
	misses   *metrics.Counter
}

// NewTLB creates an empty TLB whose counters are registered in reg.
func NewTLB(reg *metrics.Registry) *TLB {
	return &TLB{
		requests: reg.Counter("tlb/requests"),
		hits:     reg.Counter("tlb/hits"),
		misses:   reg.Counter("tlb/misses"),
	}
}

func tlbIndex(addr isa.Addr) uint32 {
	return bits.GetBits(addr, TLBBits+PageBits-1, PageBits)
}

// Lookup probes the slot for addr.
func (t *TLB) Lookup(addr isa.Addr) (PageHandle, bool) {
	t.requests.Inc()
	e := &t.entries[tlbIndex(addr)]
	if !e.valid || e.tag != addr>>PageBits {
		t.misses.Inc()
		return NoPage, false
	}
	t.hits.Inc()
	return e.page, true
}

// Update installs h for addr, overwriting whatever occupied the slot.
func (t *TLB) Update(addr isa.Addr, h PageHandle) {
	t.entries[tlbIndex(addr)] = tlbEntry{tag: addr >> PageBits, page: h, valid: true}
}

// Flush invalidates every slot. Counters are kept.
func (t *TLB) Flush() {
	t.entries = [TLBSize]tlbEntry{}
}

// Stats returns the current counters.
func (t *TLB) Stats() TLBStats {
	return TLBStats{
		Requests: t.requests.Value(),
		Hits:     t.hits.Value(),
		Misses:   t.misses.Value(),
	}
}
