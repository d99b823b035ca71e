package bbcache

import (
	"github.com/ethereum/go-ethereum/common/lru"

	"github.com/eth2030/rvsim/isa"
	"github.com/eth2030/rvsim/metrics"
)

// Cache maps entry addresses to basic blocks. LookupOrBuild returns the
// cached block for addr or invokes build; how often build runs per address
// depends on the policy. Failed builds are never cached.
type Cache interface {
	LookupOrBuild(addr isa.Addr, build Builder) (*BasicBlock, error)
	Len() int
	Stats() Stats
}

// Stats is a snapshot of the cache counters.
type Stats struct {
	Lookups   uint64
	Hits      uint64
	Builds    uint64
	Evictions uint64
}

// New selects a policy by capacity: negative is unbounded, zero disables
// caching, positive is an LRU of that many blocks.
func New(capacity int) Cache {
	return NewWithRegistry(capacity, metrics.NewRegistry())
}

// NewWithRegistry is New with the cache counters registered in reg.
func NewWithRegistry(capacity int, reg *metrics.Registry) Cache {
	c := newCounters(reg)
	switch {
	case capacity < 0:
		return &Unbounded{counters: c, blocks: make(map[isa.Addr]*BasicBlock)}
	case capacity == 0:
		return &None{counters: c}
	default:
		return &LRU{counters: c, blocks: lru.NewBasicLRU[isa.Addr, *BasicBlock](capacity)}
	}
}

type counters struct {
	lookups   *metrics.Counter
	hits      *metrics.Counter
	builds    *metrics.Counter
	evictions *metrics.Counter
	size      *metrics.Gauge
	blockLen  *metrics.Histogram
}

func newCounters(reg *metrics.Registry) counters {
	return counters{
		lookups:   reg.Counter("bbcache/lookups"),
		hits:      reg.Counter("bbcache/hits"),
		builds:    reg.Counter("bbcache/builds"),
		evictions: reg.Counter("bbcache/evictions"),
		size:      reg.Gauge("bbcache/blocks"),
		blockLen:  reg.Histogram("bbcache/block_len"),
	}
}

func (c *counters) build(addr isa.Addr, build Builder) (*BasicBlock, error) {
	c.builds.Inc()
	bb, err := build(addr)
	if err != nil {
		return nil, err
	}
	c.blockLen.Observe(float64(bb.Len()))
	return bb, nil
}

// Stats returns the current counters.
func (c *counters) Stats() Stats {
	return Stats{
		Lookups:   c.lookups.Value(),
		Hits:      c.hits.Value(),
		Builds:    c.builds.Value(),
		Evictions: c.evictions.Value(),
	}
}

// Unbounded builds each address once and keeps every block.
type Unbounded struct {
	counters
	blocks map[isa.Addr]*BasicBlock
}

// NewUnbounded creates an unbounded cache.
func NewUnbounded() *Unbounded {
	return New(-1).(*Unbounded)
}

// LookupOrBuild implements Cache.
func (u *Unbounded) LookupOrBuild(addr isa.Addr, build Builder) (*BasicBlock, error) {
	u.lookups.Inc()
	if bb, ok := u.blocks[addr]; ok {
		u.hits.Inc()
		return bb, nil
	}
	bb, err := u.build(addr, build)
	if err != nil {
		return nil, err
	}
	u.blocks[addr] = bb
	u.size.Set(int64(len(u.blocks)))
	return bb, nil
}

// Len implements Cache.
func (u *Unbounded) Len() int { return len(u.blocks) }

// None keeps nothing: every lookup builds.
type None struct {
	counters
}

// NewNone creates a cache that never retains blocks.
func NewNone() *None {
	return New(0).(*None)
}

// LookupOrBuild implements Cache.
func (n *None) LookupOrBuild(addr isa.Addr, build Builder) (*BasicBlock, error) {
	n.lookups.Inc()
	return n.build(addr, build)
}

// Len implements Cache.
func (n *None) Len() int { return 0 }

// LRU keeps at most a fixed number of blocks and evicts the least recently
// used one to make room. Every hit promotes the block.
type LRU struct {
	counters
	blocks lru.BasicLRU[isa.Addr, *BasicBlock]
}

// NewLRU creates an LRU cache holding up to capacity blocks. Capacity must
// be positive.
func NewLRU(capacity int) *LRU {
	if capacity <= 0 {
		panic("bbcache: LRU capacity must be positive")
	}
	return New(capacity).(*LRU)
}

// LookupOrBuild implements Cache.
func (l *LRU) LookupOrBuild(addr isa.Addr, build Builder) (*BasicBlock, error) {
	l.lookups.Inc()
	if bb, ok := l.blocks.Get(addr); ok {
		l.hits.Inc()
		return bb, nil
	}
	bb, err := l.build(addr, build)
	if err != nil {
		return nil, err
	}
	if l.blocks.Add(addr, bb) {
		l.evictions.Inc()
	}
	l.size.Set(int64(l.blocks.Len()))
	return bb, nil
}

// Contains reports whether addr is cached without touching its recency.
func (l *LRU) Contains(addr isa.Addr) bool { return l.blocks.Contains(addr) }

// Len implements Cache.
func (l *LRU) Len() int { return l.blocks.Len() }
