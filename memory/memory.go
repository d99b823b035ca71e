// Package memory implements the simulated physical address space: a sparse
// page table backed by a page arena, a direct-mapped TLB caching page
// handles, and the Memory facade the executor loads from and stores to.
//
// Loads from a page that was never written fault; stores allocate. Every
// access must be naturally aligned, which also keeps it inside one page.
package memory

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/sha3"

	"github.com/eth2030/rvsim/bits"
	"github.com/eth2030/rvsim/isa"
	"github.com/eth2030/rvsim/metrics"
)

// Address layout constants.
const (
	// PageBits is log2 of the page size in bytes.
	PageBits = 12

	// PageSize is the page size in bytes.
	PageSize = 1 << PageBits

	// PageWords is the number of machine words per page.
	PageWords = PageSize / isa.XLENBytes

	// TLBBits is log2 of the number of TLB slots.
	TLBBits = 4

	// TLBSize is the number of TLB slots.
	TLBSize = 1 << TLBBits
)

// Memory errors.
var (
	ErrMisaligned = errors.New("memory: misaligned access")
	ErrPageFault  = errors.New("memory: page fault")
)

// SplitAddress decomposes addr into its page index and intra-page byte
// offset.
func SplitAddress(addr isa.Addr) (page, offset uint32) {
	return addr >> PageBits, bits.GetBits(addr, PageBits-1, 0)
}

// Stats is a snapshot of the memory counters.
type Stats struct {
	Loads       uint64
	Stores      uint64
	PageFaults  uint64
	TLBRequests uint64
	TLBHits     uint64
	TLBMisses   uint64
	Pages       uint64
}

type accessMode uint8

const (
	modeLoad accessMode = iota
	modeStore
)

// Memory is the load/store facade over the page table and TLB. It is not
// safe for concurrent use; a hart owns its memory exclusively.
type Memory struct {
	table *PageTable
	tlb   *TLB

	loads  *metrics.Counter
	stores *metrics.Counter
	faults *metrics.Counter
	pages  *metrics.Gauge
}

// New creates an empty memory with a private metrics registry.
func New() *Memory {
	return NewWithRegistry(metrics.NewRegistry())
}

// NewWithRegistry creates an empty memory whose counters live in reg.
func NewWithRegistry(reg *metrics.Registry) *Memory {
	return &Memory{
		table:  NewPageTable(),
		tlb:    NewTLB(reg),
		loads:  reg.Counter("memory/loads"),
		stores: reg.Counter("memory/stores"),
		faults: reg.Counter("memory/page_faults"),
		pages:  reg.Gauge("memory/pages"),
	}
}

func checkAlignment(addr isa.Addr, width uint32) error {
	_, off := SplitAddress(addr)
	if addr%width != 0 || off+width > PageSize {
		return fmt.Errorf("%w: %d-byte access at 0x%08x", ErrMisaligned, width, addr)
	}
	return nil
}

// translate resolves addr to its page through the TLB, falling back to the
// page table on a miss and refilling the slot.
func (m *Memory) translate(addr isa.Addr, mode accessMode) (*Page, error) {
	if h, ok := m.tlb.Lookup(addr); ok {
		return m.table.Page(h), nil
	}
	idx, _ := SplitAddress(addr)
	h, ok := m.table.Lookup(idx)
	if !ok {
		if mode == modeLoad {
			m.faults.Inc()
			return nil, fmt.Errorf("%w: load from unmapped address 0x%08x", ErrPageFault, addr)
		}
		h = m.table.Allocate(idx)
		m.pages.Set(int64(m.table.Len()))
	}
	m.tlb.Update(addr, h)
	return m.table.Page(h), nil
}

// load returns the word containing addr together with the bit position of
// addr's lane inside that word.
func (m *Memory) load(addr isa.Addr, width uint32) (isa.Word, uint32, error) {
	if err := checkAlignment(addr, width); err != nil {
		return 0, 0, err
	}
	m.loads.Inc()
	page, err := m.translate(addr, modeLoad)
	if err != nil {
		return 0, 0, err
	}
	_, off := SplitAddress(addr)
	return page[off/isa.XLENBytes], (off % isa.XLENBytes) * 8, nil
}

// store merges the low width bytes of v into the word containing addr.
func (m *Memory) store(addr isa.Addr, width uint32, v isa.Word) error {
	if err := checkAlignment(addr, width); err != nil {
		return err
	}
	m.stores.Inc()
	page, err := m.translate(addr, modeStore)
	if err != nil {
		return err
	}
	_, off := SplitAddress(addr)
	shift := (off % isa.XLENBytes) * 8
	mask := bits.Mask(uint(width*8-1), 0) << shift
	w := &page[off/isa.XLENBytes]
	*w = *w&^mask | (v<<shift)&mask
	return nil
}

// LoadByte reads the byte at addr.
func (m *Memory) LoadByte(addr isa.Addr) (uint8, error) {
	w, shift, err := m.load(addr, 1)
	return uint8(w >> shift), err
}

// LoadHalf reads the little-endian half-word at addr.
func (m *Memory) LoadHalf(addr isa.Addr) (uint16, error) {
	w, shift, err := m.load(addr, 2)
	return uint16(w >> shift), err
}

// LoadWord reads the word at addr.
func (m *Memory) LoadWord(addr isa.Addr) (isa.Word, error) {
	w, _, err := m.load(addr, 4)
	return w, err
}

// StoreByte writes v at addr.
func (m *Memory) StoreByte(addr isa.Addr, v uint8) error {
	return m.store(addr, 1, isa.Word(v))
}

// StoreHalf writes v at addr in little-endian order.
func (m *Memory) StoreHalf(addr isa.Addr, v uint16) error {
	return m.store(addr, 2, isa.Word(v))
}

// StoreWord writes v at addr.
func (m *Memory) StoreWord(addr isa.Addr, v isa.Word) error {
	return m.store(addr, 4, v)
}

// StoreRange stores words at consecutive word addresses starting at addr.
func (m *Memory) StoreRange(addr isa.Addr, words []isa.Word) error {
	for i, w := range words {
		if err := m.StoreWord(addr+isa.Addr(i*isa.XLENBytes), w); err != nil {
			return err
		}
	}
	return nil
}

// Stats returns a snapshot of the memory and TLB counters.
func (m *Memory) Stats() Stats {
	t := m.tlb.Stats()
	return Stats{
		Loads:       m.loads.Value(),
		Stores:      m.stores.Value(),
		PageFaults:  m.faults.Value(),
		TLBRequests: t.Requests,
		TLBHits:     t.Hits,
		TLBMisses:   t.Misses,
		Pages:       uint64(m.table.Len()),
	}
}

// PageCount returns the number of allocated pages.
func (m *Memory) PageCount() int { return m.table.Len() }

// Reset drops every page and flushes the TLB. Counters are kept.
func (m *Memory) Reset() {
	m.tlb.Flush()
	m.table.Reset()
	m.pages.Set(0)
}

// Digest returns the Keccak-256 hash of the allocated memory: for every page
// in ascending index order, the big-endian page index followed by the page
// contents as little-endian words.
func (m *Memory) Digest() [32]byte {
	h := sha3.NewLegacyKeccak256()
	var buf [PageSize]byte
	var idxBuf [4]byte
	for _, idx := range m.table.Indices() {
		hnd, _ := m.table.Lookup(idx)
		page := m.table.Page(hnd)
		for i, w := range page {
			binary.LittleEndian.PutUint32(buf[i*isa.XLENBytes:], w)
		}
		binary.BigEndian.PutUint32(idxBuf[:], idx)
		h.Write(idxBuf[:])
		h.Write(buf[:])
	}
	var out [32]byte
	h.Sum(out[:0])
	return out
}
