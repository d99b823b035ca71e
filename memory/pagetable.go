package memory

import (
	"fmt"
	"sort"

	"github.com/eth2030/rvsim/isa"
)

// Page is one physical page of simulated memory.
type Page [PageWords]isa.Word

// PageHandle is a stable reference to an allocated page. It stays valid for
// the lifetime of the PageTable (or until Reset), no matter how many pages
// are allocated after it.
type PageHandle int32

// NoPage is the handle value that refers to no page.
const NoPage PageHandle = -1

// PageTable maps page indices to pages. Pages live in an append-only arena
// and are referenced by handle, so growing the arena never invalidates a
// handle held by the TLB.
type PageTable struct {
	index map[uint32]PageHandle
	arena []Page
}

// NewPageTable creates an empty page table.
func NewPageTable() *PageTable {
	return &PageTable{index: make(map[uint32]PageHandle)}
}

// Lookup returns the handle of the page with the given index.
func (pt *PageTable) Lookup(pageIndex uint32) (PageHandle, bool) {
	h, ok := pt.index[pageIndex]
	return h, ok
}

// Allocate returns the handle of the page with the given index, creating a
// zero-filled page if none exists.
func (pt *PageTable) Allocate(pageIndex uint32) PageHandle {
	if h, ok := pt.index[pageIndex]; ok {
		return h
	}
	h := PageHandle(len(pt.arena))
	pt.arena = append(pt.arena, Page{})
	pt.index[pageIndex] = h
	return h
}

// Page dereferences a handle. The returned pointer must not be retained
// across calls to Allocate. Panics on a handle this table never issued.
func (pt *PageTable) Page(h PageHandle) *Page {
	if h < 0 || int(h) >= len(pt.arena) {
		panic(fmt.Sprintf("memory: invalid page handle %d (arena size %d)", h, len(pt.arena)))
	}
	return &pt.arena[h]
}

// Len returns the number of allocated pages.
func (pt *PageTable) Len() int { return len(pt.arena) }

// Indices returns the indices of all allocated pages in ascending order.
func (pt *PageTable) Indices() []uint32 {
	out := make([]uint32, 0, len(pt.index))
	for idx := range pt.index {
		out = append(out, idx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Reset drops every page. Handles issued before Reset become invalid.
func (pt *PageTable) Reset() {
	pt.index = make(map[uint32]PageHandle)
	pt.arena = nil
}
