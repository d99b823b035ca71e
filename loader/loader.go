// Package loader turns program files into word-addressed images the hart
// can place in simulated memory.
package loader

import (
	"github.com/eth2030/rvsim/isa"
)

// Segment is one loadable region. Words holds the file-backed contents;
// the remaining memory size up to Memsz is zero-initialised by the hart.
type Segment struct {
	Addr   isa.Addr
	Words  []isa.Word
	Filesz uint32
	Memsz  uint32
}

// VirtualAddress returns the address of the first word of the segment.
func (s Segment) VirtualAddress() isa.Addr { return s.Addr }

// FileBackedWords returns the words read from the program file.
func (s Segment) FileBackedWords() []isa.Word { return s.Words }

// FileSize returns the number of bytes backed by the program file.
func (s Segment) FileSize() uint32 { return s.Filesz }

// MemorySize returns the number of bytes the segment occupies in memory.
func (s Segment) MemorySize() uint32 { return s.Memsz }

// Program is a loaded executable image.
type Program struct {
	Entry    isa.Addr
	Segments []Segment
}

// EntryPoint returns the address of the first instruction.
func (p *Program) EntryPoint() isa.Addr { return p.Entry }

// LoadableSegments returns the segments in file order.
func (p *Program) LoadableSegments() []Segment { return p.Segments }

// FromWords wraps a flat word image placed at base.
func FromWords(base, entry isa.Addr, words []isa.Word) *Program {
	size := uint32(len(words) * isa.XLENBytes)
	return &Program{
		Entry: entry,
		Segments: []Segment{{
			Addr:   base,
			Words:  words,
			Filesz: size,
			Memsz:  size,
		}},
	}
}
