// Package bbcache builds basic blocks from simulated memory and caches them
// by entry address under one of three retention policies.
package bbcache

import (
	"errors"
	"fmt"

	"github.com/eth2030/rvsim/decoder"
	"github.com/eth2030/rvsim/isa"
)

// ErrDecodeDeferred is wrapped by DecodeError. The decoder accepts any word;
// an unknown encoding is only reported once a block tries to include it.
var ErrDecodeDeferred = errors.New("bbcache: undecodable instruction in basic block")

// DecodeError reports the address and raw word of an unknown instruction
// reached while building a block.
type DecodeError struct {
	Addr isa.Addr
	Raw  isa.Word
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v: 0x%08x at 0x%08x", ErrDecodeDeferred, e.Raw, e.Addr)
}

func (e *DecodeError) Unwrap() error { return ErrDecodeDeferred }

// BasicBlock is a straight-line run of instructions. Every instruction but
// the last is not a control-flow instruction; the last one is. A block is
// never modified after it is built.
type BasicBlock struct {
	Entry isa.Addr
	Insts []isa.Instruction
}

// Len returns the number of instructions in the block.
func (bb *BasicBlock) Len() int { return len(bb.Insts) }

// Last returns the terminating instruction.
func (bb *BasicBlock) Last() isa.Instruction { return bb.Insts[len(bb.Insts)-1] }

// Fetcher reads the instruction word at an address.
type Fetcher func(addr isa.Addr) (isa.Word, error)

// Builder produces the basic block starting at an address.
type Builder func(addr isa.Addr) (*BasicBlock, error)

// Build decodes successive words from entry and stops after the first
// control-flow instruction.
func Build(entry isa.Addr, fetch Fetcher) (*BasicBlock, error) {
	bb := &BasicBlock{Entry: entry}
	for addr := entry; ; addr += isa.XLENBytes {
		raw, err := fetch(addr)
		if err != nil {
			return nil, fmt.Errorf("bbcache: fetch at 0x%08x: %w", addr, err)
		}
		inst := decoder.Decode(raw)
		if inst.Op == isa.OpUnknown {
			return nil, &DecodeError{Addr: addr, Raw: raw}
		}
		bb.Insts = append(bb.Insts, inst)
		if inst.IsBranch {
			return bb, nil
		}
	}
}
