// Package state holds the architectural state of a hart: program counter,
// register and CSR files, memory, and the control flags the driver loop
// resolves after every instruction.
package state

import (
	"github.com/eth2030/rvsim/isa"
	"github.com/eth2030/rvsim/memory"
)

// Tracer observes architectural writes as they happen. The cosim trace
// writer implements it.
type Tracer interface {
	RegWrite(r isa.RegID, v isa.Word)
	MemWrite(addr isa.Addr, v isa.Word)
}

// State is the mutable state of one hart. The hart owns it; the executor
// receives it for the duration of a single instruction.
type State struct {
	PC  isa.Addr
	NPC isa.Addr

	Regs RegFile
	CSRs CSRFile
	Mem  *memory.Memory

	// BranchTaken is staged by control-flow handlers; the driver moves PC
	// to NPC and clears it.
	BranchTaken bool

	// Complete is set by ECALL.
	Complete bool

	// Tracer, if set, sees every non-x0 register write and every store.
	Tracer Tracer
}

// New returns a zeroed state backed by mem.
func New(mem *memory.Memory) *State {
	return &State{Mem: mem}
}

// SetReg writes v to register r and reports the write to the tracer.
// Writes to x0 are discarded silently.
func (s *State) SetReg(r isa.RegID, v isa.Word) {
	if s.Regs.Set(r, v) && s.Tracer != nil {
		s.Tracer.RegWrite(r, v)
	}
}

// StoreByte stores the low byte of v at addr.
func (s *State) StoreByte(addr isa.Addr, v isa.Word) error {
	if err := s.Mem.StoreByte(addr, uint8(v)); err != nil {
		return err
	}
	s.traceMem(addr, v&0xFF)
	return nil
}

// StoreHalf stores the low half-word of v at addr.
func (s *State) StoreHalf(addr isa.Addr, v isa.Word) error {
	if err := s.Mem.StoreHalf(addr, uint16(v)); err != nil {
		return err
	}
	s.traceMem(addr, v&0xFFFF)
	return nil
}

// StoreWord stores v at addr.
func (s *State) StoreWord(addr isa.Addr, v isa.Word) error {
	if err := s.Mem.StoreWord(addr, v); err != nil {
		return err
	}
	s.traceMem(addr, v)
	return nil
}

func (s *State) traceMem(addr isa.Addr, v isa.Word) {
	if s.Tracer != nil {
		s.Tracer.MemWrite(addr, v)
	}
}
