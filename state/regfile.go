package state

import (
	"fmt"
	"strings"

	"github.com/eth2030/rvsim/isa"
)

// RegFile is the general-purpose register file. Register x0 always reads as
// zero.
type RegFile struct {
	regs [isa.RegCount]isa.Word
}

// Get returns the value of register r.
func (rf *RegFile) Get(r isa.RegID) isa.Word {
	return rf.regs[r]
}

// Set writes v to register r. Writes to x0 are dropped and Set reports
// false; NOP and link-discarding JALR both target x0.
func (rf *RegFile) Set(r isa.RegID, v isa.Word) bool {
	if r == isa.RegZero {
		return false
	}
	rf.regs[r] = v
	return true
}

// String dumps the registers as eight rows of four.
func (rf *RegFile) String() string {
	var b strings.Builder
	for row := 0; row < isa.RegCount/4; row++ {
		for col := 0; col < 4; col++ {
			r := row*4 + col
			if col > 0 {
				b.WriteString("  ")
			}
			fmt.Fprintf(&b, "x%-2d=0x%08x", r, rf.regs[r])
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// CSRFile holds the control and status registers.
type CSRFile struct {
	regs [isa.CSRCount]isa.Word
}

// Get returns the value of csr.
func (cf *CSRFile) Get(csr isa.CSRID) isa.Word {
	return cf.regs[csr%isa.CSRCount]
}

// Set writes v to csr.
func (cf *CSRFile) Set(csr isa.CSRID, v isa.Word) {
	cf.regs[csr%isa.CSRCount] = v
}

func (cf *CSRFile) get64(lo, hi isa.CSRID) uint64 {
	return uint64(cf.regs[hi])<<32 | uint64(cf.regs[lo])
}

func (cf *CSRFile) set64(lo, hi isa.CSRID, v uint64) {
	cf.regs[lo] = isa.Word(v)
	cf.regs[hi] = isa.Word(v >> 32)
}

// UpdateTimers accounts one retired instruction of the given operation:
// instret advances by one and cycle by the operation's throughput, both as
// 64-bit counters split over their low/high CSR pair.
func (cf *CSRFile) UpdateTimers(op isa.OpType) {
	cf.set64(isa.CSRInstret, isa.CSRInstretH, cf.get64(isa.CSRInstret, isa.CSRInstretH)+1)
	cf.set64(isa.CSRCycle, isa.CSRCycleH, cf.get64(isa.CSRCycle, isa.CSRCycleH)+uint64(Throughput(op)))
}

// Instret returns the 64-bit retired-instruction counter.
func (cf *CSRFile) Instret() uint64 { return cf.get64(isa.CSRInstret, isa.CSRInstretH) }

// Cycles returns the 64-bit cycle counter.
func (cf *CSRFile) Cycles() uint64 { return cf.get64(isa.CSRCycle, isa.CSRCycleH) }
