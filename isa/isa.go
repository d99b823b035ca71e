// Package isa defines the architectural vocabulary of the simulated RV32
// core: machine words, register and CSR identifiers, the closed set of
// operation tags and the decoded Instruction record.
package isa

import (
	"fmt"
	"strings"
)

// Word is a machine word (XLEN = 32).
type Word = uint32

// Addr is a byte address in the simulated address space.
type Addr = uint32

// RegID indexes the general-purpose register file.
type RegID uint8

// CSRID indexes the control/status register space.
type CSRID uint16

const (
	// RegCount is the number of general-purpose registers.
	RegCount = 32

	// XLENBytes is the machine word size in bytes.
	XLENBytes = 4

	// CSRCount is the size of the 12-bit CSR address space.
	CSRCount = 1 << 12
)

// Well-known register numbers used by the loader and the ABI.
const (
	RegZero RegID = 0
	RegRA   RegID = 1
	RegSP   RegID = 2
	RegA0   RegID = 10
	RegA7   RegID = 17
)

// Counter CSR bindings. The H variants hold the upper 32 bits on RV32.
const (
	CSRCycle    CSRID = 0xC00
	CSRTime     CSRID = 0xC01
	CSRInstret  CSRID = 0xC02
	CSRCycleH   CSRID = 0xC80
	CSRTimeH    CSRID = 0xC81
	CSRInstretH CSRID = 0xC82
)

// Instruction is a decoded instruction. It is a plain value: once produced
// by the decoder it is never modified.
type Instruction struct {
	Op OpType

	Rs1 RegID
	Rs2 RegID
	Rs3 RegID
	Rd  RegID

	// Rm is the floating-point rounding mode field, reserved.
	Rm  uint8
	CSR CSRID

	// Imm is the immediate, already sign- or zero-extended to a word.
	Imm Word

	// IsBranch marks instructions that terminate a basic block.
	IsBranch bool
}

// String renders the instruction in the field-dump form used by the
// per-instruction debug log.
func (in Instruction) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%9s {", in.Op)
	fmt.Fprintf(&b, "rs1 = %2d, rs2 = %2d, rs3 = %2d, ", in.Rs1, in.Rs2, in.Rs3)
	fmt.Fprintf(&b, "rd = %2d, rm = %2d, csr = %2d, ", in.Rd, in.Rm, in.CSR)
	fmt.Fprintf(&b, "imm = 0x%08x}", in.Imm)
	return b.String()
}
