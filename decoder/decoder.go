// Package decoder turns raw 32-bit instruction words into isa.Instruction
// records. Decoding is total: encodings that match no known operation yield
// the zero Instruction (isa.OpUnknown) and are reported later, when a basic
// block tries to include them.
package decoder

import (
	"github.com/eth2030/rvsim/bits"
	"github.com/eth2030/rvsim/isa"
)

// Decode decodes a single instruction word.
func Decode(raw isa.Word) isa.Instruction {
	var inst isa.Instruction
	switch bits.GetBits(raw, 6, 0) {
	case isa.OpcodeLUI:
		inst = decodeU(raw, isa.OpLUI)
	case isa.OpcodeAUIPC:
		inst = decodeU(raw, isa.OpAUIPC)
	case isa.OpcodeJAL:
		inst = decodeJ(raw)
	case isa.OpcodeJALR:
		if funct3(raw) == 0 {
			inst = decodeI(raw, isa.OpJALR)
		}
	case isa.OpcodeBranch:
		inst = decodeBranch(raw)
	case isa.OpcodeLoad:
		inst = decodeLoad(raw)
	case isa.OpcodeStore:
		inst = decodeStore(raw)
	case isa.OpcodeOpImm:
		inst = decodeOpImm(raw)
	case isa.OpcodeOp:
		inst = decodeOp(raw)
	case isa.OpcodeMiscMem:
		if funct3(raw) == 0 {
			inst = decodeI(raw, isa.OpFENCE)
		}
	case isa.OpcodeSystem:
		inst = decodeSystem(raw)
	case isa.OpcodeAMO:
		inst = decodeAMO(raw)
	case isa.OpcodeLoadFP:
		inst = decodeLoadFP(raw)
	case isa.OpcodeStoreFP:
		inst = decodeStoreFP(raw)
	case isa.OpcodeMAdd, isa.OpcodeMSub, isa.OpcodeNMSub, isa.OpcodeNMAdd:
		inst = decodeFused(raw)
	case isa.OpcodeOpFP:
		inst = decodeOpFP(raw)
	}
	if inst.Op == isa.OpUnknown {
		return isa.Instruction{}
	}
	inst.IsBranch = inst.Op.IsControlFlow()
	return inst
}

// Field accessors.

func rd(raw isa.Word) isa.RegID   { return isa.RegID(bits.GetBits(raw, 11, 7)) }
func rs1(raw isa.Word) isa.RegID  { return isa.RegID(bits.GetBits(raw, 19, 15)) }
func rs2(raw isa.Word) isa.RegID  { return isa.RegID(bits.GetBits(raw, 24, 20)) }
func rs3(raw isa.Word) isa.RegID  { return isa.RegID(bits.GetBits(raw, 31, 27)) }
func funct3(raw isa.Word) uint32  { return bits.GetBits(raw, 14, 12) }
func funct7(raw isa.Word) uint32  { return bits.GetBits(raw, 31, 25) }
func funct5(raw isa.Word) uint32  { return bits.GetBits(raw, 31, 27) }
func immI(raw isa.Word) isa.Word  { return bits.SignExtend(bits.GetBits(raw, 31, 20), 12) }
func fmtFP(raw isa.Word) uint32   { return bits.GetBits(raw, 26, 25) }
func rmField(raw isa.Word) uint8  { return uint8(funct3(raw)) }
func shamt(raw isa.Word) isa.Word { return bits.GetBits(raw, 24, 20) }

func immS(raw isa.Word) isa.Word {
	imm := bits.GetBits(raw, 31, 25)<<5 | bits.GetBits(raw, 11, 7)
	return bits.SignExtend(imm, 12)
}

// immB assembles imm[12|10:5|4:1|11].
func immB(raw isa.Word) isa.Word {
	imm := bits.GetBits(raw, 31, 31)<<12 |
		bits.GetBits(raw, 7, 7)<<11 |
		bits.GetBits(raw, 30, 25)<<5 |
		bits.GetBits(raw, 11, 8)<<1
	return bits.SignExtend(imm, 13)
}

// immJ assembles imm[20|10:1|11|19:12].
func immJ(raw isa.Word) isa.Word {
	imm := bits.GetBits(raw, 31, 31)<<20 |
		bits.GetBits(raw, 19, 12)<<12 |
		bits.GetBits(raw, 20, 20)<<11 |
		bits.GetBits(raw, 30, 21)<<1
	return bits.SignExtend(imm, 21)
}

// Per-format layouts.

func decodeR(raw isa.Word, op isa.OpType) isa.Instruction {
	return isa.Instruction{Op: op, Rd: rd(raw), Rs1: rs1(raw), Rs2: rs2(raw)}
}

func decodeI(raw isa.Word, op isa.OpType) isa.Instruction {
	return isa.Instruction{Op: op, Rd: rd(raw), Rs1: rs1(raw), Imm: immI(raw)}
}

func decodeS(raw isa.Word, op isa.OpType) isa.Instruction {
	return isa.Instruction{Op: op, Rs1: rs1(raw), Rs2: rs2(raw), Imm: immS(raw)}
}

func decodeU(raw isa.Word, op isa.OpType) isa.Instruction {
	return isa.Instruction{Op: op, Rd: rd(raw), Imm: bits.GetBits(raw, 31, 12)}
}

func decodeJ(raw isa.Word) isa.Instruction {
	return isa.Instruction{Op: isa.OpJAL, Rd: rd(raw), Imm: immJ(raw)}
}

var branchOps = [8]isa.OpType{
	0b000: isa.OpBEQ,
	0b001: isa.OpBNE,
	0b100: isa.OpBLT,
	0b101: isa.OpBGE,
	0b110: isa.OpBLTU,
	0b111: isa.OpBGEU,
}

func decodeBranch(raw isa.Word) isa.Instruction {
	op := branchOps[funct3(raw)]
	if op == isa.OpUnknown {
		return isa.Instruction{}
	}
	return isa.Instruction{Op: op, Rs1: rs1(raw), Rs2: rs2(raw), Imm: immB(raw)}
}

var loadOps = [8]isa.OpType{
	0b000: isa.OpLB,
	0b001: isa.OpLH,
	0b010: isa.OpLW,
	0b100: isa.OpLBU,
	0b101: isa.OpLHU,
}

func decodeLoad(raw isa.Word) isa.Instruction {
	op := loadOps[funct3(raw)]
	if op == isa.OpUnknown {
		return isa.Instruction{}
	}
	return decodeI(raw, op)
}

var storeOps = [8]isa.OpType{
	0b000: isa.OpSB,
	0b001: isa.OpSH,
	0b010: isa.OpSW,
}

func decodeStore(raw isa.Word) isa.Instruction {
	op := storeOps[funct3(raw)]
	if op == isa.OpUnknown {
		return isa.Instruction{}
	}
	return decodeS(raw, op)
}

var opImmOps = [8]isa.OpType{
	0b000: isa.OpADDI,
	0b010: isa.OpSLTI,
	0b011: isa.OpSLTIU,
	0b100: isa.OpXORI,
	0b110: isa.OpORI,
	0b111: isa.OpANDI,
}

func decodeOpImm(raw isa.Word) isa.Instruction {
	f3 := funct3(raw)
	switch f3 {
	case 0b001:
		if funct7(raw) != 0 {
			return isa.Instruction{}
		}
		return isa.Instruction{Op: isa.OpSLLI, Rd: rd(raw), Rs1: rs1(raw), Imm: shamt(raw)}
	case 0b101:
		var op isa.OpType
		switch funct7(raw) {
		case 0x00:
			op = isa.OpSRLI
		case 0x20:
			op = isa.OpSRAI
		default:
			return isa.Instruction{}
		}
		return isa.Instruction{Op: op, Rd: rd(raw), Rs1: rs1(raw), Imm: shamt(raw)}
	}
	return decodeI(raw, opImmOps[f3])
}

// OP major opcode, indexed by funct3 for each valid funct7.
var (
	opBase = [8]isa.OpType{
		isa.OpADD, isa.OpSLL, isa.OpSLT, isa.OpSLTU,
		isa.OpXOR, isa.OpSRL, isa.OpOR, isa.OpAND,
	}
	opAlt = [8]isa.OpType{
		0b000: isa.OpSUB,
		0b101: isa.OpSRA,
	}
	opMulDiv = [8]isa.OpType{
		isa.OpMUL, isa.OpMULH, isa.OpMULHSU, isa.OpMULHU,
		isa.OpDIV, isa.OpDIVU, isa.OpREM, isa.OpREMU,
	}
)

func decodeOp(raw isa.Word) isa.Instruction {
	var table *[8]isa.OpType
	switch funct7(raw) {
	case 0x00:
		table = &opBase
	case 0x20:
		table = &opAlt
	case 0x01:
		table = &opMulDiv
	default:
		return isa.Instruction{}
	}
	op := table[funct3(raw)]
	if op == isa.OpUnknown {
		return isa.Instruction{}
	}
	return decodeR(raw, op)
}

var csrOps = [8]isa.OpType{
	0b001: isa.OpCSRRW,
	0b010: isa.OpCSRRS,
	0b011: isa.OpCSRRC,
	0b101: isa.OpCSRRWI,
	0b110: isa.OpCSRRSI,
	0b111: isa.OpCSRRCI,
}

func decodeSystem(raw isa.Word) isa.Instruction {
	f3 := funct3(raw)
	if f3 == 0 {
		if rd(raw) != 0 || rs1(raw) != 0 {
			return isa.Instruction{}
		}
		switch bits.GetBits(raw, 31, 20) {
		case 0:
			return isa.Instruction{Op: isa.OpECALL}
		case 1:
			return isa.Instruction{Op: isa.OpEBREAK}
		}
		return isa.Instruction{}
	}
	op := csrOps[f3]
	if op == isa.OpUnknown {
		return isa.Instruction{}
	}
	inst := isa.Instruction{
		Op:  op,
		Rd:  rd(raw),
		Rs1: rs1(raw),
		CSR: isa.CSRID(bits.GetBits(raw, 31, 20)),
	}
	if f3&0b100 != 0 {
		// zimm lives in the rs1 slot and is zero-extended.
		inst.Imm = bits.GetBits(raw, 19, 15)
	}
	return inst
}

var amoOps = map[uint32]isa.OpType{
	0b00010: isa.OpLRW,
	0b00011: isa.OpSCW,
	0b00001: isa.OpAMOSWAPW,
	0b00000: isa.OpAMOADDW,
	0b00100: isa.OpAMOXORW,
	0b01100: isa.OpAMOANDW,
	0b01000: isa.OpAMOORW,
	0b10000: isa.OpAMOMINW,
	0b10100: isa.OpAMOMAXW,
	0b11000: isa.OpAMOMINUW,
	0b11100: isa.OpAMOMAXUW,
}

func decodeAMO(raw isa.Word) isa.Instruction {
	if funct3(raw) != 0b010 {
		return isa.Instruction{}
	}
	op, ok := amoOps[funct5(raw)]
	if !ok || (op == isa.OpLRW && rs2(raw) != 0) {
		return isa.Instruction{}
	}
	return decodeR(raw, op)
}

func decodeLoadFP(raw isa.Word) isa.Instruction {
	switch funct3(raw) {
	case 0b010:
		return decodeI(raw, isa.OpFLW)
	case 0b011:
		return decodeI(raw, isa.OpFLD)
	}
	return isa.Instruction{}
}

func decodeStoreFP(raw isa.Word) isa.Instruction {
	switch funct3(raw) {
	case 0b010:
		return decodeS(raw, isa.OpFSW)
	case 0b011:
		return decodeS(raw, isa.OpFSD)
	}
	return isa.Instruction{}
}

// Fused multiply-add family, indexed by [opcode][fmt].
var fusedOps = map[uint32][2]isa.OpType{
	isa.OpcodeMAdd:  {isa.OpFMADDS, isa.OpFMADDD},
	isa.OpcodeMSub:  {isa.OpFMSUBS, isa.OpFMSUBD},
	isa.OpcodeNMSub: {isa.OpFNMSUBS, isa.OpFNMSUBD},
	isa.OpcodeNMAdd: {isa.OpFNMADDS, isa.OpFNMADDD},
}

func decodeFused(raw isa.Word) isa.Instruction {
	f := fmtFP(raw)
	if f > 1 {
		return isa.Instruction{}
	}
	return isa.Instruction{
		Op:  fusedOps[bits.GetBits(raw, 6, 0)][f],
		Rd:  rd(raw),
		Rs1: rs1(raw),
		Rs2: rs2(raw),
		Rs3: rs3(raw),
		Rm:  rmField(raw),
	}
}

// fpArith holds the OP-FP operations whose funct7 alone selects the
// operation; the funct3 field is the rounding mode.
var fpArith = map[uint32]isa.OpType{
	0x00: isa.OpFADDS, 0x04: isa.OpFSUBS, 0x08: isa.OpFMULS, 0x0C: isa.OpFDIVS,
	0x01: isa.OpFADDD, 0x05: isa.OpFSUBD, 0x09: isa.OpFMULD, 0x0D: isa.OpFDIVD,
}

// fpByFunct3 holds the OP-FP operations distinguished by funct3.
var fpByFunct3 = map[uint32][3]isa.OpType{
	0x10: {isa.OpFSGNJS, isa.OpFSGNJNS, isa.OpFSGNJXS},
	0x11: {isa.OpFSGNJD, isa.OpFSGNJND, isa.OpFSGNJXD},
	0x14: {isa.OpFMINS, isa.OpFMAXS},
	0x15: {isa.OpFMIND, isa.OpFMAXD},
	0x50: {isa.OpFLES, isa.OpFLTS, isa.OpFEQS},
	0x51: {isa.OpFLED, isa.OpFLTD, isa.OpFEQD},
}

// fpByRs2 holds the OP-FP operations distinguished by the rs2 field; the
// funct3 field is the rounding mode.
var fpByRs2 = map[uint32][2]isa.OpType{
	0x2C: {isa.OpFSQRTS},
	0x2D: {isa.OpFSQRTD},
	0x60: {isa.OpFCVTWS, isa.OpFCVTWUS},
	0x61: {isa.OpFCVTWD, isa.OpFCVTWUD},
	0x68: {isa.OpFCVTSW, isa.OpFCVTSWU},
	0x69: {isa.OpFCVTDW, isa.OpFCVTDWU},
	0x20: {isa.OpUnknown, isa.OpFCVTSD},
	0x21: {isa.OpFCVTDS},
}

func decodeOpFP(raw isa.Word) isa.Instruction {
	f7 := funct7(raw)
	inst := isa.Instruction{Rd: rd(raw), Rs1: rs1(raw), Rs2: rs2(raw), Rm: rmField(raw)}

	if op, ok := fpArith[f7]; ok {
		inst.Op = op
		return inst
	}
	if ops, ok := fpByFunct3[f7]; ok {
		if f3 := funct3(raw); f3 < uint32(len(ops)) {
			inst.Op, inst.Rm = ops[f3], 0
		}
		return inst
	}
	if ops, ok := fpByRs2[f7]; ok {
		if r := uint32(rs2(raw)); r < uint32(len(ops)) {
			inst.Op, inst.Rs2 = ops[r], 0
		}
		return inst
	}

	// Moves and classification: rs2 must be zero, funct3 selects.
	if rs2(raw) != 0 {
		return isa.Instruction{}
	}
	inst.Rm = 0
	switch {
	case f7 == 0x70 && funct3(raw) == 0:
		inst.Op = isa.OpFMVXW
	case f7 == 0x70 && funct3(raw) == 1:
		inst.Op = isa.OpFCLASSS
	case f7 == 0x71 && funct3(raw) == 1:
		inst.Op = isa.OpFCLASSD
	case f7 == 0x78 && funct3(raw) == 0:
		inst.Op = isa.OpFMVWX
	}
	return inst
}
