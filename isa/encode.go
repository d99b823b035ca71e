package isa

// Instruction encoders. They assemble 32-bit instruction words from their
// fields and are used to build test programs without a toolchain.

// Major opcodes (bits [6:0]).
const (
	OpcodeLoad    uint32 = 0x03
	OpcodeLoadFP  uint32 = 0x07
	OpcodeMiscMem uint32 = 0x0F
	OpcodeOpImm   uint32 = 0x13
	OpcodeAUIPC   uint32 = 0x17
	OpcodeStore   uint32 = 0x23
	OpcodeStoreFP uint32 = 0x27
	OpcodeAMO     uint32 = 0x2F
	OpcodeOp      uint32 = 0x33
	OpcodeLUI     uint32 = 0x37
	OpcodeMAdd    uint32 = 0x43
	OpcodeMSub    uint32 = 0x47
	OpcodeNMSub   uint32 = 0x4B
	OpcodeNMAdd   uint32 = 0x4F
	OpcodeOpFP    uint32 = 0x53
	OpcodeBranch  uint32 = 0x63
	OpcodeJALR    uint32 = 0x67
	OpcodeJAL     uint32 = 0x6F
	OpcodeSystem  uint32 = 0x73
)

// EncodeR encodes an R-type instruction.
func EncodeR(opcode, rd, funct3, rs1, rs2, funct7 uint32) Word {
	return funct7<<25 | rs2<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

// EncodeI encodes an I-type instruction; only the low 12 bits of imm are used.
func EncodeI(opcode, rd, funct3, rs1 uint32, imm int32) Word {
	return uint32(imm&0xFFF)<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

// EncodeS encodes an S-type instruction.
func EncodeS(opcode, funct3, rs1, rs2 uint32, imm int32) Word {
	u := uint32(imm & 0xFFF)
	return (u>>5)<<25 | rs2<<20 | rs1<<15 | funct3<<12 | (u&0x1F)<<7 | opcode
}

// EncodeB encodes a B-type instruction. imm is the byte offset (even).
func EncodeB(opcode, funct3, rs1, rs2 uint32, imm int32) Word {
	u := uint32(imm)
	return ((u>>12)&0x1)<<31 | ((u>>5)&0x3F)<<25 |
		rs2<<20 | rs1<<15 | funct3<<12 |
		((u>>1)&0xF)<<8 | ((u>>11)&0x1)<<7 | opcode
}

// EncodeU encodes a U-type instruction. imm20 is the 20-bit upper
// immediate, not yet shifted.
func EncodeU(opcode, rd, imm20 uint32) Word {
	return (imm20&0xFFFFF)<<12 | rd<<7 | opcode
}

// EncodeJ encodes a J-type instruction. imm is the byte offset (even).
func EncodeJ(opcode, rd uint32, imm int32) Word {
	u := uint32(imm)
	return ((u>>20)&0x1)<<31 | ((u>>1)&0x3FF)<<21 |
		((u>>11)&0x1)<<20 | ((u>>12)&0xFF)<<12 |
		rd<<7 | opcode
}

// EncodeCSR encodes a SYSTEM instruction addressing csr. For the immediate
// variants src is the 5-bit zimm, otherwise a register number.
func EncodeCSR(rd, funct3, src uint32, csr CSRID) Word {
	return uint32(csr)<<20 | (src&0x1F)<<15 | funct3<<12 | rd<<7 | OpcodeSystem
}

// Ecall is the encoding of ECALL.
const Ecall Word = 0x00000073
