package isa

import "fmt"

// OpType identifies the operation of a decoded instruction. The set is
// closed: every encoding the decoder recognises has a tag here, including
// extensions the executor does not implement.
type OpType uint8

const (
	OpUnknown OpType = iota

	// RV32I base integer instructions.
	OpLUI
	OpAUIPC
	OpJAL
	OpJALR
	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU
	OpLB
	OpLH
	OpLW
	OpLBU
	OpLHU
	OpSB
	OpSH
	OpSW
	OpADDI
	OpSLTI
	OpSLTIU
	OpXORI
	OpORI
	OpANDI
	OpSLLI
	OpSRLI
	OpSRAI
	OpADD
	OpSUB
	OpSLL
	OpSLT
	OpSLTU
	OpXOR
	OpSRL
	OpSRA
	OpOR
	OpAND
	OpFENCE
	OpECALL
	OpEBREAK

	// Zicsr.
	OpCSRRW
	OpCSRRS
	OpCSRRC
	OpCSRRWI
	OpCSRRSI
	OpCSRRCI

	// M extension.
	OpMUL
	OpMULH
	OpMULHSU
	OpMULHU
	OpDIV
	OpDIVU
	OpREM
	OpREMU

	// A extension (decoded only).
	OpLRW
	OpSCW
	OpAMOSWAPW
	OpAMOADDW
	OpAMOXORW
	OpAMOANDW
	OpAMOORW
	OpAMOMINW
	OpAMOMAXW
	OpAMOMINUW
	OpAMOMAXUW

	// F extension (decoded only).
	OpFLW
	OpFSW
	OpFMADDS
	OpFMSUBS
	OpFNMSUBS
	OpFNMADDS
	OpFADDS
	OpFSUBS
	OpFMULS
	OpFDIVS
	OpFSQRTS
	OpFSGNJS
	OpFSGNJNS
	OpFSGNJXS
	OpFMINS
	OpFMAXS
	OpFCVTWS
	OpFCVTWUS
	OpFMVXW
	OpFEQS
	OpFLTS
	OpFLES
	OpFCLASSS
	OpFCVTSW
	OpFCVTSWU
	OpFMVWX

	// D extension (decoded only).
	OpFLD
	OpFSD
	OpFMADDD
	OpFMSUBD
	OpFNMSUBD
	OpFNMADDD
	OpFADDD
	OpFSUBD
	OpFMULD
	OpFDIVD
	OpFSQRTD
	OpFSGNJD
	OpFSGNJND
	OpFSGNJXD
	OpFMIND
	OpFMAXD
	OpFCVTSD
	OpFCVTDS
	OpFEQD
	OpFLTD
	OpFLED
	OpFCLASSD
	OpFCVTWD
	OpFCVTWUD
	OpFCVTDW
	OpFCVTDWU

	// NumOpTypes is the number of defined tags.
	NumOpTypes
)

var opNames = [NumOpTypes]string{
	OpUnknown: "UNKNOWN",

	OpLUI: "LUI", OpAUIPC: "AUIPC", OpJAL: "JAL", OpJALR: "JALR",
	OpBEQ: "BEQ", OpBNE: "BNE", OpBLT: "BLT", OpBGE: "BGE", OpBLTU: "BLTU", OpBGEU: "BGEU",
	OpLB: "LB", OpLH: "LH", OpLW: "LW", OpLBU: "LBU", OpLHU: "LHU",
	OpSB: "SB", OpSH: "SH", OpSW: "SW",
	OpADDI: "ADDI", OpSLTI: "SLTI", OpSLTIU: "SLTIU", OpXORI: "XORI", OpORI: "ORI", OpANDI: "ANDI",
	OpSLLI: "SLLI", OpSRLI: "SRLI", OpSRAI: "SRAI",
	OpADD: "ADD", OpSUB: "SUB", OpSLL: "SLL", OpSLT: "SLT", OpSLTU: "SLTU",
	OpXOR: "XOR", OpSRL: "SRL", OpSRA: "SRA", OpOR: "OR", OpAND: "AND",
	OpFENCE: "FENCE", OpECALL: "ECALL", OpEBREAK: "EBREAK",

	OpCSRRW: "CSRRW", OpCSRRS: "CSRRS", OpCSRRC: "CSRRC",
	OpCSRRWI: "CSRRWI", OpCSRRSI: "CSRRSI", OpCSRRCI: "CSRRCI",

	OpMUL: "MUL", OpMULH: "MULH", OpMULHSU: "MULHSU", OpMULHU: "MULHU",
	OpDIV: "DIV", OpDIVU: "DIVU", OpREM: "REM", OpREMU: "REMU",

	OpLRW: "LR.W", OpSCW: "SC.W", OpAMOSWAPW: "AMOSWAP.W", OpAMOADDW: "AMOADD.W",
	OpAMOXORW: "AMOXOR.W", OpAMOANDW: "AMOAND.W", OpAMOORW: "AMOOR.W",
	OpAMOMINW: "AMOMIN.W", OpAMOMAXW: "AMOMAX.W", OpAMOMINUW: "AMOMINU.W", OpAMOMAXUW: "AMOMAXU.W",

	OpFLW: "FLW", OpFSW: "FSW",
	OpFMADDS: "FMADD.S", OpFMSUBS: "FMSUB.S", OpFNMSUBS: "FNMSUB.S", OpFNMADDS: "FNMADD.S",
	OpFADDS: "FADD.S", OpFSUBS: "FSUB.S", OpFMULS: "FMUL.S", OpFDIVS: "FDIV.S", OpFSQRTS: "FSQRT.S",
	OpFSGNJS: "FSGNJ.S", OpFSGNJNS: "FSGNJN.S", OpFSGNJXS: "FSGNJX.S",
	OpFMINS: "FMIN.S", OpFMAXS: "FMAX.S",
	OpFCVTWS: "FCVT.W.S", OpFCVTWUS: "FCVT.WU.S", OpFMVXW: "FMV.X.W",
	OpFEQS: "FEQ.S", OpFLTS: "FLT.S", OpFLES: "FLE.S", OpFCLASSS: "FCLASS.S",
	OpFCVTSW: "FCVT.S.W", OpFCVTSWU: "FCVT.S.WU", OpFMVWX: "FMV.W.X",

	OpFLD: "FLD", OpFSD: "FSD",
	OpFMADDD: "FMADD.D", OpFMSUBD: "FMSUB.D", OpFNMSUBD: "FNMSUB.D", OpFNMADDD: "FNMADD.D",
	OpFADDD: "FADD.D", OpFSUBD: "FSUB.D", OpFMULD: "FMUL.D", OpFDIVD: "FDIV.D", OpFSQRTD: "FSQRT.D",
	OpFSGNJD: "FSGNJ.D", OpFSGNJND: "FSGNJN.D", OpFSGNJXD: "FSGNJX.D",
	OpFMIND: "FMIN.D", OpFMAXD: "FMAX.D",
	OpFCVTSD: "FCVT.S.D", OpFCVTDS: "FCVT.D.S",
	OpFEQD: "FEQ.D", OpFLTD: "FLT.D", OpFLED: "FLE.D", OpFCLASSD: "FCLASS.D",
	OpFCVTWD: "FCVT.W.D", OpFCVTWUD: "FCVT.WU.D", OpFCVTDW: "FCVT.D.W", OpFCVTDWU: "FCVT.D.WU",
}

// String returns the assembler mnemonic of the operation.
func (op OpType) String() string {
	if op < NumOpTypes {
		return opNames[op]
	}
	return fmt.Sprintf("OP(%d)", uint8(op))
}

// IsControlFlow reports whether op ends a basic block.
func (op OpType) IsControlFlow() bool {
	switch op {
	case OpJAL, OpJALR, OpBEQ, OpBNE, OpBLT, OpBGE, OpBLTU, OpBGEU, OpECALL, OpEBREAK:
		return true
	}
	return false
}
