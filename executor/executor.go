// Package executor applies decoded instructions to hart state.
//
// Execute performs the architectural effects of one instruction: register,
// CSR and memory writes. Control-flow handlers only stage State.NPC and
// State.BranchTaken; moving the program counter is left to the driver loop.
package executor

import (
	"errors"
	"fmt"

	"github.com/eth2030/rvsim/bits"
	"github.com/eth2030/rvsim/isa"
	"github.com/eth2030/rvsim/state"
)

// Execution errors. All of them are fatal to the simulation.
var (
	ErrDivisionByZero      = errors.New("executor: division by zero")
	ErrAddressUnderflow    = errors.New("executor: effective address underflow")
	ErrUnimplementedOpcode = errors.New("executor: unimplemented opcode")
	ErrUnknownInstruction  = errors.New("executor: unknown instruction")
)

// EffectiveAddress returns base+imm, rejecting results that are negative
// when read as a signed word.
func EffectiveAddress(base, imm isa.Word) (isa.Addr, error) {
	addr := base + imm
	if int32(addr) < 0 {
		return 0, fmt.Errorf("%w: 0x%08x + 0x%08x", ErrAddressUnderflow, base, imm)
	}
	return addr, nil
}

// Execute runs inst against st.
func Execute(inst isa.Instruction, st *state.State) error {
	rs1 := st.Regs.Get(inst.Rs1)
	rs2 := st.Regs.Get(inst.Rs2)

	switch inst.Op {
	// Upper immediates.
	case isa.OpLUI:
		st.SetReg(inst.Rd, inst.Imm<<12)
	case isa.OpAUIPC:
		st.SetReg(inst.Rd, st.PC+inst.Imm<<12)

	// Jumps and branches.
	case isa.OpJAL:
		target, err := EffectiveAddress(st.PC, inst.Imm)
		if err != nil {
			return err
		}
		st.SetReg(inst.Rd, st.PC+isa.XLENBytes)
		takeBranch(st, target)
	case isa.OpJALR:
		target, err := EffectiveAddress(rs1, inst.Imm)
		if err != nil {
			return err
		}
		st.SetReg(inst.Rd, st.PC+isa.XLENBytes)
		takeBranch(st, bits.SetBit(target, 0, false))
	case isa.OpBEQ:
		return branch(st, inst, rs1 == rs2)
	case isa.OpBNE:
		return branch(st, inst, rs1 != rs2)
	case isa.OpBLT:
		return branch(st, inst, int32(rs1) < int32(rs2))
	case isa.OpBGE:
		return branch(st, inst, int32(rs1) >= int32(rs2))
	case isa.OpBLTU:
		return branch(st, inst, rs1 < rs2)
	case isa.OpBGEU:
		return branch(st, inst, rs1 >= rs2)

	// Loads and stores.
	case isa.OpLB, isa.OpLH, isa.OpLW, isa.OpLBU, isa.OpLHU:
		return load(st, inst, rs1)
	case isa.OpSB, isa.OpSH, isa.OpSW:
		return store(st, inst, rs1, rs2)

	// Register-immediate ALU.
	case isa.OpADDI:
		st.SetReg(inst.Rd, rs1+inst.Imm)
	case isa.OpSLTI:
		st.SetReg(inst.Rd, boolWord(int32(rs1) < int32(inst.Imm)))
	case isa.OpSLTIU:
		st.SetReg(inst.Rd, boolWord(rs1 < inst.Imm))
	case isa.OpXORI:
		st.SetReg(inst.Rd, rs1^inst.Imm)
	case isa.OpORI:
		st.SetReg(inst.Rd, rs1|inst.Imm)
	case isa.OpANDI:
		st.SetReg(inst.Rd, rs1&inst.Imm)
	case isa.OpSLLI:
		st.SetReg(inst.Rd, rs1<<shiftAmount(inst.Imm))
	case isa.OpSRLI:
		st.SetReg(inst.Rd, rs1>>shiftAmount(inst.Imm))
	case isa.OpSRAI:
		st.SetReg(inst.Rd, isa.Word(int32(rs1)>>shiftAmount(inst.Imm)))

	// Register-register ALU.
	case isa.OpADD:
		st.SetReg(inst.Rd, rs1+rs2)
	case isa.OpSUB:
		st.SetReg(inst.Rd, rs1-rs2)
	case isa.OpSLL:
		st.SetReg(inst.Rd, rs1<<shiftAmount(rs2))
	case isa.OpSLT:
		st.SetReg(inst.Rd, boolWord(int32(rs1) < int32(rs2)))
	case isa.OpSLTU:
		st.SetReg(inst.Rd, boolWord(rs1 < rs2))
	case isa.OpXOR:
		st.SetReg(inst.Rd, rs1^rs2)
	case isa.OpSRL:
		st.SetReg(inst.Rd, rs1>>shiftAmount(rs2))
	case isa.OpSRA:
		st.SetReg(inst.Rd, isa.Word(int32(rs1)>>shiftAmount(rs2)))
	case isa.OpOR:
		st.SetReg(inst.Rd, rs1|rs2)
	case isa.OpAND:
		st.SetReg(inst.Rd, rs1&rs2)

	// Single hart, in-order memory: nothing to order.
	case isa.OpFENCE:

	case isa.OpECALL:
		st.Complete = true

	// Zicsr.
	case isa.OpCSRRW, isa.OpCSRRS, isa.OpCSRRC:
		csrOp(st, inst, rs1)
	case isa.OpCSRRWI, isa.OpCSRRSI, isa.OpCSRRCI:
		csrOp(st, inst, bits.GetBits(isa.Word(inst.Rs1), 4, 0))

	// M extension.
	case isa.OpMUL, isa.OpMULH, isa.OpMULHSU, isa.OpMULHU,
		isa.OpDIV, isa.OpDIVU, isa.OpREM, isa.OpREMU:
		v, err := mulDiv(inst.Op, rs1, rs2)
		if err != nil {
			return err
		}
		st.SetReg(inst.Rd, v)

	case isa.OpEBREAK,
		// A extension.
		isa.OpLRW, isa.OpSCW, isa.OpAMOSWAPW, isa.OpAMOADDW, isa.OpAMOXORW,
		isa.OpAMOANDW, isa.OpAMOORW, isa.OpAMOMINW, isa.OpAMOMAXW,
		isa.OpAMOMINUW, isa.OpAMOMAXUW,
		// F extension.
		isa.OpFLW, isa.OpFSW, isa.OpFMADDS, isa.OpFMSUBS, isa.OpFNMSUBS,
		isa.OpFNMADDS, isa.OpFADDS, isa.OpFSUBS, isa.OpFMULS, isa.OpFDIVS,
		isa.OpFSQRTS, isa.OpFSGNJS, isa.OpFSGNJNS, isa.OpFSGNJXS, isa.OpFMINS,
		isa.OpFMAXS, isa.OpFCVTWS, isa.OpFCVTWUS, isa.OpFMVXW, isa.OpFEQS,
		isa.OpFLTS, isa.OpFLES, isa.OpFCLASSS, isa.OpFCVTSW, isa.OpFCVTSWU,
		isa.OpFMVWX,
		// D extension.
		isa.OpFLD, isa.OpFSD, isa.OpFMADDD, isa.OpFMSUBD, isa.OpFNMSUBD,
		isa.OpFNMADDD, isa.OpFADDD, isa.OpFSUBD, isa.OpFMULD, isa.OpFDIVD,
		isa.OpFSQRTD, isa.OpFSGNJD, isa.OpFSGNJND, isa.OpFSGNJXD, isa.OpFMIND,
		isa.OpFMAXD, isa.OpFCVTSD, isa.OpFCVTDS, isa.OpFEQD, isa.OpFLTD,
		isa.OpFLED, isa.OpFCLASSD, isa.OpFCVTWD, isa.OpFCVTWUD, isa.OpFCVTDW,
		isa.OpFCVTDWU:
		return fmt.Errorf("%w: %v", ErrUnimplementedOpcode, inst.Op)

	case isa.OpUnknown:
		return ErrUnknownInstruction

	default:
		return fmt.Errorf("%w: %v", ErrUnknownInstruction, inst.Op)
	}
	return nil
}

func takeBranch(st *state.State, target isa.Addr) {
	st.NPC = target
	st.BranchTaken = true
}

func branch(st *state.State, inst isa.Instruction, taken bool) error {
	if !taken {
		return nil
	}
	target, err := EffectiveAddress(st.PC, inst.Imm)
	if err != nil {
		return err
	}
	takeBranch(st, target)
	return nil
}

func load(st *state.State, inst isa.Instruction, base isa.Word) error {
	addr, err := EffectiveAddress(base, inst.Imm)
	if err != nil {
		return err
	}
	var v isa.Word
	switch inst.Op {
	case isa.OpLB, isa.OpLBU:
		b, err := st.Mem.LoadByte(addr)
		if err != nil {
			return err
		}
		v = isa.Word(b)
		if inst.Op == isa.OpLB {
			v = bits.SignExtend(v, 8)
		}
	case isa.OpLH, isa.OpLHU:
		h, err := st.Mem.LoadHalf(addr)
		if err != nil {
			return err
		}
		v = isa.Word(h)
		if inst.Op == isa.OpLH {
			v = bits.SignExtend(v, 16)
		}
	default:
		if v, err = st.Mem.LoadWord(addr); err != nil {
			return err
		}
	}
	st.SetReg(inst.Rd, v)
	return nil
}

func store(st *state.State, inst isa.Instruction, base, v isa.Word) error {
	addr, err := EffectiveAddress(base, inst.Imm)
	if err != nil {
		return err
	}
	switch inst.Op {
	case isa.OpSB:
		return st.StoreByte(addr, v)
	case isa.OpSH:
		return st.StoreHalf(addr, v)
	default:
		return st.StoreWord(addr, v)
	}
}

// csrOp reads the CSR into rd, then swaps, sets or clears bits with src.
func csrOp(st *state.State, inst isa.Instruction, src isa.Word) {
	old := st.CSRs.Get(inst.CSR)
	switch inst.Op {
	case isa.OpCSRRW, isa.OpCSRRWI:
		st.CSRs.Set(inst.CSR, src)
	case isa.OpCSRRS, isa.OpCSRRSI:
		st.CSRs.Set(inst.CSR, old|src)
	case isa.OpCSRRC, isa.OpCSRRCI:
		st.CSRs.Set(inst.CSR, old&^src)
	}
	st.SetReg(inst.Rd, old)
}

func shiftAmount(v isa.Word) isa.Word {
	return bits.GetBits(v, 4, 0)
}

func boolWord(b bool) isa.Word {
	if b {
		return 1
	}
	return 0
}
