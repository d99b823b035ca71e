package state

import "github.com/eth2030/rvsim/isa"

// Reciprocal throughput in core cycles per instruction, after Agner Fog's
// instruction tables. Operations without an entry cost one cycle.
var throughput = map[isa.OpType]uint16{
	isa.OpUnknown: 0,

	isa.OpADD: 1, isa.OpSUB: 1, isa.OpXOR: 1,
	isa.OpMUL: 3, isa.OpDIV: 36,
	isa.OpLW: 6, isa.OpSW: 6,

	isa.OpJAL: 36, isa.OpJALR: 36, isa.OpECALL: 36,
	isa.OpBEQ: 36, isa.OpBNE: 36, isa.OpBLT: 36,
	isa.OpBLTU: 36, isa.OpBGE: 36, isa.OpBGEU: 36,

	isa.OpADDI: 1, isa.OpANDI: 1, isa.OpXORI: 1, isa.OpORI: 1,
	isa.OpSLTI: 2, isa.OpSLTIU: 1,
	isa.OpLUI: 2, isa.OpAUIPC: 3,
	isa.OpSLLI: 2, isa.OpSRLI: 2, isa.OpSRAI: 2,
	isa.OpSLL: 2, isa.OpSRL: 2, isa.OpSRA: 2,

	isa.OpCSRRW: 1, isa.OpCSRRS: 1, isa.OpCSRRC: 1,
	isa.OpCSRRWI: 1, isa.OpCSRRSI: 1, isa.OpCSRRCI: 1,
}

// Throughput returns the cycle cost charged for op.
func Throughput(op isa.OpType) uint16 {
	if c, ok := throughput[op]; ok {
		return c
	}
	return 1
}
