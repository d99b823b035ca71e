package executor

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/eth2030/rvsim/isa"
)

// mulDiv evaluates the M extension. Signed overflow (MinInt32 / -1) wraps
// the way Go integer division does; a zero divisor is fatal.
func mulDiv(op isa.OpType, a, b isa.Word) (isa.Word, error) {
	switch op {
	case isa.OpMUL:
		return a * b, nil
	case isa.OpMULH:
		return mulHigh(a, b, true, true), nil
	case isa.OpMULHSU:
		return mulHigh(a, b, true, false), nil
	case isa.OpMULHU:
		return mulHigh(a, b, false, false), nil
	}

	if b == 0 {
		return 0, fmt.Errorf("%w: %v 0x%08x, 0", ErrDivisionByZero, op, a)
	}
	switch op {
	case isa.OpDIV:
		return isa.Word(int32(a) / int32(b)), nil
	case isa.OpDIVU:
		return a / b, nil
	case isa.OpREM:
		return isa.Word(int32(a) % int32(b)), nil
	case isa.OpREMU:
		return a % b, nil
	}
	return 0, fmt.Errorf("%w: %v", ErrUnknownInstruction, op)
}

// widen lifts a register value into 256-bit two's complement.
func widen(v isa.Word, signed bool) *uint256.Int {
	if signed && int32(v) < 0 {
		return new(uint256.Int).Neg(uint256.NewInt(uint64(-int64(int32(v)))))
	}
	return uint256.NewInt(uint64(v))
}

// mulHigh returns bits [63:32] of the exact product of a and b.
func mulHigh(a, b isa.Word, aSigned, bSigned bool) isa.Word {
	p := new(uint256.Int).Mul(widen(a, aSigned), widen(b, bSigned))
	return isa.Word(p.Rsh(p, 32).Uint64())
}
