package executor

import (
	"errors"
	"math"
	"testing"

	"github.com/eth2030/rvsim/isa"
)

func TestMulDiv(t *testing.T) {
	const minInt32 = 0x80000000
	tests := []struct {
		op   isa.OpType
		a, b isa.Word
		want isa.Word
	}{
		{isa.OpMUL, 6, 7, 42},
		{isa.OpMUL, 0xFFFFFFFF, 0xFFFFFFFF, 1},
		{isa.OpMUL, 0x10000, 0x10000, 0},

		{isa.OpMULH, 0xFFFFFFFF, 0xFFFFFFFF, 0},
		{isa.OpMULH, minInt32, minInt32, 0x40000000},
		{isa.OpMULH, minInt32, 1, 0xFFFFFFFF},
		{isa.OpMULH, 0x7FFFFFFF, 0x7FFFFFFF, 0x3FFFFFFF},

		{isa.OpMULHSU, 0xFFFFFFFF, 0xFFFFFFFF, 0xFFFFFFFF},
		{isa.OpMULHSU, 2, minInt32, 1},
		{isa.OpMULHSU, minInt32, 0xFFFFFFFF, 0x80000000},

		{isa.OpMULHU, 0xFFFFFFFF, 0xFFFFFFFF, 0xFFFFFFFE},
		{isa.OpMULHU, minInt32, 2, 1},

		{isa.OpDIV, 0xFFFFFFF9, 2, 0xFFFFFFFD}, // -7 / 2 = -3
		{isa.OpDIV, minInt32, 0xFFFFFFFF, minInt32},
		{isa.OpDIVU, 0xFFFFFFF9, 2, 0x7FFFFFFC},
		{isa.OpREM, 0xFFFFFFF9, 2, 0xFFFFFFFF}, // -7 % 2 = -1
		{isa.OpREM, minInt32, 0xFFFFFFFF, 0},
		{isa.OpREMU, 0xFFFFFFF9, 2, 1},
	}
	for _, tt := range tests {
		got, err := mulDiv(tt.op, tt.a, tt.b)
		if err != nil {
			t.Errorf("%v(0x%08x, 0x%08x): %v", tt.op, tt.a, tt.b, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%v(0x%08x, 0x%08x): got 0x%08x, want 0x%08x", tt.op, tt.a, tt.b, got, tt.want)
		}
	}
}

func TestMulHighMatchesInt64(t *testing.T) {
	vals := []isa.Word{0, 1, 2, 3, 0x7FFFFFFF, 0x80000000, 0x80000001, 0xFFFFFFFF, 0x12345678, 0xDEADBEEF}
	for _, a := range vals {
		for _, b := range vals {
			ss := isa.Word(uint64(int64(int32(a))*int64(int32(b))) >> 32)
			uu := isa.Word(uint64(a) * uint64(b) >> 32)
			if got := mulHigh(a, b, true, true); got != ss {
				t.Errorf("MULH(0x%08x, 0x%08x) = 0x%08x, want 0x%08x", a, b, got, ss)
			}
			if got := mulHigh(a, b, false, false); got != uu {
				t.Errorf("MULHU(0x%08x, 0x%08x) = 0x%08x, want 0x%08x", a, b, got, uu)
			}
			// int64 cannot overflow here: |a| <= 2^31, b < 2^32.
			su := isa.Word(uint64(int64(int32(a))*int64(b)) >> 32)
			if got := mulHigh(a, b, true, false); got != su {
				t.Errorf("MULHSU(0x%08x, 0x%08x) = 0x%08x, want 0x%08x", a, b, got, su)
			}
		}
	}
}

func TestDivisionByZero(t *testing.T) {
	for _, op := range []isa.OpType{isa.OpDIV, isa.OpDIVU, isa.OpREM, isa.OpREMU} {
		st := newState(t)
		st.Regs.Set(1, math.MaxUint32)
		err := Execute(isa.Instruction{Op: op, Rs1: 1, Rs2: 0, Rd: 2}, st)
		if !errors.Is(err, ErrDivisionByZero) {
			t.Errorf("%v by zero: got %v, want ErrDivisionByZero", op, err)
		}
		if st.Regs.Get(2) != 0 {
			t.Errorf("%v by zero wrote rd", op)
		}
	}
}
