package cosim

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/eth2030/rvsim/hart"
	"github.com/eth2030/rvsim/isa"
	"github.com/eth2030/rvsim/loader"
	"github.com/eth2030/rvsim/log"
)

const baseTrace = `-----------------------
NUM=1
x5=0x12345000
PC=0x00000004
-----------------------
NUM=2
M[0x00000100]=0x00005678
PC=0x00000008
-----------------------
NUM=3
PC=0x00000008
`

func compareStrings(t *testing.T, master, slave string) Result {
	t.Helper()
	res, err := Compare(strings.NewReader(master), strings.NewReader(slave))
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	return res
}

func TestCompare_Identical(t *testing.T) {
	res := compareStrings(t, baseTrace, baseTrace)
	if !res.Equal {
		t.Fatalf("got %q, want equal", res.Message)
	}
	if res.Num != 3 {
		t.Errorf("Num: got %d, want 3", res.Num)
	}
	if res.String() != "Successfully compared!" {
		t.Errorf("String: %q", res.String())
	}
}

func TestCompare_Mismatch(t *testing.T) {
	tests := []struct {
		name  string
		slave string
		num   uint64
	}{
		{"register value", strings.Replace(baseTrace, "x5=0x12345000", "x5=0x12345001", 1), 1},
		{"register number", strings.Replace(baseTrace, "x5=", "x6=", 1), 1},
		{"memory address", strings.Replace(baseTrace, "M[0x00000100]", "M[0x00000104]", 1), 2},
		{"memory value", strings.Replace(baseTrace, "=0x00005678", "=0x00000078", 1), 2},
		{"pc", strings.Replace(baseTrace, "PC=0x00000008\n---", "PC=0x0000000c\n---", 1), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := compareStrings(t, baseTrace, tt.slave)
			if res.Equal {
				t.Fatal("traces compared equal")
			}
			if res.Num != tt.num {
				t.Errorf("Num: got %d, want %d", res.Num, tt.num)
			}
			if want := fmt.Sprintf("Mismatch at NUM = %d", tt.num); res.Message != want {
				t.Errorf("Message: got %q, want %q", res.Message, want)
			}
		})
	}
}

func TestCompare_Truncated(t *testing.T) {
	short := baseTrace[:strings.Index(baseTrace, "-----------------------\nNUM=3")]
	res := compareStrings(t, baseTrace, short)
	if res.Equal || res.Message != "slave trace unexpectedly finished" {
		t.Errorf("slave truncated: got %+v", res)
	}
	res = compareStrings(t, short, baseTrace)
	if res.Equal || res.Message != "master trace unexpectedly finished" {
		t.Errorf("master truncated: got %+v", res)
	}
	if !strings.HasPrefix(res.String(), "Comparison failed:\n") {
		t.Errorf("String: %q", res.String())
	}
}

func TestCompare_InvalidFormat(t *testing.T) {
	tests := []struct {
		name          string
		master, slave string
	}{
		{"empty", "", baseTrace},
		{"no leading separator", "NUM=1\n", baseTrace},
		{"unknown line", baseTrace, baseTrace + "garbage\n"},
		{"hex instruction number", "---\nNUM=1f\n", baseTrace},
		{"blank line", baseTrace, strings.Replace(baseTrace, "NUM=2\n", "\nNUM=2\n", 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compare(strings.NewReader(tt.master), strings.NewReader(tt.slave))
			if !errors.Is(err, ErrInvalidFormat) {
				t.Fatalf("got %v, want ErrInvalidFormat", err)
			}
		})
	}
}

func TestReader_Update(t *testing.T) {
	r, err := NewReader("t", strings.NewReader(baseTrace))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := r.Update(); err != nil {
			t.Fatal(err)
		}
	}
	want := State{Num: 1, PC: 4, LastReg: RegWrite{Valid: true, Reg: 5, Value: 0x12345000}}
	if r.State() != want {
		t.Errorf("State: got %+v, want %+v", r.State(), want)
	}
	for !r.EOF() {
		if err := r.Update(); err != nil {
			t.Fatal(err)
		}
	}
	if got := r.State().LastMem; got != (MemWrite{Valid: true, Addr: 0x100, Value: 0x5678}) {
		t.Errorf("LastMem: %+v", got)
	}
}

func runTrace(t *testing.T, capacity int, prog []isa.Word) string {
	t.Helper()
	var buf bytes.Buffer
	h, err := hart.New(loader.FromWords(0, 0, prog), capacity,
		hart.WithLogger(log.Discard()), hart.WithTrace(&buf))
	if err != nil {
		t.Fatal(err)
	}
	if err := h.Run(); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func TestCompare_HartTraces(t *testing.T) {
	prog := []isa.Word{
		isa.EncodeI(isa.OpcodeOpImm, 1, 0, 0, 3),   // addi x1, x0, 3
		isa.EncodeS(isa.OpcodeStore, 2, 0, 1, 64),  // sw x1, 64(x0)
		isa.EncodeI(isa.OpcodeOpImm, 1, 0, 1, -1),  // addi x1, x1, -1
		isa.EncodeB(isa.OpcodeBranch, 1, 1, 0, -8), // bne x1, x0, -8
		isa.Ecall,
	}
	unbounded := runTrace(t, -1, prog)
	uncached := runTrace(t, 0, prog)
	if res := compareStrings(t, unbounded, uncached); !res.Equal {
		t.Fatalf("cache policies disagree: %s", res.Message)
	}
}
