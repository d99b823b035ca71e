package hart

import (
	"bufio"
	"fmt"
	"hash"
	"io"

	"golang.org/x/crypto/sha3"

	"github.com/eth2030/rvsim/isa"
)

// TraceSeparator opens every instruction record in a cosim trace.
const TraceSeparator = "-----------------------"

// TraceWriter writes the cosim trace: a separator and NUM line before each
// instruction, one line per architectural write, and the resolved PC after
// it. Every byte written is also hashed. The first write error is sticky.
//
// An instruction that fails to execute leaves a record with only the
// separator and NUM line; the trace ends there.
type TraceWriter struct {
	buf  *bufio.Writer
	hash hash.Hash
	out  io.Writer
	err  error
}

// NewTraceWriter creates a trace writer on w. A nil w only hashes.
func NewTraceWriter(w io.Writer) *TraceWriter {
	if w == nil {
		w = io.Discard
	}
	t := &TraceWriter{
		buf:  bufio.NewWriter(w),
		hash: sha3.NewLegacyKeccak256(),
	}
	t.out = io.MultiWriter(t.buf, t.hash)
	return t
}

func (t *TraceWriter) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.out, format, args...)
}

// Begin writes the record header for instruction number num.
func (t *TraceWriter) Begin(num uint64) {
	t.printf("%s\nNUM=%d\n", TraceSeparator, num)
}

// RegWrite implements state.Tracer.
func (t *TraceWriter) RegWrite(r isa.RegID, v isa.Word) {
	t.printf("x%d=0x%08x\n", r, v)
}

// MemWrite implements state.Tracer.
func (t *TraceWriter) MemWrite(addr isa.Addr, v isa.Word) {
	t.printf("M[0x%08x]=0x%08x\n", addr, v)
}

// End writes the program counter after the instruction retired.
func (t *TraceWriter) End(pc isa.Addr) {
	t.printf("PC=0x%08x\n", pc)
}

// Flush writes buffered lines to the underlying writer.
func (t *TraceWriter) Flush() error {
	if t.err != nil {
		return t.err
	}
	t.err = t.buf.Flush()
	return t.err
}

// Err returns the first write error.
func (t *TraceWriter) Err() error { return t.err }

// Digest returns the Keccak-256 hash of everything written so far.
func (t *TraceWriter) Digest() [32]byte {
	var out [32]byte
	t.hash.Sum(out[:0])
	return out
}
