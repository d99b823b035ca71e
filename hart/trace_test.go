package hart

import (
	"bytes"
	"errors"
	"testing"
)

type failingWriter struct{ n int }

var errDiskFull = errors.New("disk full")

func (w *failingWriter) Write(p []byte) (int, error) {
	w.n++
	return 0, errDiskFull
}

func TestTraceWriter_Lines(t *testing.T) {
	var buf bytes.Buffer
	tw := NewTraceWriter(&buf)
	tw.Begin(12)
	tw.RegWrite(31, 0xFFFFFFFF)
	tw.MemWrite(0x80000000, 0x7F)
	tw.End(0x1000)
	if err := tw.Flush(); err != nil {
		t.Fatal(err)
	}
	want := "-----------------------\nNUM=12\nx31=0xffffffff\nM[0x80000000]=0x0000007f\nPC=0x00001000\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestTraceWriter_StickyError(t *testing.T) {
	w := &failingWriter{}
	tw := NewTraceWriter(w)
	tw.Begin(1)
	if err := tw.Flush(); !errors.Is(err, errDiskFull) {
		t.Fatalf("Flush: got %v, want errDiskFull", err)
	}
	tw.End(4)
	if err := tw.Flush(); !errors.Is(err, errDiskFull) {
		t.Fatalf("second Flush: got %v", err)
	}
	if w.n != 1 {
		t.Errorf("writer called %d times after failure, want 1", w.n)
	}
}

func TestTraceWriter_DigestTracksOutput(t *testing.T) {
	a, b := NewTraceWriter(nil), NewTraceWriter(nil)
	if a.Digest() != b.Digest() {
		t.Fatal("empty digests differ")
	}
	a.Begin(1)
	if a.Digest() == b.Digest() {
		t.Fatal("digest unchanged after write")
	}
	b.Begin(1)
	if a.Digest() != b.Digest() {
		t.Error("same output, different digests")
	}
}
