// Package cosim compares two cosimulation traces in lock step and reports
// the first instruction at which they diverge.
package cosim

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
)

// ErrInvalidFormat is returned for lines that are not part of the trace
// grammar.
var ErrInvalidFormat = errors.New("cosim: invalid trace format")

var (
	separatorRe = regexp.MustCompile(`^-+`)
	numRe       = regexp.MustCompile(`^NUM=([0-9A-Fa-f]+)`)
	pcRe        = regexp.MustCompile(`^PC=0x([0-9A-Fa-f]+)`)
	regRe       = regexp.MustCompile(`^x([0-9A-Fa-f]+)=0x([0-9A-Fa-f]+)`)
	memRe       = regexp.MustCompile(`^M\[0x([0-9A-Fa-f]+)\]=0x([0-9A-Fa-f]+)`)
)

// RegWrite is the most recent register write seen in a trace.
type RegWrite struct {
	Valid bool
	Reg   uint64
	Value uint64
}

// MemWrite is the most recent memory write seen in a trace.
type MemWrite struct {
	Valid bool
	Addr  uint64
	Value uint64
}

// State is what a trace has reported so far. Two traces agree while their
// states are equal.
type State struct {
	Num     uint64
	PC      uint64
	LastReg RegWrite
	LastMem MemWrite
}

// Reader consumes a trace one event at a time.
type Reader struct {
	name  string
	sc    *bufio.Scanner
	line  int
	state State
	eof   bool
}

// NewReader wraps r. The first line must be a record separator.
func NewReader(name string, r io.Reader) (*Reader, error) {
	tr := &Reader{name: name, sc: bufio.NewScanner(r)}
	if !tr.sc.Scan() {
		if err := tr.sc.Err(); err != nil {
			return nil, fmt.Errorf("cosim: reading %s: %w", name, err)
		}
		return nil, fmt.Errorf("%w: %s: empty trace", ErrInvalidFormat, name)
	}
	tr.line = 1
	if !separatorRe.MatchString(tr.sc.Text()) {
		return nil, fmt.Errorf("%w: %s:1: trace must start with a separator", ErrInvalidFormat, name)
	}
	return tr, nil
}

// State returns the current trace state.
func (tr *Reader) State() State { return tr.state }

// EOF reports whether the whole trace has been consumed.
func (tr *Reader) EOF() bool { return tr.eof }

// Update consumes lines up to and including the next event: a separator,
// an instruction number, a PC, or a register or memory write. At the end of
// the trace it sets EOF and returns nil.
func (tr *Reader) Update() error {
	if tr.eof {
		return nil
	}
	if !tr.sc.Scan() {
		if err := tr.sc.Err(); err != nil {
			return fmt.Errorf("cosim: reading %s: %w", tr.name, err)
		}
		tr.eof = true
		return nil
	}
	tr.line++
	text := tr.sc.Text()
	if separatorRe.MatchString(text) {
		return nil
	}
	if m := numRe.FindStringSubmatch(text); m != nil {
		n, err := tr.decimal(m[1])
		tr.state.Num = n
		return err
	}
	if m := pcRe.FindStringSubmatch(text); m != nil {
		pc, err := tr.hex(m[1])
		tr.state.PC = pc
		return err
	}
	if m := regRe.FindStringSubmatch(text); m != nil {
		r, err := tr.decimal(m[1])
		if err != nil {
			return err
		}
		v, err := tr.hex(m[2])
		if err != nil {
			return err
		}
		tr.state.LastReg = RegWrite{Valid: true, Reg: r, Value: v}
		return nil
	}
	if m := memRe.FindStringSubmatch(text); m != nil {
		a, err := tr.hex(m[1])
		if err != nil {
			return err
		}
		v, err := tr.hex(m[2])
		if err != nil {
			return err
		}
		tr.state.LastMem = MemWrite{Valid: true, Addr: a, Value: v}
		return nil
	}
	return tr.invalid(text)
}

func (tr *Reader) decimal(s string) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, tr.invalid(s)
	}
	return n, nil
}

func (tr *Reader) hex(s string) (uint64, error) {
	n, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, tr.invalid(s)
	}
	return n, nil
}

func (tr *Reader) invalid(text string) error {
	return fmt.Errorf("%w: %s:%d: %q", ErrInvalidFormat, tr.name, tr.line, text)
}

// Result is the outcome of a comparison.
type Result struct {
	Equal bool
	// Num is the instruction number at which the traces diverged.
	Num     uint64
	Message string
}

func (r Result) String() string {
	if r.Equal {
		return "Successfully compared!"
	}
	return "Comparison failed:\n" + r.Message
}

// Compare advances master and slave one event at a time until both end or
// their states differ. A missing instruction on one side is reported as
// that trace finishing early.
func Compare(master, slave io.Reader) (Result, error) {
	m, err := NewReader("master", master)
	if err != nil {
		return Result{}, err
	}
	s, err := NewReader("slave", slave)
	if err != nil {
		return Result{}, err
	}
	return CompareReaders(m, s)
}

// CompareReaders is Compare on already opened readers.
func CompareReaders(m, s *Reader) (Result, error) {
	for !(m.EOF() && s.EOF()) {
		if err := m.Update(); err != nil {
			return Result{}, err
		}
		if err := s.Update(); err != nil {
			return Result{}, err
		}
		ms, ss := m.State(), s.State()
		if ms.Num != ss.Num {
			who := "slave"
			if m.EOF() {
				who = "master"
			}
			return Result{Num: ms.Num, Message: who + " trace unexpectedly finished"}, nil
		}
		if ms != ss {
			return Result{Num: ms.Num, Message: fmt.Sprintf("Mismatch at NUM = %d", ms.Num)}, nil
		}
	}
	return Result{Equal: true, Num: m.State().Num}, nil
}
