// Package hart drives a single RISC-V hardware thread: it loads a program
// image, then repeatedly fetches the basic block at the program counter
// through the block cache and executes it until the program issues ECALL.
package hart

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/crypto/sha3"

	"github.com/eth2030/rvsim/bbcache"
	"github.com/eth2030/rvsim/executor"
	"github.com/eth2030/rvsim/isa"
	"github.com/eth2030/rvsim/loader"
	"github.com/eth2030/rvsim/log"
	"github.com/eth2030/rvsim/memory"
	"github.com/eth2030/rvsim/metrics"
	"github.com/eth2030/rvsim/state"
)

// Hart errors.
var (
	ErrInstructionLimit = errors.New("hart: instruction limit reached")
	ErrCompleted        = errors.New("hart: program already completed")
)

// ExecError reports a fatal error raised while retiring instruction Num.
// Inst is the zero value when the block containing the instruction could
// not be built.
type ExecError struct {
	Num  uint64
	PC   isa.Addr
	Inst isa.Instruction
	Err  error
}

func (e *ExecError) Error() string {
	if e.Inst.Op == isa.OpUnknown {
		return fmt.Sprintf("hart: instruction %d at 0x%08x: %v", e.Num, e.PC, e.Err)
	}
	return fmt.Sprintf("hart: instruction %d at 0x%08x (%s): %v", e.Num, e.PC, e.Inst.Op, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// ProgramImage is the loader's view of an executable.
type ProgramImage interface {
	EntryPoint() isa.Addr
	LoadableSegments() []loader.Segment
}

// Option configures a Hart.
type Option func(*Hart)

// WithLogger sets the logger; the hart logs under the "hart" module.
func WithLogger(l *log.Logger) Option {
	return func(h *Hart) {
		h.logger = l
	}
}

// WithTrace enables the cosim trace on w.
func WithTrace(w io.Writer) Option {
	return func(h *Hart) {
		h.trace = NewTraceWriter(w)
	}
}

// WithRegistry registers the memory, cache and hart metrics in reg.
func WithRegistry(reg *metrics.Registry) Option {
	return func(h *Hart) {
		h.registry = reg
	}
}

// WithInstructionLimit stops execution with ErrInstructionLimit once n
// instructions have retired. Zero means no limit.
func WithInstructionLimit(n uint64) Option {
	return func(h *Hart) {
		h.limit = n
	}
}

// WithStackPointer sets the initial value of sp.
func WithStackPointer(addr isa.Addr) Option {
	return func(h *Hart) {
		h.sp = &addr
	}
}

// Hart owns the architectural state and the block cache of one hardware
// thread. It is not safe for concurrent use.
type Hart struct {
	st    *state.State
	mem   *memory.Memory
	cache bbcache.Cache

	logger   *log.Logger
	trace    *TraceWriter
	registry *metrics.Registry
	limit    uint64
	sp       *isa.Addr

	retired   uint64
	instCount *metrics.Counter
	blockRuns *metrics.Counter
	runTime   *metrics.Histogram
}

// New loads image into a fresh address space and returns a hart positioned
// at its entry point. cacheCapacity selects the block cache policy: negative
// is unbounded, zero disables caching, positive is an LRU of that size.
func New(image ProgramImage, cacheCapacity int, opts ...Option) (*Hart, error) {
	h := &Hart{}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = log.Default()
	}
	h.logger = h.logger.Module("hart")
	if h.registry == nil {
		h.registry = metrics.NewRegistry()
	}

	h.mem = memory.NewWithRegistry(h.registry)
	h.cache = bbcache.NewWithRegistry(cacheCapacity, h.registry)
	h.instCount = h.registry.Counter("hart/instructions")
	h.blockRuns = h.registry.Counter("hart/blocks")
	h.runTime = h.registry.Histogram("hart/run_us")

	for _, seg := range image.LoadableSegments() {
		if err := h.load(seg); err != nil {
			return nil, err
		}
	}

	h.st = state.New(h.mem)
	h.st.PC = image.EntryPoint()
	if h.sp != nil {
		h.st.Regs.Set(isa.RegSP, *h.sp)
	}
	if h.trace != nil {
		h.st.Tracer = h.trace
	}
	h.logger.Info("Hart initialised",
		"entry", fmt.Sprintf("0x%08x", h.st.PC),
		"pages", h.mem.PageCount(),
		"bbcache", cacheCapacity,
	)
	return h, nil
}

// load stores the file-backed words of seg and zero-fills the rest of its
// memory size a word at a time.
func (h *Hart) load(seg loader.Segment) error {
	base := seg.VirtualAddress()
	words := seg.FileBackedWords()
	if err := h.mem.StoreRange(base, words); err != nil {
		return fmt.Errorf("hart: loading segment at 0x%08x: %w", base, err)
	}
	total := (seg.MemorySize() + isa.XLENBytes - 1) / isa.XLENBytes
	for i := uint32(len(words)); i < total; i++ {
		addr := base + i*isa.XLENBytes
		if err := h.mem.StoreWord(addr, 0); err != nil {
			return fmt.Errorf("hart: zero-filling 0x%08x: %w", addr, err)
		}
	}
	return nil
}

// Run steps until the program completes or an error occurs. The trace is
// flushed before Run returns.
func (h *Hart) Run() (err error) {
	start := time.Now()
	defer func() {
		elapsed := h.runTime.Since(start)
		if ferr := h.Flush(); err == nil {
			err = ferr
		}
		h.logger.Info("Run finished",
			"instructions", h.retired,
			"completed", h.st.Complete,
			"elapsed", elapsed,
		)
	}()
	for !h.st.Complete {
		if err := h.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step executes the basic block at the current program counter. It stops
// early when the instruction limit is reached.
func (h *Hart) Step() error {
	if h.st.Complete {
		return ErrCompleted
	}
	pc := h.st.PC
	bb, err := h.cache.LookupOrBuild(pc, h.buildBlock)
	if err != nil {
		return &ExecError{Num: h.retired + 1, PC: pc, Err: err}
	}
	h.blockRuns.Inc()
	for _, inst := range bb.Insts {
		if err := h.retire(inst); err != nil {
			return err
		}
		if h.st.Complete {
			break
		}
	}
	return nil
}

func (h *Hart) buildBlock(addr isa.Addr) (*bbcache.BasicBlock, error) {
	return bbcache.Build(addr, h.mem.LoadWord)
}

// retire executes one instruction and resolves the program counter.
func (h *Hart) retire(inst isa.Instruction) error {
	if h.limit > 0 && h.retired >= h.limit {
		return fmt.Errorf("%w: %d", ErrInstructionLimit, h.limit)
	}
	num := h.retired + 1
	pc := h.st.PC
	// Begin precedes Execute so register and memory writes land inside the
	// record. A failing instruction leaves the record without a PC line.
	if h.trace != nil {
		h.trace.Begin(num)
	}
	if err := executor.Execute(inst, h.st); err != nil {
		return &ExecError{Num: num, PC: pc, Inst: inst, Err: err}
	}
	if !h.st.Complete {
		if h.st.BranchTaken {
			h.st.PC = h.st.NPC
			h.st.BranchTaken = false
		} else {
			h.st.PC += isa.XLENBytes
		}
	}
	h.st.CSRs.UpdateTimers(inst.Op)
	if h.trace != nil {
		h.trace.End(h.st.PC)
	}
	if h.logger.Enabled(slog.LevelDebug) {
		h.logDebug(num, pc, inst)
	}
	h.retired++
	h.instCount.Inc()
	return nil
}

func (h *Hart) logDebug(num uint64, pc isa.Addr, inst isa.Instruction) {
	h.logger.Debug("Instruction",
		"num", num,
		"pc", fmt.Sprintf("0x%08x", pc),
		"inst", inst.String(),
	)
	switch inst.Op {
	case isa.OpCSRRW, isa.OpCSRRS, isa.OpCSRRC, isa.OpCSRRWI, isa.OpCSRRSI, isa.OpCSRRCI:
		h.logger.Debug("CSR write",
			"csr", fmt.Sprintf("0x%03x", inst.CSR),
			"value", fmt.Sprintf("0x%08x", h.st.CSRs.Get(inst.CSR)),
		)
	}
}

// Flush writes any buffered trace output.
func (h *Hart) Flush() error {
	if h.trace == nil {
		return nil
	}
	return h.trace.Flush()
}

// InstructionCount returns the number of retired instructions.
func (h *Hart) InstructionCount() uint64 { return h.retired }

// Completed reports whether the program has issued ECALL.
func (h *Hart) Completed() bool { return h.st.Complete }

// State exposes the architectural state.
func (h *Hart) State() *state.State { return h.st }

// CacheStats returns the block cache counters.
func (h *Hart) CacheStats() bbcache.Stats { return h.cache.Stats() }

// MemoryStats returns the memory and TLB counters.
func (h *Hart) MemoryStats() memory.Stats { return h.mem.Stats() }

// Registry returns the registry holding the hart's metrics.
func (h *Hart) Registry() *metrics.Registry { return h.registry }

// StateRoot commits to the architectural state: Keccak-256 over the
// big-endian PC, the 32 registers in order, and the memory digest.
func (h *Hart) StateRoot() [32]byte {
	hasher := sha3.NewLegacyKeccak256()
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], h.st.PC)
	hasher.Write(buf[:])
	for r := 0; r < isa.RegCount; r++ {
		binary.BigEndian.PutUint32(buf[:], h.st.Regs.Get(isa.RegID(r)))
		hasher.Write(buf[:])
	}
	digest := h.mem.Digest()
	hasher.Write(digest[:])
	var out [32]byte
	hasher.Sum(out[:0])
	return out
}

// TraceDigest returns the Keccak-256 hash of the trace written so far, or
// of the empty string when tracing is disabled.
func (h *Hart) TraceDigest() [32]byte {
	if h.trace == nil {
		return NewTraceWriter(nil).Digest()
	}
	return h.trace.Digest()
}
