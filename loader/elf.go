package loader

import (
	"debug/elf"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/davecgh/go-spew/spew"

	"github.com/eth2030/rvsim/isa"
	"github.com/eth2030/rvsim/log"
)

// ErrBadELF is returned for files that are not 32-bit little-endian RISC-V
// executables.
var ErrBadELF = errors.New("loader: not a RV32 little-endian executable")

// LoadELF opens and parses the executable at path.
func LoadELF(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseELF(f)
}

// ParseELF reads the PT_LOAD segments of an ELF executable.
func ParseELF(r io.ReaderAt) (*Program, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadELF, err)
	}
	defer f.Close()

	switch {
	case f.Class != elf.ELFCLASS32:
		return nil, fmt.Errorf("%w: class %v", ErrBadELF, f.Class)
	case f.Data != elf.ELFDATA2LSB:
		return nil, fmt.Errorf("%w: data encoding %v", ErrBadELF, f.Data)
	case f.Type != elf.ET_EXEC:
		return nil, fmt.Errorf("%w: type %v", ErrBadELF, f.Type)
	case f.Machine != elf.EM_RISCV:
		return nil, fmt.Errorf("%w: machine %v", ErrBadELF, f.Machine)
	}

	logger := log.Default().Module("loader")
	prog := &Program{Entry: isa.Addr(f.Entry)}
	for i, p := range f.Progs {
		if p.Type != elf.PT_LOAD {
			continue
		}
		if logger.Enabled(slog.LevelDebug) {
			logger.Debug("segment", "index", i, "header", spew.Sdump(p.ProgHeader))
		}
		seg, err := readSegment(p)
		if err != nil {
			return nil, err
		}
		prog.Segments = append(prog.Segments, seg)
	}
	if len(prog.Segments) == 0 {
		return nil, fmt.Errorf("%w: no loadable segments", ErrBadELF)
	}
	logger.Info("Program loaded", "entry", fmt.Sprintf("0x%08x", prog.Entry), "segments", len(prog.Segments))
	return prog, nil
}

func readSegment(p *elf.Prog) (Segment, error) {
	if p.Vaddr%isa.XLENBytes != 0 {
		return Segment{}, fmt.Errorf("%w: segment at 0x%x is not word aligned", ErrBadELF, p.Vaddr)
	}
	if p.Filesz > p.Memsz {
		return Segment{}, fmt.Errorf("%w: segment at 0x%x has filesz 0x%x > memsz 0x%x",
			ErrBadELF, p.Vaddr, p.Filesz, p.Memsz)
	}
	data := make([]byte, p.Filesz)
	if _, err := p.ReadAt(data, 0); err != nil && !errors.Is(err, io.EOF) {
		return Segment{}, fmt.Errorf("loader: reading segment at 0x%x: %w", p.Vaddr, err)
	}
	return Segment{
		Addr:   isa.Addr(p.Vaddr),
		Words:  packWords(data),
		Filesz: uint32(p.Filesz),
		Memsz:  uint32(p.Memsz),
	}, nil
}

// packWords converts bytes to little-endian words, zero padding the tail.
func packWords(data []byte) []isa.Word {
	words := make([]isa.Word, (len(data)+isa.XLENBytes-1)/isa.XLENBytes)
	var buf [isa.XLENBytes]byte
	for i := range words {
		clear(buf[:])
		copy(buf[:], data[i*isa.XLENBytes:])
		words[i] = binary.LittleEndian.Uint32(buf[:])
	}
	return words
}
