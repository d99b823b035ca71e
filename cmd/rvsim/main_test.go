package main

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eth2030/rvsim/isa"
)

// writeProgram writes words as a single-segment RV32 executable at 0x10000.
func writeProgram(t *testing.T, words ...isa.Word) string {
	t.Helper()
	const base = 0x10000
	hdr := elf.Header32{
		Type:      uint16(elf.ET_EXEC),
		Machine:   uint16(elf.EM_RISCV),
		Version:   uint32(elf.EV_CURRENT),
		Entry:     base,
		Phoff:     52,
		Ehsize:    52,
		Phentsize: 32,
		Phnum:     1,
		Shentsize: 40,
	}
	copy(hdr.Ident[:], elf.ELFMAG)
	hdr.Ident[elf.EI_CLASS] = byte(elf.ELFCLASS32)
	hdr.Ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	hdr.Ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)
	size := uint32(4 * len(words))
	ph := elf.Prog32{
		Type:   uint32(elf.PT_LOAD),
		Off:    52 + 32,
		Vaddr:  base,
		Paddr:  base,
		Filesz: size,
		Memsz:  size,
		Flags:  uint32(elf.PF_R | elf.PF_X),
		Align:  4,
	}
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, hdr)
	binary.Write(&buf, binary.LittleEndian, ph)
	binary.Write(&buf, binary.LittleEndian, words)

	path := filepath.Join(t.TempDir(), "prog.elf")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// countdown stores 3, 2, 1 to 0x10100 and returns.
var countdown = []isa.Word{
	isa.EncodeU(isa.OpcodeLUI, 5, 0x10),          // lui x5, 0x10
	isa.EncodeI(isa.OpcodeOpImm, 1, 0, 0, 3),     // addi x1, x0, 3
	isa.EncodeS(isa.OpcodeStore, 2, 5, 1, 0x100), // sw x1, 0x100(x5)
	isa.EncodeI(isa.OpcodeOpImm, 1, 0, 1, -1),    // addi x1, x1, -1
	isa.EncodeB(isa.OpcodeBranch, 1, 1, 0, -8),   // bne x1, x0, -8
	isa.Ecall,
}

func TestParseFlags_Defaults(t *testing.T) {
	cfg, exit, code := parseFlags([]string{"prog.elf"})
	if exit {
		t.Fatalf("unexpected exit with code %d", code)
	}
	defaults := DefaultConfig()
	defaults.Program = "prog.elf"
	if cfg != defaults {
		t.Errorf("got %+v, want %+v", cfg, defaults)
	}
	if cfg.BBCache != -1 {
		t.Errorf("BBCache = %d, want -1", cfg.BBCache)
	}
}

func TestParseFlags_AllFlags(t *testing.T) {
	args := []string{
		"-bbcache", "64",
		"-trace", "out.trace",
		"-verbosity", "4",
		"-logformat", "json",
		"-metrics",
		"-max-instructions", "1000000",
		"-sp", "0x7fff0",
		"prog.elf",
	}
	cfg, exit, _ := parseFlags(args)
	if exit {
		t.Fatal("unexpected exit")
	}
	want := Config{
		Program:         "prog.elf",
		BBCache:         64,
		Trace:           "out.trace",
		Verbosity:       4,
		LogFormat:       "json",
		Metrics:         true,
		MaxInstructions: 1000000,
		StackPointer:    0x7fff0,
	}
	if cfg != want {
		t.Errorf("got %+v, want %+v", cfg, want)
	}
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"version", []string{"-version"}, 0},
		{"unknown flag", []string{"-nope"}, 2},
		{"bad sp", []string{"-sp", "0x1_0000_0000", "p"}, 2},
		{"bad limit", []string{"-max-instructions", "-1", "p"}, 2},
		{"two programs", []string{"a.elf", "b.elf"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, exit, code := parseFlags(tt.args)
			if !exit || code != tt.code {
				t.Errorf("exit %v code %d, want exit with %d", exit, code, tt.code)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := DefaultConfig()
	valid.Program = "p.elf"
	if err := valid.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no program", func(c *Config) { c.Program = "" }},
		{"verbosity", func(c *Config) { c.Verbosity = 9 }},
		{"log format", func(c *Config) { c.LogFormat = "xml" }},
		{"unaligned sp", func(c *Config) { c.StackPointer = 0x1002 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate accepted invalid config")
			}
		})
	}
}

func TestRun_WritesTrace(t *testing.T) {
	prog := writeProgram(t, countdown...)
	trace := filepath.Join(t.TempDir(), "out.trace")
	if code := run([]string{"-verbosity", "0", "-bbcache", "2", "-trace", trace, prog}); code != 0 {
		t.Fatalf("run exited with %d", code)
	}
	data, err := os.ReadFile(trace)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	// lui, addi, then three rounds of sw/addi/bne, then ecall.
	if n := strings.Count(out, "NUM="); n != 12 {
		t.Errorf("trace has %d records, want 12", n)
	}
	for _, want := range []string{"x5=0x00010000", "M[0x00010100]=0x00000001", "NUM=12\nPC=0x00010014\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("trace missing %q", want)
		}
	}
}

func TestRun_Failures(t *testing.T) {
	spin := writeProgram(t, isa.EncodeJ(isa.OpcodeJAL, 0, 0))
	divZero := writeProgram(t, isa.EncodeR(isa.OpcodeOp, 1, 4, 0, 0, 1), isa.Ecall)
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"missing program", []string{"-verbosity", "0"}, 2},
		{"missing file", []string{"-verbosity", "0", filepath.Join(t.TempDir(), "none.elf")}, 1},
		{"instruction limit", []string{"-verbosity", "0", "-max-instructions", "100", spin}, 1},
		{"division by zero", []string{"-verbosity", "0", divZero}, 1},
		{"trace directory", []string{"-verbosity", "0", "-trace", t.TempDir(), divZero}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := run(tt.args); code != tt.code {
				t.Errorf("run exited with %d, want %d", code, tt.code)
			}
		})
	}
}
