// Command rvsim runs an RV32 ELF executable on the functional simulator.
//
// Usage:
//
//	rvsim [flags] program.elf
//
// Flags:
//
//	--bbcache           Basic block cache: <0 unbounded, 0 off, >0 LRU size (default: -1)
//	--trace             Write the cosim trace to a file, "-" for stdout
//	--verbosity         Log level 0-4 (default: 3)
//	--logformat         Log format: text, json (default: text)
//	--metrics           Print metrics after the run (default: false)
//	--max-instructions  Stop after this many instructions (default: 0, no limit)
//	--sp                Initial stack pointer
//	--version           Print version and exit
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/common"

	"github.com/eth2030/rvsim/hart"
	"github.com/eth2030/rvsim/isa"
	"github.com/eth2030/rvsim/loader"
	"github.com/eth2030/rvsim/log"
	"github.com/eth2030/rvsim/metrics"
)

// Set at link time with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "v0.1.0"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run simulates the program named in args and returns the process exit
// code: 0 on completion, 1 if the program could not be run to completion
// and 2 for usage errors.
func run(args []string) int {
	cfg, exit, code := parseFlags(args)
	if exit {
		return code
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		return 2
	}

	logger := newLogger(cfg, os.Stderr)
	log.SetDefault(logger)

	prog, err := loader.LoadELF(cfg.Program)
	if err != nil {
		logger.Error("Failed to load program", "path", cfg.Program, "err", err)
		return 1
	}

	reg := metrics.NewRegistry()
	opts := []hart.Option{
		hart.WithLogger(logger),
		hart.WithRegistry(reg),
		hart.WithInstructionLimit(cfg.MaxInstructions),
	}
	if cfg.StackPointer != 0 {
		opts = append(opts, hart.WithStackPointer(cfg.StackPointer))
	}
	if cfg.Trace != "" {
		w, closeTrace, err := openTrace(cfg.Trace)
		if err != nil {
			logger.Error("Failed to open trace", "path", cfg.Trace, "err", err)
			return 1
		}
		defer closeTrace()
		opts = append(opts, hart.WithTrace(w))
	}

	h, err := hart.New(prog, cfg.BBCache, opts...)
	if err != nil {
		logger.Error("Failed to create hart", "err", err)
		return 1
	}
	runErr := h.Run()

	if cfg.Metrics {
		if err := reg.WriteText(os.Stderr); err != nil {
			logger.Warn("Failed to write metrics", "err", err)
		}
	}
	if runErr != nil {
		logger.Error("Simulation failed", "err", runErr)
		return 1
	}

	cs := h.CacheStats()
	logger.Info("Simulation complete",
		"instructions", h.InstructionCount(),
		"cycles", h.State().CSRs.Cycles(),
		"a0", h.State().Regs.Get(isa.RegA0),
		"bbcache.hits", cs.Hits,
		"bbcache.builds", cs.Builds,
		"root", common.Hash(h.StateRoot()).Hex(),
	)
	return 0
}

// parseFlags builds the Config for args. When exit is true the caller stops
// with code without running anything.
func parseFlags(args []string) (cfg Config, exit bool, code int) {
	cfg = DefaultConfig()
	fs := newFlagSet(&cfg)

	showVersion := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cfg, true, 2
	}

	if *showVersion {
		fmt.Printf("rvsim %s (commit %s)\n", version, commit)
		return cfg, true, 0
	}

	switch fs.NArg() {
	case 0:
	case 1:
		cfg.Program = fs.Arg(0)
	default:
		fmt.Fprintf(os.Stderr, "Error: expected one program, got %d arguments\n", fs.NArg())
		return cfg, true, 2
	}
	return cfg, false, 0
}

// newFlagSet binds every rvsim flag to a field of cfg.
func newFlagSet(cfg *Config) *flagSet {
	fs := newUintFlagSet("rvsim")
	fs.IntVar(&cfg.BBCache, "bbcache", cfg.BBCache, "basic block cache capacity (<0 unbounded, 0 off, >0 LRU)")
	fs.StringVar(&cfg.Trace, "trace", cfg.Trace, "cosim trace output file (\"-\" for stdout)")
	fs.IntVar(&cfg.Verbosity, "verbosity", cfg.Verbosity, "log level 0-4 (0=silent, 4=debug)")
	fs.StringVar(&cfg.LogFormat, "logformat", cfg.LogFormat, "log format (text, json)")
	fs.BoolVar(&cfg.Metrics, "metrics", cfg.Metrics, "print metrics after the run")
	fs.Uint64Var(&cfg.MaxInstructions, "max-instructions", cfg.MaxInstructions, "stop after this many instructions (0 = no limit)")
	fs.Uint32Var(&cfg.StackPointer, "sp", cfg.StackPointer, "initial stack pointer")
	return fs
}

func newLogger(cfg Config, w io.Writer) *log.Logger {
	// Validate has already rejected unknown formats.
	format, _ := log.ParseFormat(cfg.LogFormat)
	return log.New(w, format, log.VerbosityToLevel(cfg.Verbosity))
}

func openTrace(path string) (io.Writer, func(), error) {
	if path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}
