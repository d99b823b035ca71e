package main

import (
	"errors"
	"fmt"

	"github.com/eth2030/rvsim/log"
)

// Config holds the settings of one simulator run.
type Config struct {
	// Program is the path of the RV32 ELF executable to run.
	Program string

	// BBCache selects the basic block cache: negative is unbounded, zero
	// disables caching, positive is an LRU of that many blocks.
	BBCache int

	// Trace is the cosim trace destination; "-" is stdout and empty
	// disables tracing.
	Trace string

	// Verbosity is the log level 0-4 (0=silent, 4=debug).
	Verbosity int

	// LogFormat is "text" or "json".
	LogFormat string

	// Metrics prints the metrics registry to stderr after the run.
	Metrics bool

	// MaxInstructions aborts the run after that many instructions. Zero
	// means no limit.
	MaxInstructions uint64

	// StackPointer is the initial sp. Zero leaves sp at zero.
	StackPointer uint32
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BBCache:   -1,
		Verbosity: 3,
		LogFormat: string(log.FormatText),
	}
}

// Validate checks configuration values for correctness.
func (c *Config) Validate() error {
	if c.Program == "" {
		return errors.New("config: program path must not be empty")
	}
	if c.Verbosity < 0 || c.Verbosity > 4 {
		return fmt.Errorf("config: invalid verbosity: %d", c.Verbosity)
	}
	if _, err := log.ParseFormat(c.LogFormat); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.StackPointer%4 != 0 {
		return fmt.Errorf("config: stack pointer 0x%x is not word aligned", c.StackPointer)
	}
	return nil
}
