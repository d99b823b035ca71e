package main

import (
	"flag"
	"fmt"
	"strconv"
)

// flagSet is a flag.FlagSet with unsigned flags that accept hex, so
// addresses and limits can be written as 0x7fff0.
type flagSet struct {
	*flag.FlagSet
}

// newUintFlagSet returns a flagSet that reports parse errors to the caller
// instead of exiting.
func newUintFlagSet(name string) *flagSet {
	return &flagSet{FlagSet: flag.NewFlagSet(name, flag.ContinueOnError)}
}

// Uint64Var defines a uint64 flag with default value.
func (fs *flagSet) Uint64Var(p *uint64, name string, value uint64, usage string) {
	*p = value
	fs.Var(&uintValue{p64: p, bits: 64}, name, usage)
}

// Uint32Var defines a uint32 flag with default value.
func (fs *flagSet) Uint32Var(p *uint32, name string, value uint32, usage string) {
	*p = value
	fs.Var(&uintValue{p32: p, bits: 32}, name, usage)
}

// uintValue implements flag.Value for fixed-width unsigned flags.
type uintValue struct {
	p64  *uint64
	p32  *uint32
	bits int
}

func (v *uintValue) String() string {
	switch {
	case v.p64 != nil:
		return strconv.FormatUint(*v.p64, 10)
	case v.p32 != nil:
		return fmt.Sprintf("0x%x", *v.p32)
	}
	return "0"
}

func (v *uintValue) Set(s string) error {
	n, err := strconv.ParseUint(s, 0, v.bits)
	if err != nil {
		return fmt.Errorf("%q is not a %d-bit unsigned integer", s, v.bits)
	}
	if v.p64 != nil {
		*v.p64 = n
	} else {
		*v.p32 = uint32(n)
	}
	return nil
}
