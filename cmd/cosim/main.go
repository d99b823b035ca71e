// Command cosim compares two cosimulation traces and reports the first
// instruction at which they diverge.
//
// Usage:
//
//	cosim --master ref.trace --slave sim.trace
//
// The exit code is 0 when the traces agree, 1 on a mismatch and 2 on a
// usage or format error.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/eth2030/rvsim/cosim"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("cosim", flag.ContinueOnError)
	fs.SetOutput(stderr)
	master := fs.String("master", "", "path to the master trace")
	slave := fs.String("slave", "", "path to the slave trace")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *master == "" || *slave == "" {
		fmt.Fprintln(stderr, "Error: both --master and --slave are required")
		return 2
	}

	res, err := compareFiles(*master, *slave)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	fmt.Fprintln(stdout, res)
	if !res.Equal {
		return 1
	}
	return 0
}

func compareFiles(masterPath, slavePath string) (cosim.Result, error) {
	m, err := os.Open(masterPath)
	if err != nil {
		return cosim.Result{}, err
	}
	defer m.Close()
	s, err := os.Open(slavePath)
	if err != nil {
		return cosim.Result{}, err
	}
	defer s.Close()
	return cosim.Compare(m, s)
}
