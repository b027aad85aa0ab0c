//go:build mage

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
)

// targetArgs holds the arguments that follow the target name. Mage passes
// only positional parameters to targets, so init moves anything after the
// target out of os.Args before mage parses it; targets read their own
// flags from targetArgs with a flag.FlagSet.
var targetArgs []string

func init() {
	target := targetIndex(os.Args)
	if target < 0 || target+1 >= len(os.Args) {
		return
	}
	targetArgs = os.Args[target+1:]
	os.Args = os.Args[:target+1]
}

// targetIndex returns the position of the first argument that is not a
// mage flag, or -1. Parsing stops at "--".
func targetIndex(args []string) int {
	for i := 1; i < len(args); i++ {
		switch {
		case args[i] == "--":
			return -1
		case args[i] != "" && args[i][0] != '-':
			return i
		}
	}
	return -1
}

// parseTargetFlags parses targetArgs into fs and exits on --help or a bad
// flag.
func parseTargetFlags(fs *flag.FlagSet) {
	err := fs.Parse(targetArgs)
	switch {
	case err == nil:
		return
	case errors.Is(err, flag.ErrHelp):
		os.Exit(0)
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
