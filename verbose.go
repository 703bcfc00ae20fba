package kmersig

import (
	"fmt"
	"os"
)

// Verbose gates progress and diagnostic output. cmd/*/main.go binaries
// set this from their --quiet flag before doing any work.
var Verbose = false

func Vprintf(format string, args ...interface{}) {
	if Verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

func Vprintln(args ...interface{}) {
	if Verbose {
		fmt.Fprintln(os.Stderr, args...)
	}
}

func Vprint(args ...interface{}) {
	if Verbose {
		fmt.Fprint(os.Stderr, args...)
	}
}
