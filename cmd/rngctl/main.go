// Command rngctl is an operator CLI exercising the core's public API
// surface end to end: rng_start, rng_fetch, DRBG generate, rng_stop
// (SPEC_FULL.md §C).
package main

import (
	"fmt"
	"os"

	"github.com/entropic-systems/corerand/cmd/rngctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "rngctl: %v\n", err)
		os.Exit(1)
	}
}
