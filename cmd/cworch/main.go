// Command cworch is a thin CLI over the state store (pkg/cworch/state),
// for inspecting and editing a deployment's recorded addresses and code-ids
// without writing Go.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
