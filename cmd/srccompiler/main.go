// Command srccompiler compiles configured source extracts into landing
// tables.
package main

import (
	"fmt"
	"os"

	// Every backend registers with the storage factory; store.kind picks one.
	_ "srccompiler/internal/storage/all"
)

// Version is set at build time.
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
