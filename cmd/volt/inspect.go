package main

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/voltbuild/volt/bytecode"
)

// handleInspectCommand processes the `volt inspect` subcommand. It reads
// bytecode artifacts and prints what their cache headers claim.
// Usage:
//
//	volt inspect out/main.jsc [more.jsc...]
func handleInspectCommand(args []string, verbose bool) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Error: inspect requires at least one artifact path")
		os.Exit(1)
	}

	failed := false
	for _, path := range args {
		buf, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", path, err)
			failed = true
			continue
		}

		srcLen, err := bytecode.SourceLength(buf)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", path, err)
			failed = true
			continue
		}

		fmt.Printf("%s\n", path)
		fmt.Printf("  artifact size: %d bytes\n", len(buf))
		fmt.Printf("  source length: %d chars\n", srcLen)
		if verbose {
			flag := binary.LittleEndian.Uint32(buf[bytecode.FlagHashOffset:])
			fmt.Printf("  flag hash:     %08x\n", flag)
		}
	}
	if failed {
		os.Exit(1)
	}
}
