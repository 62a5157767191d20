// Volt CLI - bytecode protection for bundled Electron applications
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	verbose := flag.Bool("v", false, "Verbose output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: volt [options] <command> [args...]\n\n")
		fmt.Fprintf(os.Stderr, "Protects bundled Electron JavaScript by compiling it to V8 bytecode.\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  protect    Run the protection pipeline over a bundler output directory\n")
		fmt.Fprintf(os.Stderr, "  inspect    Show header details of compiled bytecode artifacts\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  volt protect                 # protect the project in the current directory\n")
		fmt.Fprintf(os.Stderr, "  volt protect -C ./app        # protect a project elsewhere\n")
		fmt.Fprintf(os.Stderr, "  volt inspect out/main.jsc    # inspect one artifact\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	switch args[0] {
	case "protect":
		handleProtectCommand(args[1:], *verbose)
	case "inspect":
		handleInspectCommand(args[1:], *verbose)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		flag.Usage()
		os.Exit(1)
	}
}
