package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/voltbuild/volt/bundle"
	"github.com/voltbuild/volt/bytecache"
	"github.com/voltbuild/volt/bytecode"
	"github.com/voltbuild/volt/manifest"
)

// handleProtectCommand processes the `volt protect` subcommand.
// Usage:
//
//	volt protect              # project in the current directory
//	volt protect -C ./app     # project elsewhere
//	volt protect --no-cache   # bypass the compile cache
func handleProtectCommand(args []string, verbose bool) {
	startDir := "."
	noCache := false

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-C", "--directory":
			if i+1 < len(args) {
				startDir = args[i+1]
				i++
			} else {
				fmt.Fprintln(os.Stderr, "Error: -C requires a directory path")
				os.Exit(1)
			}
		case "--no-cache":
			noCache = true
		default:
			fmt.Fprintf(os.Stderr, "Error: unknown protect flag %q\n", args[i])
			os.Exit(1)
		}
	}

	m, err := manifest.FindAndLoad(startDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading manifest: %v\n", err)
		os.Exit(1)
	}
	if m == nil {
		fmt.Fprintln(os.Stderr, "Error: no volt.toml or volt.yml found")
		fmt.Fprintln(os.Stderr, "volt protect requires a manifest describing the bundler output")
		os.Exit(1)
	}

	target := bytecode.Target(m.Build.Target)
	switch target {
	case bytecode.TargetMain, bytecode.TargetPreload, bytecode.TargetRenderer:
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown build target %q (use main, preload, or renderer)\n", m.Build.Target)
		os.Exit(1)
	}

	out, graph, err := bundle.LoadMetadata(m.MetadataPath(), m.OutDirPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading bundle metadata: %v\n", err)
		os.Exit(1)
	}

	var port bytecode.CompilePort = &bytecode.Compiler{ElectronPath: m.Build.Electron}
	if m.Bytecode.Cache && !noCache {
		cache, err := bytecache.Open(m.CacheDirPath())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening compile cache: %v\n", err)
			os.Exit(1)
		}
		defer cache.Close()
		port = &bytecache.CachingPort{Port: port, Cache: cache, Engine: m.Build.Electron}
	}

	opts := bytecode.Options{
		ChunkAlias:              m.Bytecode.ChunkAlias,
		TransformArrowFunctions: m.Bytecode.TransformArrowFunctions,
		RemoveBundleJS:          m.Bytecode.RemoveBundleJS,
		ReportPath:              m.Bytecode.Report,
	}
	plugin := bytecode.NewPlugin(target, opts, port)

	pipeline := bundle.NewPipeline(graph, plugin)
	if err := pipeline.Run(context.Background(), out, m.OutDirPath()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	printProtectSummary(plugin.Build(), verbose)
}

// printProtectSummary writes the per-build outcome to stdout, colorized
// when attached to a terminal.
func printProtectSummary(build *bytecode.Build, verbose bool) {
	records := build.Records()
	if len(records) == 0 {
		fmt.Println("No chunks compiled (nothing eligible for this target)")
		return
	}

	total := 0
	for _, r := range records {
		total += r.Size
		if verbose {
			fmt.Printf("  %-40s %8d bytes\n", r.Name, r.Size)
		}
	}

	msg := fmt.Sprintf("Protected %d chunks (%d bytes of bytecode)", len(records), total)
	if isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Printf("\x1b[32m%s\x1b[0m\n", msg)
	} else {
		fmt.Println(msg)
	}
}
