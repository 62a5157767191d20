package bytecode

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/voltbuild/volt/bundle"
)

// Options is the configuration surface of the protection plugin.
type Options struct {
	// ChunkAlias names the chunks to compile. Empty selects every chunk.
	ChunkAlias []string

	// TransformArrowFunctions normalizes arrow functions before
	// compilation.
	TransformArrowFunctions bool

	// RemoveBundleJS deletes the original .js of compiled non-entry
	// chunks; when false they are kept as renamed backups.
	RemoveBundleJS bool

	// ReportPath, when set, receives the build report as canonical CBOR
	// at close time.
	ReportPath string
}

// DefaultOptions returns the stock configuration.
func DefaultOptions() Options {
	return Options{TransformArrowFunctions: true, RemoveBundleJS: true}
}

// Plugin is the bytecode protection pipeline as a bundle plugin. One
// Plugin serves exactly one build.
type Plugin struct {
	opts     Options
	port     CompilePort
	build    *Build
	selector *Selector

	// compiled maps chunk file names selected for compilation. Written
	// only during the serial render stage, read afterwards.
	compiled map[string]bool

	warnedRenderer bool
}

// NewPlugin creates the protection plugin for one build. The port is the
// compile boundary; wrap it to add caching or timeouts.
func NewPlugin(target Target, opts Options, port CompilePort) *Plugin {
	return &Plugin{
		opts:     opts,
		port:     port,
		build:    NewBuild(target),
		selector: NewSelector(opts.ChunkAlias),
		compiled: make(map[string]bool),
	}
}

// Name implements bundle.Plugin.
func (p *Plugin) Name() string { return "bytecode" }

// Build exposes the per-build context, mainly for callers that want the
// report records after the pipeline finishes.
func (p *Plugin) Build() *Build { return p.build }

// chunkName is the logical name aliases match against: the base file name
// without its .js extension.
func chunkName(c *bundle.Chunk) string {
	return strings.TrimSuffix(path.Base(c.FileName), ".js")
}

func (p *Plugin) disabled() bool {
	return p.build.Target.IsRenderer()
}

// RenderChunk marks eligible chunks for compilation and normalizes their
// arrow functions. The transformed copy is what later gets compiled; for
// selected chunks the on-disk .js is replaced or removed anyway.
func (p *Plugin) RenderChunk(_ context.Context, chunk *bundle.Chunk) (string, bool, error) {
	if p.disabled() {
		if !p.warnedRenderer {
			log.Warningf("bytecode protection does not support renderer builds, disabling for this build")
			p.warnedRenderer = true
		}
		return "", false, nil
	}
	if !p.selector.Eligible(chunkName(chunk)) {
		return "", false, nil
	}
	p.compiled[chunk.FileName] = true
	if !p.opts.TransformArrowFunctions {
		return "", false, nil
	}
	return ConvertArrowFunctions(chunk.Code), true, nil
}

// GenerateBundle rewrites cross-chunk references to the renamed bytecode
// artifacts, injects the loader requirement into entries that transitively
// depend on a compiled chunk, and emits the loader shim once.
func (p *Plugin) GenerateBundle(_ context.Context, out bundle.Output, graph bundle.Graph) error {
	if p.disabled() || len(p.compiled) == 0 {
		return nil
	}

	names := p.compiledNames()
	for _, chunk := range out.Chunks() {
		code, matches, err := RewriteReferences(chunk.Code, names)
		if err != nil {
			return err
		}
		if matches > 0 {
			log.Debugf("renamed %d references in %s", matches, chunk.FileName)
		}
		if chunk.IsEntry && !p.compiled[chunk.FileName] && NeedsLoader(chunk, p.compiled, graph) {
			injected, ok := InjectLoader(code)
			if !ok {
				log.Warningf("entry %s needs the bytecode loader but has no strict-mode prologue", chunk.FileName)
			}
			code = injected
		}
		chunk.Code = code
	}

	if p.build.MarkLoaderEmitted() {
		out.AddAsset(LoaderFileName, []byte(LoaderCode))
	}
	return nil
}

// WriteBundle compiles every selected chunk and finalizes the output
// directory: bytecode artifacts are written, compiled entries become
// stubs, and other compiled originals are removed or kept as backups.
// Per-chunk units run concurrently; the first compile spawn failure aborts
// the build.
func (p *Plugin) WriteBundle(ctx context.Context, dir string, out bundle.Output) error {
	if p.disabled() || len(p.compiled) == 0 {
		return nil
	}

	group, ctx := errgroup.WithContext(ctx)
	for _, chunk := range out.Chunks() {
		if !p.compiled[chunk.FileName] {
			continue
		}
		chunk := chunk
		group.Go(func() error {
			return p.emitChunk(ctx, dir, chunk)
		})
	}
	return group.Wait()
}

// emitChunk is one compile-and-write unit.
func (p *Plugin) emitChunk(ctx context.Context, dir string, chunk *bundle.Chunk) error {
	buf, err := p.port.Compile(ctx, chunk.Code)
	if err != nil {
		return fmt.Errorf("bytecode: compiling %s: %w", chunk.FileName, err)
	}

	artifact := ArtifactName(chunk.FileName)
	if err := os.WriteFile(filepath.Join(dir, artifact), buf, 0o644); err != nil {
		return fmt.Errorf("bytecode: writing %s: %w", artifact, err)
	}
	p.build.Record(artifact, len(buf))

	if srcLen, err := SourceLength(buf); err == nil {
		log.Infof("compiled %s: %d bytes from %d source chars", artifact, len(buf), srcLen)
	} else {
		log.Warningf("compiled %s: %d bytes, header incomplete", artifact, len(buf))
	}

	original := filepath.Join(dir, chunk.FileName)
	switch {
	case chunk.IsEntry:
		if err := os.WriteFile(original, []byte(EntryStub(chunk.FileName)), 0o644); err != nil {
			return fmt.Errorf("bytecode: writing entry stub for %s: %w", chunk.FileName, err)
		}
	case p.opts.RemoveBundleJS:
		if err := os.Remove(original); err != nil {
			return fmt.Errorf("bytecode: removing %s: %w", chunk.FileName, err)
		}
	default:
		backup := filepath.Join(dir, BackupName(chunk.FileName))
		if err := os.Rename(original, backup); err != nil {
			return fmt.Errorf("bytecode: renaming %s: %w", chunk.FileName, err)
		}
	}
	return nil
}

// CloseBundle reports what was emitted.
func (p *Plugin) CloseBundle(_ context.Context) error {
	if p.disabled() {
		return nil
	}
	records := p.build.Records()
	if len(records) == 0 {
		return nil
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })

	total := 0
	for _, r := range records {
		log.Infof("  %-40s %8d bytes", r.Name, r.Size)
		total += r.Size
	}
	log.Infof("bytecode: %d files, %d bytes total", len(records), total)

	if p.opts.ReportPath != "" {
		if err := WriteReport(p.build, p.opts.ReportPath); err != nil {
			return err
		}
	}
	return nil
}

func (p *Plugin) compiledNames() []string {
	names := make([]string, 0, len(p.compiled))
	for name := range p.compiled {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
