package bundle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"
)

var log = commonlog.GetLogger("volt.bundle")

// Plugin hooks into the four pipeline stages, invoked in this order per
// build: RenderChunk (per chunk, may rewrite code), GenerateBundle (may
// mutate the output map and emit extra files), WriteBundle (files are on
// disk; may rewrite, replace, or delete them), CloseBundle (reporting
// only). Implementations may treat any hook as a no-op.
type Plugin interface {
	Name() string

	// RenderChunk may return replacement code for the chunk. The bool
	// reports whether the code was rewritten.
	RenderChunk(ctx context.Context, chunk *Chunk) (string, bool, error)

	GenerateBundle(ctx context.Context, out Output, graph Graph) error
	WriteBundle(ctx context.Context, dir string, out Output) error
	CloseBundle(ctx context.Context) error
}

// Pipeline drives one build's output through its plugins and onto disk.
// Stages run strictly in order; within the write stage, per-file work runs
// concurrently behind a fan-out/fan-in barrier.
type Pipeline struct {
	graph   Graph
	plugins []Plugin
}

// NewPipeline creates a pipeline over the given module graph. Plugins run
// in registration order at every hook point.
func NewPipeline(graph Graph, plugins ...Plugin) *Pipeline {
	return &Pipeline{graph: graph, plugins: plugins}
}

// Run processes the output map and writes the final files into dir.
func (p *Pipeline) Run(ctx context.Context, out Output, dir string) error {
	for _, chunk := range out.Chunks() {
		for _, plugin := range p.plugins {
			code, changed, err := plugin.RenderChunk(ctx, chunk)
			if err != nil {
				return fmt.Errorf("bundle: plugin %s render %s: %w", plugin.Name(), chunk.FileName, err)
			}
			if changed {
				chunk.Code = code
			}
		}
	}

	for _, plugin := range p.plugins {
		if err := plugin.GenerateBundle(ctx, out, p.graph); err != nil {
			return fmt.Errorf("bundle: plugin %s generate: %w", plugin.Name(), err)
		}
	}

	if err := p.writeFiles(ctx, out, dir); err != nil {
		return err
	}

	for _, plugin := range p.plugins {
		if err := plugin.WriteBundle(ctx, dir, out); err != nil {
			return fmt.Errorf("bundle: plugin %s write: %w", plugin.Name(), err)
		}
	}

	for _, plugin := range p.plugins {
		if err := plugin.CloseBundle(ctx); err != nil {
			return fmt.Errorf("bundle: plugin %s close: %w", plugin.Name(), err)
		}
	}
	return nil
}

// writeFiles writes every output file concurrently. File names are unique
// across the output map, so concurrent writes never collide; directory
// creation is idempotent under concurrent first use.
func (p *Pipeline) writeFiles(ctx context.Context, out Output, dir string) error {
	group, ctx := errgroup.WithContext(ctx)
	for _, name := range out.FileNames() {
		file := out[name]
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(dir, file.FileName)
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("bundle: creating output directory for %s: %w", file.FileName, err)
			}
			data := file.Source
			if file.Type == TypeChunk {
				data = []byte(file.Chunk.Code)
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("bundle: writing %s: %w", file.FileName, err)
			}
			log.Debugf("wrote %s (%d bytes)", file.FileName, len(data))
			return nil
		})
	}
	return group.Wait()
}
