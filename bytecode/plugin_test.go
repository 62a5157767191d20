package bytecode

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/voltbuild/volt/bundle"
)

// stubPort fabricates a bytecode buffer carrying a valid source-hash
// header followed by the source bytes.
type stubPort struct {
	mu      sync.Mutex
	sources []string
}

func (p *stubPort) Compile(_ context.Context, source string) ([]byte, error) {
	p.mu.Lock()
	p.sources = append(p.sources, source)
	p.mu.Unlock()

	buf := make([]byte, minBufferSize+len(source))
	binary.LittleEndian.PutUint32(buf[SourceHashOffset:], uint32(len(source)))
	copy(buf[minBufferSize:], source)
	return buf, nil
}

// failingPort simulates a compiler binary that cannot be spawned.
type failingPort struct{}

func (failingPort) Compile(_ context.Context, _ string) ([]byte, error) {
	return nil, errors.New("spawn failed: no such file or directory")
}

func runPipeline(t *testing.T, plug *Plugin, out bundle.Output) string {
	t.Helper()
	dir := t.TempDir()
	graph := bundle.GraphFromChunks(out.Chunks())
	pipe := bundle.NewPipeline(graph, plug)
	if err := pipe.Run(context.Background(), out, dir); err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}
	return dir
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("reading %s: %v", name, err)
	}
	return string(data)
}

func exists(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}

// The worked example from the pipeline contract: alias selects only the
// entry; the shared dependency is left alone apart from nothing at all.
func TestPluginAliasedEntry(t *testing.T) {
	utilsCode := `"use strict";module.exports.helper = function () { return 1; };`
	out := make(bundle.Output)
	out.AddChunk(&bundle.Chunk{
		ID: "src/index.js", FileName: "index.js", IsEntry: true,
		Imports: []string{"utils.js"},
		Code:    `"use strict";const { helper } = require("./utils.js");helper();`,
	})
	out.AddChunk(&bundle.Chunk{
		ID: "src/utils.js", FileName: "utils.js",
		Code: utilsCode,
	})

	opts := DefaultOptions()
	opts.ChunkAlias = []string{"index"}
	plug := NewPlugin(TargetMain, opts, &stubPort{})
	dir := runPipeline(t, plug, out)

	if got := readFile(t, dir, "index.js"); got != EntryStub("index.js") {
		t.Errorf("entry stub = %q, want %q", got, EntryStub("index.js"))
	}
	if !exists(dir, "index.jsc") {
		t.Error("index.jsc artifact missing")
	}
	if got := readFile(t, dir, LoaderFileName); got != LoaderCode {
		t.Error("loader artifact differs from the fixed shim")
	}
	if got := readFile(t, dir, "utils.js"); got != utilsCode {
		t.Errorf("utils.js = %q, want untouched %q", got, utilsCode)
	}
	if exists(dir, "utils.jsc") {
		t.Error("utils.js should not have been compiled")
	}
}

func TestPluginArtifactCarriesCompiledCode(t *testing.T) {
	out := make(bundle.Output)
	out.AddChunk(&bundle.Chunk{
		ID: "index", FileName: "index.js", IsEntry: true,
		Code: `"use strict";const f = () => { run(); };f();`,
	})

	port := &stubPort{}
	plug := NewPlugin(TargetMain, DefaultOptions(), port)
	dir := runPipeline(t, plug, out)

	if len(port.sources) != 1 {
		t.Fatalf("compiled %d sources, want 1", len(port.sources))
	}
	// The compile copy had its arrow functions normalized.
	if strings.Contains(port.sources[0], "=>") {
		t.Errorf("compiled source = %q, arrows not normalized", port.sources[0])
	}

	artifact := []byte(readFile(t, dir, "index.jsc"))
	srcLen, err := SourceLength(artifact)
	if err != nil {
		t.Fatalf("artifact header: %v", err)
	}
	if srcLen != len(port.sources[0]) {
		t.Errorf("artifact source length = %d, want %d", srcLen, len(port.sources[0]))
	}
}

func TestPluginRemovesNonEntryBundle(t *testing.T) {
	out := make(bundle.Output)
	out.AddChunk(&bundle.Chunk{ID: "main", FileName: "main.js", IsEntry: true, Code: `"use strict";main();`})
	out.AddChunk(&bundle.Chunk{ID: "utils", FileName: "utils.js", Code: `"use strict";util();`})

	plug := NewPlugin(TargetMain, DefaultOptions(), &stubPort{})
	dir := runPipeline(t, plug, out)

	if exists(dir, "utils.js") {
		t.Error("utils.js should be removed when remove-bundle-js is on")
	}
	if !exists(dir, "utils.jsc") {
		t.Error("utils.jsc artifact missing")
	}
	if got := readFile(t, dir, "main.js"); got != EntryStub("main.js") {
		t.Errorf("main.js = %q, want entry stub", got)
	}
}

func TestPluginKeepsBundleAsBackup(t *testing.T) {
	out := make(bundle.Output)
	out.AddChunk(&bundle.Chunk{ID: "main", FileName: "main.js", IsEntry: true, Code: `"use strict";main();`})
	out.AddChunk(&bundle.Chunk{ID: "utils", FileName: "utils.js", Code: `"use strict";util();`})

	opts := DefaultOptions()
	opts.RemoveBundleJS = false
	plug := NewPlugin(TargetMain, opts, &stubPort{})
	dir := runPipeline(t, plug, out)

	if exists(dir, "utils.js") {
		t.Error("utils.js should be renamed, not kept in place")
	}
	if !exists(dir, "_utils.js") {
		t.Error("_utils.js backup missing")
	}
}

func TestPluginRewritesReferences(t *testing.T) {
	out := make(bundle.Output)
	out.AddChunk(&bundle.Chunk{
		ID: "main", FileName: "main.js", IsEntry: true,
		Imports: []string{"secret.js"},
		Code:    `"use strict";require("./secret.js");`,
	})
	out.AddChunk(&bundle.Chunk{ID: "secret", FileName: "secret.js", Code: `"use strict";module.exports = 42;`})

	opts := DefaultOptions()
	opts.ChunkAlias = []string{"secret"}
	plug := NewPlugin(TargetMain, opts, &stubPort{})
	dir := runPipeline(t, plug, out)

	got := readFile(t, dir, "main.js")
	if !strings.Contains(got, `require("./secret.jsc");`) {
		t.Errorf("main.js = %q, reference not renamed to the artifact", got)
	}
	// The entry depends on a compiled chunk, so the loader comes first.
	if !strings.HasPrefix(got, "\"use strict\";\nrequire(\"./bytecode-loader.js\");") {
		t.Errorf("main.js = %q, loader prologue missing", got)
	}
}

func TestPluginEntryWithoutCompiledDepsUntouched(t *testing.T) {
	entryCode := `"use strict";require("./plain.js");`
	out := make(bundle.Output)
	out.AddChunk(&bundle.Chunk{
		ID: "main", FileName: "main.js", IsEntry: true,
		Imports: []string{"plain.js"},
		Code:    entryCode,
	})
	out.AddChunk(&bundle.Chunk{ID: "plain", FileName: "plain.js", Code: `"use strict";`})
	out.AddChunk(&bundle.Chunk{ID: "secret", FileName: "secret.js", Code: `"use strict";`})

	opts := DefaultOptions()
	opts.ChunkAlias = []string{"secret"}
	plug := NewPlugin(TargetMain, opts, &stubPort{})
	dir := runPipeline(t, plug, out)

	if got := readFile(t, dir, "main.js"); got != entryCode {
		t.Errorf("main.js = %q, want byte-identical %q", got, entryCode)
	}
}

func TestPluginRendererDisabled(t *testing.T) {
	code := `"use strict";render();`
	out := make(bundle.Output)
	out.AddChunk(&bundle.Chunk{ID: "r", FileName: "renderer.js", IsEntry: true, Code: code})

	plug := NewPlugin(TargetRenderer, DefaultOptions(), &stubPort{})
	dir := runPipeline(t, plug, out)

	if got := readFile(t, dir, "renderer.js"); got != code {
		t.Errorf("renderer.js = %q, want untouched %q", got, code)
	}
	if exists(dir, "renderer.jsc") || exists(dir, LoaderFileName) {
		t.Error("renderer build must not produce bytecode artifacts")
	}
}

func TestPluginCompileFailureAbortsBuild(t *testing.T) {
	out := make(bundle.Output)
	out.AddChunk(&bundle.Chunk{ID: "main", FileName: "main.js", IsEntry: true, Code: `"use strict";`})

	dir := t.TempDir()
	pipe := bundle.NewPipeline(bundle.MemoryGraph{}, NewPlugin(TargetMain, DefaultOptions(), failingPort{}))
	err := pipe.Run(context.Background(), out, dir)
	if err == nil {
		t.Fatal("pipeline should fail when the compiler cannot spawn")
	}
	if !strings.Contains(err.Error(), "spawn failed") {
		t.Errorf("error = %v, want the spawn failure surfaced", err)
	}
}

func TestPluginReportRecords(t *testing.T) {
	out := make(bundle.Output)
	out.AddChunk(&bundle.Chunk{ID: "a", FileName: "a.js", IsEntry: true, Code: `"use strict";a();`})
	out.AddChunk(&bundle.Chunk{ID: "b", FileName: "b.js", Code: `"use strict";b();`})

	plug := NewPlugin(TargetMain, DefaultOptions(), &stubPort{})
	runPipeline(t, plug, out)

	records := plug.Build().Records()
	if len(records) != 2 {
		t.Fatalf("record count = %d, want 2", len(records))
	}
	names := map[string]bool{}
	for _, r := range records {
		names[r.Name] = true
		if r.Size <= 0 {
			t.Errorf("record %s has size %d, want > 0", r.Name, r.Size)
		}
	}
	if !names["a.jsc"] || !names["b.jsc"] {
		t.Errorf("records = %v, want a.jsc and b.jsc", records)
	}
}

func TestPluginReportFile(t *testing.T) {
	reportPath := filepath.Join(t.TempDir(), "report.cbor")

	out := make(bundle.Output)
	out.AddChunk(&bundle.Chunk{ID: "a", FileName: "a.js", IsEntry: true, Code: `"use strict";`})

	opts := DefaultOptions()
	opts.ReportPath = reportPath
	plug := NewPlugin(TargetMain, opts, &stubPort{})
	runPipeline(t, plug, out)

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	report, err := UnmarshalReport(data)
	if err != nil {
		t.Fatalf("report does not parse: %v", err)
	}
	if report.BuildID != plug.Build().ID {
		t.Errorf("report build id = %q, want %q", report.BuildID, plug.Build().ID)
	}
	if len(report.Files) != 1 || report.Files[0].Name != "a.jsc" {
		t.Errorf("report files = %v, want [a.jsc]", report.Files)
	}
}

func TestPluginTransformDisabled(t *testing.T) {
	out := make(bundle.Output)
	out.AddChunk(&bundle.Chunk{
		ID: "main", FileName: "main.js", IsEntry: true,
		Code: `"use strict";const f = () => 1;`,
	})

	opts := DefaultOptions()
	opts.TransformArrowFunctions = false
	port := &stubPort{}
	plug := NewPlugin(TargetMain, opts, port)
	runPipeline(t, plug, out)

	if len(port.sources) != 1 {
		t.Fatalf("compiled %d sources, want 1", len(port.sources))
	}
	if !strings.Contains(port.sources[0], "=>") {
		t.Errorf("compiled source = %q, arrows should be untouched when the transform is off", port.sources[0])
	}
}
