package bundle

// ModuleInfo describes one module in the bundler's import graph. Importers
// are the reverse edges: modules that import this one.
type ModuleInfo struct {
	ID               string
	Importers        []string
	DynamicImporters []string
	IsExternal       bool
}

// Graph resolves module ids to their graph records. The bundler exposes
// this lookup to plugins; ids that were never part of the build resolve to
// (nil, false).
type Graph interface {
	ModuleInfo(id string) (*ModuleInfo, bool)
}

// MemoryGraph is a Graph backed by a plain map.
type MemoryGraph map[string]*ModuleInfo

// ModuleInfo implements Graph.
func (g MemoryGraph) ModuleInfo(id string) (*ModuleInfo, bool) {
	info, ok := g[id]
	return info, ok
}

// GraphFromChunks derives a module graph from chunk metadata by inverting
// each chunk's import lists. Useful when the bundler's own graph is not
// available, e.g. when post-processing an already-written output directory.
func GraphFromChunks(chunks []*Chunk) MemoryGraph {
	g := make(MemoryGraph, len(chunks))
	lookup := func(id string) *ModuleInfo {
		info, ok := g[id]
		if !ok {
			info = &ModuleInfo{ID: id}
			g[id] = info
		}
		return info
	}
	for _, c := range chunks {
		lookup(c.FileName)
		for _, imp := range c.Imports {
			info := lookup(imp)
			info.Importers = append(info.Importers, c.FileName)
		}
		for _, imp := range c.DynamicImports {
			info := lookup(imp)
			info.DynamicImporters = append(info.DynamicImporters, c.FileName)
		}
	}
	return g
}
