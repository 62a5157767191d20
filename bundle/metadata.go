package bundle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Metadata is the serialized collaborator contract: the per-chunk records
// and module-graph edges a bundler emits alongside its output directory so
// that post-processing tools can run without re-running the bundler.
type Metadata struct {
	Chunks  []MetaChunk  `json:"chunks"`
	Modules []MetaModule `json:"modules,omitempty"`
}

// MetaChunk mirrors Chunk minus the code, which lives in the output
// directory under FileName.
type MetaChunk struct {
	ID             string   `json:"id"`
	FileName       string   `json:"fileName"`
	IsEntry        bool     `json:"isEntry,omitempty"`
	Imports        []string `json:"imports,omitempty"`
	DynamicImports []string `json:"dynamicImports,omitempty"`
}

// MetaModule mirrors ModuleInfo.
type MetaModule struct {
	ID               string   `json:"id"`
	Importers        []string `json:"importers,omitempty"`
	DynamicImporters []string `json:"dynamicImporters,omitempty"`
	IsExternal       bool     `json:"isExternal,omitempty"`
}

// LoadMetadata reads a bundle metadata file and materializes the output map
// from the adjacent output directory, reading each chunk's code from disk.
// When the metadata carries no module records, the graph is derived from
// the chunk import lists.
func LoadMetadata(path string, dir string) (Output, Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("bundle: reading metadata: %w", err)
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, nil, fmt.Errorf("bundle: parsing metadata %s: %w", path, err)
	}

	out := make(Output, len(meta.Chunks))
	for _, mc := range meta.Chunks {
		code, err := os.ReadFile(filepath.Join(dir, mc.FileName))
		if err != nil {
			return nil, nil, fmt.Errorf("bundle: reading chunk %s: %w", mc.FileName, err)
		}
		out.AddChunk(&Chunk{
			ID:             mc.ID,
			FileName:       mc.FileName,
			Code:           string(code),
			IsEntry:        mc.IsEntry,
			Imports:        mc.Imports,
			DynamicImports: mc.DynamicImports,
		})
	}

	if len(meta.Modules) == 0 {
		return out, GraphFromChunks(out.Chunks()), nil
	}

	graph := make(MemoryGraph, len(meta.Modules))
	for _, mm := range meta.Modules {
		graph[mm.ID] = &ModuleInfo{
			ID:               mm.ID,
			Importers:        mm.Importers,
			DynamicImporters: mm.DynamicImporters,
			IsExternal:       mm.IsExternal,
		}
	}
	return out, graph, nil
}
