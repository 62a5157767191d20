// Package bundle defines the output model produced by the bundler and the
// plugin pipeline that post-processes it before it reaches disk.
package bundle

import (
	"sort"
)

// OutputType distinguishes rendered code chunks from opaque assets.
type OutputType string

const (
	TypeChunk OutputType = "chunk"
	TypeAsset OutputType = "asset"
)

// Chunk is one unit of bundled output code. Chunks are produced by the
// bundler once per build; plugins may rewrite Code before the write stage.
type Chunk struct {
	ID             string
	FileName       string
	Code           string
	IsEntry        bool
	Imports        []string
	DynamicImports []string
}

// File is one entry in the final output map: either a rendered chunk or a
// raw asset.
type File struct {
	FileName string
	Type     OutputType
	Chunk    *Chunk // set when Type == TypeChunk
	Source   []byte // set when Type == TypeAsset
}

// Output is the full set of files produced by one build, keyed by file name.
// File names are unique across chunks and assets by construction.
type Output map[string]*File

// AddChunk inserts a chunk into the output map under its file name.
func (o Output) AddChunk(c *Chunk) {
	o[c.FileName] = &File{FileName: c.FileName, Type: TypeChunk, Chunk: c}
}

// AddAsset inserts a raw asset under the given file name.
func (o Output) AddAsset(name string, source []byte) {
	o[name] = &File{FileName: name, Type: TypeAsset, Source: source}
}

// Chunks returns all chunk files in stable file-name order.
func (o Output) Chunks() []*Chunk {
	var chunks []*Chunk
	for _, f := range o {
		if f.Type == TypeChunk && f.Chunk != nil {
			chunks = append(chunks, f.Chunk)
		}
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].FileName < chunks[j].FileName })
	return chunks
}

// FileNames returns every output file name in stable order.
func (o Output) FileNames() []string {
	names := make([]string, 0, len(o))
	for name := range o {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
