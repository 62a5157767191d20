package bytecode

import (
	"sync"

	"github.com/google/uuid"
)

// Target identifies which Electron process a build's output is hosted in.
// Bytecode protection only works where the host-process module system is
// available; renderer output lives in a browser context and is excluded.
type Target string

const (
	TargetMain     Target = "main"
	TargetPreload  Target = "preload"
	TargetRenderer Target = "renderer"
)

// IsRenderer reports whether the target runs in a browser-like rendering
// context.
func (t Target) IsRenderer() bool { return t == TargetRenderer }

// Build is the per-build context threaded through all pipeline stages. It
// owns every accumulator whose lifecycle is one build invocation: the
// report records and the loader-emission latch. Record appends may race
// across concurrent compile units and are mutex-protected.
type Build struct {
	ID     string
	Target Target

	mu            sync.Mutex
	records       []FileRecord
	loaderEmitted bool
}

// NewBuild creates a fresh build context for the given target.
func NewBuild(target Target) *Build {
	return &Build{ID: uuid.NewString(), Target: target}
}

// Record appends one bytecode file record for reporting.
func (b *Build) Record(name string, size int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = append(b.records, FileRecord{Name: name, Size: size})
}

// Records returns a copy of the records accumulated so far.
func (b *Build) Records() []FileRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]FileRecord, len(b.records))
	copy(out, b.records)
	return out
}

// MarkLoaderEmitted latches the loader-artifact emission and reports
// whether this call was the first.
func (b *Build) MarkLoaderEmitted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loaderEmitted {
		return false
	}
	b.loaderEmitted = true
	return true
}
