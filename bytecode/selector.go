package bytecode

import (
	"sort"
	"sync"
)

// Selector decides which chunks are compiled. An empty alias set selects
// every chunk; otherwise a chunk is eligible only when its name exactly
// matches an alias. Decisions are sticky: a chunk selected once stays
// selected for the rest of the build.
type Selector struct {
	aliases map[string]bool

	mu       sync.Mutex
	selected map[string]bool
}

// NewSelector builds a selector from the configured alias set.
func NewSelector(aliases []string) *Selector {
	s := &Selector{
		aliases:  make(map[string]bool, len(aliases)),
		selected: make(map[string]bool),
	}
	for _, alias := range aliases {
		s.aliases[alias] = true
	}
	return s
}

// Eligible reports whether the named chunk should be compiled, recording a
// positive answer for the rest of the build.
func (s *Selector) Eligible(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected[name] {
		return true
	}
	if len(s.aliases) == 0 || s.aliases[name] {
		s.selected[name] = true
		return true
	}
	return false
}

// Selected returns the names selected so far, in stable order.
func (s *Selector) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.selected))
	for name := range s.selected {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
