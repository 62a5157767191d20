package bytecode

import (
	"github.com/voltbuild/volt/bundle"
)

// NeedsLoader reports whether an entry chunk that was not itself compiled
// still needs the loader shim because it transitively depends on a
// compiled chunk.
//
// The frontier is seeded with the entry's direct static and dynamic import
// targets. Each round checks the frontier for a compiled chunk; failing
// that, every frontier id resolving to a non-external module contributes
// its importers and dynamic importers, the modules that import it rather
// than its own imports. Downstream builds depend on exactly which entries
// end up with the loader, so this expansion direction is pinned by
// regression tests.
func NeedsLoader(entry *bundle.Chunk, compiled map[string]bool, graph bundle.Graph) bool {
	seen := make(map[string]bool)
	frontier := make([]string, 0, len(entry.Imports)+len(entry.DynamicImports))
	push := func(ids []string) {
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				frontier = append(frontier, id)
			}
		}
	}
	push(entry.Imports)
	push(entry.DynamicImports)

	for i := 0; i < len(frontier); i++ {
		id := frontier[i]
		if compiled[id] {
			return true
		}
		info, ok := graph.ModuleInfo(id)
		if !ok || info.IsExternal {
			continue
		}
		push(info.Importers)
		push(info.DynamicImporters)
	}
	return false
}
