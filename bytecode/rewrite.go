package bytecode

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/voltbuild/volt/textedit"
)

// RewriteReferences renames every literal occurrence of a compiled chunk
// file name in code to the bytecode artifact name by appending one
// character to the matched span. The text is scanned once against a
// combined pattern; all edits are addressed by original offsets and
// serialized in a single pass, so output length grows by exactly one byte
// per match and every byte outside matched spans is untouched.
func RewriteReferences(code string, compiledNames []string) (string, int, error) {
	if len(compiledNames) == 0 {
		return code, 0, nil
	}

	// Longer names first so a name that prefixes another cannot steal its
	// matches.
	names := make([]string, len(compiledNames))
	copy(names, compiledNames)
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = regexp.QuoteMeta(name)
	}

	pattern, err := regexp.Compile(strings.Join(quoted, "|"))
	if err != nil {
		return "", 0, fmt.Errorf("bytecode: reference pattern: %w", err)
	}

	matches := pattern.FindAllStringIndex(code, -1)
	if len(matches) == 0 {
		return code, 0, nil
	}

	script := textedit.New(code)
	for _, m := range matches {
		if err := script.Overwrite(m[0], m[1], code[m[0]:m[1]]+"c"); err != nil {
			return "", 0, fmt.Errorf("bytecode: rewriting reference at %d: %w", m[0], err)
		}
	}
	out, err := script.Render()
	if err != nil {
		return "", 0, fmt.Errorf("bytecode: rewriting references: %w", err)
	}
	return out, len(matches), nil
}
