// Package textedit applies a set of independent overwrites to an immutable
// source text. Edits are addressed by offsets into the original text, so
// they can be collected in any order without shifting one another, then
// serialized into the final text in a single pass.
package textedit

import (
	"fmt"
	"sort"
	"strings"
)

type edit struct {
	start int
	end   int
	text  string
}

// Script accumulates overwrites against one source text.
type Script struct {
	source string
	edits  []edit
}

// New creates an edit script over the given source text.
func New(source string) *Script {
	return &Script{source: source}
}

// Source returns the original, unedited text.
func (s *Script) Source() string {
	return s.source
}

// Len returns the number of recorded edits.
func (s *Script) Len() int {
	return len(s.edits)
}

// Overwrite replaces source[start:end] with text when the script is
// rendered. Offsets refer to the original source regardless of any other
// recorded edits.
func (s *Script) Overwrite(start, end int, text string) error {
	if start < 0 || end > len(s.source) || start > end {
		return fmt.Errorf("textedit: overwrite [%d:%d) out of range for %d-byte source", start, end, len(s.source))
	}
	s.edits = append(s.edits, edit{start: start, end: end, text: text})
	return nil
}

// Render serializes the source with all edits applied. Untouched spans are
// copied verbatim. Overlapping edits are an error: each original byte may be
// covered by at most one overwrite.
func (s *Script) Render() (string, error) {
	if len(s.edits) == 0 {
		return s.source, nil
	}

	edits := make([]edit, len(s.edits))
	copy(edits, s.edits)
	sort.SliceStable(edits, func(i, j int) bool { return edits[i].start < edits[j].start })

	var out strings.Builder
	pos := 0
	for _, e := range edits {
		if e.start < pos {
			return "", fmt.Errorf("textedit: overlapping edits at offset %d", e.start)
		}
		out.WriteString(s.source[pos:e.start])
		out.WriteString(e.text)
		pos = e.end
	}
	out.WriteString(s.source[pos:])
	return out.String(), nil
}
