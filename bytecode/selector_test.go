package bytecode

import "testing"

func TestSelectorEmptyAliasSelectsAll(t *testing.T) {
	s := NewSelector(nil)
	for _, name := range []string{"index", "utils", "anything-at-all"} {
		if !s.Eligible(name) {
			t.Errorf("Eligible(%q) = false, want true with empty alias set", name)
		}
	}
}

func TestSelectorExactMatch(t *testing.T) {
	s := NewSelector([]string{"index", "worker"})
	cases := []struct {
		name string
		want bool
	}{
		{"index", true},
		{"worker", true},
		{"utils", false},
		{"index.js", false}, // aliases match chunk names, not file names
		{"inde", false},
	}
	for _, tc := range cases {
		if got := s.Eligible(tc.name); got != tc.want {
			t.Errorf("Eligible(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestSelectorSticky(t *testing.T) {
	s := NewSelector([]string{"index"})
	if !s.Eligible("index") {
		t.Fatal("index should be eligible")
	}
	// A chunk selected once stays selected for the build.
	if !s.Eligible("index") {
		t.Error("second query for a selected chunk flipped to false")
	}

	selected := s.Selected()
	if len(selected) != 1 || selected[0] != "index" {
		t.Errorf("Selected() = %v, want [index]", selected)
	}
}
