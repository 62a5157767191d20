package textedit

import (
	"strings"
	"testing"
)

func TestRenderNoEdits(t *testing.T) {
	s := New("hello world")
	got, err := s.Render()
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got != "hello world" {
		t.Errorf("rendered = %q, want %q", got, "hello world")
	}
}

func TestOverwriteSingle(t *testing.T) {
	s := New("require('./index.js')")
	// Append a character to the matched span.
	if err := s.Overwrite(9, 19, "./index.jsc"); err != nil {
		t.Fatalf("Overwrite failed: %v", err)
	}
	got, err := s.Render()
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got != "require('./index.jsc')" {
		t.Errorf("rendered = %q, want %q", got, "require('./index.jsc')")
	}
}

func TestOverwriteOutOfOrder(t *testing.T) {
	s := New("abc def ghi")
	if err := s.Overwrite(8, 11, "GHI"); err != nil {
		t.Fatal(err)
	}
	if err := s.Overwrite(0, 3, "ABC"); err != nil {
		t.Fatal(err)
	}
	got, err := s.Render()
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got != "ABC def GHI" {
		t.Errorf("rendered = %q, want %q", got, "ABC def GHI")
	}
}

func TestOverwriteGrowing(t *testing.T) {
	source := "a.js b.js a.js"
	s := New(source)
	for _, span := range [][2]int{{0, 4}, {5, 9}, {10, 14}} {
		match := source[span[0]:span[1]]
		if err := s.Overwrite(span[0], span[1], match+"c"); err != nil {
			t.Fatal(err)
		}
	}
	got, err := s.Render()
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got != "a.jsc b.jsc a.jsc" {
		t.Errorf("rendered = %q, want %q", got, "a.jsc b.jsc a.jsc")
	}
	if len(got) != len(source)+3 {
		t.Errorf("rendered length = %d, want %d", len(got), len(source)+3)
	}
}

func TestOverwriteBounds(t *testing.T) {
	s := New("short")
	if err := s.Overwrite(2, 99, "x"); err == nil {
		t.Error("expected error for end past source length")
	}
	if err := s.Overwrite(-1, 2, "x"); err == nil {
		t.Error("expected error for negative start")
	}
	if err := s.Overwrite(3, 2, "x"); err == nil {
		t.Error("expected error for start > end")
	}
}

func TestRenderOverlap(t *testing.T) {
	s := New("abcdef")
	if err := s.Overwrite(0, 4, "x"); err != nil {
		t.Fatal(err)
	}
	if err := s.Overwrite(2, 6, "y"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Render(); err == nil {
		t.Error("expected error for overlapping edits")
	} else if !strings.Contains(err.Error(), "overlapping") {
		t.Errorf("error = %q, want overlap error", err)
	}
}

func TestSourceUnchanged(t *testing.T) {
	s := New("original")
	if err := s.Overwrite(0, 8, "rewritten"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Render(); err != nil {
		t.Fatal(err)
	}
	if s.Source() != "original" {
		t.Errorf("source = %q, want %q", s.Source(), "original")
	}
}
