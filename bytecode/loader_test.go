package bytecode

import (
	"strings"
	"testing"
)

func TestEntryStubLiteral(t *testing.T) {
	got := EntryStub("index.js")
	want := "\"use strict\";\nrequire(\"./bytecode-loader.js\");\nrequire(\"./index.jsc\");\n"
	if got != want {
		t.Errorf("stub = %q, want %q", got, want)
	}
}

func TestEntryStubNestedEntry(t *testing.T) {
	// The stub lives next to its artifact; the shim stays at the output
	// root, so a nested entry requires it through parent directories.
	got := EntryStub("chunks/main.js")
	want := "\"use strict\";\nrequire(\"../bytecode-loader.js\");\nrequire(\"./main.jsc\");\n"
	if got != want {
		t.Errorf("stub = %q, want %q", got, want)
	}
	got = EntryStub("a/b/main.js")
	want = "\"use strict\";\nrequire(\"../../bytecode-loader.js\");\nrequire(\"./main.jsc\");\n"
	if got != want {
		t.Errorf("stub = %q, want %q", got, want)
	}
}

func TestArtifactName(t *testing.T) {
	if got := ArtifactName("index.js"); got != "index.jsc" {
		t.Errorf("ArtifactName = %q, want index.jsc", got)
	}
}

func TestBackupName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"utils.js", "_utils.js"},
		{"chunks/utils.js", "chunks/_utils.js"},
	}
	for _, tc := range cases {
		if got := BackupName(tc.in); got != tc.want {
			t.Errorf("BackupName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestInjectLoader(t *testing.T) {
	code := `"use strict";const x = require("./utils.js");`
	got, ok := InjectLoader(code)
	if !ok {
		t.Fatal("InjectLoader found no prologue")
	}
	want := "\"use strict\";\nrequire(\"./bytecode-loader.js\");const x = require(\"./utils.js\");"
	if got != want {
		t.Errorf("injected = %q, want %q", got, want)
	}
}

func TestInjectLoaderNoPrologue(t *testing.T) {
	code := `const x = 1;`
	got, ok := InjectLoader(code)
	if ok {
		t.Error("InjectLoader reported success without a prologue")
	}
	if got != code {
		t.Errorf("injected = %q, want unchanged", got)
	}
}

func TestLoaderCodeShape(t *testing.T) {
	// The shim is a fixed artifact; pin its load-bearing pieces.
	for _, marker := range []string{
		`Module._extensions[".jsc"]`,
		"const FLAG_HASH_OFFSET = 12;",
		"const SOURCE_HASH_OFFSET = 8;",
		`"​".repeat(length - 2)`,
		"script.cachedDataRejected",
		"produceCachedData: true",
		"module.exports,\n    require,\n    module,\n    filename,\n    dirname,\n    process,\n    global",
	} {
		if !strings.Contains(LoaderCode, marker) {
			t.Errorf("loader shim missing %q", marker)
		}
	}
	// Cache rejection must throw, not fall back.
	if !strings.Contains(LoaderCode, "throw new Error(\"invalid or incompatible bytecode") {
		t.Error("loader shim must treat cache rejection as fatal")
	}
}
