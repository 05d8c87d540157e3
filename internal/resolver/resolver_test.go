package resolver

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"fixrun/internal/domain/execution"
)

func TestResolveCPP(t *testing.T) {
	t.Parallel()

	r := New(Toolchain{}, "/scratch")
	plan, err := r.Resolve("solutions/sol.cpp")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	bin := filepath.Join("/scratch", "sol")
	want := execution.RunPlan{
		Language:   execution.LanguageCPP,
		SourceKind: execution.SourceNativeCompiled,
		SourcePath: "solutions/sol.cpp",
		BinaryPath: bin,
		CompileCommand: []string{
			"g++", "-std=c++17", "-O2", "-Wall", "-Wextra", "-Wshadow", "-fsanitize=undefined",
			"-o", bin, "solutions/sol.cpp",
		},
		RunCommand: []string{bin},
	}
	if diff := cmp.Diff(want, plan); diff != "" {
		t.Fatalf("unexpected plan (-want +got):\n%s", diff)
	}
	if !plan.NeedsCompile() {
		t.Fatalf("expected cpp plan to need a compile step")
	}
}

func TestResolveC(t *testing.T) {
	t.Parallel()

	r := New(Toolchain{CC: "clang", CFlags: []string{}}, "/tmp/x")
	plan, err := r.Resolve("a.c")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	bin := filepath.Join("/tmp/x", "a")
	if diff := cmp.Diff([]string{"clang", "-o", bin, "a.c"}, plan.CompileCommand); diff != "" {
		t.Fatalf("unexpected compile command (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{bin}, plan.RunCommand); diff != "" {
		t.Fatalf("unexpected run command (-want +got):\n%s", diff)
	}
}

func TestResolvePython(t *testing.T) {
	t.Parallel()

	r := New(Toolchain{Python: "pypy3"}, "/scratch")
	plan, err := r.Resolve("sol.py")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if plan.NeedsCompile() {
		t.Fatalf("expected no compile step for python, got %v", plan.CompileCommand)
	}
	if plan.SourceKind != execution.SourceInterpreted {
		t.Fatalf("expected interpreted source kind, got %q", plan.SourceKind)
	}
	if diff := cmp.Diff([]string{"pypy3", "sol.py"}, plan.RunCommand); diff != "" {
		t.Fatalf("unexpected run command (-want +got):\n%s", diff)
	}
}

func TestResolveUnsupported(t *testing.T) {
	t.Parallel()

	_, err := New(Toolchain{}, "/scratch").Resolve("main.go")
	var unsupported *execution.UnsupportedSourceKindError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedSourceKindError, got %v", err)
	}
}

func TestStem(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"sol.cpp":         "sol",
		"dir/solution.py": "solution",
		"noext":           "noext",
		"multi.part.c":    "multi.part",
	}
	for in, want := range cases {
		if got := Stem(in); got != want {
			t.Fatalf("Stem(%q) = %q, want %q", in, got, want)
		}
	}
}
