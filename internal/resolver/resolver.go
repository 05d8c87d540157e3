// Package resolver turns a source file path into an execution plan.
package resolver

import (
	"fmt"
	"path/filepath"
	"strings"

	"fixrun/internal/domain/execution"
)

// Toolchain names the compilers and interpreter used for each language.
type Toolchain struct {
	CXX      string
	CXXFlags []string
	CC       string
	CFlags   []string
	Python   string
}

// DefaultToolchain compiles C++ with strict warnings, the undefined-behavior
// sanitizer and optimizations enabled.
func DefaultToolchain() Toolchain {
	return Toolchain{
		CXX:      "g++",
		CXXFlags: []string{"-std=c++17", "-O2", "-Wall", "-Wextra", "-Wshadow", "-fsanitize=undefined"},
		CC:       "gcc",
		CFlags:   []string{"-O2", "-Wall", "-Wextra"},
		Python:   "python3",
	}
}

// WithDefaults fills empty fields from DefaultToolchain. Flag slices are only
// replaced when nil, so an explicit empty list disables the default flags.
func (t Toolchain) WithDefaults() Toolchain {
	def := DefaultToolchain()
	if t.CXX == "" {
		t.CXX = def.CXX
	}
	if t.CXXFlags == nil {
		t.CXXFlags = def.CXXFlags
	}
	if t.CC == "" {
		t.CC = def.CC
	}
	if t.CFlags == nil {
		t.CFlags = def.CFlags
	}
	if t.Python == "" {
		t.Python = def.Python
	}
	return t
}

// Resolver builds RunPlans. Binaries are placed in BinDir.
type Resolver struct {
	toolchain Toolchain
	binDir    string
}

// New constructs a Resolver writing compiled binaries into binDir.
func New(toolchain Toolchain, binDir string) *Resolver {
	return &Resolver{
		toolchain: toolchain.WithDefaults(),
		binDir:    binDir,
	}
}

// Resolve determines the source language and returns the plan to compile
// and run it.
func (r *Resolver) Resolve(sourcePath string) (execution.RunPlan, error) {
	lang, err := execution.LanguageForPath(sourcePath)
	if err != nil {
		return execution.RunPlan{}, err
	}

	binary := filepath.Join(r.binDir, Stem(sourcePath))
	return Plan(r.toolchain, lang, sourcePath, binary)
}

// Plan builds the commands for lang with explicit source and binary paths.
// The docker backend calls it with container-local paths.
func Plan(toolchain Toolchain, lang execution.Language, source, binary string) (execution.RunPlan, error) {
	plan := execution.RunPlan{
		Language:   lang,
		SourceKind: lang.Kind(),
		SourcePath: source,
	}

	switch lang {
	case execution.LanguageCPP:
		plan.BinaryPath = binary
		plan.CompileCommand = compileCommand(toolchain.CXX, toolchain.CXXFlags, source, binary)
		plan.RunCommand = []string{binary}
	case execution.LanguageC:
		plan.BinaryPath = binary
		plan.CompileCommand = compileCommand(toolchain.CC, toolchain.CFlags, source, binary)
		plan.RunCommand = []string{binary}
	case execution.LanguagePython:
		plan.RunCommand = []string{toolchain.Python, source}
	default:
		return execution.RunPlan{}, fmt.Errorf("resolver: no toolchain for language %q", lang)
	}

	return plan, nil
}

func compileCommand(compiler string, flags []string, source, binary string) []string {
	cmd := make([]string, 0, len(flags)+4)
	cmd = append(cmd, compiler)
	cmd = append(cmd, flags...)
	return append(cmd, "-o", binary, source)
}

// Stem returns the file name without directory and extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
