// Package fixtures finds input fixtures and pairs them with ground truth.
package fixtures

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maruel/natural"

	"fixrun/internal/domain/execution"
)

// DefaultPattern selects every file ending in .in.
const DefaultPattern = "*.in"

// OutputExtension is appended to a fixture's stem for the captured output.
const OutputExtension = ".run"

// expectedExtensions is the ground-truth fallback chain, in lookup order.
var expectedExtensions = []string{".ans", ".out"}

// Discover expands pattern relative to the working directory and returns the
// matched fixtures in natural id order.
func Discover(pattern string) ([]execution.Fixture, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("expand pattern %q: %w", pattern, err)
	}

	suffix := literalSuffix(pattern)
	fixtures := make([]execution.Fixture, 0, len(matches))
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		fixtures = append(fixtures, newFixture(match, suffix))
	}

	sort.SliceStable(fixtures, func(i, j int) bool {
		return natural.Less(fixtures[i].ID, fixtures[j].ID)
	})
	return fixtures, nil
}

func newFixture(inputPath, suffix string) execution.Fixture {
	name := filepath.Base(inputPath)
	var id string
	if suffix != "" && strings.HasSuffix(name, suffix) && len(name) > len(suffix) {
		id = strings.TrimSuffix(name, suffix)
	} else {
		id = strings.TrimSuffix(name, filepath.Ext(name))
	}

	stem := filepath.Join(filepath.Dir(inputPath), id)
	return execution.Fixture{
		ID:           id,
		Name:         name,
		InputPath:    inputPath,
		OutputPath:   stem + OutputExtension,
		ExpectedPath: resolveExpected(stem),
	}
}

func resolveExpected(stem string) string {
	for _, ext := range expectedExtensions {
		candidate := stem + ext
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// StillPresent reports whether the fixture's input file still exists.
func StillPresent(f execution.Fixture) bool {
	info, err := os.Stat(f.InputPath)
	return err == nil && !info.IsDir()
}

// literalSuffix returns the part of the pattern's final element that follows
// its last wildcard. It is empty when the pattern ends in a wildcard.
func literalSuffix(pattern string) string {
	base := filepath.Base(pattern)
	end := 0
	for i := 0; i < len(base); i++ {
		switch base[i] {
		case '\\':
			i++
		case '*', '?':
			end = i + 1
		case '[':
			j := strings.IndexByte(base[i+1:], ']')
			if j < 0 {
				return ""
			}
			i += j + 1
			end = i + 1
		}
	}
	if end == 0 {
		// No wildcard at all: the pattern names a single file.
		return filepath.Ext(base)
	}
	return base[end:]
}

// Related reports whether path is an input selected by pattern or the ground
// truth of such an input. Captured outputs and scratch files never count,
// since a batch writes them itself. Pattern and path must both be absolute or
// both be relative to the same directory.
func Related(pattern, path string) bool {
	if pattern == "" {
		pattern = DefaultPattern
	}
	base := filepath.Base(path)
	if strings.HasSuffix(base, OutputExtension) || (strings.HasPrefix(base, ".") && strings.HasSuffix(base, ".tmp")) {
		return false
	}
	if ok, _ := filepath.Match(pattern, path); ok {
		return true
	}

	ext := filepath.Ext(path)
	for _, e := range expectedExtensions {
		if ext != e {
			continue
		}
		input := strings.TrimSuffix(path, ext) + literalSuffix(pattern)
		ok, _ := filepath.Match(pattern, input)
		return ok
	}
	return false
}
