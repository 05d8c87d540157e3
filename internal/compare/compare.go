// Package compare classifies a fixture run by aligning its output with the
// expected answer line by line.
package compare

import (
	"fmt"
	"os"
	"strings"

	"fixrun/internal/domain/execution"
)

// NoGroundTruth is appended to the input listing when a fixture has no
// expected-output file.
const NoGroundTruth = "no ground truth available"

// Outcome is the verdict for one fixture together with the aligned rows the
// renderer displays.
type Outcome struct {
	Classification execution.Classification
	Diff           Diff
}

// Compare reads the actual output and either the expected output or, when
// expectedPath is empty, the fixture input, and classifies the run.
//
// Trailing whitespace on each line is ignored. Without an expected file the
// outcome is always Unknown.
func Compare(actualPath, expectedPath, inputPath string) (Outcome, error) {
	actual, err := readText(actualPath)
	if err != nil {
		return Outcome{}, err
	}

	if expectedPath == "" {
		input, err := readText(inputPath)
		if err != nil {
			return Outcome{}, err
		}
		diff := Align(actual, input)
		diff.Identical = false
		diff.Rows = append(diff.Rows, Row{
			Mark:  MarkRightOnly,
			Right: Line{Text: NoGroundTruth},
		})
		return Outcome{Classification: execution.Unknown, Diff: diff}, nil
	}

	expected, err := readText(expectedPath)
	if err != nil {
		return Outcome{}, err
	}

	diff := Align(actual, expected)
	if diff.Identical {
		return Outcome{Classification: execution.Good, Diff: diff}, nil
	}
	return Outcome{Classification: execution.Bad, Diff: diff}, nil
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// Equal reports whether two texts match line by line, ignoring trailing
// whitespace on every line.
func Equal(a, b string) bool {
	la, lb := splitLines(a), splitLines(b)
	if len(la) != len(lb) {
		return false
	}
	for i := range la {
		if trimTrailing(la[i]) != trimTrailing(lb[i]) {
			return false
		}
	}
	return true
}

// splitLines breaks text into lines. A final newline terminates the last
// line rather than starting an empty one.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}

func trimTrailing(line string) string {
	return strings.TrimRight(line, " \t\r\v\f")
}
