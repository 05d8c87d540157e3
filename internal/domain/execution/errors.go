package execution

import (
	"fmt"
	"strings"
)

// UnsupportedSourceKindError is returned for source files whose extension
// has no known toolchain.
type UnsupportedSourceKindError struct {
	Path      string
	Extension string
}

func (e *UnsupportedSourceKindError) Error() string {
	if e.Extension == "" {
		return fmt.Sprintf("unsupported source kind for %s: missing extension", e.Path)
	}
	return fmt.Sprintf("unsupported source kind for %s: %q (want .c, .cpp or .py)", e.Path, e.Extension)
}

// CompileError carries the compiler's combined output verbatim.
type CompileError struct {
	Command  []string
	ExitCode int64
	Output   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile failed (%s exited with status %d)", strings.Join(e.Command, " "), e.ExitCode)
}

// FixtureRunError means the program under test could not be launched for a
// fixture. It is local to that fixture.
type FixtureRunError struct {
	Fixture string
	Err     error
}

func (e *FixtureRunError) Error() string {
	return fmt.Sprintf("run fixture %s: %v", e.Fixture, e.Err)
}

func (e *FixtureRunError) Unwrap() error {
	return e.Err
}
