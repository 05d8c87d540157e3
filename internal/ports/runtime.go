package ports

import (
	"context"
	"io"

	"fixrun/internal/domain/execution"
)

// PreparedProgram represents a compiled or otherwise ready-to-run program.
type PreparedProgram interface {
	// Run executes the program once with stdin bound to the supplied reader
	// and stdout streamed into the writer. A non-zero exit is reported in the
	// result, not as an error. An error means the program could not be run.
	Run(ctx context.Context, stdin io.Reader, stdout io.Writer) (*execution.Result, error)
	Close() error
}

// Runner prepares programs described by a RunPlan.
//
// Prepare returns *execution.CompileError when the compile step fails.
type Runner interface {
	Prepare(ctx context.Context, plan execution.RunPlan) (PreparedProgram, error)
	Close() error
}
