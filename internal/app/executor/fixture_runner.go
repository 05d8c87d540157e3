package executor

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"fixrun/internal/domain/execution"
	"fixrun/internal/ports"
	"fixrun/internal/scratch"
)

// fixtureRunner executes the prepared program against one fixture at a time.
type fixtureRunner struct {
	prepared ports.PreparedProgram
	token    string
	logger   *log.Logger
}

func newFixtureRunner(prepared ports.PreparedProgram, token string, logger *log.Logger) *fixtureRunner {
	return &fixtureRunner{prepared: prepared, token: token, logger: logger}
}

// execute binds the fixture input to stdin and captures stdout into
// <stem>.run. Output is first written to a process-unique sibling file and
// renamed into place once the program exits.
func (r *fixtureRunner) execute(ctx context.Context, fixture execution.Fixture) execution.ExecutionResult {
	result := execution.ExecutionResult{
		Fixture:          fixture,
		ActualOutputPath: fixture.OutputPath,
	}

	input, err := os.Open(fixture.InputPath)
	if err != nil {
		result.Err = &execution.FixtureRunError{Fixture: fixture.Name, Err: fmt.Errorf("open input: %w", err)}
		result.ActualOutputPath = ""
		return result
	}
	defer input.Close()

	tmpPath := scratch.SiblingTemp(fixture.OutputPath, r.token)
	output, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		result.Err = &execution.FixtureRunError{Fixture: fixture.Name, Err: fmt.Errorf("create output: %w", err)}
		result.ActualOutputPath = ""
		return result
	}
	defer func() {
		if rmErr := os.Remove(tmpPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			r.logger.Warn("failed to remove scratch output", "path", tmpPath, "err", rmErr)
		}
	}()

	run, runErr := r.prepared.Run(ctx, input, output)
	closeErr := output.Close()

	if ctx.Err() != nil {
		result.Err = ctx.Err()
		result.ActualOutputPath = ""
		return result
	}

	if run != nil {
		result.Duration = run.Duration
		result.ExitCode = run.ExitCode
		result.TimedOut = run.TimedOut
		result.Stderr = run.Stderr
	}
	if runErr != nil {
		result.Err = &execution.FixtureRunError{Fixture: fixture.Name, Err: runErr}
	} else if closeErr != nil {
		result.Err = &execution.FixtureRunError{Fixture: fixture.Name, Err: fmt.Errorf("close output: %w", closeErr)}
	}

	if err := os.Rename(tmpPath, fixture.OutputPath); err != nil {
		result.Err = errors.Join(result.Err, &execution.FixtureRunError{Fixture: fixture.Name, Err: fmt.Errorf("store output: %w", err)})
		result.ActualOutputPath = ""
	}

	if result.Stderr != "" {
		r.logger.Debug("program stderr", "fixture", fixture.Name, "stderr", result.Stderr)
	}

	return result
}
