package local

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"fixrun/internal/domain/execution"
	"fixrun/internal/ports"
)

// waitDelay bounds how long Wait keeps draining stderr after the program
// exits while a grandchild still holds the pipe open.
const waitDelay = 2 * time.Second

type module struct {
	language execution.Language
	limits   execution.RunLimits
}

func newModule(lang execution.Language, limits execution.RunLimits) *module {
	return &module{language: lang, limits: limits.Normalize()}
}

func (m *module) Language() execution.Language {
	return m.language
}

func (m *module) Prepare(ctx context.Context, plan execution.RunPlan) (ports.PreparedProgram, error) {
	if plan.Language != m.language {
		return nil, fmt.Errorf("local runtime: plan language %q does not match module %q", plan.Language, m.language)
	}
	if len(plan.RunCommand) == 0 {
		return nil, fmt.Errorf("local runtime: plan has no run command")
	}

	if plan.NeedsCompile() {
		if err := compile(ctx, plan.CompileCommand); err != nil {
			return nil, err
		}
	}

	return &preparedProgram{command: plan.RunCommand, limits: m.limits}, nil
}

func (m *module) Close() error {
	return nil
}

func compile(ctx context.Context, command []string) error {
	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	output, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		return &execution.CompileError{
			Command:  command,
			ExitCode: int64(exitErr.ExitCode()),
			Output:   string(output),
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("run compiler %s: %w", command[0], err)
}

type preparedProgram struct {
	command []string
	limits  execution.RunLimits
}

func (p *preparedProgram) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) (*execution.Result, error) {
	runCtx := ctx
	var cancel context.CancelFunc
	if p.limits.TimeLimit > 0 {
		runCtx, cancel = context.WithTimeout(ctx, p.limits.TimeLimit)
		defer cancel()
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, p.command[0], p.command[1:]...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", p.command[0], err)
	}
	waitErr := cmd.Wait()
	result := &execution.Result{
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if ctx.Err() != nil {
		return result, ctx.Err()
	}
	if runCtx.Err() != nil {
		result.TimedOut = true
		result.ExitCode = -1
		return result, nil
	}

	var exitErr *exec.ExitError
	switch {
	case waitErr == nil, errors.Is(waitErr, exec.ErrWaitDelay):
	case errors.As(waitErr, &exitErr):
		result.ExitCode = int64(exitErr.ExitCode())
	default:
		return result, fmt.Errorf("wait for %s: %w", p.command[0], waitErr)
	}
	return result, nil
}

func (p *preparedProgram) Close() error {
	return nil
}
