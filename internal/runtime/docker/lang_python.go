package docker

import (
	"context"
	"fmt"
	"io"
	"os"

	"fixrun/internal/domain/execution"
	"fixrun/internal/ports"
)

// interpretedStrategy copies the script into every run container.
type interpretedStrategy struct {
	sourceFilename string
}

func (p *interpretedStrategy) Prepare(ctx context.Context, m *module, plan execution.RunPlan) (ports.PreparedProgram, error) {
	source, err := os.ReadFile(plan.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}

	return &interpretedProgram{
		module:         m,
		sourceFilename: p.sourceFilename,
		source:         source,
		command: containerCommand(plan.RunCommand, m.config.Workdir, map[string]string{
			plan.SourcePath: p.sourceFilename,
		}),
	}, nil
}

type interpretedProgram struct {
	module         *module
	sourceFilename string
	source         []byte
	command        []string
}

func (p *interpretedProgram) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) (*execution.Result, error) {
	cfg := p.module.config
	return p.module.engine.runProgram(ctx, cfg.RunImage, cfg.Workdir, p.command, []fileSpec{
		{
			Name: p.sourceFilename,
			Mode: 0o644,
			Data: p.source,
		},
	}, stdin, stdout)
}

func (p *interpretedProgram) Close() error {
	return nil
}
