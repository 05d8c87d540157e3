package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/docker/docker/api/types/container"

	"fixrun/internal/domain/execution"
	"fixrun/internal/ports"
)

// compiledStrategy builds C and C++ sources inside the toolchain image and
// runs the extracted binary in a fresh container per fixture.
type compiledStrategy struct {
	sourceFilename string
}

func (c *compiledStrategy) Prepare(ctx context.Context, m *module, plan execution.RunPlan) (ports.PreparedProgram, error) {
	source, err := os.ReadFile(plan.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}

	command := containerCommand(plan.CompileCommand, m.config.Workdir, map[string]string{
		plan.SourcePath: c.sourceFilename,
		plan.BinaryPath: binaryFilename,
	})

	containerID, cleanup, err := m.engine.createContainer(ctx, m.config.Image, m.config.Workdir, command, false)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if err := m.engine.copyFiles(ctx, containerID, m.config.Workdir, []fileSpec{
		{
			Name: c.sourceFilename,
			Mode: 0o644,
			Data: source,
		},
	}); err != nil {
		return nil, fmt.Errorf("copy source: %w", err)
	}

	if err := m.engine.cli.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("start container: %w", err)
	}

	status, err := m.engine.waitForExit(ctx, containerID)
	if err != nil {
		return nil, err
	}

	var output bytes.Buffer
	if err := m.engine.fetchLogs(ctx, containerID, &output, &output); err != nil {
		return nil, fmt.Errorf("fetch logs: %w", err)
	}

	if status.StatusCode != 0 {
		return nil, &execution.CompileError{
			Command:  plan.CompileCommand,
			ExitCode: status.StatusCode,
			Output:   output.String(),
		}
	}

	binaryPath := path.Join(m.config.Workdir, binaryFilename)
	binaryData, err := m.engine.extractFile(ctx, containerID, binaryPath)
	if err != nil {
		return nil, fmt.Errorf("extract compiled binary: %w", err)
	}

	return &compiledProgram{
		module: m,
		binary: binaryData,
	}, nil
}

type compiledProgram struct {
	module *module
	binary []byte
}

func (c *compiledProgram) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) (*execution.Result, error) {
	cfg := c.module.config
	return c.module.engine.runProgram(ctx, cfg.RunImage, cfg.Workdir, []string{path.Join(cfg.Workdir, binaryFilename)}, []fileSpec{
		{
			Name: binaryFilename,
			Mode: 0o755,
			Data: c.binary,
		},
	}, stdin, stdout)
}

func (c *compiledProgram) Close() error {
	return nil
}
