package docker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	typesimage "github.com/docker/docker/api/types/image"

	"fixrun/internal/domain/execution"
)

type containerEngine struct {
	cli    dockerClient
	limits execution.RunLimits
}

func newContainerEngine(cli dockerClient, limits execution.RunLimits) *containerEngine {
	return &containerEngine{
		cli:    cli,
		limits: limits.Normalize(),
	}
}

func (c *containerEngine) pullImage(ctx context.Context, ref string) error {
	reader, err := c.cli.ImagePull(ctx, ref, typesimage.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull image %s: %w", ref, err)
	}
	defer reader.Close()
	_, err = io.Copy(io.Discard, reader)
	if err != nil {
		return fmt.Errorf("consume pull output for %s: %w", ref, err)
	}
	return nil
}

// runProgram starts a fresh container, streams stdin into it and copies the
// demultiplexed stdout into the writer once the container exits.
func (c *containerEngine) runProgram(
	ctx context.Context,
	image string,
	workdir string,
	command []string,
	files []fileSpec,
	stdin io.Reader,
	stdout io.Writer,
) (*execution.Result, error) {
	timeLimit := c.limits.TimeLimit
	attachStdin := stdin != nil

	containerID, cleanup, err := c.createContainer(ctx, image, workdir, command, attachStdin)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if err := c.copyFiles(ctx, containerID, workdir, files); err != nil {
		return nil, fmt.Errorf("copy files: %w", err)
	}

	var attach types.HijackedResponse
	if attachStdin {
		attach, err = c.cli.ContainerAttach(ctx, containerID, container.AttachOptions{
			Stream: true,
			Stdin:  true,
		})
		if err != nil {
			return nil, fmt.Errorf("attach container: %w", err)
		}
		defer attach.Close()
	}

	start := time.Now()
	if err := c.cli.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("start container: %w", err)
	}

	if attachStdin && attach.Conn != nil {
		if _, err := io.Copy(attach.Conn, stdin); err != nil {
			return nil, fmt.Errorf("write stdin: %w", err)
		}
		if closer, ok := attach.Conn.(interface{ CloseWrite() error }); ok {
			_ = closer.CloseWrite()
		}
	}

	waitCtx := ctx
	var cancel context.CancelFunc
	if timeLimit > 0 {
		waitCtx, cancel = context.WithTimeout(ctx, timeLimit)
	}
	status, err := c.waitForExit(waitCtx, containerID)
	if cancel != nil {
		cancel()
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && timeLimit > 0 && ctx.Err() == nil {
			return c.handleTimeLimit(containerID, start, stdout)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	duration := time.Since(start)

	var stderr bytes.Buffer
	if err := c.fetchLogs(ctx, containerID, stdout, &stderr); err != nil {
		return nil, fmt.Errorf("fetch logs: %w", err)
	}

	return &execution.Result{
		Stderr:   stderr.String(),
		ExitCode: status.StatusCode,
		Duration: duration,
	}, nil
}

func (c *containerEngine) createContainer(ctx context.Context, image, workdir string, cmd []string, attachStdin bool) (string, func(), error) {
	resp, err := c.cli.ContainerCreate(
		ctx,
		&container.Config{
			Image:        image,
			Cmd:          cmd,
			AttachStdout: true,
			AttachStderr: true,
			AttachStdin:  attachStdin,
			OpenStdin:    attachStdin,
			StdinOnce:    attachStdin,
			WorkingDir:   workdir,
		},
		&container.HostConfig{},
		nil,
		nil,
		"",
	)
	if err != nil {
		return "", nil, fmt.Errorf("create container: %w", err)
	}

	cleanup := func() {
		_ = c.cli.ContainerRemove(context.Background(), resp.ID, container.RemoveOptions{Force: true})
	}

	return resp.ID, cleanup, nil
}
