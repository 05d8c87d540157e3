package docker

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"fixrun/internal/domain/execution"
)

// fileSpec is a file placed into a container's workdir before it starts.
type fileSpec struct {
	Name string
	Mode int64
	Data []byte
}

func (f fileSpec) header(modTime time.Time) *tar.Header {
	mode := f.Mode
	if mode == 0 {
		mode = 0o644
	}
	return &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     f.Name,
		Mode:     mode,
		Size:     int64(len(f.Data)),
		ModTime:  modTime,
	}
}

// copyFiles streams files into workdir as a tar archive.
func (c *containerEngine) copyFiles(ctx context.Context, containerID, workdir string, files []fileSpec) error {
	if len(files) == 0 {
		return nil
	}

	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(writeArchive(pw, files))
	}()
	defer pr.Close()

	return c.cli.CopyToContainer(ctx, containerID, workdir, pr, types.CopyToContainerOptions{AllowOverwriteDirWithFile: true})
}

func writeArchive(w io.Writer, files []fileSpec) error {
	tw := tar.NewWriter(w)
	modTime := time.Now()
	for _, f := range files {
		if err := tw.WriteHeader(f.header(modTime)); err != nil {
			return fmt.Errorf("archive %s: %w", f.Name, err)
		}
		if _, err := tw.Write(f.Data); err != nil {
			return fmt.Errorf("archive %s: %w", f.Name, err)
		}
	}
	return tw.Close()
}

// extractFile reads a single regular file out of a container. Docker wraps
// the copy in a tar stream whose entry is named after the file's base name.
func (c *containerEngine) extractFile(ctx context.Context, containerID, srcPath string) ([]byte, error) {
	reader, stat, err := c.cli.CopyFromContainer(ctx, containerID, srcPath)
	if err != nil {
		return nil, fmt.Errorf("copy %s from container: %w", srcPath, err)
	}
	defer reader.Close()

	if stat.Mode.IsDir() {
		return nil, fmt.Errorf("copy %s from container: is a directory", srcPath)
	}
	want := stat.Name
	if want == "" {
		want = path.Base(srcPath)
	}

	tr := tar.NewReader(reader)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("copy %s from container: not in archive", srcPath)
		}
		if err != nil {
			return nil, fmt.Errorf("copy %s from container: %w", srcPath, err)
		}
		if header.Typeflag != tar.TypeReg || path.Clean(header.Name) != want {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("copy %s from container: %w", srcPath, err)
		}
		return data, nil
	}
}

// handleTimeLimit stops a container that overran its limit and still
// collects the output it produced so far.
func (c *containerEngine) handleTimeLimit(containerID string, start time.Time, stdout io.Writer) (*execution.Result, error) {
	stopCtx, cancelStop := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelStop()

	if err := c.cli.ContainerStop(stopCtx, containerID, container.StopOptions{}); err != nil && !client.IsErrNotFound(err) {
		return nil, fmt.Errorf("stop container after time limit: %w", err)
	}
	duration := time.Since(start)

	waitCtx, cancelWait := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelWait()

	status, waitErr := c.waitForExit(waitCtx, containerID)
	if waitErr != nil && !errors.Is(waitErr, context.DeadlineExceeded) && !client.IsErrNotFound(waitErr) {
		return nil, fmt.Errorf("wait for container after time limit: %w", waitErr)
	}

	var stderr bytes.Buffer
	if err := c.fetchLogs(context.Background(), containerID, stdout, &stderr); err != nil {
		return nil, fmt.Errorf("fetch logs: %w", err)
	}

	exitCode := int64(-1)
	if status != nil {
		exitCode = status.StatusCode
	}

	return &execution.Result{
		Stderr:   stderr.String(),
		ExitCode: exitCode,
		Duration: duration,
		TimedOut: true,
	}, nil
}

func (c *containerEngine) waitForExit(ctx context.Context, containerID string) (*container.WaitResponse, error) {
	statusCh, errCh := c.cli.ContainerWait(ctx, containerID, container.WaitConditionNotRunning)
	select {
	case status := <-statusCh:
		if status.Error != nil {
			return nil, fmt.Errorf("container error: %s", status.Error.Message)
		}
		return &status, nil
	case err := <-errCh:
		return nil, fmt.Errorf("wait for container: %w", err)
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for container: %w", ctx.Err())
	}
}

// fetchLogs demultiplexes the container's log stream into the writers.
func (c *containerEngine) fetchLogs(ctx context.Context, containerID string, stdout, stderr io.Writer) error {
	logs, err := c.cli.ContainerLogs(ctx, containerID, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return err
	}
	defer logs.Close()

	_, err = stdcopy.StdCopy(stdout, stderr, logs)
	return err
}
