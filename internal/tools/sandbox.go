package tools

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/pitabwire/util"
)

// CommandResult is the outcome of running one child-process invocation,
// whether directly on the host or inside a container.
type CommandResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Sandbox executes a fixed argument vector against a working directory and
// returns its captured stdout/stderr and exit code. It never returns an
// error for a non-zero exit code — only for infrastructure failures
// (couldn't start the process, container API errors, timeouts).
type Sandbox interface {
	Run(ctx context.Context, name string, args []string, workdir string, timeout time.Duration) (CommandResult, error)
}

// ExecSandbox runs analyzers as ordinary host child processes. This is the
// default: static analyzers are almost always already available on the CI
// runner image, and shelling out avoids per-invocation container overhead.
type ExecSandbox struct{}

func (ExecSandbox) Run(ctx context.Context, name string, args []string, workdir string, timeout time.Duration) (CommandResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, name, args...)
	cmd.Dir = workdir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		return CommandResult{}, context.DeadlineExceeded
	}

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !isExitError(err, &exitErr) {
			return CommandResult{}, err
		}
		exitCode = exitErr.ExitCode()
	}

	return CommandResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes(), ExitCode: exitCode}, nil
}

func isExitError(err error, target **exec.ExitError) bool {
	ee, ok := err.(*exec.ExitError)
	if ok {
		*target = ee
	}
	return ok
}

// analyzerImage picks a lightweight image carrying the given tool binary
// when analysis must run in an isolated container rather than on the host.
var analyzerImage = map[string]string{
	"eslint":      "node:20-slim",
	"ruff":        "python:3.12-slim",
	"bandit":      "python:3.12-slim",
	"semgrep":     "returntocorp/semgrep:latest",
	"gosec":       "golang:1.22-alpine",
	"staticcheck": "golang:1.22-alpine",
	"govet":       "golang:1.22-alpine",
}

// DockerSandbox runs each invocation in a short-lived, network-disabled
// container that bind-mounts the review workdir read-write, adapted from
// the executor's per-job container lifecycle: create, start, wait with a
// deadline, collect logs, always remove.
type DockerSandbox struct {
	client *client.Client
}

// NewDockerSandbox connects to the local Docker daemon using the standard
// environment-derived configuration. Callers should treat a non-nil error
// as "Docker unavailable" and fall back to ExecSandbox.
func NewDockerSandbox() (*DockerSandbox, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return &DockerSandbox{client: cli}, nil
}

func (d *DockerSandbox) Run(ctx context.Context, name string, args []string, workdir string, timeout time.Duration) (CommandResult, error) {
	log := util.Log(ctx)
	image := analyzerImage[name]
	if image == "" {
		image = "alpine:latest"
	}

	cfg := &container.Config{
		Image:      image,
		Cmd:        append([]string{name}, args...),
		WorkingDir: "/work",
		Tty:        false,
	}
	hostCfg := &container.HostConfig{
		Mounts: []mount.Mount{
			{Type: mount.TypeBind, Source: workdir, Target: "/work"},
		},
		NetworkMode: "none",
		AutoRemove:  false,
	}

	resp, err := d.client.ContainerCreate(ctx, cfg, hostCfg, nil, nil, "")
	if err != nil {
		return CommandResult{}, fmt.Errorf("container create: %w", err)
	}
	defer d.cleanup(ctx, resp.ID)

	if err := d.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return CommandResult{}, fmt.Errorf("container start: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	statusCh, errCh := d.client.ContainerWait(waitCtx, resp.ID, container.WaitConditionNotRunning)

	var exitCode int64
	select {
	case err := <-errCh:
		if err != nil {
			_ = d.client.ContainerKill(ctx, resp.ID, "KILL")
			return CommandResult{}, err
		}
	case status := <-statusCh:
		exitCode = status.StatusCode
	case <-waitCtx.Done():
		_ = d.client.ContainerKill(ctx, resp.ID, "KILL")
		return CommandResult{}, context.DeadlineExceeded
	}

	stdout, stderr, err := d.logs(ctx, resp.ID)
	if err != nil {
		log.WithError(err).Warn("failed to fetch container logs")
	}

	return CommandResult{Stdout: stdout, Stderr: stderr, ExitCode: int(exitCode)}, nil
}

func (d *DockerSandbox) logs(ctx context.Context, containerID string) ([]byte, []byte, error) {
	rc, err := d.client.ContainerLogs(ctx, containerID, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, rc); err != nil && err != io.EOF {
		return stdout.Bytes(), stderr.Bytes(), err
	}
	return stdout.Bytes(), stderr.Bytes(), nil
}

func (d *DockerSandbox) cleanup(ctx context.Context, containerID string) {
	_ = d.client.ContainerStop(ctx, containerID, container.StopOptions{})
	_ = d.client.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true})
}
