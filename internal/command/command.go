package command

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Runner executes external commands. The build pipeline never talks to
// git, rpm, rpmbuild, or docker directly; it goes through a Runner so
// tests can substitute fakes.
type Runner interface {
	// Run executes a command with stdout and stderr attached to the
	// process's own streams. Used for long-running tool invocations
	// whose output the user should see live.
	Run(ctx context.Context, dir, name string, args ...string) error

	// Output executes a command and returns its captured stdout.
	// Stderr is captured and folded into the returned error.
	Output(ctx context.Context, dir, name string, args ...string) ([]byte, error)

	// Stream executes a command with stdout written to w. Stderr is
	// captured and folded into the returned error.
	Stream(ctx context.Context, w io.Writer, dir, name string, args ...string) error
}

// ExecRunner runs commands via os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (ExecRunner) Output(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, commandError(name, err, &stderr)
	}
	return stdout.Bytes(), nil
}

func (ExecRunner) Stream(ctx context.Context, w io.Writer, dir, name string, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = w
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return commandError(name, err, &stderr)
	}
	return nil
}

func commandError(name string, err error, stderr *bytes.Buffer) error {
	detail := strings.TrimSpace(stderr.String())
	if detail == "" {
		return fmt.Errorf("%s: %w", name, err)
	}
	return fmt.Errorf("%s: %w: %s", name, err, detail)
}
