package rbd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
)

// LocalRunner runs rbd on this host.
type LocalRunner struct {
	// Binary is the rbd executable. Defaults to DefaultBinary.
	Binary string
}

// Output implements Runner.
func (r LocalRunner) Output(ctx context.Context, args []string) ([]byte, error) {
	var stdout bytes.Buffer
	if err := r.run(ctx, args, &stdout); err != nil {
		return stdout.Bytes(), err
	}
	return stdout.Bytes(), nil
}

// Stream implements Runner.
func (r LocalRunner) Stream(ctx context.Context, args []string, stdout io.Writer) error {
	return r.run(ctx, args, stdout)
}

func (r LocalRunner) run(ctx context.Context, args []string, stdout io.Writer) error {
	binary := r.Binary
	if binary == "" {
		binary = DefaultBinary
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &CommandError{
			Args:     append([]string{binary}, args...),
			ExitCode: exitErr.ExitCode(),
			Stderr:   stderr.Bytes(),
		}
	}

	return fmt.Errorf("failed to run %s: %w", binary, err)
}

// Shell executes a command line on another host.
//
// In production, this is satisfied by *remote.Client.
type Shell interface {
	// Exec runs command, writing its standard output to stdout. A command that
	// ran to completion returns its exit status and captured stderr with a nil
	// error.
	Exec(ctx context.Context, command string, stdout io.Writer) (exitStatus int, stderr []byte, err error)
}

// ShellRunner runs rbd through a remote shell.
type ShellRunner struct {
	Shell Shell
	// Binary is the rbd executable on the remote host. Defaults to DefaultBinary.
	Binary string
}

// Output implements Runner.
func (r ShellRunner) Output(ctx context.Context, args []string) ([]byte, error) {
	var stdout bytes.Buffer
	if err := r.Stream(ctx, args, &stdout); err != nil {
		return stdout.Bytes(), err
	}
	return stdout.Bytes(), nil
}

// Stream implements Runner.
func (r ShellRunner) Stream(ctx context.Context, args []string, stdout io.Writer) error {
	binary := r.Binary
	if binary == "" {
		binary = DefaultBinary
	}

	status, stderr, err := r.Shell.Exec(ctx, CommandLine(binary, args), stdout)
	if err != nil {
		return err
	}
	if status != 0 {
		return &CommandError{
			Args:     append([]string{binary}, args...),
			ExitCode: status,
			Stderr:   stderr,
		}
	}
	return nil
}
