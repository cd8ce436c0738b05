package rbd

import (
	"context"
	"io"
)

// Runner executes rbd with the given arguments.
// This allows the same Manager to drive local and remote clusters, and to be
// replaced in tests.
type Runner interface {
	// Output runs the command and returns its standard output.
	Output(ctx context.Context, args []string) ([]byte, error)

	// Stream runs the command with standard output connected to stdout.
	Stream(ctx context.Context, args []string, stdout io.Writer) error
}

// Manager coordinates rbd image operations against one cluster.
type Manager struct {
	runner Runner
}

// NewManager creates a new image manager.
func NewManager(runner Runner) *Manager {
	return &Manager{
		runner: runner,
	}
}
