package rbd

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// mockResponse is a canned result for one rbd command line.
type mockResponse struct {
	stdout string
	exit   int   // non-zero yields a *CommandError
	err    error // transport-level failure
}

// mockRunner is a mock implementation of Runner for testing.
type mockRunner struct {
	responses map[string]mockResponse // joined args -> response

	// Call tracking
	calls []string
}

func newMockRunner() *mockRunner {
	return &mockRunner{
		responses: make(map[string]mockResponse),
	}
}

func (m *mockRunner) on(args string, resp mockResponse) {
	m.responses[args] = resp
}

func (m *mockRunner) Output(ctx context.Context, args []string) ([]byte, error) {
	var sb strings.Builder
	err := m.Stream(ctx, args, &sb)
	return []byte(sb.String()), err
}

func (m *mockRunner) Stream(ctx context.Context, args []string, stdout io.Writer) error {
	key := strings.Join(args, " ")
	m.calls = append(m.calls, key)

	resp, ok := m.responses[key]
	if !ok {
		return fmt.Errorf("unexpected command: %s", key)
	}
	if resp.err != nil {
		return resp.err
	}
	if _, err := io.WriteString(stdout, resp.stdout); err != nil {
		return err
	}
	if resp.exit != 0 {
		return &CommandError{
			Args:     append([]string{"rbd"}, args...),
			ExitCode: resp.exit,
			Stderr:   []byte("rbd: error"),
		}
	}
	return nil
}

// mockShell is a mock implementation of Shell for testing.
type mockShell struct {
	status int
	stdout string
	stderr string
	err    error

	commands []string
}

func (m *mockShell) Exec(ctx context.Context, command string, stdout io.Writer) (int, []byte, error) {
	m.commands = append(m.commands, command)
	if m.err != nil {
		return -1, nil, m.err
	}
	if _, err := io.WriteString(stdout, m.stdout); err != nil {
		return -1, nil, err
	}
	return m.status, []byte(m.stderr), nil
}
