package transfer

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/jbweber/rcopy/internal/rbd"
)

var errKilled = errors.New("killed")

// mockSource is a mock implementation of the sourceImages interface for testing.
type mockSource struct {
	mu sync.Mutex

	// Configurable behavior
	imageExistsFunc func(ref rbd.Ref) (bool, error)
	imageInfoFunc   func(ref rbd.Ref) (*rbd.ImageInfo, error)
	exportFunc      func(ctx context.Context, ref rbd.Ref, w io.Writer) error

	// Call tracking
	exportCalls []rbd.Ref
}

// newMockSource creates a mock whose images all exist and export payload.
func newMockSource(payload []byte) *mockSource {
	return &mockSource{
		imageExistsFunc: func(ref rbd.Ref) (bool, error) { return true, nil },
		imageInfoFunc: func(ref rbd.Ref) (*rbd.ImageInfo, error) {
			return &rbd.ImageInfo{Name: ref.Image, Pool: ref.Pool, Size: uint64(len(payload))}, nil
		},
		exportFunc: func(ctx context.Context, ref rbd.Ref, w io.Writer) error {
			_, err := w.Write(payload)
			return err
		},
	}
}

func (m *mockSource) ImageExists(ctx context.Context, ref rbd.Ref) (bool, error) {
	return m.imageExistsFunc(ref)
}

func (m *mockSource) ImageInfo(ctx context.Context, ref rbd.Ref) (*rbd.ImageInfo, error) {
	return m.imageInfoFunc(ref)
}

func (m *mockSource) Export(ctx context.Context, ref rbd.Ref, w io.Writer) error {
	m.mu.Lock()
	m.exportCalls = append(m.exportCalls, ref)
	m.mu.Unlock()
	return m.exportFunc(ctx, ref, w)
}

// mockDestination is a mock implementation of the destinationImages interface.
type mockDestination struct {
	imageExistsFunc func(ref rbd.Ref) (bool, error)
	removeImageFunc func(ref rbd.Ref) (rbd.RemoveResult, error)

	imageExistsCalls []rbd.Ref
	removeImageCalls []rbd.Ref
}

// newMockDestination creates a mock with an empty destination pool.
func newMockDestination() *mockDestination {
	return &mockDestination{
		imageExistsFunc: func(ref rbd.Ref) (bool, error) { return false, nil },
		removeImageFunc: func(ref rbd.Ref) (rbd.RemoveResult, error) { return rbd.RemoveNotFound, nil },
	}
}

func (m *mockDestination) ImageExists(ctx context.Context, ref rbd.Ref) (bool, error) {
	m.imageExistsCalls = append(m.imageExistsCalls, ref)
	return m.imageExistsFunc(ref)
}

func (m *mockDestination) RemoveImage(ctx context.Context, ref rbd.Ref) (rbd.RemoveResult, error) {
	m.removeImageCalls = append(m.removeImageCalls, ref)
	return m.removeImageFunc(ref)
}

// mockProcess stands in for the remote "nc -l | rbd import" pipeline.
type mockProcess struct {
	done     chan struct{}
	killed   chan struct{}
	killOnce sync.Once
	err      error
}

func newMockProcess() *mockProcess {
	return &mockProcess{
		done:   make(chan struct{}),
		killed: make(chan struct{}),
	}
}

func (p *mockProcess) Wait() error {
	select {
	case <-p.done:
		return p.err
	case <-p.killed:
		return errKilled
	}
}

func (p *mockProcess) Kill() {
	p.killOnce.Do(func() { close(p.killed) })
}

func (p *mockProcess) wasKilled() bool {
	select {
	case <-p.killed:
		return true
	default:
		return false
	}
}

// mockLauncher accepts one connection per launch on a real TCP listener and
// records everything received, like nc -l piped into rbd import.
type mockLauncher struct {
	mu sync.Mutex
	ln net.Listener

	// importErr is returned by the process after the stream is consumed.
	importErr error
	// failEarly makes the process exit with importErr without reading.
	failEarly bool
	// launchErr makes Launch itself fail.
	launchErr error

	commands  []string
	processes []*mockProcess
	received  [][]byte
}

func newMockLauncher(t *testing.T) *mockLauncher {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })
	return &mockLauncher{ln: ln}
}

func (m *mockLauncher) port() int {
	return m.ln.Addr().(*net.TCPAddr).Port
}

func (m *mockLauncher) Launch(ctx context.Context, command string) (process, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.commands = append(m.commands, command)
	if m.launchErr != nil {
		return nil, m.launchErr
	}

	p := newMockProcess()
	m.processes = append(m.processes, p)
	idx := len(m.received)
	m.received = append(m.received, nil)

	if m.failEarly {
		p.err = m.importErr
		close(p.done)
		return p, nil
	}

	go func() {
		conn, err := m.ln.Accept()
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()

		data, _ := io.ReadAll(conn)
		m.mu.Lock()
		m.received[idx] = data
		m.mu.Unlock()

		p.err = m.importErr
		close(p.done)
	}()

	return p, nil
}

func (m *mockLauncher) receivedAt(i int) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.received[i]
}

// recordingSleep replaces sleepContext and records requested delays.
type recordingSleep struct {
	mu     sync.Mutex
	delays []time.Duration
	err    error
}

func (s *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return s.err
}
