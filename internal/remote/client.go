package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"
)

// Client wraps an SSH connection to the destination host.
type Client struct {
	conn     *ssh.Client
	addr     string
	hostname string
	log      logrus.FieldLogger
	closer   func()
}

// Result is the outcome of a command that ran to completion.
type Result struct {
	ExitStatus int
	Stdout     []byte
	Stderr     []byte
}

// ExitError reports a started command that exited non-zero.
type ExitError struct {
	Command string
	Status  int
	Stderr  []byte
}

// Error implements error.
func (e *ExitError) Error() string {
	msg := fmt.Sprintf("remote command %q exited with status %d", e.Command, e.Status)
	if s := string(bytes.TrimSpace(e.Stderr)); s != "" {
		msg += ": " + s
	}
	return msg
}

// Connect establishes an SSH connection to opts.Host.
// It returns a Client that must be closed via Close() when done.
//
// If opts.Timeout is zero, defaults to 15 seconds.
func Connect(opts Options) (*Client, error) {
	return ConnectWithContext(context.Background(), opts)
}

// ConnectWithContext establishes a connection with context support for cancellation.
func ConnectWithContext(ctx context.Context, opts Options) (*Client, error) {
	r, err := opts.resolve()
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	auths, cleanup, err := authMethods(r.keyFiles, opts.Passphrase, opts.Password, opts.KeyPath != "")
	if err != nil {
		return nil, err
	}

	hostKeyCB, err := hostKeyCallback(opts.KnownHosts, opts.StrictHostKey)
	if err != nil {
		cleanup()
		return nil, err
	}

	cfg := &ssh.ClientConfig{
		User:            r.user,
		Auth:            auths,
		HostKeyCallback: hostKeyCB,
		Timeout:         timeout,
	}

	logger.WithFields(logrus.Fields{"addr": r.addr, "user": r.user}).Debug("connecting")

	d := net.Dialer{Timeout: timeout}
	tcpConn, err := d.DialContext(ctx, "tcp", r.addr)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to connect to %s: %w", r.addr, err)
	}

	// The handshake is not context-aware; bound it by the dial timeout and ctx.
	stop := context.AfterFunc(ctx, func() { _ = tcpConn.Close() })
	c, chans, reqs, err := ssh.NewClientConn(tcpConn, r.addr, cfg)
	stop()
	if err != nil {
		_ = tcpConn.Close()
		cleanup()
		if ctx.Err() != nil {
			return nil, fmt.Errorf("connection cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("ssh handshake with %s failed: %w", r.addr, err)
	}

	return &Client{
		conn:     ssh.NewClient(c, chans, reqs),
		addr:     r.addr,
		hostname: r.hostname,
		log:      logger,
		closer:   cleanup,
	}, nil
}

// Addr returns the host:port the client is connected to.
func (c *Client) Addr() string {
	return c.addr
}

// Hostname returns the resolved destination host, after ~/.ssh/config
// HostName substitution. Other connections to the same machine should use it.
func (c *Client) Hostname() string {
	return c.hostname
}

// Close closes the SSH connection and releases resources.
// It is safe to call Close multiple times.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}

	err := c.conn.Close()
	c.conn = nil
	if c.closer != nil {
		c.closer()
	}
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("failed to close ssh connection: %w", err)
	}

	return nil
}

// Ping verifies the connection is alive by running a no-op remote command.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.Run(ctx, "true")
	if err != nil {
		return fmt.Errorf("ssh connection is dead: %w", err)
	}
	if res.ExitStatus != 0 {
		return fmt.Errorf("remote shell returned status %d for a no-op command", res.ExitStatus)
	}
	return nil
}

// Run executes command and captures its output.
func (c *Client) Run(ctx context.Context, command string) (Result, error) {
	var stdout bytes.Buffer
	status, stderr, err := c.Exec(ctx, command, &stdout)
	if err != nil {
		return Result{}, err
	}
	return Result{ExitStatus: status, Stdout: stdout.Bytes(), Stderr: stderr}, nil
}

// Exec executes command with standard output written to stdout and returns
// the exit status and captured standard error.
// Cancelling ctx kills the remote command.
func (c *Client) Exec(ctx context.Context, command string, stdout io.Writer) (int, []byte, error) {
	if c.conn == nil {
		return -1, nil, fmt.Errorf("client not connected")
	}

	session, err := c.conn.NewSession()
	if err != nil {
		return -1, nil, fmt.Errorf("failed to open ssh session: %w", err)
	}
	defer func() { _ = session.Close() }()

	if stdout == nil {
		stdout = io.Discard
	}
	var stderr bytes.Buffer
	session.Stdout = stdout
	session.Stderr = &stderr

	c.log.WithField("command", command).Debug("running remote command")

	stop := context.AfterFunc(ctx, func() { kill(session) })
	defer stop()

	err = session.Run(command)
	if err == nil {
		return 0, stderr.Bytes(), nil
	}
	if ctx.Err() != nil {
		return -1, stderr.Bytes(), ctx.Err()
	}

	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitStatus(), stderr.Bytes(), nil
	}

	return -1, stderr.Bytes(), fmt.Errorf("remote command %q failed: %w", command, err)
}

// Start starts command and returns without waiting for it to finish.
// Cancelling ctx kills the remote command.
func (c *Client) Start(ctx context.Context, command string) (*Process, error) {
	if c.conn == nil {
		return nil, fmt.Errorf("client not connected")
	}

	session, err := c.conn.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to open ssh session: %w", err)
	}

	p := &Process{
		command: command,
		session: session,
		ctx:     ctx,
	}
	session.Stdout = io.Discard
	session.Stderr = &p.stderr

	c.log.WithField("command", command).Debug("starting remote command")

	if err := session.Start(command); err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("failed to start remote command %q: %w", command, err)
	}
	p.stop = context.AfterFunc(ctx, func() { kill(session) })

	return p, nil
}

// Process is a command started with Client.Start.
type Process struct {
	command string
	session *ssh.Session
	ctx     context.Context
	stderr  bytes.Buffer
	stop    func() bool

	once    sync.Once
	waitErr error
}

// Wait waits for the command to exit. A non-zero exit is reported as
// *ExitError. Wait may be called more than once.
func (p *Process) Wait() error {
	p.once.Do(func() {
		err := p.session.Wait()
		p.stop()
		_ = p.session.Close()

		switch {
		case err == nil:
		case p.ctx.Err() != nil:
			p.waitErr = p.ctx.Err()
		default:
			var exitErr *ssh.ExitError
			if errors.As(err, &exitErr) {
				p.waitErr = &ExitError{Command: p.command, Status: exitErr.ExitStatus(), Stderr: p.stderr.Bytes()}
				return
			}
			p.waitErr = fmt.Errorf("remote command %q failed: %w", p.command, err)
		}
	})
	return p.waitErr
}

// Kill terminates the command without waiting for it.
func (p *Process) Kill() {
	kill(p.session)
}

// kill asks the server to signal the command, then closes the channel so
// pending reads return.
func kill(session *ssh.Session) {
	_ = session.Signal(ssh.SIGKILL)
	_ = session.Close()
}
