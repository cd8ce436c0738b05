package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/jbweber/rcopy/api/v1alpha1"
	"github.com/jbweber/rcopy/internal/rbd"
	"github.com/jbweber/rcopy/internal/remote"
	"github.com/jbweber/rcopy/internal/selector"
	"github.com/jbweber/rcopy/internal/status"
)

const (
	// DefaultPort is the TCP port the remote listener accepts the stream on.
	DefaultPort = 19000

	// DefaultSettleDelay is how long to wait for the remote listener to start.
	DefaultSettleDelay = 2 * time.Second

	// DefaultBetweenDelay is the pause between consecutive transfers.
	DefaultBetweenDelay = 5 * time.Second

	// dialTimeout bounds the connection to the remote listener.
	dialTimeout = 15 * time.Second
)

// ErrDestinationExists is returned when the destination image exists and
// Force is not set.
var ErrDestinationExists = errors.New("the destination image exists. Please use --force/-f to overwrite")

// Options configures a Copier.
type Options struct {
	// Host is the destination host the stream is sent to.
	Host string
	// Port is the listener port. Defaults to DefaultPort.
	Port int
	// DataPool is passed to rbd import as --data-pool when set.
	DataPool string
	// Force removes an existing destination image instead of failing.
	Force bool
	// ListenCommand is the remote listener; the port is appended.
	// Defaults to rbd.DefaultListenCommand.
	ListenCommand string
	// RBDBinary is the rbd executable on the destination host.
	RBDBinary string
	// SettleDelay is the pause between starting the listener and connecting.
	SettleDelay time.Duration
	// BetweenDelay is the pause between transfers when copying several images.
	BetweenDelay time.Duration
	// Progress renders a byte progress bar while streaming.
	Progress bool

	// Out receives the user-facing progress lines. Defaults to os.Stdout.
	Out io.Writer
	// Logger receives diagnostics. Defaults to the logrus standard logger.
	Logger logrus.FieldLogger
}

// withDefaults fills in the port, listener and rbd binary.
func (o Options) withDefaults() Options {
	if o.Port == 0 {
		o.Port = DefaultPort
	}
	if o.ListenCommand == "" {
		o.ListenCommand = rbd.DefaultListenCommand
	}
	if o.RBDBinary == "" {
		o.RBDBinary = rbd.DefaultBinary
	}
	return o
}

// importCommand is the remote shell line that receives pair's image.
func (o Options) importCommand(dest rbd.Ref) string {
	return rbd.ImportPipeline(o.ListenCommand, o.Port, o.RBDBinary, dest, o.DataPool)
}

// NewRecord creates the Pending transfer record for pair: the spec from opts,
// the pool labels and the commands the transfer runs as annotations.
func NewRecord(pair selector.Pair, opts Options) *v1alpha1.ImageTransfer {
	opts = opts.withDefaults()

	tr := v1alpha1.NewImageTransfer(pair.Source.String(), pair.Destination.String())
	tr.Spec.DataPool = opts.DataPool
	tr.Spec.Force = opts.Force
	tr.Spec.Host = opts.Host
	tr.Spec.Port = opts.Port
	tr.SetAnnotation(v1alpha1.AnnotationImportCommand, opts.importCommand(pair.Destination))
	tr.SetAnnotation(v1alpha1.AnnotationExportCommand, rbd.CommandLine(opts.RBDBinary, rbd.ExportArgs(pair.Source)))
	return tr
}

// Copier copies images from the local cluster to a destination host.
type Copier struct {
	local    sourceImages
	remote   destinationImages
	launcher launcher
	dial     func(ctx context.Context, network, address string) (net.Conn, error)
	sleep    func(ctx context.Context, d time.Duration) error

	opts Options
	out  io.Writer
	log  logrus.FieldLogger
}

// NewCopier creates a Copier that exports from local, manages destination
// images through dest and starts the import pipeline over client.
func NewCopier(local, dest *rbd.Manager, client *remote.Client, opts Options) *Copier {
	return newCopierWithDeps(local, dest, sshLauncher{client: client}, opts)
}

// newCopierWithDeps creates a Copier with injected dependencies.
func newCopierWithDeps(local sourceImages, dest destinationImages, l launcher, opts Options) *Copier {
	opts = opts.withDefaults()

	c := &Copier{
		local:    local,
		remote:   dest,
		launcher: l,
		dial:     (&net.Dialer{Timeout: dialTimeout}).DialContext,
		sleep:    sleepContext,
		opts:     opts,
		out:      opts.Out,
		log:      opts.Logger,
	}
	if c.out == nil {
		c.out = os.Stdout
	}
	if c.log == nil {
		c.log = logrus.StandardLogger()
	}
	return c
}

// Run copies every pair in order, pausing BetweenDelay between transfers
// when there is more than one. It stops at the first failure and returns the
// transfers attempted so far, the failed one last.
func (c *Copier) Run(ctx context.Context, pairs []selector.Pair) ([]*v1alpha1.ImageTransfer, error) {
	transfers := make([]*v1alpha1.ImageTransfer, 0, len(pairs))

	for i, pair := range pairs {
		_, _ = fmt.Fprintf(c.out, "Migrating %s to %s\n", pair.Source, pair.Destination)

		tr, err := c.Copy(ctx, pair)
		transfers = append(transfers, tr)
		if err != nil {
			return transfers, err
		}

		if len(pairs) > 1 && i < len(pairs)-1 {
			if err := c.sleep(ctx, c.opts.BetweenDelay); err != nil {
				return transfers, err
			}
		}
	}

	return transfers, nil
}

// Copy copies a single image:
//  1. Apply the destination conflict policy
//  2. Start "nc -l PORT | rbd import" on the destination host
//  3. Wait SettleDelay for the listener to come up
//  4. Stream "rbd export" into a TCP connection to the listener
//  5. Wait for both the export and the remote import to finish
//
// The returned transfer is never nil and records the outcome either way.
func (c *Copier) Copy(ctx context.Context, pair selector.Pair) (*v1alpha1.ImageTransfer, error) {
	tr := NewRecord(pair, c.opts)

	log := c.log.WithFields(logrus.Fields{
		"transfer":    tr.UID,
		"source":      pair.Source.String(),
		"destination": pair.Destination.String(),
	})

	if err := status.TransitionToPreparing(tr); err != nil {
		return tr, err
	}

	if reason, err := c.prepareDestination(ctx, tr, pair.Destination); err != nil {
		status.TransitionToFailed(tr, reason, err)
		return tr, err
	}

	command := c.opts.importCommand(pair.Destination)
	log.WithField("command", command).Info("Starting remote import")

	proc, err := c.launcher.Launch(ctx, command)
	if err != nil {
		err = fmt.Errorf("failed to start remote listener on %s: %w", c.opts.Host, err)
		status.TransitionToFailed(tr, "ListenerFailed", err)
		return tr, err
	}
	status.MarkListenerStarted(tr, command)

	// The listener gives no readiness signal
	if err := c.sleep(ctx, c.opts.SettleDelay); err != nil {
		stop(proc)
		status.TransitionToFailed(tr, "Cancelled", err)
		return tr, err
	}

	if err := status.TransitionToTransferring(tr); err != nil {
		stop(proc)
		return tr, err
	}

	sent, reason, err := c.stream(ctx, pair.Source, proc, log)
	tr.Status.BytesSent = sent
	if err != nil {
		status.TransitionToFailed(tr, reason, err)
		return tr, err
	}

	if err := status.TransitionToCompleted(tr, sent); err != nil {
		return tr, err
	}
	log.WithFields(logrus.Fields{
		"bytes":    sent,
		"duration": tr.Duration().Round(time.Millisecond).String(),
	}).Info("Transfer complete")

	return tr, nil
}

// prepareDestination applies the conflict policy. On failure it returns the
// condition reason to record alongside the error.
func (c *Copier) prepareDestination(ctx context.Context, tr *v1alpha1.ImageTransfer, dest rbd.Ref) (string, error) {
	if c.opts.Force {
		result, err := c.remote.RemoveImage(ctx, dest)
		if err != nil {
			return "RemoveFailed", fmt.Errorf("failed to delete image %s: %w", dest, err)
		}

		switch result {
		case rbd.RemoveDeleted:
			_, _ = fmt.Fprintln(c.out, "Destination image was deleted. We will now recreate it")
			status.MarkDestinationPrepared(tr, "Deleted", "Existing destination image deleted")
		case rbd.RemoveNotFound:
			_, _ = fmt.Fprintln(c.out, "Destination image does not exist. We will create a new one")
			status.MarkDestinationPrepared(tr, "NotFound", "Destination image did not exist")
		}
		return "", nil
	}

	exists, err := c.remote.ImageExists(ctx, dest)
	if err != nil {
		return "DestinationCheckFailed", err
	}
	if exists {
		return "DestinationExists", fmt.Errorf("%w: %s", ErrDestinationExists, dest)
	}

	status.MarkDestinationPrepared(tr, "NotFound", "Destination image does not exist")
	return "", nil
}

// stream relays the export to the listener and waits for the remote import.
// It returns the bytes sent and, on failure, the condition reason of whichever
// side failed first.
func (c *Copier) stream(ctx context.Context, src rbd.Ref, proc process, log logrus.FieldLogger) (int64, string, error) {
	addr := net.JoinHostPort(c.opts.Host, strconv.Itoa(c.opts.Port))
	log.WithFields(logrus.Fields{
		"command": rbd.CommandLine(c.opts.RBDBinary, rbd.ExportArgs(src)),
		"addr":    addr,
	}).Info("Starting export")

	conn, err := c.dial(ctx, "tcp", addr)
	if err != nil {
		stop(proc)
		return 0, "ConnectFailed", fmt.Errorf("failed to connect to remote listener at %s: %w", addr, err)
	}
	defer func() { _ = conn.Close() }()

	counter := &countingWriter{w: conn}
	var w io.Writer = counter
	var bar *progressbar.ProgressBar
	if c.opts.Progress {
		bar = c.newProgressBar(ctx, src, log)
		w = io.MultiWriter(counter, bar)
	}

	var (
		mu     sync.Mutex
		reason string
		cause  error
	)
	fail := func(r string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if cause == nil {
			reason, cause = r, err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := c.local.Export(gctx, src, w); err != nil {
			fail("ExportFailed", err)
			proc.Kill()
			return err
		}
		if err := closeWrite(conn); err != nil {
			err = fmt.Errorf("failed to close stream to %s: %w", addr, err)
			fail("StreamFailed", err)
			proc.Kill()
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := proc.Wait(); err != nil {
			err = fmt.Errorf("remote import on %s failed: %w", c.opts.Host, err)
			fail("ImportFailed", err)
			_ = conn.Close()
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return counter.Count(), "Cancelled", ctx.Err()
		}
		return counter.Count(), reason, cause
	}

	if bar != nil {
		_ = bar.Finish()
	}
	return counter.Count(), "", nil
}

func (c *Copier) newProgressBar(ctx context.Context, src rbd.Ref, log logrus.FieldLogger) *progressbar.ProgressBar {
	size := int64(-1)
	if info, err := c.local.ImageInfo(ctx, src); err == nil {
		size = int64(info.Size)
	} else {
		log.WithError(err).Debug("Image size unknown, showing a spinner")
	}

	return progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionSetDescription(src.String()),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(10),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprint(c.out, "\n")
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// sshLauncher starts the import pipeline over an SSH connection.
type sshLauncher struct {
	client *remote.Client
}

// Launch implements launcher.
func (l sshLauncher) Launch(ctx context.Context, command string) (process, error) {
	p, err := l.client.Start(ctx, command)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// stop kills a started process and reaps it.
func stop(p process) {
	p.Kill()
	_ = p.Wait()
}

// closeWrite half-closes conn so the listener sees end of stream.
func closeWrite(conn net.Conn) error {
	if cw, ok := conn.(interface{ CloseWrite() error }); ok {
		return cw.CloseWrite()
	}
	return conn.Close()
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// countingWriter counts bytes written through it.
type countingWriter struct {
	w io.Writer
	n atomic.Int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n.Add(int64(n))
	return n, err
}

// Count returns the bytes written so far.
func (cw *countingWriter) Count() int64 {
	return cw.n.Load()
}
