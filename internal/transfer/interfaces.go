package transfer

import (
	"context"
	"io"

	"github.com/jbweber/rcopy/internal/rbd"
)

// sourceImages defines the rbd operations needed on the local cluster.
//
// In production, this is satisfied by *rbd.Manager with a LocalRunner.
// In tests, this is satisfied by mock implementations.
type sourceImages interface {
	// ImageExists checks if an image exists
	ImageExists(ctx context.Context, ref rbd.Ref) (bool, error)

	// ImageInfo gets image details, used to size the progress bar
	ImageInfo(ctx context.Context, ref rbd.Ref) (*rbd.ImageInfo, error)

	// Export streams the image contents to w
	Export(ctx context.Context, ref rbd.Ref, w io.Writer) error
}

// destinationImages defines the rbd operations needed on the destination cluster.
//
// In production, this is satisfied by *rbd.Manager with a ShellRunner over SSH.
type destinationImages interface {
	// ImageExists checks if an image exists
	ImageExists(ctx context.Context, ref rbd.Ref) (bool, error)

	// RemoveImage deletes an image, reporting whether it was there
	RemoveImage(ctx context.Context, ref rbd.Ref) (rbd.RemoveResult, error)
}

// ImageLister is what Plan needs to resolve a source selector.
//
// In production, this is satisfied by *rbd.Manager.
type ImageLister interface {
	ListImages(ctx context.Context, pool string) ([]string, error)
	ImageExists(ctx context.Context, ref rbd.Ref) (bool, error)
}

// launcher starts the import pipeline on the destination host.
type launcher interface {
	Launch(ctx context.Context, command string) (process, error)
}

// process is a remote command started by a launcher.
//
// In production, this is satisfied by *remote.Process.
type process interface {
	// Wait blocks until the command exits
	Wait() error

	// Kill terminates the command
	Kill()
}
