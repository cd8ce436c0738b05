package rbd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jbweber/rcopy/internal/selector"
)

// Ref names an image in a pool.
type Ref = selector.Ref

// DefaultBinary is the rbd executable looked up on PATH.
const DefaultBinary = "rbd"

// exitNotFound is the status "rbd rm" exits with when the image is missing (ENOENT).
const exitNotFound = 2

var (
	// ErrImageNotFound is returned when an image cannot be inspected.
	ErrImageNotFound = errors.New("image not found")

	// ErrRemoveFailed is returned when "rbd rm" fails for a reason other than
	// the image being absent.
	ErrRemoveFailed = errors.New("failed to remove image")
)

// CommandError reports a command that ran but exited non-zero.
type CommandError struct {
	Args     []string // Command line that was run
	ExitCode int      // Process exit status
	Stderr   []byte   // Captured standard error
}

// Error implements error.
func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s: exit status %d", strings.Join(e.Args, " "), e.ExitCode)
	if s := strings.TrimSpace(string(e.Stderr)); s != "" {
		msg += ": " + s
	}
	return msg
}

// ExitCode returns the exit status carried by err, or -1 if err is not a
// *CommandError.
func ExitCode(err error) int {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.ExitCode
	}
	return -1
}

// RemoveResult describes the outcome of RemoveImage.
type RemoveResult string

const (
	RemoveDeleted  RemoveResult = "deleted"   // Image existed and was removed
	RemoveNotFound RemoveResult = "not-found" // Image did not exist
)

// ImageInfo is the subset of "rbd info --format json" the copier uses.
type ImageInfo struct {
	Name            string   `json:"name"`
	ID              string   `json:"id,omitempty"`
	Size            uint64   `json:"size"`
	Objects         uint64   `json:"objects"`
	Order           int      `json:"order"`
	ObjectSize      uint64   `json:"object_size"`
	Format          int      `json:"format"`
	Features        []string `json:"features,omitempty"`
	DataPool        string   `json:"data_pool,omitempty"`
	CreateTimestamp string   `json:"create_timestamp,omitempty"`

	// Pool is not part of rbd's output; it is filled in from the request.
	Pool string `json:"-"`
}

// SizeGB returns the provisioned image size in GB.
func (i *ImageInfo) SizeGB() float64 {
	return float64(i.Size) / (1024 * 1024 * 1024)
}
