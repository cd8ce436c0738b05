package rbd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ListImages lists all images in a pool, in the order rbd reports them.
func (m *Manager) ListImages(ctx context.Context, pool string) ([]string, error) {
	out, err := m.runner.Output(ctx, []string{"ls", "--pool", pool})
	if err != nil {
		return nil, fmt.Errorf("failed to list images in pool %s: %w", pool, err)
	}

	var images []string
	for _, line := range strings.Split(string(out), "\n") {
		// Skip blank lines
		if name := strings.TrimSpace(line); name != "" {
			images = append(images, name)
		}
	}

	return images, nil
}

// ImageInfo gets detailed information about an image.
func (m *Manager) ImageInfo(ctx context.Context, ref Ref) (*ImageInfo, error) {
	out, err := m.runner.Output(ctx, infoArgs(ref, "--format", "json"))
	if err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) {
			return nil, fmt.Errorf("%w: %s: %w", ErrImageNotFound, ref, err)
		}
		return nil, fmt.Errorf("failed to get image info for %s: %w", ref, err)
	}

	var info ImageInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("failed to parse image info for %s: %w", ref, err)
	}
	info.Pool = ref.Pool

	return &info, nil
}

// ImageExists checks if an image exists.
// Any non-zero exit from "rbd info" counts as the image not existing; only
// failures to run the command are returned as errors.
func (m *Manager) ImageExists(ctx context.Context, ref Ref) (bool, error) {
	_, err := m.runner.Output(ctx, infoArgs(ref))
	if err == nil {
		return true, nil
	}

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return false, nil
	}

	return false, fmt.Errorf("failed to check if image %s exists: %w", ref, err)
}

// RemoveImage deletes an image.
// A missing image is not an error: the result is RemoveNotFound.
func (m *Manager) RemoveImage(ctx context.Context, ref Ref) (RemoveResult, error) {
	_, err := m.runner.Output(ctx, []string{"rm", "--pool", ref.Pool, "--image", ref.Image})
	if err == nil {
		return RemoveDeleted, nil
	}

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return "", fmt.Errorf("failed to run image removal for %s: %w", ref, err)
	}

	if cmdErr.ExitCode == exitNotFound {
		return RemoveNotFound, nil
	}

	return "", fmt.Errorf("%w %s: %w", ErrRemoveFailed, ref, err)
}

// Export streams the full contents of an image to w.
func (m *Manager) Export(ctx context.Context, ref Ref, w io.Writer) error {
	if err := m.runner.Stream(ctx, ExportArgs(ref), w); err != nil {
		return fmt.Errorf("failed to export %s: %w", ref, err)
	}
	return nil
}

func infoArgs(ref Ref, extra ...string) []string {
	args := []string{"info", "--pool", ref.Pool, "--image", ref.Image}
	return append(args, extra...)
}
