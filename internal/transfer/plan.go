package transfer

import (
	"context"
	"errors"
	"fmt"

	"github.com/jbweber/rcopy/internal/selector"
)

// ErrSourceNotFound is returned when a single named source image is missing.
var ErrSourceNotFound = errors.New("the src image does not exist")

// Plan resolves the selectors into source/destination pairs.
//
// A wildcard source lists the pool and keeps the matching images; a wildcard
// that matches nothing yields no pairs and no error, even when the destination
// names a single image. A plain source must exist.
func Plan(ctx context.Context, src selector.Source, dest selector.Destination, images ImageLister) ([]selector.Pair, error) {
	var names []string

	if src.HasWildcard() {
		all, err := images.ListImages(ctx, src.Pool)
		if err != nil {
			return nil, err
		}
		names = selector.Filter(src, all)
		if len(names) == 0 {
			return []selector.Pair{}, nil
		}
	} else {
		exists, err := images.ImageExists(ctx, src.Ref())
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("%w: %s (trouble calling rbd info on it)", ErrSourceNotFound, src)
		}
		names = []string{src.Image}
	}

	return selector.Pairs(src.Pool, names, dest)
}
