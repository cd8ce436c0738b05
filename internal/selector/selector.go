// Package selector parses the pool/image selectors given on the command line
// and pairs source images with their destination names.
//
// A selector is "pool/image". The source image may contain the '*' wildcard,
// which selects every image in the pool whose name contains the remaining
// characters. The destination may be a bare pool, in which case source names
// are reused.
package selector

import (
	"errors"
	"fmt"
	"strings"
)

// Separator splits the pool from the image in a selector.
const Separator = "/"

// Wildcard marks a source image token that matches many images.
const Wildcard = "*"

var (
	// ErrInvalidSelector is returned for malformed selector strings.
	ErrInvalidSelector = errors.New("invalid selector")

	// ErrCountMismatch is returned when source and destination names cannot be
	// paired one to one.
	ErrCountMismatch = errors.New("number of source and destination images don't match")
)

// Ref names a single image in a pool.
type Ref struct {
	Pool  string
	Image string
}

// String returns the ref as "pool/image".
func (r Ref) String() string {
	return r.Pool + Separator + r.Image
}

// Source is a parsed source selector.
type Source struct {
	Pool  string
	Image string
}

// HasWildcard reports whether the image token selects multiple images.
func (s Source) HasWildcard() bool {
	return strings.Contains(s.Image, Wildcard)
}

// Pattern returns the image token with every wildcard removed.
func (s Source) Pattern() string {
	return strings.ReplaceAll(s.Image, Wildcard, "")
}

// Matches reports whether name is selected by the source.
// A lone "*" matches everything; otherwise the wildcard-stripped token must
// appear somewhere in name.
func (s Source) Matches(name string) bool {
	if name == "" {
		return false
	}
	if !s.HasWildcard() {
		return name == s.Image
	}
	return strings.Contains(name, s.Pattern())
}

// Ref returns the source as a single image ref. Only meaningful when the
// source has no wildcard.
func (s Source) Ref() Ref {
	return Ref{Pool: s.Pool, Image: s.Image}
}

// String returns the selector as given.
func (s Source) String() string {
	return s.Pool + Separator + s.Image
}

// Destination is a parsed destination selector.
type Destination struct {
	Pool  string
	Image string
}

// FollowsSource reports whether destination names are taken from the source.
func (d Destination) FollowsSource() bool {
	return d.Image == "" || d.Image == Wildcard
}

// String returns the destination as "pool" or "pool/image".
func (d Destination) String() string {
	if d.Image == "" {
		return d.Pool
	}
	return d.Pool + Separator + d.Image
}

// Pair is a single source image and where it is copied to.
type Pair struct {
	Source      Ref
	Destination Ref
}

// String returns "src -> dest".
func (p Pair) String() string {
	return fmt.Sprintf("%s -> %s", p.Source, p.Destination)
}

// ParseSource parses a "pool/image" source selector.
//
// Example: "rbd/vm-*" → Source{Pool: "rbd", Image: "vm-*"}
func ParseSource(s string) (Source, error) {
	if !strings.Contains(s, Separator) {
		return Source{}, fmt.Errorf("%w: first argument does not have a '%s': %s", ErrInvalidSelector, Separator, s)
	}

	parts := strings.Split(s, Separator)
	if len(parts) != 2 {
		return Source{}, fmt.Errorf("%w: %q contains more than one '%s'", ErrInvalidSelector, s, Separator)
	}

	src := Source{Pool: parts[0], Image: parts[1]}
	if src.Pool == "" {
		return Source{}, fmt.Errorf("%w: source pool is empty in %q", ErrInvalidSelector, s)
	}
	if src.Image == "" {
		return Source{}, fmt.Errorf("%w: source image is empty in %q", ErrInvalidSelector, s)
	}

	return src, nil
}

// ParseDestination parses a "pool" or "pool/image" destination selector.
// "pool/" and "pool/*" are accepted and mean the source names are reused.
func ParseDestination(s string) (Destination, error) {
	parts := strings.Split(s, Separator)
	if len(parts) > 2 {
		return Destination{}, fmt.Errorf("%w: %q contains more than one '%s'", ErrInvalidSelector, s, Separator)
	}

	dest := Destination{Pool: parts[0]}
	if len(parts) == 2 {
		dest.Image = parts[1]
	}
	if dest.Pool == "" {
		return Destination{}, fmt.Errorf("%w: destination pool is empty in %q", ErrInvalidSelector, s)
	}

	return dest, nil
}

// Filter returns the names selected by src, in the order given.
func Filter(src Source, names []string) []string {
	var matched []string
	for _, name := range names {
		if src.Matches(name) {
			matched = append(matched, name)
		}
	}
	return matched
}

// Pairs zips source image names with destination names positionally.
//
// When the destination follows the source, each image keeps its name. An
// explicit destination image name can only receive a single source image.
func Pairs(srcPool string, srcImages []string, dest Destination) ([]Pair, error) {
	destImages := srcImages
	if !dest.FollowsSource() {
		destImages = []string{dest.Image}
	}

	if len(srcImages) != len(destImages) {
		return nil, fmt.Errorf("%w: %d source image(s), %d destination image(s)",
			ErrCountMismatch, len(srcImages), len(destImages))
	}

	pairs := make([]Pair, 0, len(srcImages))
	for i := range srcImages {
		pairs = append(pairs, Pair{
			Source:      Ref{Pool: srcPool, Image: srcImages[i]},
			Destination: Ref{Pool: dest.Pool, Image: destImages[i]},
		})
	}

	return pairs, nil
}
