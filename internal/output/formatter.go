// Package output provides formatters for displaying transfers and images
// in various formats (table, YAML, JSON).
package output

import (
	"fmt"

	"github.com/jbweber/rcopy/api/v1alpha1"
	"github.com/jbweber/rcopy/internal/rbd"
)

// Format represents an output format type.
type Format string

const (
	// FormatTable is a human-readable table format.
	FormatTable Format = "table"
	// FormatYAML is a YAML format, the same shape as a saved report.
	FormatYAML Format = "yaml"
	// FormatJSON is a JSON format for machine consumption.
	FormatJSON Format = "json"
)

// Formatter formats rcopy resources for output.
type Formatter interface {
	// FormatTransfers formats the transfers of a run.
	FormatTransfers(transfers []*v1alpha1.ImageTransfer) (string, error)

	// FormatImages formats image details from rbd info.
	FormatImages(images []*rbd.ImageInfo) (string, error)
}

// Options contains options for formatting output.
type Options struct {
	// Format specifies the output format.
	Format Format
	// NoHeaders omits headers in table format.
	NoHeaders bool
}

// NewFormatter creates a new Formatter based on the specified format.
func NewFormatter(opts Options) (Formatter, error) {
	switch opts.Format {
	case FormatTable:
		return &TableFormatter{NoHeaders: opts.NoHeaders}, nil
	case FormatYAML:
		return &YAMLFormatter{}, nil
	case FormatJSON:
		return &JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (supported: table, yaml, json)", opts.Format)
	}
}

// ValidateFormat checks if a format string is valid.
func ValidateFormat(format string) error {
	switch Format(format) {
	case FormatTable, FormatYAML, FormatJSON:
		return nil
	default:
		return fmt.Errorf("invalid format: %s (valid formats: table, yaml, json)", format)
	}
}

// transferList wraps transfers in a list resource with TypeMeta set.
func transferList(transfers []*v1alpha1.ImageTransfer) *v1alpha1.ImageTransferList {
	items := make([]v1alpha1.ImageTransfer, 0, len(transfers))
	for _, t := range transfers {
		items = append(items, *t)
	}
	list := v1alpha1.NewImageTransferList(items)
	v1alpha1.SetDefaultAPIVersion(list)
	return list
}
