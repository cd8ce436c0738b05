package output

import (
	"encoding/json"
	"fmt"

	"github.com/jbweber/rcopy/api/v1alpha1"
	"github.com/jbweber/rcopy/internal/rbd"
)

// JSONFormatter formats resources as JSON.
type JSONFormatter struct{}

// FormatTransfers formats transfers as an ImageTransferList JSON object.
func (f *JSONFormatter) FormatTransfers(transfers []*v1alpha1.ImageTransfer) (string, error) {
	data, err := json.MarshalIndent(transferList(transfers), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal transfers to JSON: %w", err)
	}

	return string(data) + "\n", nil
}

// FormatImages formats image details as a JSON array.
func (f *JSONFormatter) FormatImages(images []*rbd.ImageInfo) (string, error) {
	if len(images) == 0 {
		return "[]\n", nil
	}

	data, err := json.MarshalIndent(images, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal images to JSON: %w", err)
	}

	return string(data) + "\n", nil
}
