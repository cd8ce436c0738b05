package output

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/jbweber/rcopy/api/v1alpha1"
	"github.com/jbweber/rcopy/internal/rbd"
)

// YAMLFormatter formats resources as YAML.
type YAMLFormatter struct{}

// FormatTransfers formats transfers as an ImageTransferList, the same
// document a report file contains.
func (f *YAMLFormatter) FormatTransfers(transfers []*v1alpha1.ImageTransfer) (string, error) {
	data, err := yaml.Marshal(transferList(transfers))
	if err != nil {
		return "", fmt.Errorf("failed to marshal transfers to YAML: %w", err)
	}

	return string(data), nil
}

// FormatImages formats image details as a YAML stream, one document per image.
func (f *YAMLFormatter) FormatImages(images []*rbd.ImageInfo) (string, error) {
	var buf bytes.Buffer

	for i, img := range images {
		data, err := yaml.Marshal(imageDoc(img))
		if err != nil {
			return "", fmt.Errorf("failed to marshal image %s to YAML: %w", img.Name, err)
		}

		// Add document separator between images (but not before the first one)
		if i > 0 {
			buf.WriteString("---\n")
		}

		buf.Write(data)
	}

	return buf.String(), nil
}

// imageYAML mirrors rbd.ImageInfo with YAML keys matching rbd's JSON output.
type imageYAML struct {
	Pool            string   `yaml:"pool,omitempty"`
	Name            string   `yaml:"name"`
	ID              string   `yaml:"id,omitempty"`
	Size            uint64   `yaml:"size"`
	Objects         uint64   `yaml:"objects"`
	Order           int      `yaml:"order"`
	ObjectSize      uint64   `yaml:"object_size"`
	Format          int      `yaml:"format"`
	Features        []string `yaml:"features,omitempty"`
	DataPool        string   `yaml:"data_pool,omitempty"`
	CreateTimestamp string   `yaml:"create_timestamp,omitempty"`
}

func imageDoc(img *rbd.ImageInfo) imageYAML {
	return imageYAML{
		Pool:            img.Pool,
		Name:            img.Name,
		ID:              img.ID,
		Size:            img.Size,
		Objects:         img.Objects,
		Order:           img.Order,
		ObjectSize:      img.ObjectSize,
		Format:          img.Format,
		Features:        img.Features,
		DataPool:        img.DataPool,
		CreateTimestamp: img.CreateTimestamp,
	}
}
