// Package loader saves and loads transfer reports as YAML files.
package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jbweber/rcopy/api/v1alpha1"
)

// LoadFromFile loads an ImageTransferList report from a YAML file.
func LoadFromFile(path string) (*v1alpha1.ImageTransferList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	return LoadFromYAML(data)
}

// LoadFromYAML loads an ImageTransferList report from YAML bytes.
// The document must be in the rcopy.jbweber.io/v1alpha1 format.
func LoadFromYAML(data []byte) (*v1alpha1.ImageTransferList, error) {
	var list v1alpha1.ImageTransferList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	// Validate that apiVersion and kind are present
	if list.APIVersion == "" {
		return nil, fmt.Errorf("missing required field: apiVersion")
	}
	if list.Kind == "" {
		return nil, fmt.Errorf("missing required field: kind")
	}

	if list.APIVersion != v1alpha1.APIVersion() {
		return nil, fmt.Errorf("unsupported apiVersion: %s (expected: %s)", list.APIVersion, v1alpha1.APIVersion())
	}
	if list.Kind != v1alpha1.ImageTransferListKind {
		return nil, fmt.Errorf("unsupported kind: %s (expected: %s)", list.Kind, v1alpha1.ImageTransferListKind)
	}

	// Items written by hand may omit their own TypeMeta
	v1alpha1.SetDefaultAPIVersion(&list)

	for i := range list.Items {
		item := &list.Items[i]
		if item.Kind != v1alpha1.ImageTransferKind {
			return nil, fmt.Errorf("items[%d]: unsupported kind: %s (expected: %s)", i, item.Kind, v1alpha1.ImageTransferKind)
		}
		if item.Status.Phase == "" {
			item.Status.Phase = v1alpha1.TransferPhasePending
		}
		if item.Name == "" {
			item.Name = v1alpha1.TransferName(item.Spec.Destination)
		}
		if err := item.Validate(); err != nil {
			return nil, fmt.Errorf("validation failed for items[%d]: %w", i, err)
		}
	}

	return &list, nil
}

// SaveToFile saves an ImageTransferList report to a YAML file.
func SaveToFile(list *v1alpha1.ImageTransferList, path string) error {
	// Ensure TypeMeta is set
	v1alpha1.SetDefaultAPIVersion(list)

	data, err := yaml.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to marshal report to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}
