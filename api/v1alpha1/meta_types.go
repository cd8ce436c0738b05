// Package v1alpha1 contains the API types for rcopy.jbweber.io/v1alpha1.
//
// Transfers are recorded as Kubernetes-style resources so a run report can be
// saved, reloaded and printed with the same tooling used for other resources.
// Field names and JSON tags follow k8s.io/apimachinery conventions.
package v1alpha1

import (
	"encoding/json"
	"maps"
	"time"

	"gopkg.in/yaml.v3"
)

// TypeMeta carries the kind and apiVersion of a serialized object.
type TypeMeta struct {
	Kind       string `json:"kind,omitempty" yaml:"kind,omitempty"`
	APIVersion string `json:"apiVersion,omitempty" yaml:"apiVersion,omitempty"`
}

// ObjectMeta identifies a recorded object.
type ObjectMeta struct {
	// Name is derived from the destination image, e.g. "backup-disk".
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Labels hold the source and destination pools (see LabelSourcePool) so
	// a report can be filtered with a selector.
	Labels map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`

	// Annotations hold the commands a transfer ran (see AnnotationImportCommand).
	Annotations map[string]string `json:"annotations,omitempty" yaml:"annotations,omitempty"`

	CreationTimestamp Time   `json:"creationTimestamp,omitempty" yaml:"creationTimestamp,omitempty"`
	UID               string `json:"uid,omitempty" yaml:"uid,omitempty"`
	Generation        int64  `json:"generation,omitempty" yaml:"generation,omitempty"`
}

// Time serializes as an RFC3339 string, or null when zero.
type Time struct {
	time.Time `json:"-" yaml:"-"`
}

// parseTime accepts the encodings MarshalJSON and MarshalYAML produce.
func parseTime(s string) (time.Time, error) {
	if s == "" || s == "null" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}

func (t *Time) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s != "null" {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}
	parsed, err := parseTime(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t Time) MarshalYAML() (interface{}, error) {
	if t.IsZero() {
		return nil, nil
	}
	return t.Format(time.RFC3339), nil
}

func (t *Time) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := parseTime(node.Value)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// ConditionStatus is True, False or Unknown.
type ConditionStatus string

const (
	ConditionTrue    ConditionStatus = "True"
	ConditionFalse   ConditionStatus = "False"
	ConditionUnknown ConditionStatus = "Unknown"
)

// Condition records one step of a transfer, e.g. the destination being
// prepared or the listener being started.
type Condition struct {
	Type               string          `json:"type" yaml:"type"`
	Status             ConditionStatus `json:"status" yaml:"status"`
	ObservedGeneration int64           `json:"observedGeneration,omitempty" yaml:"observedGeneration,omitempty"`
	LastTransitionTime Time            `json:"lastTransitionTime,omitempty" yaml:"lastTransitionTime,omitempty"`
	Reason             string          `json:"reason,omitempty" yaml:"reason,omitempty"`
	Message            string          `json:"message,omitempty" yaml:"message,omitempty"`
}

// DeepCopy creates a deep copy of ObjectMeta.
func (in *ObjectMeta) DeepCopy() *ObjectMeta {
	if in == nil {
		return nil
	}
	out := *in
	out.Labels = maps.Clone(in.Labels)
	out.Annotations = maps.Clone(in.Annotations)
	return &out
}

// DeepCopy creates a deep copy of Condition.
func (in *Condition) DeepCopy() *Condition {
	if in == nil {
		return nil
	}
	out := *in
	return &out
}
