package v1alpha1

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// GroupName is the API group for rcopy resources.
	GroupName = "rcopy.jbweber.io"

	// Version is the API version.
	Version = "v1alpha1"

	// ImageTransferKind is the kind string for ImageTransfer resources.
	ImageTransferKind = "ImageTransfer"

	// ImageTransferListKind is the kind string for ImageTransferList resources.
	ImageTransferListKind = "ImageTransferList"
)

// Well-known labels and annotations set on every transfer.
const (
	LabelSourcePool         = GroupName + "/source-pool"
	LabelDestinationPool    = GroupName + "/destination-pool"
	AnnotationImportCommand = GroupName + "/import-command"
	AnnotationExportCommand = GroupName + "/export-command"
)

// APIVersion returns "group/version".
func APIVersion() string {
	return GroupName + "/" + Version
}

// NewImageTransfer creates a Pending transfer with TypeMeta and ObjectMeta
// defaults. The name is derived from the destination and both pools are
// recorded as labels.
//
// Example: "rbd/disk" → "backup/disk" is named "backup-disk".
func NewImageTransfer(source, destination string) *ImageTransfer {
	srcPool, _, _ := strings.Cut(source, "/")
	destPool, _, _ := strings.Cut(destination, "/")

	tr := &ImageTransfer{
		TypeMeta: TypeMeta{
			APIVersion: APIVersion(),
			Kind:       ImageTransferKind,
		},
		ObjectMeta: ObjectMeta{
			Name:              TransferName(destination),
			UID:               uuid.New().String(),
			CreationTimestamp: Time{Time: time.Now()},
			Generation:        1,
		},
		Spec: ImageTransferSpec{
			Source:      source,
			Destination: destination,
		},
		Status: ImageTransferStatus{
			Phase: TransferPhasePending,
		},
	}
	tr.Labels = map[string]string{
		LabelSourcePool:      srcPool,
		LabelDestinationPool: destPool,
	}
	return tr
}

// NewImageTransferList wraps transfers in a list with TypeMeta set.
func NewImageTransferList(items []ImageTransfer) *ImageTransferList {
	if items == nil {
		items = []ImageTransfer{}
	}
	return &ImageTransferList{
		TypeMeta: TypeMeta{
			APIVersion: APIVersion(),
			Kind:       ImageTransferListKind,
		},
		ObjectMeta: ObjectMeta{
			UID:               uuid.New().String(),
			CreationTimestamp: Time{Time: time.Now()},
		},
		Items: items,
	}
}

// TransferName turns "pool/image" into a resource name.
func TransferName(ref string) string {
	return strings.ToLower(strings.ReplaceAll(ref, "/", "-"))
}

// SetDefaultAPIVersion fills in apiVersion and kind when missing.
// Useful when loading reports written by hand.
func SetDefaultAPIVersion(list *ImageTransferList) {
	if list.APIVersion == "" {
		list.APIVersion = APIVersion()
	}
	if list.Kind == "" {
		list.Kind = ImageTransferListKind
	}
	for i := range list.Items {
		if list.Items[i].APIVersion == "" {
			list.Items[i].APIVersion = APIVersion()
		}
		if list.Items[i].Kind == "" {
			list.Items[i].Kind = ImageTransferKind
		}
	}
}

// SetAnnotation sets a single annotation, allocating the map if needed.
func (t *ImageTransfer) SetAnnotation(key, value string) {
	if t.Annotations == nil {
		t.Annotations = make(map[string]string)
	}
	t.Annotations[key] = value
}

// MatchesLabels reports whether every key=value in selector is set on t.
// An empty selector matches everything.
func (t *ImageTransfer) MatchesLabels(selector map[string]string) bool {
	for k, v := range selector {
		if got, ok := t.Labels[k]; !ok || got != v {
			return false
		}
	}
	return true
}

// ParseLabelSelector parses "k=v,k2=v2". Keys without a "/" prefix are taken
// to be in the rcopy group, so "source-pool=rbd" selects LabelSourcePool.
func ParseLabelSelector(s string) (map[string]string, error) {
	selector := make(map[string]string)
	if strings.TrimSpace(s) == "" {
		return selector, nil
	}

	for _, term := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(term), "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid label selector %q: want key=value", term)
		}
		if !strings.Contains(k, "/") {
			k = GroupName + "/" + k
		}
		selector[k] = v
	}
	return selector, nil
}

// SetPhase sets the transfer phase in status.
func (t *ImageTransfer) SetPhase(phase TransferPhase) {
	t.Status.Phase = phase
}

// GetPhase returns the current transfer phase.
func (t *ImageTransfer) GetPhase() TransferPhase {
	return t.Status.Phase
}

// UpdateObservedGeneration updates status.observedGeneration to match metadata.generation.
func (t *ImageTransfer) UpdateObservedGeneration() {
	t.Status.ObservedGeneration = t.Generation
}

// Duration returns how long the transfer ran. Zero until it has both started
// and completed.
func (t *ImageTransfer) Duration() time.Duration {
	if t.Status.StartTime.IsZero() || t.Status.CompletionTime.IsZero() {
		return 0
	}
	return t.Status.CompletionTime.Sub(t.Status.StartTime.Time)
}

// String returns "source -> destination".
func (t *ImageTransfer) String() string {
	return fmt.Sprintf("%s -> %s", t.Spec.Source, t.Spec.Destination)
}

// Validate checks that a loaded transfer is well formed.
func (t *ImageTransfer) Validate() error {
	if t.Spec.Source == "" {
		return fmt.Errorf("spec.source is required")
	}
	if t.Spec.Destination == "" {
		return fmt.Errorf("spec.destination is required")
	}
	if t.Spec.Port < 0 || t.Spec.Port > 65535 {
		return fmt.Errorf("spec.port must be between 0 and 65535, got %d", t.Spec.Port)
	}
	switch t.Status.Phase {
	case "", TransferPhasePending, TransferPhasePreparing, TransferPhaseTransferring,
		TransferPhaseCompleted, TransferPhaseFailed:
	default:
		return fmt.Errorf("status.phase %q is not a known phase", t.Status.Phase)
	}
	return nil
}
