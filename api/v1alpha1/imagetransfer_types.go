package v1alpha1

// ImageTransfer records one image copied from a source pool to a destination
// pool on another host.
//
// Spec holds what was requested, Status what happened.
type ImageTransfer struct {
	TypeMeta `json:",inline" yaml:",inline"`

	// +optional
	ObjectMeta `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	Spec ImageTransferSpec `json:"spec" yaml:"spec"`

	// +optional
	Status ImageTransferStatus `json:"status,omitempty" yaml:"status,omitempty"`
}

// ImageTransferSpec defines a single copy.
type ImageTransferSpec struct {
	// Source is the image being exported, as "pool/image".
	Source string `json:"source" yaml:"source"`

	// Destination is the image created on the remote host, as "pool/image".
	Destination string `json:"destination" yaml:"destination"`

	// DataPool places the destination image data in a separate pool.
	// +optional
	DataPool string `json:"dataPool,omitempty" yaml:"dataPool,omitempty"`

	// Force removes an existing destination image before importing.
	// +optional
	Force bool `json:"force,omitempty" yaml:"force,omitempty"`

	// Host is the destination host.
	Host string `json:"host" yaml:"host"`

	// Port is the TCP port the remote listener accepts the stream on.
	Port int `json:"port" yaml:"port"`
}

// ImageTransferStatus is the observed state of a transfer.
type ImageTransferStatus struct {
	// Phase is the current lifecycle phase of the transfer.
	// +optional
	Phase TransferPhase `json:"phase,omitempty" yaml:"phase,omitempty"`

	// +optional
	Conditions []Condition `json:"conditions,omitempty" yaml:"conditions,omitempty"`

	// BytesSent counts the bytes relayed to the remote listener.
	// +optional
	BytesSent int64 `json:"bytesSent,omitempty" yaml:"bytesSent,omitempty"`

	// +optional
	StartTime Time `json:"startTime,omitempty" yaml:"startTime,omitempty"`

	// +optional
	CompletionTime Time `json:"completionTime,omitempty" yaml:"completionTime,omitempty"`

	// Message describes the last thing that happened, including failures.
	// +optional
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	// ObservedGeneration is the metadata.generation the status was computed for.
	// +optional
	ObservedGeneration int64 `json:"observedGeneration,omitempty" yaml:"observedGeneration,omitempty"`
}

// TransferPhase is the lifecycle phase of an ImageTransfer.
type TransferPhase string

const (
	// TransferPhasePending means the transfer is planned but has not started.
	TransferPhasePending TransferPhase = "Pending"

	// TransferPhasePreparing means the destination is being checked or cleared
	// and the remote listener started.
	TransferPhasePreparing TransferPhase = "Preparing"

	// TransferPhaseTransferring means image data is being streamed.
	TransferPhaseTransferring TransferPhase = "Transferring"

	// TransferPhaseCompleted means the remote import finished successfully.
	TransferPhaseCompleted TransferPhase = "Completed"

	// TransferPhaseFailed means the transfer stopped with an error.
	TransferPhaseFailed TransferPhase = "Failed"
)

// Condition types for ImageTransfer.
const (
	// ConditionReady is True once the destination image is fully imported.
	ConditionReady = "Ready"

	// ConditionDestinationPrepared is True once the conflict policy was applied.
	ConditionDestinationPrepared = "DestinationPrepared"

	// ConditionListenerStarted is True once the remote import pipeline is running.
	ConditionListenerStarted = "ListenerStarted"
)

// ImageTransferList is a list of transfers, as written to a run report.
type ImageTransferList struct {
	TypeMeta `json:",inline" yaml:",inline"`

	// +optional
	ObjectMeta `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	Items []ImageTransfer `json:"items" yaml:"items"`
}

// DeepCopy creates a deep copy of the ImageTransfer.
func (in *ImageTransfer) DeepCopy() *ImageTransfer {
	if in == nil {
		return nil
	}
	out := new(ImageTransfer)
	*out = *in
	out.ObjectMeta = *in.ObjectMeta.DeepCopy()
	if in.Status.Conditions != nil {
		out.Status.Conditions = make([]Condition, len(in.Status.Conditions))
		copy(out.Status.Conditions, in.Status.Conditions)
	}
	return out
}
