package status

import (
	"fmt"
	"time"

	"github.com/jbweber/rcopy/api/v1alpha1"
)

// TransitionToPreparing transitions the transfer phase to Preparing.
// This should be called before the destination conflict policy is applied.
func TransitionToPreparing(t *v1alpha1.ImageTransfer) error {
	// Can only transition from Pending to Preparing
	if t.GetPhase() != v1alpha1.TransferPhasePending {
		return fmt.Errorf("cannot transition to Preparing from phase %s", t.GetPhase())
	}

	t.SetPhase(v1alpha1.TransferPhasePreparing)
	t.Status.StartTime = v1alpha1.Time{Time: time.Now()}
	SetCondition(t, v1alpha1.ConditionReady, v1alpha1.ConditionFalse, "Preparing", "Preparing destination")
	return nil
}

// TransitionToTransferring transitions the transfer phase to Transferring.
// This should be called once the remote listener is running.
func TransitionToTransferring(t *v1alpha1.ImageTransfer) error {
	if t.GetPhase() != v1alpha1.TransferPhasePreparing {
		return fmt.Errorf("cannot transition to Transferring from phase %s", t.GetPhase())
	}

	t.SetPhase(v1alpha1.TransferPhaseTransferring)
	SetCondition(t, v1alpha1.ConditionReady, v1alpha1.ConditionFalse, "Transferring", "Streaming image data")
	return nil
}

// TransitionToCompleted transitions the transfer phase to Completed.
// This should be called when the remote import exits successfully.
func TransitionToCompleted(t *v1alpha1.ImageTransfer, bytesSent int64) error {
	if t.GetPhase() != v1alpha1.TransferPhaseTransferring {
		return fmt.Errorf("cannot transition to Completed from phase %s", t.GetPhase())
	}

	t.SetPhase(v1alpha1.TransferPhaseCompleted)
	t.Status.BytesSent = bytesSent
	t.Status.CompletionTime = v1alpha1.Time{Time: time.Now()}
	t.Status.Message = fmt.Sprintf("Copied %d bytes", bytesSent)
	SetCondition(t, v1alpha1.ConditionReady, v1alpha1.ConditionTrue, "Imported", "Destination image imported")
	t.UpdateObservedGeneration()
	return nil
}

// TransitionToFailed transitions the transfer phase to Failed.
// This can happen from any phase when an error occurs.
func TransitionToFailed(t *v1alpha1.ImageTransfer, reason string, err error) {
	t.SetPhase(v1alpha1.TransferPhaseFailed)
	t.Status.CompletionTime = v1alpha1.Time{Time: time.Now()}
	t.Status.Message = err.Error()
	SetCondition(t, v1alpha1.ConditionReady, v1alpha1.ConditionFalse, reason, err.Error())
	t.UpdateObservedGeneration()
}

// IsTerminal returns true if the phase is terminal (Completed or Failed).
func IsTerminal(phase v1alpha1.TransferPhase) bool {
	return phase == v1alpha1.TransferPhaseCompleted || phase == v1alpha1.TransferPhaseFailed
}

// IsActive returns true while a transfer is preparing or streaming.
func IsActive(phase v1alpha1.TransferPhase) bool {
	return phase == v1alpha1.TransferPhasePreparing || phase == v1alpha1.TransferPhaseTransferring
}
