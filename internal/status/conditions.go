// Package status manages ImageTransfer status fields, including conditions
// and phase transitions.
package status

import (
	"time"

	"github.com/jbweber/rcopy/api/v1alpha1"
)

// SetCondition adds or updates a condition in the transfer status.
// The LastTransitionTime is only updated if the status changes.
func SetCondition(t *v1alpha1.ImageTransfer, condType string, status v1alpha1.ConditionStatus, reason, message string) {
	now := v1alpha1.Time{Time: time.Now()}

	for i := range t.Status.Conditions {
		existing := &t.Status.Conditions[i]
		if existing.Type != condType {
			continue
		}
		if existing.Status != status {
			existing.LastTransitionTime = now
		}
		existing.Status = status
		existing.Reason = reason
		existing.Message = message
		existing.ObservedGeneration = t.Generation
		return
	}

	t.Status.Conditions = append(t.Status.Conditions, v1alpha1.Condition{
		Type:               condType,
		Status:             status,
		ObservedGeneration: t.Generation,
		LastTransitionTime: now,
		Reason:             reason,
		Message:            message,
	})
}

// GetCondition returns a condition by type, or nil if not found.
func GetCondition(t *v1alpha1.ImageTransfer, condType string) *v1alpha1.Condition {
	for i := range t.Status.Conditions {
		if t.Status.Conditions[i].Type == condType {
			return &t.Status.Conditions[i]
		}
	}
	return nil
}

// IsConditionTrue returns true if the condition exists and has status True.
func IsConditionTrue(t *v1alpha1.ImageTransfer, condType string) bool {
	cond := GetCondition(t, condType)
	return cond != nil && cond.Status == v1alpha1.ConditionTrue
}

// MarkDestinationPrepared records how the destination conflict was resolved.
func MarkDestinationPrepared(t *v1alpha1.ImageTransfer, reason, message string) {
	SetCondition(t, v1alpha1.ConditionDestinationPrepared, v1alpha1.ConditionTrue, reason, message)
}

// MarkListenerStarted records that the remote import pipeline is running.
func MarkListenerStarted(t *v1alpha1.ImageTransfer, command string) {
	SetCondition(t, v1alpha1.ConditionListenerStarted, v1alpha1.ConditionTrue, "Started", command)
}
