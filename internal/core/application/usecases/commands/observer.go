package commands

import (
	"dispatch/internal/core/domain/model/task"
)

// DispatchObserver receives dispatch events for monitoring. Implementations
// must be safe for concurrent use and must not block.
type DispatchObserver interface {
	AssignmentFinished(outcome Outcome)
	Escalated(outcome Outcome)
	ResponseTimedOut()
	CourierResponded(accepted bool)
	GeofenceRejected(target task.Status)
	StatusChanged(status task.Status)
}

// NopObserver discards every event.
type NopObserver struct{}

func (NopObserver) AssignmentFinished(Outcome) {}
func (NopObserver) Escalated(Outcome) {}
func (NopObserver) ResponseTimedOut() {}
func (NopObserver) CourierResponded(bool) {}
func (NopObserver) GeofenceRejected(task.Status) {}
func (NopObserver) StatusChanged(task.Status) {}
