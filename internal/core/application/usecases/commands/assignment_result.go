package commands

import (
	"dispatch/internal/core/domain/model/kernel"
)

// Outcome of a dispatch attempt.
type Outcome string

const (
	// OutcomeAssigned means the task was offered to a single courier.
	OutcomeAssigned Outcome = "assigned"
	// OutcomeBroadcast means the task was opened to every courier.
	OutcomeBroadcast Outcome = "broadcast"
	// OutcomeNone means no eligible courier was found; the task is unchanged.
	OutcomeNone Outcome = "none"
	// OutcomeSkipped means the task was not in a dispatchable status.
	OutcomeSkipped Outcome = "skipped"
)

// AssignmentResult reports what a dispatch attempt did.
// CourierID is set only for OutcomeAssigned.
type AssignmentResult struct {
	Outcome   Outcome
	CourierID *kernel.UUID
}

// IsDirected reports whether a courier now has an offer to answer, which is
// when a response timer must be armed.
func (r AssignmentResult) IsDirected() bool {
	return r.Outcome == OutcomeAssigned && r.CourierID != nil
}

func assigned(courierID kernel.UUID) AssignmentResult {
	return AssignmentResult{Outcome: OutcomeAssigned, CourierID: &courierID}
}

func outcome(o Outcome) AssignmentResult {
	return AssignmentResult{Outcome: o}
}
