package task

import (
	"fmt"

	"dispatch/internal/pkg/errs"
)

// Status is the lifecycle state of a delivery task.
//
// State transitions:
//
//	pending ──┬──> pending_acceptance ──┬──> accepted ──> picked ──> delivered
//	          │         │  ▲ (reassign) │       │            │
//	          │         └──┘            │       │            └──> issue_reported ──> closed
//	          └──> broadcast <──────────┘       │
//	                   └──────> accepted        │
//	pending_acceptance, broadcast, accepted ────┴──> cancelled
//
// delivered, cancelled and closed are terminal.
type Status string

const (
	Pending           Status = "pending"
	PendingAcceptance Status = "pending_acceptance"
	Broadcast         Status = "broadcast"
	Accepted          Status = "accepted"
	Picked            Status = "picked"
	Delivered         Status = "delivered"
	Cancelled         Status = "cancelled"
	IssueReported     Status = "issue_reported"
	Closed            Status = "closed"
)

func transitions() map[Status][]Status {
	return map[Status][]Status{
		Pending:           {PendingAcceptance, Broadcast},
		PendingAcceptance: {PendingAcceptance, Broadcast, Accepted, Cancelled},
		Broadcast:         {Broadcast, Accepted, Cancelled},
		Accepted:          {Picked, Cancelled},
		Picked:            {Delivered, IssueReported},
		IssueReported:     {Closed},
		Delivered:         {},
		Cancelled:         {},
		Closed:            {},
	}
}

// AllStatuses lists every valid status in lifecycle order.
func AllStatuses() []Status {
	return []Status{Pending, PendingAcceptance, Broadcast, Accepted, Picked, Delivered, Cancelled, IssueReported, Closed}
}

// Validate rejects values outside the lifecycle.
func (s Status) Validate() error {
	if _, ok := transitions()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid status", string(s)))
	}
	return nil
}

func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled || s == Closed
}

// IsProgressed reports whether a courier has already taken the task, which makes
// every further assignment attempt a no-op.
func (s Status) IsProgressed() bool {
	return s == Accepted || s == Picked || s == Delivered
}

// RequiresCourier reports whether a task in this status must reference a courier.
func (s Status) RequiresCourier() bool {
	return s == PendingAcceptance || s == Accepted || s == Picked
}

// CanTransitionTo validates a single step of the state machine.
func (s Status) CanTransitionTo(next Status) error {
	if err := s.Validate(); err != nil {
		return err
	}
	for _, allowed := range transitions()[s] {
		if allowed == next {
			return nil
		}
	}
	return errs.NewPreconditionFailedError(fmt.Sprintf("task in status %s cannot move to %s", s, next))
}

// ValidateDirectedAssign checks that a task may be offered to a single courier.
// Only pending tasks and tasks still awaiting a response qualify.
func (s Status) ValidateDirectedAssign() error {
	if s != Pending && s != PendingAcceptance {
		return errs.NewPreconditionFailedError(fmt.Sprintf("%s is not a valid status to assign", s))
	}
	return nil
}
