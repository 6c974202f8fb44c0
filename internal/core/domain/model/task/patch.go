package task

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
)

// Patch is a field-scoped change set produced by a Task mutation.
// A nil pointer means "leave unchanged". StatusTimestamps are insert-only:
// a store must keep an existing entry for the same status.
//
// A non-nil ExpectedStatus makes the write conditional: the store applies the
// patch only while the stored status still equals it and otherwise fails with
// errs.ErrPreconditionFailed.
type Patch struct {
	ExpectedStatus     *Status
	Status             *Status
	CourierID          *kernel.UUID
	ClearCourier       bool
	AssignmentAttempts *int
	AssignedAt         *time.Time
	BroadcastAt        *time.Time
	AcceptedAt         *time.Time
	PickedUpAt         *time.Time
	DeliveredAt        *time.Time
	IssueReportedAt    *time.Time
	ClosedAt           *time.Time
	CancelledAt        *time.Time
	IssueType          *IssueType
	IssueComments      *string
	StatusTimestamps   map[Status]time.Time
}

// IsEmpty reports whether applying the patch would change nothing.
func (p Patch) IsEmpty() bool {
	return p.Status == nil && p.CourierID == nil && !p.ClearCourier && p.AssignmentAttempts == nil &&
		p.AssignedAt == nil && p.BroadcastAt == nil && p.AcceptedAt == nil && p.PickedUpAt == nil &&
		p.DeliveredAt == nil && p.IssueReportedAt == nil && p.ClosedAt == nil && p.CancelledAt == nil &&
		p.IssueType == nil && p.IssueComments == nil && len(p.StatusTimestamps) == 0
}

// ApplyTo merges the patch into s. Fields the patch does not name are left
// as they are, which gives last-write-wins per field.
func (p Patch) ApplyTo(s *Snapshot) {
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.ClearCourier {
		s.CourierID = nil
	}
	if p.CourierID != nil {
		s.CourierID = copyID(p.CourierID)
	}
	if p.AssignmentAttempts != nil {
		s.AssignmentAttempts = *p.AssignmentAttempts
	}
	setTime(&s.AssignedAt, p.AssignedAt)
	setTime(&s.BroadcastAt, p.BroadcastAt)
	setTime(&s.AcceptedAt, p.AcceptedAt)
	setTime(&s.PickedUpAt, p.PickedUpAt)
	setTime(&s.DeliveredAt, p.DeliveredAt)
	setTime(&s.IssueReportedAt, p.IssueReportedAt)
	setTime(&s.ClosedAt, p.ClosedAt)
	setTime(&s.CancelledAt, p.CancelledAt)
	if p.IssueType != nil {
		s.IssueType = *p.IssueType
	}
	if p.IssueComments != nil {
		s.IssueComments = *p.IssueComments
	}
	if len(p.StatusTimestamps) > 0 && s.StatusTimestamps == nil {
		s.StatusTimestamps = make(map[Status]time.Time, len(p.StatusTimestamps))
	}
	for status, at := range p.StatusTimestamps {
		if _, exists := s.StatusTimestamps[status]; !exists {
			s.StatusTimestamps[status] = at
		}
	}
}

// Admits reports whether the patch may be applied to a task in status current.
func (p Patch) Admits(current Status) bool {
	return p.ExpectedStatus == nil || *p.ExpectedStatus == current
}

func setTime(dst **time.Time, src *time.Time) {
	if src != nil {
		*dst = copyTime(src)
	}
}
