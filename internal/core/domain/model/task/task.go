package task

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// Domain errors for task operations.
var (
	// ErrTaskIsNotConstructed is returned when a Task was not created through NewTask or Restore.
	ErrTaskIsNotConstructed = errors.New("Task must be created via NewTask or Restore")
	// ErrCustomerNameIsRequired is returned when a task has no recipient.
	ErrCustomerNameIsRequired = errs.NewValueIsRequiredError("customer name")
	// ErrDeliveryAddressIsRequired is returned when a task has no destination address.
	ErrDeliveryAddressIsRequired = errs.NewValueIsRequiredError("delivery address")
	// ErrDeliveryNumberIsRequired is returned when a task has no delivery number.
	ErrDeliveryNumberIsRequired = errs.NewValueIsRequiredError("delivery number")
)

// Details are the fields a business supplies when it creates a task.
// They never change afterwards.
type Details struct {
	BusinessID        kernel.UUID
	DeliveryCompanyID kernel.UUID
	CustomerName      string
	PhoneNumber       string
	DeliveryAddress   string
	// ClientLocation is nil when the business did not geocode the address.
	ClientLocation *kernel.Location
	// ClientID links the task to a saved business client, if any.
	ClientID      *kernel.UUID
	Priority      Priority
	PaymentMethod PaymentMethod
	Notes         string
}

// Task is a single delivery job. It is the aggregate root of the dispatch
// lifecycle: creation, directed offers to couriers, broadcast, acceptance,
// pickup, delivery and issue handling.
//
// Task follows these invariants:
//   - status is one of the values in AllStatuses
//   - courierID is set whenever the status is pending_acceptance, accepted or picked
//   - statusTimestamps only grows; an entry is never overwritten
//   - assignmentAttempts never decreases
//
// Every mutating method returns a Patch holding only the fields that method
// owns. Callers persist the Patch instead of the whole aggregate so that
// concurrent writers touching different fields do not clobber each other.
type Task struct {
	id      kernel.UUID
	details Details

	deliveryNumber string
	status         Status
	courierID      *kernel.UUID

	assignmentAttempts int
	statusTimestamps   map[Status]time.Time

	assignedAt      *time.Time
	broadcastAt     *time.Time
	acceptedAt      *time.Time
	pickedUpAt      *time.Time
	deliveredAt     *time.Time
	issueReportedAt *time.Time
	closedAt        *time.Time
	cancelledAt     *time.Time

	issueType     IssueType
	issueComments string

	createdAt time.Time

	guard guard.ConstructorGuard
}

// NewTask creates a pending task.
//
// The task starts with zero assignment attempts, no courier and a single
// status timestamp for pending.
//
// Example:
//
//	t, err := task.NewTask(kernel.NewUUID(), "250117-00042", task.Details{
//	    BusinessID:      business.ID(),
//	    CustomerName:    "Dana",
//	    DeliveryAddress: "Herzl 1, Tel Aviv",
//	    Priority:        task.PriorityNormal,
//	    PaymentMethod:   task.PaymentCash,
//	}, time.Now())
func NewTask(id kernel.UUID, deliveryNumber string, details Details, now time.Time) (*Task, error) {
	t := &Task{
		status:           Pending,
		statusTimestamps: map[Status]time.Time{Pending: now},
		createdAt:        now,
		guard:            guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		t.setID(id),
		t.setDeliveryNumber(deliveryNumber),
		t.setDetails(details),
	); err != nil {
		return nil, err
	}

	return t, nil
}

// Snapshot is the full persisted state of a task. Repositories translate it
// to and from their storage representation.
type Snapshot struct {
	ID                 kernel.UUID
	Details            Details
	DeliveryNumber     string
	Status             Status
	CourierID          *kernel.UUID
	AssignmentAttempts int
	StatusTimestamps   map[Status]time.Time
	AssignedAt         *time.Time
	BroadcastAt        *time.Time
	AcceptedAt         *time.Time
	PickedUpAt         *time.Time
	DeliveredAt        *time.Time
	IssueReportedAt    *time.Time
	ClosedAt           *time.Time
	CancelledAt        *time.Time
	IssueType          IssueType
	IssueComments      string
	CreatedAt          time.Time
}

// Restore rebuilds a Task from persisted state and re-checks its invariants.
func Restore(s Snapshot) (*Task, error) {
	t := &Task{
		assignmentAttempts: s.AssignmentAttempts,
		statusTimestamps:   make(map[Status]time.Time, len(s.StatusTimestamps)),
		assignedAt:         s.AssignedAt,
		broadcastAt:        s.BroadcastAt,
		acceptedAt:         s.AcceptedAt,
		pickedUpAt:         s.PickedUpAt,
		deliveredAt:        s.DeliveredAt,
		issueReportedAt:    s.IssueReportedAt,
		closedAt:           s.ClosedAt,
		cancelledAt:        s.CancelledAt,
		issueType:          s.IssueType,
		issueComments:      s.IssueComments,
		createdAt:          s.CreatedAt,
		guard:              guard.NewConstructorGuard(),
	}
	for status, at := range s.StatusTimestamps {
		t.statusTimestamps[status] = at
	}

	if err := errors.Join(
		t.setID(s.ID),
		t.setDeliveryNumber(s.DeliveryNumber),
		t.setDetails(s.Details),
		t.setStatus(s.Status, s.CourierID),
	); err != nil {
		return nil, err
	}
	if s.AssignmentAttempts < 0 {
		return nil, errs.NewValueIsOutOfRangeError("assignment attempts", s.AssignmentAttempts, 0, "unbounded")
	}

	return t, nil
}

// Snapshot exports the current state. The returned maps and pointers are copies.
func (t *Task) Snapshot() Snapshot {
	stamps := make(map[Status]time.Time, len(t.statusTimestamps))
	for status, at := range t.statusTimestamps {
		stamps[status] = at
	}
	return Snapshot{
		ID:                 t.id,
		Details:            t.details,
		DeliveryNumber:     t.deliveryNumber,
		Status:             t.status,
		CourierID:          copyID(t.courierID),
		AssignmentAttempts: t.assignmentAttempts,
		StatusTimestamps:   stamps,
		AssignedAt:         copyTime(t.assignedAt),
		BroadcastAt:        copyTime(t.broadcastAt),
		AcceptedAt:         copyTime(t.acceptedAt),
		PickedUpAt:         copyTime(t.pickedUpAt),
		DeliveredAt:        copyTime(t.deliveredAt),
		IssueReportedAt:    copyTime(t.issueReportedAt),
		ClosedAt:           copyTime(t.closedAt),
		CancelledAt:        copyTime(t.cancelledAt),
		IssueType:          t.issueType,
		IssueComments:      t.issueComments,
		CreatedAt:          t.createdAt,
	}
}

// Validate ensures the task was built by NewTask or Restore.
func (t *Task) Validate() error {
	if t == nil {
		return ErrTaskIsNotConstructed
	}
	return t.guard.Validate(ErrTaskIsNotConstructed)
}

func (t *Task) IsEqual(other *Task) bool {
	return other != nil && t.id.IsEqual(other.id)
}

func (t *Task) ID() kernel.UUID { return t.id }
func (t *Task) Details() Details { return t.details }
func (t *Task) BusinessID() kernel.UUID { return t.details.BusinessID }
func (t *Task) DeliveryCompanyID() kernel.UUID { return t.details.DeliveryCompanyID }
func (t *Task) ClientLocation() *kernel.Location { return t.details.ClientLocation }
func (t *Task) ClientID() *kernel.UUID { return t.details.ClientID }
func (t *Task) DeliveryNumber() string { return t.deliveryNumber }
func (t *Task) Status() Status { return t.status }
func (t *Task) AssignmentAttempts() int { return t.assignmentAttempts }
func (t *Task) AssignedAt() *time.Time { return t.assignedAt }
func (t *Task) BroadcastAt() *time.Time { return t.broadcastAt }
func (t *Task) AcceptedAt() *time.Time { return t.acceptedAt }
func (t *Task) PickedUpAt() *time.Time { return t.pickedUpAt }
func (t *Task) DeliveredAt() *time.Time { return t.deliveredAt }
func (t *Task) IssueReportedAt() *time.Time { return t.issueReportedAt }
func (t *Task) ClosedAt() *time.Time { return t.closedAt }
func (t *Task) CancelledAt() *time.Time { return t.cancelledAt }
func (t *Task) IssueType() IssueType { return t.issueType }
func (t *Task) IssueComments() string { return t.issueComments }
func (t *Task) CreatedAt() time.Time { return t.createdAt }

// Courier returns the courier currently bound to the task, or nil.
func (t *Task) Courier() *kernel.UUID {
	return copyID(t.courierID)
}

// IsHeldBy reports whether courierID is the courier bound to the task.
func (t *Task) IsHeldBy(courierID kernel.UUID) bool {
	return t.courierID != nil && t.courierID.IsEqual(courierID)
}

// StatusTimestamp returns when the task first entered status.
func (t *Task) StatusTimestamp(status Status) (time.Time, bool) {
	at, ok := t.statusTimestamps[status]
	return at, ok
}

// AssignTo offers the task to a single courier and moves it to pending_acceptance.
//
// Allowed from pending and pending_acceptance (reassignment). Each call counts
// as one assignment attempt and refreshes assignedAt; the pending_acceptance
// status timestamp keeps its first value.
func (t *Task) AssignTo(courierID kernel.UUID, now time.Time) (Patch, error) {
	if err := courierID.Validate(); err != nil {
		return Patch{}, err
	}
	if err := t.status.ValidateDirectedAssign(); err != nil {
		return Patch{}, err
	}
	if err := t.status.CanTransitionTo(PendingAcceptance); err != nil {
		return Patch{}, err
	}

	t.courierID = &courierID
	t.assignedAt = &now
	t.assignmentAttempts++
	p := Patch{
		CourierID:          &courierID,
		AssignedAt:         &now,
		AssignmentAttempts: intPtr(t.assignmentAttempts),
	}
	t.moveTo(PendingAcceptance, now, &p)
	return p, nil
}

// OpenToAll broadcasts the task so that any eligible courier may claim it.
// The previously offered courier, if any, is unbound.
func (t *Task) OpenToAll(now time.Time) (Patch, error) {
	if err := t.status.CanTransitionTo(Broadcast); err != nil {
		return Patch{}, err
	}

	t.courierID = nil
	t.broadcastAt = &now
	t.assignmentAttempts++
	p := Patch{
		ClearCourier:       true,
		BroadcastAt:        &now,
		AssignmentAttempts: intPtr(t.assignmentAttempts),
	}
	t.moveTo(Broadcast, now, &p)
	return p, nil
}

// Accept binds the task to courierID.
//
// A directed task may only be accepted by the courier it was offered to; a
// broadcast task by any courier. The check order matters: a wrong courier gets
// an UnauthorizedError even when the task has already moved on. The patch
// expects the status the task was read in, so of two concurrent acceptances
// only the first one is stored.
func (t *Task) Accept(courierID kernel.UUID, now time.Time) (Patch, error) {
	if err := courierID.Validate(); err != nil {
		return Patch{}, err
	}
	if t.status != Broadcast && !t.IsHeldBy(courierID) {
		return Patch{}, errs.NewUnauthorizedError("courier "+courierID.String(), "accept task", t.id)
	}
	if err := t.status.CanTransitionTo(Accepted); err != nil {
		return Patch{}, err
	}

	from := t.status
	t.courierID = &courierID
	t.acceptedAt = &now
	p := Patch{
		ExpectedStatus: &from,
		CourierID:      &courierID,
		AcceptedAt:     &now,
	}
	t.moveTo(Accepted, now, &p)
	return p, nil
}

// ValidateReject checks that courierID may decline the task. Rejecting is only
// meaningful for a directed offer; the task itself is not changed by a
// rejection, the escalation that follows is.
func (t *Task) ValidateReject(courierID kernel.UUID) error {
	if err := courierID.Validate(); err != nil {
		return err
	}
	if !t.IsHeldBy(courierID) {
		return errs.NewUnauthorizedError("courier "+courierID.String(), "reject task", t.id)
	}
	if t.status != PendingAcceptance {
		return errs.NewPreconditionFailedError(fmt.Sprintf("task in status %s cannot be rejected", t.status))
	}
	return nil
}

// PickUp marks the parcel as collected from the business.
func (t *Task) PickUp(courierID kernel.UUID, now time.Time) (Patch, error) {
	if err := t.requireHolder(courierID, "pick up task"); err != nil {
		return Patch{}, err
	}
	if err := t.status.CanTransitionTo(Picked); err != nil {
		return Patch{}, err
	}

	t.pickedUpAt = &now
	p := Patch{PickedUpAt: &now}
	t.moveTo(Picked, now, &p)
	return p, nil
}

// Deliver marks the parcel as handed to the customer.
func (t *Task) Deliver(courierID kernel.UUID, now time.Time) (Patch, error) {
	if err := t.requireHolder(courierID, "deliver task"); err != nil {
		return Patch{}, err
	}
	if err := t.status.CanTransitionTo(Delivered); err != nil {
		return Patch{}, err
	}

	t.deliveredAt = &now
	p := Patch{DeliveredAt: &now}
	t.moveTo(Delivered, now, &p)
	return p, nil
}

// ReportIssue records a problem found after pickup.
func (t *Task) ReportIssue(courierID kernel.UUID, issue IssueType, comments string, now time.Time) (Patch, error) {
	if err := t.requireHolder(courierID, "report issue on task"); err != nil {
		return Patch{}, err
	}
	if err := issue.Validate(); err != nil {
		return Patch{}, err
	}
	if err := t.status.CanTransitionTo(IssueReported); err != nil {
		return Patch{}, err
	}

	comments = strings.TrimSpace(comments)
	t.issueType = issue
	t.issueComments = comments
	t.issueReportedAt = &now
	p := Patch{
		IssueType:       &issue,
		IssueComments:   &comments,
		IssueReportedAt: &now,
	}
	t.moveTo(IssueReported, now, &p)
	return p, nil
}

// Close resolves a reported issue. Only the business that owns the task may
// close it. The issue type and comments stay on the task.
func (t *Task) Close(businessID kernel.UUID, now time.Time) (Patch, error) {
	if err := businessID.Validate(); err != nil {
		return Patch{}, err
	}
	if !t.details.BusinessID.IsEqual(businessID) {
		return Patch{}, errs.NewUnauthorizedError("business "+businessID.String(), "close task", t.id)
	}
	if err := t.status.CanTransitionTo(Closed); err != nil {
		return Patch{}, err
	}

	t.closedAt = &now
	p := Patch{ClosedAt: &now}
	t.moveTo(Closed, now, &p)
	return p, nil
}

// Cancel withdraws the task before pickup. The courier binding is kept so the
// caller can release the courier.
func (t *Task) Cancel(now time.Time) (Patch, error) {
	if err := t.status.CanTransitionTo(Cancelled); err != nil {
		return Patch{}, err
	}

	t.cancelledAt = &now
	p := Patch{CancelledAt: &now}
	t.moveTo(Cancelled, now, &p)
	return p, nil
}

func (t *Task) moveTo(status Status, now time.Time, p *Patch) {
	t.status = status
	p.Status = &status
	if _, ok := t.statusTimestamps[status]; !ok {
		t.statusTimestamps[status] = now
		p.StatusTimestamps = map[Status]time.Time{status: now}
	}
}

func (t *Task) requireHolder(courierID kernel.UUID, action string) error {
	if err := courierID.Validate(); err != nil {
		return err
	}
	if !t.IsHeldBy(courierID) {
		return errs.NewUnauthorizedError("courier "+courierID.String(), action, t.id)
	}
	return nil
}

func (t *Task) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	t.id = id
	return nil
}

func (t *Task) setDeliveryNumber(number string) error {
	if strings.TrimSpace(number) == "" {
		return ErrDeliveryNumberIsRequired
	}
	t.deliveryNumber = number
	return nil
}

func (t *Task) setDetails(d Details) error {
	var problems []error
	if err := d.BusinessID.Validate(); err != nil {
		problems = append(problems, fmt.Errorf("business: %w", err))
	}
	if strings.TrimSpace(d.CustomerName) == "" {
		problems = append(problems, ErrCustomerNameIsRequired)
	}
	if strings.TrimSpace(d.DeliveryAddress) == "" {
		problems = append(problems, ErrDeliveryAddressIsRequired)
	}
	if d.ClientLocation != nil {
		if err := d.ClientLocation.Validate(); err != nil {
			problems = append(problems, err)
		}
	}
	if err := d.Priority.Validate(); err != nil {
		problems = append(problems, err)
	}
	if err := d.PaymentMethod.Validate(); err != nil {
		problems = append(problems, err)
	}
	if err := errors.Join(problems...); err != nil {
		return err
	}
	t.details = d
	return nil
}

func (t *Task) setStatus(status Status, courierID *kernel.UUID) error {
	if err := status.Validate(); err != nil {
		return err
	}
	if courierID != nil {
		if err := courierID.Validate(); err != nil {
			return err
		}
	} else if status.RequiresCourier() {
		return errs.NewValueIsRequiredErrorWithCause("courier", fmt.Errorf("task in status %s must reference a courier", status))
	}
	t.status = status
	t.courierID = copyID(courierID)
	return nil
}

func copyID(id *kernel.UUID) *kernel.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func copyTime(at *time.Time) *time.Time {
	if at == nil {
		return nil
	}
	v := *at
	return &v
}

func intPtr(v int) *int {
	return &v
}
