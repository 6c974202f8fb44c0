package courier

import (
	"errors"
	"fmt"
	"strings"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// Domain errors for courier operations.
var (
	// ErrNameIsRequired is returned when attempting to create a courier without a name.
	ErrNameIsRequired = errs.NewValueIsRequiredError("name")
	// ErrCourierIsNotConstructed is returned when using an improperly initialized Courier.
	ErrCourierIsNotConstructed = errors.New("Courier must be created via NewCourier constructor")
	// ErrHoldsActiveTask is returned when a courier tries to go off duty mid-delivery.
	ErrHoldsActiveTask = errs.NewPreconditionFailedError("courier holds an accepted or picked task")
)

// LiveStatus is the courier's dispatch availability.
type LiveStatus string

const (
	Available         LiveStatus = "available"
	PendingAcceptance LiveStatus = "pending_acceptance"
	Busy              LiveStatus = "busy"
	Unavailable       LiveStatus = "unavailable"
)

func (s LiveStatus) Validate() error {
	switch s {
	case Available, PendingAcceptance, Busy, Unavailable:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("live status", fmt.Errorf("%q is not a live status", string(s)))
	}
}

// Courier is a delivery worker that can be offered tasks.
//
// Business rules:
//   - A courier is eligible for dispatch only while on duty, with a live status of
//     available or pending_acceptance, and with a known position
//   - Going on duty makes the courier available; going off duty makes it unavailable
//   - A courier holding an accepted or picked task cannot go off duty
//   - Releasing a courier that went off duty in the meantime keeps it unavailable
//
// Like task.Task, every mutation returns a field-scoped Patch.
type Courier struct {
	// id uniquely identifies the courier
	id kernel.UUID
	// name is the human-readable name of the courier
	name  string
	phone string
	// location is the last known position, nil until the first report
	location *kernel.Location
	// onDuty is the shift flag set by the courier
	onDuty     bool
	liveStatus LiveStatus
	// guard ensures the courier was properly constructed
	guard guard.ConstructorGuard
}

// NewCourier registers a courier. New couriers start off duty and unavailable.
//
// Example:
//
//	c, err := courier.NewCourier(kernel.NewUUID(), "Avi", "+972500000000", nil)
//	if err != nil {
//	    return err
//	}
func NewCourier(id kernel.UUID, name, phone string, location *kernel.Location) (*Courier, error) {
	c := &Courier{
		liveStatus: Unavailable,
		guard:      guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		c.setID(id),
		c.setName(name),
		c.setLocation(location),
	); err != nil {
		return nil, err
	}
	c.phone = phone

	return c, nil
}

// Snapshot is the persisted state of a courier.
type Snapshot struct {
	ID         kernel.UUID
	Name       string
	Phone      string
	Location   *kernel.Location
	OnDuty     bool
	LiveStatus LiveStatus
}

// RestoreCourier reconstructs a Courier from persistent storage.
func RestoreCourier(s Snapshot) (*Courier, error) {
	c := &Courier{
		phone:  s.Phone,
		onDuty: s.OnDuty,
		guard:  guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		c.setID(s.ID),
		c.setName(s.Name),
		c.setLocation(s.Location),
		c.setLiveStatus(s.LiveStatus),
	); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Courier) Snapshot() Snapshot {
	return Snapshot{
		ID:         c.id,
		Name:       c.name,
		Phone:      c.phone,
		Location:   copyLocation(c.location),
		OnDuty:     c.onDuty,
		LiveStatus: c.liveStatus,
	}
}

// IsEqual compares two couriers by identifier.
func (c *Courier) IsEqual(other *Courier) bool {
	if other == nil {
		return false
	}
	return c.id.IsEqual(other.id)
}

// Validate checks if the Courier was properly constructed.
// The zero value of Courier is invalid and will fail this validation.
func (c *Courier) Validate() error {
	if c == nil {
		return ErrCourierIsNotConstructed
	}
	return c.guard.Validate(ErrCourierIsNotConstructed)
}

func (c *Courier) ID() kernel.UUID {
	return c.id
}

func (c *Courier) Name() string {
	return c.name
}

func (c *Courier) Phone() string {
	return c.phone
}

// Location returns the last known position, or nil if the courier never reported one.
func (c *Courier) Location() *kernel.Location {
	return copyLocation(c.location)
}

func (c *Courier) OnDuty() bool {
	return c.onDuty
}

func (c *Courier) LiveStatus() LiveStatus {
	return c.liveStatus
}

// IsEligibleForDispatch reports whether the courier may receive a directed offer.
// A courier already considering another offer is still eligible.
func (c *Courier) IsEligibleForDispatch() bool {
	if !c.onDuty || c.location == nil {
		return false
	}
	return c.liveStatus == Available || c.liveStatus == PendingAcceptance
}

// Offer marks the courier as considering a directed task.
func (c *Courier) Offer() Patch {
	return c.setLive(PendingAcceptance)
}

// Engage marks the courier as carrying out an accepted task.
func (c *Courier) Engage() Patch {
	return c.setLive(Busy)
}

// Release frees the courier after a rejection, timeout, delivery or cancellation.
func (c *Courier) Release() Patch {
	if !c.onDuty {
		return c.setLive(Unavailable)
	}
	return c.setLive(Available)
}

// StartShift puts the courier on duty and makes it available.
func (c *Courier) StartShift() Patch {
	c.onDuty = true
	p := c.setLive(Available)
	p.OnDuty = boolPtr(true)
	return p
}

// EndShift takes the courier off duty. holdsActiveTask must report whether any
// task in accepted or picked status is bound to the courier.
func (c *Courier) EndShift(holdsActiveTask bool) (Patch, error) {
	if holdsActiveTask {
		return Patch{}, ErrHoldsActiveTask
	}
	c.onDuty = false
	p := c.setLive(Unavailable)
	p.OnDuty = boolPtr(false)
	return p, nil
}

// MoveTo records a new position report.
func (c *Courier) MoveTo(location kernel.Location) (Patch, error) {
	if err := location.Validate(); err != nil {
		return Patch{}, err
	}
	c.location = &location
	return Patch{Location: copyLocation(&location)}, nil
}

func (c *Courier) setLive(status LiveStatus) Patch {
	c.liveStatus = status
	return Patch{LiveStatus: &status}
}

func (c *Courier) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.id = id
	return nil
}

func (c *Courier) setName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameIsRequired
	}
	c.name = name
	return nil
}

func (c *Courier) setLocation(location *kernel.Location) error {
	if location == nil {
		c.location = nil
		return nil
	}
	if err := location.Validate(); err != nil {
		return err
	}
	c.location = copyLocation(location)
	return nil
}

func (c *Courier) setLiveStatus(status LiveStatus) error {
	if err := status.Validate(); err != nil {
		return err
	}
	c.liveStatus = status
	return nil
}

// Patch is a field-scoped courier change set; nil means unchanged.
type Patch struct {
	OnDuty     *bool
	LiveStatus *LiveStatus
	Location   *kernel.Location
}

func (p Patch) IsEmpty() bool {
	return p.OnDuty == nil && p.LiveStatus == nil && p.Location == nil
}

// ApplyTo merges the patch into s.
func (p Patch) ApplyTo(s *Snapshot) {
	if p.OnDuty != nil {
		s.OnDuty = *p.OnDuty
	}
	if p.LiveStatus != nil {
		s.LiveStatus = *p.LiveStatus
	}
	if p.Location != nil {
		s.Location = copyLocation(p.Location)
	}
}

func copyLocation(l *kernel.Location) *kernel.Location {
	if l == nil {
		return nil
	}
	v := *l
	return &v
}

func boolPtr(v bool) *bool {
	return &v
}
