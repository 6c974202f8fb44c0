package business

import (
	"errors"
	"strings"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var (
	ErrNameIsRequired            = errs.NewValueIsRequiredError("name")
	ErrBusinessIsNotConstructed  = errors.New("Business must be created via NewBusiness constructor")
	ErrClientIsNotConstructed    = errors.New("Client must be created via NewClient constructor")
	ErrDeliveryCompanyIsRequired = errs.NewValueIsRequiredError("delivery company")
)

// Business is a merchant that creates delivery tasks. Its location is the
// pickup point every courier must reach before collecting a parcel.
type Business struct {
	id                kernel.UUID
	name              string
	city              string
	location          kernel.Location
	deliveryCompanyID kernel.UUID
	guard             guard.ConstructorGuard
}

// NewBusiness validates and builds a Business. It is also used to restore
// businesses from storage, since a business has no lifecycle of its own.
func NewBusiness(id kernel.UUID, name, city string, location kernel.Location, deliveryCompanyID kernel.UUID) (*Business, error) {
	b := &Business{
		city:  city,
		guard: guard.NewConstructorGuard(),
	}

	var nameErr, companyErr error
	if strings.TrimSpace(name) == "" {
		nameErr = ErrNameIsRequired
	}
	if deliveryCompanyID.IsZero() {
		companyErr = ErrDeliveryCompanyIsRequired
	}
	if err := errors.Join(id.Validate(), nameErr, location.Validate(), companyErr); err != nil {
		return nil, err
	}

	b.id = id
	b.name = name
	b.location = location
	b.deliveryCompanyID = deliveryCompanyID
	return b, nil
}

func (b *Business) Validate() error {
	if b == nil {
		return ErrBusinessIsNotConstructed
	}
	return b.guard.Validate(ErrBusinessIsNotConstructed)
}

func (b *Business) ID() kernel.UUID { return b.id }
func (b *Business) Name() string { return b.name }
func (b *Business) City() string { return b.city }
func (b *Business) Location() kernel.Location { return b.location }
func (b *Business) DeliveryCompanyID() kernel.UUID { return b.deliveryCompanyID }

// Client is a customer saved by a business. When a task carries no delivery
// coordinates, the client's location is used for the delivery geofence.
type Client struct {
	id         kernel.UUID
	businessID kernel.UUID
	name       string
	location   *kernel.Location
	guard      guard.ConstructorGuard
}

func NewClient(id, businessID kernel.UUID, name string, location *kernel.Location) (*Client, error) {
	var locErr error
	if location != nil {
		locErr = location.Validate()
	}
	if err := errors.Join(id.Validate(), businessID.Validate(), locErr); err != nil {
		return nil, err
	}

	c := &Client{
		id:         id,
		businessID: businessID,
		name:       name,
		guard:      guard.NewConstructorGuard(),
	}
	if location != nil {
		l := *location
		c.location = &l
	}
	return c, nil
}

func (c *Client) Validate() error {
	if c == nil {
		return ErrClientIsNotConstructed
	}
	return c.guard.Validate(ErrClientIsNotConstructed)
}

func (c *Client) ID() kernel.UUID { return c.id }
func (c *Client) BusinessID() kernel.UUID { return c.businessID }
func (c *Client) Name() string { return c.name }

// Location returns the saved coordinates, or nil if the client has none.
func (c *Client) Location() *kernel.Location {
	if c.location == nil {
		return nil
	}
	l := *c.location
	return &l
}
