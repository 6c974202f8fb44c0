package commands

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/business"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrRegisterBusinessCommandIsNotConstructed = errors.New(
	"RegisterBusinessCommand must be created via NewRegisterBusinessCommand constructor",
)

// RegisterBusinessCommand onboards a merchant under a delivery company.
type RegisterBusinessCommand struct {
	business *business.Business

	guard guard.ConstructorGuard
}

// NewRegisterBusinessCommand generates the business identifier.
func NewRegisterBusinessCommand(name, city string, lat, lon float64, deliveryCompanyID kernel.UUID) (RegisterBusinessCommand, error) {
	location, err := kernel.NewLocation(lat, lon)
	if err != nil {
		return RegisterBusinessCommand{}, err
	}

	b, err := business.NewBusiness(kernel.NewUUID(), name, city, location, deliveryCompanyID)
	if err != nil {
		return RegisterBusinessCommand{}, err
	}

	return RegisterBusinessCommand{business: b, guard: guard.NewConstructorGuard()}, nil
}

func (c RegisterBusinessCommand) Validate() error {
	return c.guard.Validate(ErrRegisterBusinessCommandIsNotConstructed)
}

func (c RegisterBusinessCommand) BusinessID() kernel.UUID {
	return c.business.ID()
}

// RegisterBusinessCommandHandler persists new businesses.
type RegisterBusinessCommandHandler struct {
	store BusinessRepoFactory
}

func NewRegisterBusinessCommandHandler(store BusinessRepoFactory) RegisterBusinessCommandHandler {
	return RegisterBusinessCommandHandler{store: store}
}

func (h RegisterBusinessCommandHandler) Handle(ctx context.Context, cmd RegisterBusinessCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	return h.store.BusinessRepository().Add(ctx, cmd.business)
}

var ErrRegisterClientCommandIsNotConstructed = errors.New(
	"RegisterClientCommand must be created via NewRegisterClientCommand constructor",
)

// RegisterClientCommand saves a customer of a business, optionally with
// coordinates used as the delivery geofence fallback.
type RegisterClientCommand struct {
	client *business.Client

	guard guard.ConstructorGuard
}

func NewRegisterClientCommand(businessID kernel.UUID, name string, lat, lon *float64) (RegisterClientCommand, error) {
	var location *kernel.Location
	if lat != nil && lon != nil {
		l, err := kernel.NewLocation(*lat, *lon)
		if err != nil {
			return RegisterClientCommand{}, err
		}
		location = &l
	}

	c, err := business.NewClient(kernel.NewUUID(), businessID, name, location)
	if err != nil {
		return RegisterClientCommand{}, err
	}

	return RegisterClientCommand{client: c, guard: guard.NewConstructorGuard()}, nil
}

func (c RegisterClientCommand) Validate() error {
	return c.guard.Validate(ErrRegisterClientCommandIsNotConstructed)
}

func (c RegisterClientCommand) ClientID() kernel.UUID {
	return c.client.ID()
}

// RegisterClientCommandHandler persists a client after checking its business exists.
type RegisterClientCommandHandler struct {
	store BusinessRepoFactory
}

func NewRegisterClientCommandHandler(store BusinessRepoFactory) RegisterClientCommandHandler {
	return RegisterClientCommandHandler{store: store}
}

func (h RegisterClientCommandHandler) Handle(ctx context.Context, cmd RegisterClientCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	businesses := h.store.BusinessRepository()
	if _, err := businesses.Get(ctx, cmd.client.BusinessID()); err != nil {
		return err
	}
	return businesses.AddClient(ctx, cmd.client)
}
