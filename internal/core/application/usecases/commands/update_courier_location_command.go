package commands

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrUpdateCourierLocationCommandIsNotConstructed = errors.New(
	"UpdateCourierLocationCommand must be created via NewUpdateCourierLocationCommand constructor",
)

// UpdateCourierLocationCommand records a position report from a courier device.
// Dispatch ranks couriers by their last reported position.
type UpdateCourierLocationCommand struct {
	courierID kernel.UUID
	location  kernel.Location

	guard guard.ConstructorGuard
}

func NewUpdateCourierLocationCommand(courierID kernel.UUID, lat, lon float64) (UpdateCourierLocationCommand, error) {
	location, err := kernel.NewLocation(lat, lon)
	if err = errors.Join(courierID.Validate(), err); err != nil {
		return UpdateCourierLocationCommand{}, err
	}
	return UpdateCourierLocationCommand{courierID: courierID, location: location, guard: guard.NewConstructorGuard()}, nil
}

func (c UpdateCourierLocationCommand) Validate() error {
	return c.guard.Validate(ErrUpdateCourierLocationCommandIsNotConstructed)
}

func (c UpdateCourierLocationCommand) CourierID() kernel.UUID {
	return c.courierID
}

func (c UpdateCourierLocationCommand) Location() kernel.Location {
	return c.location
}

// UpdateCourierLocationCommandHandler stores the reported position. Only the
// location field is written, so a concurrent status change is not lost.
type UpdateCourierLocationCommandHandler struct {
	store CourierRepoFactory
}

func NewUpdateCourierLocationCommandHandler(store CourierRepoFactory) UpdateCourierLocationCommandHandler {
	return UpdateCourierLocationCommandHandler{store: store}
}

func (h UpdateCourierLocationCommandHandler) Handle(ctx context.Context, cmd UpdateCourierLocationCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	couriers := h.store.CourierRepository()
	c, err := couriers.Get(ctx, cmd.CourierID())
	if err != nil {
		return err
	}

	patch, err := c.MoveTo(cmd.Location())
	if err != nil {
		return err
	}

	return couriers.UpdateFields(ctx, c.ID(), patch)
}
