package commands

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/pkg/guard"
)

var ErrSetCourierDutyCommandIsNotConstructed = errors.New(
	"SetCourierDutyCommand must be created via NewSetCourierDutyCommand constructor",
)

// SetCourierDutyCommand starts or ends a courier's shift.
type SetCourierDutyCommand struct {
	courierID kernel.UUID
	onDuty    bool

	guard guard.ConstructorGuard
}

func NewSetCourierDutyCommand(courierID kernel.UUID, onDuty bool) (SetCourierDutyCommand, error) {
	if err := courierID.Validate(); err != nil {
		return SetCourierDutyCommand{}, err
	}
	return SetCourierDutyCommand{courierID: courierID, onDuty: onDuty, guard: guard.NewConstructorGuard()}, nil
}

func (c SetCourierDutyCommand) Validate() error {
	return c.guard.Validate(ErrSetCourierDutyCommandIsNotConstructed)
}

func (c SetCourierDutyCommand) CourierID() kernel.UUID {
	return c.courierID
}

func (c SetCourierDutyCommand) OnDuty() bool {
	return c.onDuty
}

// SetCourierDutyCommandHandler toggles the duty flag. Going off duty fails with
// courier.ErrHoldsActiveTask while an accepted or picked task is bound to the courier.
type SetCourierDutyCommandHandler struct {
	store TaskCourierStore
}

func NewSetCourierDutyCommandHandler(store TaskCourierStore) SetCourierDutyCommandHandler {
	return SetCourierDutyCommandHandler{store: store}
}

func (h SetCourierDutyCommandHandler) Handle(ctx context.Context, cmd SetCourierDutyCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	couriers := h.store.CourierRepository()
	c, err := couriers.Get(ctx, cmd.CourierID())
	if err != nil {
		return err
	}

	var patch courier.Patch
	if cmd.OnDuty() {
		patch = c.StartShift()
	} else {
		active, err := h.store.TaskRepository().FindByCourier(ctx, c.ID(), task.Accepted, task.Picked)
		if err != nil {
			return err
		}
		if patch, err = c.EndShift(len(active) > 0); err != nil {
			return err
		}
	}

	return couriers.UpdateFields(ctx, c.ID(), patch)
}
