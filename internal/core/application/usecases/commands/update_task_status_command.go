package commands

import (
	"errors"
	"fmt"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrUpdateTaskStatusCommandIsNotConstructed = errors.New(
	"UpdateTaskStatusCommand must be created via NewUpdateTaskStatusCommand constructor",
)

// UpdateTaskStatusCommand is sent by a courier confirming pickup or delivery.
// Only task.Picked and task.Delivered are accepted; the other transitions have
// dedicated commands.
type UpdateTaskStatusCommand struct { //nolint:recvcheck //using for validation
	taskID    kernel.UUID
	courierID kernel.UUID
	newStatus task.Status

	guard guard.ConstructorGuard
}

func NewUpdateTaskStatusCommand(taskID, courierID kernel.UUID, newStatus task.Status) (UpdateTaskStatusCommand, error) {
	cmd := UpdateTaskStatusCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setTaskID(taskID),
		cmd.setCourierID(courierID),
		cmd.setNewStatus(newStatus),
	); err != nil {
		return UpdateTaskStatusCommand{}, err
	}

	return cmd, nil
}

func (c UpdateTaskStatusCommand) Validate() error {
	return c.guard.Validate(ErrUpdateTaskStatusCommandIsNotConstructed)
}

func (c UpdateTaskStatusCommand) TaskID() kernel.UUID {
	return c.taskID
}

func (c UpdateTaskStatusCommand) CourierID() kernel.UUID {
	return c.courierID
}

func (c UpdateTaskStatusCommand) NewStatus() task.Status {
	return c.newStatus
}

func (c *UpdateTaskStatusCommand) setTaskID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.taskID = id
	return nil
}

func (c *UpdateTaskStatusCommand) setCourierID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.courierID = id
	return nil
}

func (c *UpdateTaskStatusCommand) setNewStatus(status task.Status) error {
	if status != task.Picked && status != task.Delivered {
		return errs.NewValueIsInvalidErrorWithCause("new status",
			fmt.Errorf("%q must be %s or %s", string(status), task.Picked, task.Delivered))
	}
	c.newStatus = status
	return nil
}
