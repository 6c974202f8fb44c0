package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrReassignTaskCommandIsNotConstructed = errors.New(
	"ReassignTaskCommand must be created via NewReassignTaskCommand constructor",
)

// ReassignTaskCommand offers a task to the nearest eligible courier other than
// the one currently holding the offer.
type ReassignTaskCommand struct { //nolint:recvcheck //using for validation
	taskID kernel.UUID

	guard guard.ConstructorGuard
}

func NewReassignTaskCommand(taskID kernel.UUID) (ReassignTaskCommand, error) {
	if err := taskID.Validate(); err != nil {
		return ReassignTaskCommand{}, err
	}

	return ReassignTaskCommand{
		taskID: taskID,
		guard:  guard.NewConstructorGuard(),
	}, nil
}

func (c ReassignTaskCommand) Validate() error {
	return c.guard.Validate(ErrReassignTaskCommandIsNotConstructed)
}

func (c ReassignTaskCommand) TaskID() kernel.UUID {
	return c.taskID
}
