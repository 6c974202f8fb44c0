package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrAssignTaskCommandIsNotConstructed = errors.New(
	"AssignTaskCommand must be created via NewAssignTaskCommand constructor",
)

// AssignTaskCommand asks the dispatch engine to offer a task to the nearest
// eligible courier, or to every courier when broadcastToAll is set.
//
// Example:
//
//	cmd, err := NewAssignTaskCommand(taskID, false)
//	if err != nil {
//	    return err
//	}
//	result, err := handler.Handle(ctx, cmd)
//	if result.IsDirected() {
//	    coordinator.StartTimer(taskID, *result.CourierID)
//	}
type AssignTaskCommand struct { //nolint:recvcheck //using for validation
	taskID         kernel.UUID
	broadcastToAll bool

	guard guard.ConstructorGuard
}

// NewAssignTaskCommand creates an assignment request for taskID.
func NewAssignTaskCommand(taskID kernel.UUID, broadcastToAll bool) (AssignTaskCommand, error) {
	if err := taskID.Validate(); err != nil {
		return AssignTaskCommand{}, err
	}

	return AssignTaskCommand{
		taskID:         taskID,
		broadcastToAll: broadcastToAll,
		guard:          guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c AssignTaskCommand) Validate() error {
	return c.guard.Validate(ErrAssignTaskCommandIsNotConstructed)
}

func (c AssignTaskCommand) TaskID() kernel.UUID {
	return c.taskID
}

func (c AssignTaskCommand) BroadcastToAll() bool {
	return c.broadcastToAll
}
