package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var (
	ErrAcceptTaskCommandIsNotConstructed = errors.New(
		"AcceptTaskCommand must be created via NewAcceptTaskCommand constructor",
	)
	ErrRejectTaskCommandIsNotConstructed = errors.New(
		"RejectTaskCommand must be created via NewRejectTaskCommand constructor",
	)
	ErrExpireAssignmentCommandIsNotConstructed = errors.New(
		"ExpireAssignmentCommand must be created via NewExpireAssignmentCommand constructor",
	)
)

// taskCourierPair is the payload shared by the courier response commands.
type taskCourierPair struct {
	taskID    kernel.UUID
	courierID kernel.UUID
}

func newTaskCourierPair(taskID, courierID kernel.UUID) (taskCourierPair, error) {
	if err := errors.Join(taskID.Validate(), courierID.Validate()); err != nil {
		return taskCourierPair{}, err
	}
	return taskCourierPair{taskID: taskID, courierID: courierID}, nil
}

func (p taskCourierPair) TaskID() kernel.UUID { return p.taskID }
func (p taskCourierPair) CourierID() kernel.UUID { return p.courierID }

// AcceptTaskCommand is sent when a courier takes a directed or broadcast task.
type AcceptTaskCommand struct {
	taskCourierPair

	guard guard.ConstructorGuard
}

func NewAcceptTaskCommand(taskID, courierID kernel.UUID) (AcceptTaskCommand, error) {
	pair, err := newTaskCourierPair(taskID, courierID)
	if err != nil {
		return AcceptTaskCommand{}, err
	}
	return AcceptTaskCommand{taskCourierPair: pair, guard: guard.NewConstructorGuard()}, nil
}

func (c AcceptTaskCommand) Validate() error {
	return c.guard.Validate(ErrAcceptTaskCommandIsNotConstructed)
}

// RejectTaskCommand is sent when the courier holding a directed offer declines it.
type RejectTaskCommand struct {
	taskCourierPair

	guard guard.ConstructorGuard
}

func NewRejectTaskCommand(taskID, courierID kernel.UUID) (RejectTaskCommand, error) {
	pair, err := newTaskCourierPair(taskID, courierID)
	if err != nil {
		return RejectTaskCommand{}, err
	}
	return RejectTaskCommand{taskCourierPair: pair, guard: guard.NewConstructorGuard()}, nil
}

func (c RejectTaskCommand) Validate() error {
	return c.guard.Validate(ErrRejectTaskCommandIsNotConstructed)
}

// ExpireAssignmentCommand is issued when the courier's response window closes.
// courierID is the courier the offer was made to; an offer that has since
// moved to someone else is not expired.
type ExpireAssignmentCommand struct {
	taskCourierPair

	guard guard.ConstructorGuard
}

func NewExpireAssignmentCommand(taskID, courierID kernel.UUID) (ExpireAssignmentCommand, error) {
	pair, err := newTaskCourierPair(taskID, courierID)
	if err != nil {
		return ExpireAssignmentCommand{}, err
	}
	return ExpireAssignmentCommand{taskCourierPair: pair, guard: guard.NewConstructorGuard()}, nil
}

func (c ExpireAssignmentCommand) Validate() error {
	return c.guard.Validate(ErrExpireAssignmentCommandIsNotConstructed)
}
