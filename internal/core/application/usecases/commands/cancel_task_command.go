package commands

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/pkg/guard"
)

var ErrCancelTaskCommandIsNotConstructed = errors.New(
	"CancelTaskCommand must be created via NewCancelTaskCommand constructor",
)

// CancelTaskCommand withdraws a task that has not been picked up yet.
type CancelTaskCommand struct {
	taskID kernel.UUID

	guard guard.ConstructorGuard
}

func NewCancelTaskCommand(taskID kernel.UUID) (CancelTaskCommand, error) {
	if err := taskID.Validate(); err != nil {
		return CancelTaskCommand{}, err
	}
	return CancelTaskCommand{taskID: taskID, guard: guard.NewConstructorGuard()}, nil
}

func (c CancelTaskCommand) Validate() error {
	return c.guard.Validate(ErrCancelTaskCommandIsNotConstructed)
}

func (c CancelTaskCommand) TaskID() kernel.UUID {
	return c.taskID
}

// CancelTaskCommandHandler cancels the task and releases the courier bound to it.
type CancelTaskCommandHandler struct {
	store    TaskCourierStore
	observer DispatchObserver
	now      func() time.Time
}

func NewCancelTaskCommandHandler(store TaskCourierStore, observer DispatchObserver) CancelTaskCommandHandler {
	if observer == nil {
		observer = NopObserver{}
	}
	return CancelTaskCommandHandler{
		store:    store,
		observer: observer,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (h CancelTaskCommandHandler) Handle(ctx context.Context, cmd CancelTaskCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	tasks := h.store.TaskRepository()
	t, err := tasks.Get(ctx, cmd.TaskID())
	if err != nil {
		return err
	}

	patch, err := t.Cancel(h.now())
	if err != nil {
		return err
	}

	if err = tasks.UpdateFields(ctx, t.ID(), patch); err != nil {
		return err
	}
	h.observer.StatusChanged(task.Cancelled)

	if held := t.Courier(); held != nil {
		return releaseCourier(ctx, h.store.CourierRepository(), *held)
	}
	return nil
}
