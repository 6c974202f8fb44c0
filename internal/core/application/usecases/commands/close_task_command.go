package commands

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrCloseTaskCommandIsNotConstructed = errors.New(
	"CloseTaskCommand must be created via NewCloseTaskCommand constructor",
)

// CloseTaskCommand resolves a reported issue on behalf of the owning business.
type CloseTaskCommand struct {
	taskID     kernel.UUID
	businessID kernel.UUID

	guard guard.ConstructorGuard
}

func NewCloseTaskCommand(taskID, businessID kernel.UUID) (CloseTaskCommand, error) {
	if err := errors.Join(taskID.Validate(), businessID.Validate()); err != nil {
		return CloseTaskCommand{}, err
	}
	return CloseTaskCommand{taskID: taskID, businessID: businessID, guard: guard.NewConstructorGuard()}, nil
}

func (c CloseTaskCommand) Validate() error {
	return c.guard.Validate(ErrCloseTaskCommandIsNotConstructed)
}

func (c CloseTaskCommand) TaskID() kernel.UUID { return c.taskID }
func (c CloseTaskCommand) BusinessID() kernel.UUID { return c.businessID }

// CloseTaskCommandHandler closes issue_reported tasks. The issue type and
// comments stay on the task.
type CloseTaskCommandHandler struct {
	store    TaskRepoFactory
	observer DispatchObserver
	now      func() time.Time
}

func NewCloseTaskCommandHandler(store TaskRepoFactory, observer DispatchObserver) CloseTaskCommandHandler {
	if observer == nil {
		observer = NopObserver{}
	}
	return CloseTaskCommandHandler{
		store:    store,
		observer: observer,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (h CloseTaskCommandHandler) Handle(ctx context.Context, cmd CloseTaskCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	tasks := h.store.TaskRepository()
	t, err := tasks.Get(ctx, cmd.TaskID())
	if err != nil {
		return err
	}

	patch, err := t.Close(cmd.BusinessID(), h.now())
	if err != nil {
		return err
	}

	if err = tasks.UpdateFields(ctx, t.ID(), patch); err != nil {
		return err
	}
	h.observer.StatusChanged(t.Status())
	return nil
}
