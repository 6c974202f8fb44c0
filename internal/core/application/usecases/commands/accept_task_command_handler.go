package commands

import (
	"context"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/pkg/errs"
)

// AcceptTaskCommandHandler binds a task to the accepting courier and marks the
// courier busy.
//
// Errors:
//   - errs.ErrObjectNotFound: unknown task or courier
//   - errs.ErrUnauthorized: the task is directed at another courier
//   - errs.ErrPreconditionFailed: the task is no longer awaiting acceptance,
//     or a broadcast task is claimed by a courier that is off duty or busy
type AcceptTaskCommandHandler struct {
	store    TaskCourierStore
	observer DispatchObserver
	now      func() time.Time
}

func NewAcceptTaskCommandHandler(store TaskCourierStore, observer DispatchObserver) AcceptTaskCommandHandler {
	if observer == nil {
		observer = NopObserver{}
	}
	return AcceptTaskCommandHandler{
		store:    store,
		observer: observer,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (h AcceptTaskCommandHandler) Handle(ctx context.Context, cmd AcceptTaskCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	tasks := h.store.TaskRepository()
	couriers := h.store.CourierRepository()

	t, err := tasks.Get(ctx, cmd.TaskID())
	if err != nil {
		return err
	}

	c, err := couriers.Get(ctx, cmd.CourierID())
	if err != nil {
		return err
	}

	if t.Status() == task.Broadcast {
		if err = canClaimBroadcast(c); err != nil {
			return err
		}
	}

	taskPatch, err := t.Accept(cmd.CourierID(), h.now())
	if err != nil {
		return err
	}

	if err = tasks.UpdateFields(ctx, t.ID(), taskPatch); err != nil {
		return err
	}

	if err = couriers.UpdateFields(ctx, c.ID(), c.Engage()); err != nil {
		return err
	}

	h.observer.CourierResponded(true)
	h.observer.StatusChanged(t.Status())
	return nil
}

func canClaimBroadcast(c *courier.Courier) error {
	if !c.OnDuty() {
		return errs.NewPreconditionFailedError(fmt.Sprintf("courier %s is off duty", c.ID()))
	}
	if c.LiveStatus() == courier.Busy {
		return errs.NewPreconditionFailedError(fmt.Sprintf("courier %s is busy with another task", c.ID()))
	}
	return nil
}
