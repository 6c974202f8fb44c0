package commands

import (
	"context"
)

// RejectTaskCommandHandler frees the declining courier and escalates the task.
// The returned result tells the caller whether a new offer was made.
type RejectTaskCommandHandler struct {
	store     TaskCourierStore
	escalator Escalator
	observer  DispatchObserver
}

func NewRejectTaskCommandHandler(store TaskCourierStore, escalator Escalator, observer DispatchObserver) RejectTaskCommandHandler {
	if observer == nil {
		observer = NopObserver{}
	}
	return RejectTaskCommandHandler{store: store, escalator: escalator, observer: observer}
}

func (h RejectTaskCommandHandler) Handle(ctx context.Context, cmd RejectTaskCommand) (AssignmentResult, error) {
	if err := cmd.Validate(); err != nil {
		return AssignmentResult{}, err
	}

	t, err := h.store.TaskRepository().Get(ctx, cmd.TaskID())
	if err != nil {
		return AssignmentResult{}, err
	}

	if err = t.ValidateReject(cmd.CourierID()); err != nil {
		return AssignmentResult{}, err
	}

	if err = releaseCourier(ctx, h.store.CourierRepository(), cmd.CourierID()); err != nil {
		return AssignmentResult{}, err
	}

	h.observer.CourierResponded(false)
	return h.escalator.Escalate(ctx, t)
}
