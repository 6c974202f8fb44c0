package commands

import (
	"context"
	"log/slog"

	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/core/ports"
)

// ReassignTaskCommandHandler moves a directed offer to the next nearest courier.
// The courier currently holding the offer is excluded but not released; the
// caller frees it before asking for a reassignment.
type ReassignTaskCommandHandler struct {
	engine dispatchEngine
}

func NewReassignTaskCommandHandler(
	store DispatchStore,
	notifier ports.CourierNotifier,
	observer DispatchObserver,
	logger *slog.Logger,
) ReassignTaskCommandHandler {
	return ReassignTaskCommandHandler{
		engine: newDispatchEngine(store, notifier, observer, logger),
	}
}

// Handle returns OutcomeSkipped unless the task is pending or awaiting a
// response, and OutcomeNone when nobody else is eligible.
func (h ReassignTaskCommandHandler) Handle(ctx context.Context, cmd ReassignTaskCommand) (AssignmentResult, error) {
	if err := cmd.Validate(); err != nil {
		return AssignmentResult{}, err
	}

	t, err := h.engine.store.TaskRepository().Get(ctx, cmd.TaskID())
	if err != nil {
		return AssignmentResult{}, err
	}

	if t.Status() != task.PendingAcceptance && t.Status() != task.Pending {
		return outcome(OutcomeSkipped), nil
	}

	return h.engine.assignDirected(ctx, t, t.Courier())
}
