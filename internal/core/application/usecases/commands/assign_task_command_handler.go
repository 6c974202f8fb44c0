package commands

import (
	"context"
	"log/slog"

	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/core/ports"
)

// AssignTaskCommandHandler offers a task to a courier or broadcasts it.
//
// Assignment is idempotent: a task that a courier has already taken, or that
// has reached a terminal or issue status, is left alone and OutcomeSkipped is
// returned. When no eligible courier exists the task is left untouched and
// OutcomeNone is returned; that is an expected outcome, not an error.
//
// Example:
//
//	handler := NewAssignTaskCommandHandler(store, notifier, observer, logger)
//	cmd, _ := NewAssignTaskCommand(taskID, false)
//	result, err := handler.Handle(ctx, cmd)
//	switch {
//	case err != nil:
//	    return err
//	case result.Outcome == OutcomeNone:
//	    log.Println("no couriers available, will retry")
//	}
type AssignTaskCommandHandler struct {
	engine dispatchEngine
}

// NewAssignTaskCommandHandler creates the handler. observer and logger may be nil.
func NewAssignTaskCommandHandler(
	store DispatchStore,
	notifier ports.CourierNotifier,
	observer DispatchObserver,
	logger *slog.Logger,
) AssignTaskCommandHandler {
	return AssignTaskCommandHandler{
		engine: newDispatchEngine(store, notifier, observer, logger),
	}
}

// Handle loads the task and dispatches it.
func (h AssignTaskCommandHandler) Handle(ctx context.Context, cmd AssignTaskCommand) (AssignmentResult, error) {
	if err := cmd.Validate(); err != nil {
		return AssignmentResult{}, err
	}

	t, err := h.engine.store.TaskRepository().Get(ctx, cmd.TaskID())
	if err != nil {
		return AssignmentResult{}, err
	}

	if !isDispatchable(t.Status()) {
		return outcome(OutcomeSkipped), nil
	}

	if cmd.BroadcastToAll() {
		return h.engine.broadcast(ctx, t)
	}

	// a broadcast task is already open to everyone; a directed offer would narrow it
	if t.Status() == task.Broadcast {
		return outcome(OutcomeSkipped), nil
	}

	return h.engine.assignDirected(ctx, t, nil)
}
