package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/task"
)

// CreateTaskCommandHandler registers a pending task. The delivery company is
// taken from the business and the delivery number from the store counter.
// Dispatch starts when the pending task monitor picks the task up.
type CreateTaskCommandHandler struct {
	store TaskCreationStore
	now   func() time.Time
}

func NewCreateTaskCommandHandler(store TaskCreationStore) CreateTaskCommandHandler {
	return CreateTaskCommandHandler{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Handle returns the created task so callers can report its delivery number.
func (h CreateTaskCommandHandler) Handle(ctx context.Context, cmd CreateTaskCommand) (*task.Task, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	b, err := h.store.BusinessRepository().Get(ctx, cmd.BusinessID())
	if err != nil {
		return nil, err
	}

	now := h.now()
	number, err := h.store.DeliveryNumberGenerator().NextDeliveryNumber(ctx, now)
	if err != nil {
		return nil, err
	}

	details := cmd.Details()
	details.DeliveryCompanyID = b.DeliveryCompanyID()

	t, err := task.NewTask(cmd.TaskID(), number, details, now)
	if err != nil {
		return nil, err
	}

	if err = h.store.TaskRepository().Add(ctx, t); err != nil {
		return nil, err
	}

	return t, nil
}
