package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"
)

// TaskEvent announces that a task was created or entered the subscribed status.
// Delivery is at-least-once; consumers re-read the task before acting.
type TaskEvent struct {
	TaskID kernel.UUID
	Status task.Status
}

// TaskRepository defines the persistence contract for task aggregates.
//
// There are no multi-record transactions. Every write is a field-scoped
// patch with last-write-wins semantics per field, and status timestamps are
// insert-only.
type TaskRepository interface {
	// Add persists a new task together with its initial status timestamp.
	Add(ctx context.Context, t *task.Task) error

	// Get retrieves a task by its unique identifier.
	// Returns errs.ErrObjectNotFound when it does not exist.
	Get(ctx context.Context, id kernel.UUID) (*task.Task, error)

	// UpdateFields applies a field-scoped patch to an existing task.
	UpdateFields(ctx context.Context, id kernel.UUID, patch task.Patch) error

	// FindByStatus returns all tasks currently in any of the given statuses,
	// oldest first.
	FindByStatus(ctx context.Context, statuses ...task.Status) ([]*task.Task, error)

	// FindByCourier returns the tasks bound to courierID whose status is one of
	// statuses.
	FindByCourier(ctx context.Context, courierID kernel.UUID, statuses ...task.Status) ([]*task.Task, error)

	// Subscribe streams an event for every task that is created in, or moves
	// into, status. The channel is closed when ctx is done. Tasks already in
	// status at subscription time are delivered as well.
	Subscribe(ctx context.Context, status task.Status) (<-chan TaskEvent, error)
}
