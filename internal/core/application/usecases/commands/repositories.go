// Package commands contains business operations that modify system state.
// Implements the Command pattern for write operations in the CQRS architecture.
// All commands follow a consistent pattern: validation, field-scoped patches, persistence.
package commands

import (
	"dispatch/internal/core/ports"
)

// Store interfaces give each handler access to exactly the repositories it
// touches. There is no transaction boundary: every write is a field-scoped
// patch with last-write-wins semantics per field.
type (
	// TaskRepoFactory provides access to the task repository.
	TaskRepoFactory interface {
		TaskRepository() ports.TaskRepository
	}

	// CourierRepoFactory provides access to the courier repository.
	CourierRepoFactory interface {
		CourierRepository() ports.CourierRepository
	}

	// BusinessRepoFactory provides access to businesses and their clients.
	BusinessRepoFactory interface {
		BusinessRepository() ports.BusinessRepository
	}

	// DeliveryNumberFactory provides access to the delivery number counter.
	DeliveryNumberFactory interface {
		DeliveryNumberGenerator() ports.DeliveryNumberGenerator
	}

	// TaskCourierStore is used by commands that move a task and free or bind its courier.
	TaskCourierStore interface {
		TaskRepoFactory
		CourierRepoFactory
	}

	// DispatchStore is used by commands that also need the pickup point or client record.
	//
	// Example:
	//   tasks := store.TaskRepository()
	//   t, err := tasks.Get(ctx, id)
	//   ...
	//   err = tasks.UpdateFields(ctx, id, patch)
	DispatchStore interface {
		TaskRepoFactory
		CourierRepoFactory
		BusinessRepoFactory
	}

	// TaskCreationStore is used by task creation.
	TaskCreationStore interface {
		TaskRepoFactory
		BusinessRepoFactory
		DeliveryNumberFactory
	}
)
