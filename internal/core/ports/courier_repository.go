// Package ports defines the contracts between the dispatch core and its
// infrastructure: persistence, position lookup and courier notification.
package ports

import (
	"context"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
)

// CourierRepository defines the persistence contract for courier aggregates.
type CourierRepository interface {
	// Add persists a new courier.
	Add(ctx context.Context, courier *courier.Courier) error

	// Get retrieves a courier by its unique identifier.
	// Returns errs.ErrObjectNotFound when it does not exist.
	Get(ctx context.Context, id kernel.UUID) (*courier.Courier, error)

	// UpdateFields applies a field-scoped patch. Fields absent from the patch
	// are left untouched, so concurrent writers of different fields do not
	// overwrite each other.
	UpdateFields(ctx context.Context, id kernel.UUID, patch courier.Patch) error

	// FindOnDuty returns every courier whose duty flag is set, regardless of
	// live status. Dispatch filters eligibility itself.
	//
	// Example:
	//   couriers, err := repo.FindOnDuty(ctx)
	//   if err != nil {
	//       return fmt.Errorf("failed to get on-duty couriers: %w", err)
	//   }
	FindOnDuty(ctx context.Context) ([]*courier.Courier, error)
}
