package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
)

// GeolocationProvider acquires the current position of a courier's device.
// Implementations must honour ctx cancellation; callers bound the lookup with
// a timeout.
type GeolocationProvider interface {
	CurrentPosition(ctx context.Context, courierID kernel.UUID) (kernel.Location, error)
}
