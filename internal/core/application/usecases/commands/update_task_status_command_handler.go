package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// GeofenceConfig bounds the position checks of pickup and delivery.
type GeofenceConfig struct {
	// RadiusKm is the maximum distance between courier and target.
	RadiusKm float64
	// LookupTimeout bounds the device position lookup.
	LookupTimeout time.Duration
}

// DefaultGeofenceConfig returns a 50 m radius and a 10 s lookup timeout.
func DefaultGeofenceConfig() GeofenceConfig {
	return GeofenceConfig{
		RadiusKm:      kernel.DefaultGeofenceKm,
		LookupTimeout: 10 * time.Second,
	}
}

// ErrPositionUnavailable wraps failures of the geolocation provider.
var ErrPositionUnavailable = errors.New("courier position unavailable")

// UpdateTaskStatusCommandHandler confirms pickup or delivery.
//
// The courier's device position is acquired first and compared with the
// target: the business for pickup, the delivery coordinates for delivery.
// When the task has no delivery coordinates the saved client record is used,
// and when neither exists the delivery is allowed with a warning.
// A failed lookup or a failed geofence changes nothing.
//
// On delivery the courier is released. The acquired position is stored as
// the courier's last known location.
type UpdateTaskStatusCommandHandler struct {
	store    DispatchStore
	geo      ports.GeolocationProvider
	geofence GeofenceConfig
	observer DispatchObserver
	logger   *slog.Logger
	now      func() time.Time
}

func NewUpdateTaskStatusCommandHandler(
	store DispatchStore,
	geo ports.GeolocationProvider,
	geofence GeofenceConfig,
	observer DispatchObserver,
	logger *slog.Logger,
) UpdateTaskStatusCommandHandler {
	if observer == nil {
		observer = NopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return UpdateTaskStatusCommandHandler{
		store:    store,
		geo:      geo,
		geofence: geofence,
		observer: observer,
		logger:   logger.With("component", "task_lifecycle"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (h UpdateTaskStatusCommandHandler) Handle(ctx context.Context, cmd UpdateTaskStatusCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	tasks := h.store.TaskRepository()
	t, err := tasks.Get(ctx, cmd.TaskID())
	if err != nil {
		return err
	}

	if !t.IsHeldBy(cmd.CourierID()) {
		return errs.NewUnauthorizedError("courier "+cmd.CourierID().String(), "update task", t.ID())
	}
	if err = t.Status().CanTransitionTo(cmd.NewStatus()); err != nil {
		return err
	}

	position, err := h.currentPosition(ctx, cmd.CourierID())
	if err != nil {
		return err
	}

	target, err := h.target(ctx, t, cmd.NewStatus())
	if err != nil {
		return err
	}

	if target != nil {
		distance, err := position.DistanceTo(*target)
		if err != nil {
			return err
		}
		if distance > h.geofence.RadiusKm {
			h.observer.GeofenceRejected(cmd.NewStatus())
			return &GeofenceError{Target: cmd.NewStatus(), DistanceKm: distance, LimitKm: h.geofence.RadiusKm}
		}
	} else {
		h.logger.WarnContext(ctx, "delivery confirmed without destination coordinates",
			"taskId", t.ID().String(),
			"courierId", cmd.CourierID().String(),
		)
	}

	var patch task.Patch
	switch cmd.NewStatus() {
	case task.Picked:
		patch, err = t.PickUp(cmd.CourierID(), h.now())
	case task.Delivered:
		patch, err = t.Deliver(cmd.CourierID(), h.now())
	}
	if err != nil {
		return err
	}

	if err = tasks.UpdateFields(ctx, t.ID(), patch); err != nil {
		return err
	}
	h.observer.StatusChanged(t.Status())

	return h.updateCourier(ctx, cmd.CourierID(), position, cmd.NewStatus() == task.Delivered)
}

func (h UpdateTaskStatusCommandHandler) currentPosition(ctx context.Context, courierID kernel.UUID) (kernel.Location, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, h.geofence.LookupTimeout)
	defer cancel()

	position, err := h.geo.CurrentPosition(lookupCtx, courierID)
	if err != nil {
		return kernel.Location{}, fmt.Errorf("%w: %w", ErrPositionUnavailable, err)
	}
	if err = position.Validate(); err != nil {
		return kernel.Location{}, fmt.Errorf("%w: %w", ErrPositionUnavailable, err)
	}
	return position, nil
}

// target returns the geofence anchor for status, or nil when a delivery has
// no known destination.
func (h UpdateTaskStatusCommandHandler) target(ctx context.Context, t *task.Task, status task.Status) (*kernel.Location, error) {
	if status == task.Picked {
		b, err := h.store.BusinessRepository().Get(ctx, t.BusinessID())
		if err != nil {
			return nil, err
		}
		loc := b.Location()
		return &loc, nil
	}

	if loc := t.ClientLocation(); loc != nil {
		return loc, nil
	}

	if clientID := t.ClientID(); clientID != nil {
		client, err := h.store.BusinessRepository().GetClient(ctx, *clientID)
		if errors.Is(err, errs.ErrObjectNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return client.Location(), nil
	}

	return nil, nil
}

func (h UpdateTaskStatusCommandHandler) updateCourier(ctx context.Context, courierID kernel.UUID, position kernel.Location, release bool) error {
	couriers := h.store.CourierRepository()
	c, err := couriers.Get(ctx, courierID)
	if err != nil {
		return err
	}

	patch, err := c.MoveTo(position)
	if err != nil {
		return err
	}
	if release {
		patch.LiveStatus = c.Release().LiveStatus
	}

	return couriers.UpdateFields(ctx, courierID, patch)
}
