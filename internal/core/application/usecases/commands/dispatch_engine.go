package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
)

const notifyTimeout = 10 * time.Second

// dispatchEngine holds what assign and reassign share: loading couriers,
// running the dispatcher, persisting both patches and notifying the courier.
type dispatchEngine struct {
	store      DispatchStore
	dispatcher services.TaskDispatcher
	notifier   ports.CourierNotifier
	observer   DispatchObserver
	logger     *slog.Logger
	now        func() time.Time
}

func newDispatchEngine(
	store DispatchStore,
	notifier ports.CourierNotifier,
	observer DispatchObserver,
	logger *slog.Logger,
) dispatchEngine {
	if observer == nil {
		observer = NopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return dispatchEngine{
		store:      store,
		dispatcher: services.NewTaskDispatcher(),
		notifier:   notifier,
		observer:   observer,
		logger:     logger.With("component", "dispatch"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// assignDirected offers t to the nearest eligible courier except exclude.
// A courier who held the previous offer is released when the task moves to
// someone else. OutcomeNone leaves the task untouched.
func (e dispatchEngine) assignDirected(ctx context.Context, t *task.Task, exclude *kernel.UUID) (AssignmentResult, error) {
	held := t.Courier()

	b, err := e.store.BusinessRepository().Get(ctx, t.BusinessID())
	if err != nil {
		return AssignmentResult{}, err
	}

	couriers, err := e.store.CourierRepository().FindOnDuty(ctx)
	if err != nil {
		return AssignmentResult{}, err
	}

	a, err := e.dispatcher.Dispatch(t, b.Location(), couriers, exclude, e.now())
	if errors.Is(err, services.ErrCourierNotFound) {
		e.observer.AssignmentFinished(OutcomeNone)
		return outcome(OutcomeNone), nil
	}
	if err != nil {
		return AssignmentResult{}, err
	}

	if err = e.store.TaskRepository().UpdateFields(ctx, t.ID(), a.TaskPatch); err != nil {
		return AssignmentResult{}, err
	}
	if err = e.store.CourierRepository().UpdateFields(ctx, a.Courier.ID(), a.CourierPatch); err != nil {
		return AssignmentResult{}, err
	}

	courierID := a.Courier.ID()
	if held != nil && !held.IsEqual(courierID) {
		if err = releaseCourier(ctx, e.store.CourierRepository(), *held); err != nil {
			return AssignmentResult{}, err
		}
	}
	e.notify(ctx, ports.CourierNotification{
		Kind:           ports.NotificationTaskOffered,
		TaskID:         t.ID(),
		CourierID:      &courierID,
		DeliveryNumber: t.DeliveryNumber(),
		BusinessName:   b.Name(),
	})
	e.observer.AssignmentFinished(OutcomeAssigned)
	e.logger.InfoContext(ctx, "task offered",
		"taskId", t.ID().String(),
		"courierId", courierID.String(),
		"distanceKm", a.DistanceKm,
		"attempt", t.AssignmentAttempts(),
	)

	return assigned(courierID), nil
}

// broadcast opens t to every courier. A courier still holding the directed
// offer is released first.
func (e dispatchEngine) broadcast(ctx context.Context, t *task.Task) (AssignmentResult, error) {
	held := t.Courier()

	patch, err := t.OpenToAll(e.now())
	if err != nil {
		return AssignmentResult{}, err
	}

	if err = e.store.TaskRepository().UpdateFields(ctx, t.ID(), patch); err != nil {
		return AssignmentResult{}, err
	}

	if held != nil {
		if err = releaseCourier(ctx, e.store.CourierRepository(), *held); err != nil {
			return AssignmentResult{}, err
		}
	}

	e.notify(ctx, ports.CourierNotification{
		Kind:           ports.NotificationTaskBroadcast,
		TaskID:         t.ID(),
		DeliveryNumber: t.DeliveryNumber(),
	})
	e.observer.AssignmentFinished(OutcomeBroadcast)
	e.logger.InfoContext(ctx, "task broadcast", "taskId", t.ID().String(), "attempt", t.AssignmentAttempts())

	return outcome(OutcomeBroadcast), nil
}

// notify pushes n without blocking the caller. Failures are logged only.
func (e dispatchEngine) notify(ctx context.Context, n ports.CourierNotification) {
	if e.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		if err := e.notifier.Notify(ctx, n); err != nil {
			e.logger.WarnContext(ctx, "courier notification failed",
				"taskId", n.TaskID.String(),
				"kind", string(n.Kind),
				"error", err,
			)
		}
	}()
}

// releaseCourier makes the courier available again, or unavailable if it went
// off duty in the meantime.
func releaseCourier(ctx context.Context, couriers ports.CourierRepository, courierID kernel.UUID) error {
	c, err := couriers.Get(ctx, courierID)
	if err != nil {
		return err
	}
	return couriers.UpdateFields(ctx, courierID, c.Release())
}

// isDispatchable reports whether assignment may act on a task in status s.
func isDispatchable(s task.Status) bool {
	return s == task.Pending || s == task.PendingAcceptance || s == task.Broadcast
}
