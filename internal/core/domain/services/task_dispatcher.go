package services

import (
	"errors"
	"math"
	"time"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"
)

// ErrCourierNotFound is returned when no eligible courier is available for a task.
// This occurs when no couriers are provided, none is on duty and free, none has
// reported a position, or the only candidate is the excluded one.
var ErrCourierNotFound = errors.New("courier not found")

// Assignment is the outcome of a directed dispatch. Both patches must be
// persisted by the caller.
type Assignment struct {
	Courier      *courier.Courier
	DistanceKm   float64
	TaskPatch    task.Patch
	CourierPatch courier.Patch
}

// TaskDispatcher is a domain service that offers a task to the eligible
// courier nearest to the pickup point.
//
// Business rules:
//   - Only pending and pending_acceptance tasks may be offered
//   - A courier is a candidate when courier.IsEligibleForDispatch holds
//   - The excluded courier (the one currently holding the offer) is never chosen
//   - Distance is the great-circle distance from the courier to the business
//   - Ties go to the courier listed first
//
// Example usage:
//
//	dispatcher := services.NewTaskDispatcher()
//	a, err := dispatcher.Dispatch(t, business.Location(), couriers, nil, time.Now())
//	if errors.Is(err, services.ErrCourierNotFound) {
//	    // leave the task for a later attempt
//	    return
//	}
type TaskDispatcher struct{}

// NewTaskDispatcher creates a new TaskDispatcher instance.
func NewTaskDispatcher() TaskDispatcher {
	return TaskDispatcher{}
}

// Dispatch selects the nearest eligible courier, offers it the task and marks
// the courier as pending acceptance.
//
// Returns:
//   - Assignment: the chosen courier, its distance and the patches to persist
//   - error: ErrCourierNotFound if no candidate exists, or validation/transition errors
func (d TaskDispatcher) Dispatch(
	t *task.Task,
	pickup kernel.Location,
	couriers []*courier.Courier,
	exclude *kernel.UUID,
	now time.Time,
) (Assignment, error) {
	if err := t.Validate(); err != nil {
		return Assignment{}, err
	}

	if err := t.Status().ValidateDirectedAssign(); err != nil {
		return Assignment{}, err
	}

	best, distance, err := d.FindNearest(pickup, couriers, exclude)
	if err != nil {
		return Assignment{}, err
	}

	taskPatch, err := t.AssignTo(best.ID(), now)
	if err != nil {
		return Assignment{}, err
	}

	return Assignment{
		Courier:      best,
		DistanceKm:   distance,
		TaskPatch:    taskPatch,
		CourierPatch: best.Offer(),
	}, nil
}

// FindNearest returns the eligible courier closest to pickup together with its
// distance in kilometres.
func (d TaskDispatcher) FindNearest(
	pickup kernel.Location,
	couriers []*courier.Courier,
	exclude *kernel.UUID,
) (*courier.Courier, float64, error) {
	if err := pickup.Validate(); err != nil {
		return nil, 0, err
	}

	var (
		bestCourier  *courier.Courier
		bestDistance = math.MaxFloat64
	)

	for _, c := range couriers {
		if err := c.Validate(); err != nil {
			return nil, 0, err
		}

		if exclude != nil && c.ID().IsEqual(*exclude) {
			continue
		}

		if !c.IsEligibleForDispatch() {
			continue
		}

		distance, err := c.Location().DistanceTo(pickup)
		if err != nil {
			return nil, 0, err
		}

		if distance < bestDistance {
			bestDistance = distance
			bestCourier = c
		}
	}

	if bestCourier == nil {
		return nil, 0, ErrCourierNotFound
	}

	return bestCourier, bestDistance, nil
}
