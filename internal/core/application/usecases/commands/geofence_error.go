package commands

import (
	"fmt"

	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/pkg/errs"
)

// GeofenceError reports a courier confirming pickup or delivery too far from
// the target. It unwraps to errs.ErrPreconditionFailed; nothing was changed
// and the courier may retry once closer.
type GeofenceError struct {
	Target     task.Status
	DistanceKm float64
	LimitKm    float64
}

func (e *GeofenceError) Error() string {
	return fmt.Sprintf("%s: courier is %.0f m away, %s requires %.0f m or less",
		errs.ErrPreconditionFailed, e.DistanceKm*1000, e.Target, e.LimitKm*1000)
}

func (e *GeofenceError) Unwrap() error {
	return errs.ErrPreconditionFailed
}

// DistanceMeters is the measured distance rounded to whole metres.
func (e *GeofenceError) DistanceMeters() int {
	return int(e.DistanceKm*1000 + 0.5)
}
