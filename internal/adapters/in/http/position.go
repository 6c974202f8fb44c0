package http

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

var _ ports.GeolocationProvider = ReportedPosition{}

type positionKey struct{}

type reportedPosition struct {
	courierID kernel.UUID
	location  kernel.Location
}

// WithReportedPosition attaches the position a courier's device sent with
// the request.
func WithReportedPosition(ctx context.Context, courierID kernel.UUID, location kernel.Location) context.Context {
	return context.WithValue(ctx, positionKey{}, reportedPosition{courierID: courierID, location: location})
}

// ReportedPosition is the geolocation provider of the HTTP API: the device
// reports its position with every pickup and delivery confirmation.
type ReportedPosition struct{}

func (ReportedPosition) CurrentPosition(ctx context.Context, courierID kernel.UUID) (kernel.Location, error) {
	if err := ctx.Err(); err != nil {
		return kernel.Location{}, err
	}
	p, ok := ctx.Value(positionKey{}).(reportedPosition)
	if !ok || !p.courierID.IsEqual(courierID) {
		return kernel.Location{}, errs.NewValueIsRequiredError("position")
	}
	return p.location, nil
}
