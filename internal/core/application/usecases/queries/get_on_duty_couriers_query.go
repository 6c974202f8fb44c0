package queries

import (
	"errors"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrGetOnDutyCouriersQueryIsNotConstructed = errors.New(
	"GetOnDutyCouriersQuery must be created via NewGetOnDutyCouriersQuery constructor",
)

// GetOnDutyCouriersQuery lists couriers currently on shift with their live
// status and last known position.
type GetOnDutyCouriersQuery struct {
	guard guard.ConstructorGuard
}

func NewGetOnDutyCouriersQuery() GetOnDutyCouriersQuery {
	return GetOnDutyCouriersQuery{guard: guard.NewConstructorGuard()}
}

func (q GetOnDutyCouriersQuery) Validate() error {
	return q.guard.Validate(ErrGetOnDutyCouriersQueryIsNotConstructed)
}

// GetOnDutyCouriersQueryResponse is the read model of one courier.
// Location is nil until the courier reports a position.
type GetOnDutyCouriersQueryResponse struct {
	ID         kernel.UUID
	Name       string
	LiveStatus courier.LiveStatus
	Location   *kernel.Location
}
