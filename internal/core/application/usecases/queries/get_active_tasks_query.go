package queries

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/pkg/guard"
)

var ErrGetActiveTasksQueryIsNotConstructed = errors.New(
	"GetActiveTasksQuery must be created via NewGetActiveTasksQuery constructor",
)

// GetActiveTasksQuery lists tasks that have not reached a terminal status.
// Used by dispatcher and business dashboards.
//
// Example:
//
//	query := NewGetActiveTasksQuery(&businessID) // nil lists every business
//	tasks, err := handler.Handle(ctx, query)
//	if err != nil {
//	    return fmt.Errorf("failed to get active tasks: %w", err)
//	}
type GetActiveTasksQuery struct {
	businessID *kernel.UUID

	guard guard.ConstructorGuard
}

// NewGetActiveTasksQuery creates the query. A nil businessID selects every business.
func NewGetActiveTasksQuery(businessID *kernel.UUID) GetActiveTasksQuery {
	return GetActiveTasksQuery{businessID: businessID, guard: guard.NewConstructorGuard()}
}

// Validate ensures the query was created through the constructor.
func (q GetActiveTasksQuery) Validate() error {
	return q.guard.Validate(ErrGetActiveTasksQueryIsNotConstructed)
}

func (q GetActiveTasksQuery) BusinessID() *kernel.UUID {
	return q.businessID
}

// GetActiveTasksQueryResponse is the read model of one active task.
type GetActiveTasksQueryResponse struct {
	ID                 kernel.UUID
	DeliveryNumber     string
	Status             task.Status
	BusinessID         kernel.UUID
	CourierID          *kernel.UUID
	CustomerName       string
	DeliveryAddress    string
	Priority           task.Priority
	AssignmentAttempts int
	CreatedAt          time.Time
}

// activeStatuses are the statuses GetActiveTasksQuery selects.
func activeStatuses() []task.Status {
	statuses := make([]task.Status, 0, len(task.AllStatuses()))
	for _, s := range task.AllStatuses() {
		if !s.IsTerminal() {
			statuses = append(statuses, s)
		}
	}
	return statuses
}
