package queries

import (
	"context"
	"database/sql"
	"slices"
	"strings"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/core/ports"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetActiveTasksQueryHandler reads active tasks straight from the
// delivery_tasks table. Results are ordered by creation time.
//
// Example:
//
//	handler := NewGetActiveTasksQueryHandler(db)
//	tasks, err := handler.Handle(ctx, NewGetActiveTasksQuery(nil))
//	if err != nil {
//	    log.Printf("Failed to get active tasks: %v", err)
//	    return err
//	}
type GetActiveTasksQueryHandler struct {
	db *gorm.DB
}

func NewGetActiveTasksQueryHandler(db *gorm.DB) GetActiveTasksQueryHandler {
	return GetActiveTasksQueryHandler{db: db}
}

func (h GetActiveTasksQueryHandler) Handle(
	ctx context.Context,
	query GetActiveTasksQuery,
) ([]GetActiveTasksQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	statuses := make([]string, 0)
	for _, s := range activeStatuses() {
		statuses = append(statuses, s.String())
	}

	var sb strings.Builder
	sb.WriteString(`
		SELECT
			id,
			delivery_number,
			status,
			business_id,
			courier_id,
			customer_name,
			delivery_address,
			priority,
			assignment_attempts,
			created_at
		FROM delivery_tasks
		WHERE status IN ?`)
	args := []any{statuses}
	if businessID := query.BusinessID(); businessID != nil {
		sb.WriteString(` AND business_id = ?`)
		args = append(args, businessID.Bytes())
	}
	sb.WriteString(` ORDER BY created_at, id`)

	rows, err := h.db.WithContext(ctx).Raw(sb.String(), args...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]GetActiveTasksQueryResponse, 0)
	for rows.Next() {
		var (
			resp       GetActiveTasksQueryResponse
			id         uuid.UUID
			businessID uuid.UUID
			courierID  uuid.NullUUID
			status     string
			priority   string
			attempts   sql.NullInt64
		)

		err = rows.Scan(
			&id,
			&resp.DeliveryNumber,
			&status,
			&businessID,
			&courierID,
			&resp.CustomerName,
			&resp.DeliveryAddress,
			&priority,
			&attempts,
			&resp.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		if resp.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
			return nil, err
		}
		if resp.BusinessID, err = kernel.UUIDFromBytes(businessID[:]); err != nil {
			return nil, err
		}
		if courierID.Valid {
			cid, idErr := kernel.UUIDFromBytes(courierID.UUID[:])
			if idErr != nil {
				return nil, idErr
			}
			resp.CourierID = &cid
		}
		resp.Status = task.Status(status)
		resp.Priority = task.Priority(priority)
		resp.AssignmentAttempts = int(attempts.Int64)
		resp.CreatedAt = resp.CreatedAt.UTC()

		tasks = append(tasks, resp)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return tasks, nil
}

// RepositoryActiveTasksQueryHandler answers GetActiveTasksQuery from any
// ports.TaskRepository. Used with the in-memory store.
type RepositoryActiveTasksQueryHandler struct {
	tasks ports.TaskRepository
}

func NewRepositoryActiveTasksQueryHandler(tasks ports.TaskRepository) RepositoryActiveTasksQueryHandler {
	return RepositoryActiveTasksQueryHandler{tasks: tasks}
}

func (h RepositoryActiveTasksQueryHandler) Handle(
	ctx context.Context,
	query GetActiveTasksQuery,
) ([]GetActiveTasksQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	found, err := h.tasks.FindByStatus(ctx, activeStatuses()...)
	if err != nil {
		return nil, err
	}

	tasks := make([]GetActiveTasksQueryResponse, 0, len(found))
	for _, t := range found {
		if businessID := query.BusinessID(); businessID != nil && !t.BusinessID().IsEqual(*businessID) {
			continue
		}
		tasks = append(tasks, GetActiveTasksQueryResponse{
			ID:                 t.ID(),
			DeliveryNumber:     t.DeliveryNumber(),
			Status:             t.Status(),
			BusinessID:         t.BusinessID(),
			CourierID:          t.Courier(),
			CustomerName:       t.Details().CustomerName,
			DeliveryAddress:    t.Details().DeliveryAddress,
			Priority:           t.Details().Priority,
			AssignmentAttempts: t.AssignmentAttempts(),
			CreatedAt:          t.CreatedAt(),
		})
	}

	slices.SortStableFunc(tasks, func(a, b GetActiveTasksQueryResponse) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return tasks, nil
}
