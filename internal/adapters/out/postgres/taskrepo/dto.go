// Package taskrepo persists task aggregates in PostgreSQL through GORM and
// streams status changes with LISTEN/NOTIFY.
package taskrepo

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"

	"github.com/google/uuid"
)

// TaskDTO represents the database structure for persisting task aggregates.
// Status timestamps live in their own table so that they can be appended
// without rewriting the task row.
type TaskDTO struct {
	ID                 uuid.UUID            `gorm:"type:uuid;primaryKey"`
	DeliveryNumber     string               `gorm:"type:varchar(32);not null;uniqueIndex"`
	Status             string               `gorm:"type:varchar(32);not null;index"`
	BusinessID         uuid.UUID            `gorm:"type:uuid;not null;index"`
	DeliveryCompanyID  *uuid.UUID           `gorm:"type:uuid"`
	CourierID          *uuid.UUID           `gorm:"type:uuid;index"`
	ClientID           *uuid.UUID           `gorm:"type:uuid"`
	CustomerName       string               `gorm:"type:varchar(255);not null"`
	PhoneNumber        string               `gorm:"type:varchar(64)"`
	DeliveryAddress    string               `gorm:"type:text;not null"`
	ClientLat          *float64             `gorm:"type:double precision"`
	ClientLon          *float64             `gorm:"type:double precision"`
	Priority           string               `gorm:"type:varchar(16);not null"`
	PaymentMethod      string               `gorm:"type:varchar(16);not null"`
	Notes              string               `gorm:"type:text"`
	AssignmentAttempts int                  `gorm:"type:int;not null"`
	AssignedAt         *time.Time           `gorm:"type:timestamptz"`
	BroadcastAt        *time.Time           `gorm:"type:timestamptz"`
	AcceptedAt         *time.Time           `gorm:"type:timestamptz"`
	PickedUpAt         *time.Time           `gorm:"type:timestamptz"`
	DeliveredAt        *time.Time           `gorm:"type:timestamptz"`
	IssueReportedAt    *time.Time           `gorm:"type:timestamptz"`
	ClosedAt           *time.Time           `gorm:"type:timestamptz"`
	CancelledAt        *time.Time           `gorm:"type:timestamptz"`
	IssueType          string               `gorm:"type:varchar(32)"`
	IssueComments      string               `gorm:"type:text"`
	CreatedAt          time.Time            `gorm:"type:timestamptz;not null;index"`
	StatusTimestamps   []StatusTimestampDTO `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
}

// TableName overrides GORM's default "task_dtos".
func (TaskDTO) TableName() string {
	return "delivery_tasks"
}

// StatusTimestampDTO records when a task first entered a status. The
// composite key makes a second insert for the same status a no-op.
type StatusTimestampDTO struct {
	TaskID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Status string    `gorm:"type:varchar(32);primaryKey"`
	At     time.Time `gorm:"type:timestamptz;not null"`
}

func (StatusTimestampDTO) TableName() string {
	return "task_status_timestamps"
}

func fromDomain(t *task.Task) TaskDTO {
	s := t.Snapshot()
	d := s.Details

	dto := TaskDTO{
		ID:                 s.ID.Bytes(),
		DeliveryNumber:     s.DeliveryNumber,
		Status:             s.Status.String(),
		BusinessID:         d.BusinessID.Bytes(),
		DeliveryCompanyID:  companyFromDomain(d.DeliveryCompanyID),
		CourierID:          idPtr(s.CourierID),
		ClientID:           idPtr(d.ClientID),
		CustomerName:       d.CustomerName,
		PhoneNumber:        d.PhoneNumber,
		DeliveryAddress:    d.DeliveryAddress,
		Priority:           string(d.Priority),
		PaymentMethod:      string(d.PaymentMethod),
		Notes:              d.Notes,
		AssignmentAttempts: s.AssignmentAttempts,
		AssignedAt:         s.AssignedAt,
		BroadcastAt:        s.BroadcastAt,
		AcceptedAt:         s.AcceptedAt,
		PickedUpAt:         s.PickedUpAt,
		DeliveredAt:        s.DeliveredAt,
		IssueReportedAt:    s.IssueReportedAt,
		ClosedAt:           s.ClosedAt,
		CancelledAt:        s.CancelledAt,
		IssueType:          string(s.IssueType),
		IssueComments:      s.IssueComments,
		CreatedAt:          s.CreatedAt,
		StatusTimestamps:   stampsFromDomain(s.ID, s.StatusTimestamps),
	}
	if d.ClientLocation != nil {
		lat, lon := d.ClientLocation.Lat(), d.ClientLocation.Lon()
		dto.ClientLat = &lat
		dto.ClientLon = &lon
	}
	return dto
}

func toDomain(dto TaskDTO) (*task.Task, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	businessID, err := kernel.UUIDFromBytes(dto.BusinessID[:])
	if err != nil {
		return nil, err
	}
	var companyID kernel.UUID
	if dto.DeliveryCompanyID != nil {
		if companyID, err = kernel.UUIDFromBytes(dto.DeliveryCompanyID[:]); err != nil {
			return nil, err
		}
	}
	courierID, err := idFromDTO(dto.CourierID)
	if err != nil {
		return nil, err
	}
	clientID, err := idFromDTO(dto.ClientID)
	if err != nil {
		return nil, err
	}

	var clientLocation *kernel.Location
	if dto.ClientLat != nil && dto.ClientLon != nil {
		loc, locErr := kernel.NewLocation(*dto.ClientLat, *dto.ClientLon)
		if locErr != nil {
			return nil, locErr
		}
		clientLocation = &loc
	}

	stamps := make(map[task.Status]time.Time, len(dto.StatusTimestamps))
	for _, stamp := range dto.StatusTimestamps {
		stamps[task.Status(stamp.Status)] = stamp.At
	}

	return task.Restore(task.Snapshot{
		ID: id,
		Details: task.Details{
			BusinessID:        businessID,
			DeliveryCompanyID: companyID,
			CustomerName:      dto.CustomerName,
			PhoneNumber:       dto.PhoneNumber,
			DeliveryAddress:   dto.DeliveryAddress,
			ClientLocation:    clientLocation,
			ClientID:          clientID,
			Priority:          task.Priority(dto.Priority),
			PaymentMethod:     task.PaymentMethod(dto.PaymentMethod),
			Notes:             dto.Notes,
		},
		DeliveryNumber:     dto.DeliveryNumber,
		Status:             task.Status(dto.Status),
		CourierID:          courierID,
		AssignmentAttempts: dto.AssignmentAttempts,
		StatusTimestamps:   stamps,
		AssignedAt:         dto.AssignedAt,
		BroadcastAt:        dto.BroadcastAt,
		AcceptedAt:         dto.AcceptedAt,
		PickedUpAt:         dto.PickedUpAt,
		DeliveredAt:        dto.DeliveredAt,
		IssueReportedAt:    dto.IssueReportedAt,
		ClosedAt:           dto.ClosedAt,
		CancelledAt:        dto.CancelledAt,
		IssueType:          task.IssueType(dto.IssueType),
		IssueComments:      dto.IssueComments,
		CreatedAt:          dto.CreatedAt,
	})
}

// patchColumns lists the task columns a patch writes. ClearCourier is
// applied before CourierID, matching task.Patch.ApplyTo.
func patchColumns(p task.Patch) map[string]any {
	columns := make(map[string]any)
	if p.Status != nil {
		columns["status"] = p.Status.String()
	}
	if p.ClearCourier {
		columns["courier_id"] = nil
	}
	if p.CourierID != nil {
		columns["courier_id"] = p.CourierID.Bytes()
	}
	if p.AssignmentAttempts != nil {
		columns["assignment_attempts"] = *p.AssignmentAttempts
	}
	setTime(columns, "assigned_at", p.AssignedAt)
	setTime(columns, "broadcast_at", p.BroadcastAt)
	setTime(columns, "accepted_at", p.AcceptedAt)
	setTime(columns, "picked_up_at", p.PickedUpAt)
	setTime(columns, "delivered_at", p.DeliveredAt)
	setTime(columns, "issue_reported_at", p.IssueReportedAt)
	setTime(columns, "closed_at", p.ClosedAt)
	setTime(columns, "cancelled_at", p.CancelledAt)
	if p.IssueType != nil {
		columns["issue_type"] = string(*p.IssueType)
	}
	if p.IssueComments != nil {
		columns["issue_comments"] = *p.IssueComments
	}
	return columns
}

func setTime(columns map[string]any, name string, at *time.Time) {
	if at != nil {
		columns[name] = *at
	}
}

func stampsFromDomain(id kernel.UUID, stamps map[task.Status]time.Time) []StatusTimestampDTO {
	out := make([]StatusTimestampDTO, 0, len(stamps))
	for status, at := range stamps {
		out = append(out, StatusTimestampDTO{
			TaskID: id.Bytes(),
			Status: status.String(),
			At:     at,
		})
	}
	return out
}

func idPtr(id *kernel.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	raw := id.Bytes()
	return &raw
}

// companyFromDomain stores tasks of businesses without a delivery company as NULL.
func companyFromDomain(id kernel.UUID) *uuid.UUID {
	if id.IsZero() {
		return nil
	}
	raw := id.Bytes()
	return &raw
}

func idFromDTO(raw *uuid.UUID) (*kernel.UUID, error) {
	if raw == nil {
		return nil, nil
	}
	id, err := kernel.UUIDFromBytes(raw[:])
	if err != nil {
		return nil, err
	}
	return &id, nil
}
