package http

import (
	"errors"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"
)

// Error is the body of every non-2xx response.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type Created struct {
	ID string `json:"id"`
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type NewBusiness struct {
	Name              string  `json:"name"`
	City              string  `json:"city"`
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
	DeliveryCompanyID string  `json:"delivery_company_id"`
}

type NewClient struct {
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

type NewCourier struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type NewTask struct {
	CustomerName    string   `json:"customer_name"`
	PhoneNumber     string   `json:"phone_number"`
	DeliveryAddress string   `json:"delivery_address"`
	Latitude        *float64 `json:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty"`
	ClientID        *string  `json:"client_id,omitempty"`
	Priority        string   `json:"priority"`
	PaymentMethod   string   `json:"payment_method"`
	Notes           string   `json:"notes"`
}

func (n NewTask) toRequest(businessID kernel.UUID) (commands.NewTaskRequest, error) {
	req := commands.NewTaskRequest{
		BusinessID:      businessID,
		CustomerName:    n.CustomerName,
		PhoneNumber:     n.PhoneNumber,
		DeliveryAddress: n.DeliveryAddress,
		Latitude:        n.Latitude,
		Longitude:       n.Longitude,
		Priority:        task.Priority(n.Priority),
		PaymentMethod:   task.PaymentMethod(n.PaymentMethod),
		Notes:           n.Notes,
	}
	if n.ClientID != nil {
		clientID, err := kernel.UUIDFromString(*n.ClientID)
		if err != nil {
			return commands.NewTaskRequest{}, errors.New("invalid client_id")
		}
		req.ClientID = &clientID
	}
	return req, nil
}

type Task struct {
	ID              string    `json:"id"`
	DeliveryNumber  string    `json:"delivery_number"`
	Status          string    `json:"status"`
	BusinessID      string    `json:"business_id"`
	CustomerName    string    `json:"customer_name"`
	DeliveryAddress string    `json:"delivery_address"`
	Priority        string    `json:"priority"`
	PaymentMethod   string    `json:"payment_method"`
	CreatedAt       time.Time `json:"created_at"`
}

func taskFromDomain(t *task.Task) Task {
	d := t.Details()
	return Task{
		ID:              t.ID().String(),
		DeliveryNumber:  t.DeliveryNumber(),
		Status:          t.Status().String(),
		BusinessID:      t.BusinessID().String(),
		CustomerName:    d.CustomerName,
		DeliveryAddress: d.DeliveryAddress,
		Priority:        string(d.Priority),
		PaymentMethod:   string(d.PaymentMethod),
		CreatedAt:       t.CreatedAt(),
	}
}

type ActiveTask struct {
	ID                 string    `json:"id"`
	DeliveryNumber     string    `json:"delivery_number"`
	Status             string    `json:"status"`
	BusinessID         string    `json:"business_id"`
	CourierID          *string   `json:"courier_id,omitempty"`
	CustomerName       string    `json:"customer_name"`
	DeliveryAddress    string    `json:"delivery_address"`
	Priority           string    `json:"priority"`
	AssignmentAttempts int       `json:"assignment_attempts"`
	CreatedAt          time.Time `json:"created_at"`
}

func activeTaskFromQuery(t queries.GetActiveTasksQueryResponse) ActiveTask {
	return ActiveTask{
		ID:                 t.ID.String(),
		DeliveryNumber:     t.DeliveryNumber,
		Status:             t.Status.String(),
		BusinessID:         t.BusinessID.String(),
		CourierID:          idString(t.CourierID),
		CustomerName:       t.CustomerName,
		DeliveryAddress:    t.DeliveryAddress,
		Priority:           string(t.Priority),
		AssignmentAttempts: t.AssignmentAttempts,
		CreatedAt:          t.CreatedAt,
	}
}

type Courier struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	LiveStatus string    `json:"live_status"`
	Location   *Location `json:"location,omitempty"`
}

func courierFromQuery(c queries.GetOnDutyCouriersQueryResponse) Courier {
	out := Courier{
		ID:         c.ID.String(),
		Name:       c.Name,
		LiveStatus: string(c.LiveStatus),
	}
	if c.Location != nil {
		out.Location = &Location{Latitude: c.Location.Lat(), Longitude: c.Location.Lon()}
	}
	return out
}

type AssignRequest struct {
	BroadcastToAll bool `json:"broadcast_to_all"`
}

// Assignment reports the outcome of a dispatch attempt.
type Assignment struct {
	Outcome   string  `json:"outcome"`
	CourierID *string `json:"courier_id,omitempty"`
}

func assignmentFromResult(r commands.AssignmentResult) Assignment {
	return Assignment{
		Outcome:   string(r.Outcome),
		CourierID: idString(r.CourierID),
	}
}

type DutyRequest struct {
	OnDuty bool `json:"on_duty"`
}

// StatusUpdate confirms pickup or delivery. Position is the device position
// at the time of the confirmation.
type StatusUpdate struct {
	Status   string    `json:"status"`
	Position *Location `json:"position,omitempty"`
}

type IssueReport struct {
	IssueType string `json:"issue_type"`
	Comments  string `json:"comments"`
}

func idString(id *kernel.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
