package commands

import (
	"errors"
	"strings"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/pkg/guard"
)

var (
	ErrCreateTaskCommandIsNotConstructed = errors.New(
		"CreateTaskCommand must be created via NewCreateTaskCommand constructor",
	)
	ErrCustomerNameIsRequired    = errors.New("customer name is required")
	ErrDeliveryAddressIsRequired = errors.New("delivery address is required")
)

// NewTaskRequest is the business-supplied payload of a new task.
type NewTaskRequest struct {
	BusinessID      kernel.UUID
	CustomerName    string
	PhoneNumber     string
	DeliveryAddress string
	// Latitude and Longitude are optional; both must be set or neither.
	Latitude      *float64
	Longitude     *float64
	ClientID      *kernel.UUID
	Priority      task.Priority
	PaymentMethod task.PaymentMethod
	Notes         string
}

// CreateTaskCommand represents a business creating a delivery task.
//
// Example:
//
//	taskID := kernel.NewUUID()
//	cmd, err := NewCreateTaskCommand(taskID, NewTaskRequest{
//	    BusinessID:      businessID,
//	    CustomerName:    "Dana",
//	    DeliveryAddress: "Herzl 1",
//	})
//	if err != nil {
//	    return fmt.Errorf("invalid task data: %w", err)
//	}
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("failed to create task: %w", err)
//	}
type CreateTaskCommand struct { //nolint:recvcheck //using for validation
	taskID  kernel.UUID
	request NewTaskRequest
	client  *kernel.Location

	guard guard.ConstructorGuard
}

// NewCreateTaskCommand validates the request. Priority defaults to normal and
// payment method to cash.
func NewCreateTaskCommand(taskID kernel.UUID, req NewTaskRequest) (CreateTaskCommand, error) {
	cmd := CreateTaskCommand{
		guard: guard.NewConstructorGuard(),
	}

	if req.Priority == "" {
		req.Priority = task.PriorityNormal
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = task.PaymentCash
	}

	if err := errors.Join(
		cmd.setTaskID(taskID),
		cmd.setRequest(req),
		cmd.setClientLocation(req.Latitude, req.Longitude),
	); err != nil {
		return CreateTaskCommand{}, err
	}

	return cmd, nil
}

func (c CreateTaskCommand) Validate() error {
	return c.guard.Validate(ErrCreateTaskCommandIsNotConstructed)
}

func (c CreateTaskCommand) TaskID() kernel.UUID {
	return c.taskID
}

func (c CreateTaskCommand) BusinessID() kernel.UUID {
	return c.request.BusinessID
}

// Details builds the task details. DeliveryCompanyID is filled by the handler.
func (c CreateTaskCommand) Details() task.Details {
	return task.Details{
		BusinessID:      c.request.BusinessID,
		CustomerName:    c.request.CustomerName,
		PhoneNumber:     c.request.PhoneNumber,
		DeliveryAddress: c.request.DeliveryAddress,
		ClientLocation:  c.client,
		ClientID:        c.request.ClientID,
		Priority:        c.request.Priority,
		PaymentMethod:   c.request.PaymentMethod,
		Notes:           c.request.Notes,
	}
}

func (c *CreateTaskCommand) setTaskID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.taskID = id
	return nil
}

func (c *CreateTaskCommand) setRequest(req NewTaskRequest) error {
	var problems []error
	if err := req.BusinessID.Validate(); err != nil {
		problems = append(problems, err)
	}
	if strings.TrimSpace(req.CustomerName) == "" {
		problems = append(problems, ErrCustomerNameIsRequired)
	}
	if strings.TrimSpace(req.DeliveryAddress) == "" {
		problems = append(problems, ErrDeliveryAddressIsRequired)
	}
	if req.ClientID != nil {
		if err := req.ClientID.Validate(); err != nil {
			problems = append(problems, err)
		}
	}
	problems = append(problems, req.Priority.Validate(), req.PaymentMethod.Validate())
	if err := errors.Join(problems...); err != nil {
		return err
	}
	c.request = req
	return nil
}

func (c *CreateTaskCommand) setClientLocation(lat, lon *float64) error {
	if lat == nil && lon == nil {
		return nil
	}
	if lat == nil || lon == nil {
		return errors.New("latitude and longitude must be provided together")
	}
	loc, err := kernel.NewLocation(*lat, *lon)
	if err != nil {
		return err
	}
	c.client = &loc
	return nil
}
