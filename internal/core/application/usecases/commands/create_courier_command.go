package commands

import (
	"context"
	"errors"
	"strings"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var (
	ErrCreateCourierCommandIsNotConstructed = errors.New(
		"CreateCourierCommand must be created via NewCreateCourierCommand constructor",
	)
	ErrNameIsRequired = errors.New("name is required")
)

// CreateCourierCommand registers a courier. New couriers are off duty until
// they start a shift.
//
// Example:
//
//	cmd, err := NewCreateCourierCommand("Avi", "+972500000000")
//	if err != nil {
//	    return fmt.Errorf("invalid courier data: %w", err)
//	}
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("failed to create courier: %w", err)
//	}
//	fmt.Printf("Created courier with ID: %s", cmd.CourierID())
type CreateCourierCommand struct { //nolint:recvcheck //using for validation
	courierID kernel.UUID
	name      string
	phone     string

	guard guard.ConstructorGuard
}

// NewCreateCourierCommand generates the courier identifier.
func NewCreateCourierCommand(name, phone string) (CreateCourierCommand, error) {
	if strings.TrimSpace(name) == "" {
		return CreateCourierCommand{}, ErrNameIsRequired
	}

	return CreateCourierCommand{
		courierID: kernel.NewUUID(),
		name:      name,
		phone:     phone,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c CreateCourierCommand) Validate() error {
	return c.guard.Validate(ErrCreateCourierCommandIsNotConstructed)
}

func (c CreateCourierCommand) CourierID() kernel.UUID {
	return c.courierID
}

func (c CreateCourierCommand) Name() string {
	return c.name
}

func (c CreateCourierCommand) Phone() string {
	return c.phone
}

// CreateCourierCommandHandler persists newly registered couriers.
type CreateCourierCommandHandler struct {
	store CourierRepoFactory
}

func NewCreateCourierCommandHandler(store CourierRepoFactory) CreateCourierCommandHandler {
	return CreateCourierCommandHandler{store: store}
}

func (h CreateCourierCommandHandler) Handle(ctx context.Context, cmd CreateCourierCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	c, err := courier.NewCourier(cmd.CourierID(), cmd.Name(), cmd.Phone(), nil)
	if err != nil {
		return err
	}

	return h.store.CourierRepository().Add(ctx, c)
}
