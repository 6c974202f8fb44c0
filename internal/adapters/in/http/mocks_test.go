package http

import (
	"context"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"

	"github.com/stretchr/testify/mock"
)

type MockCoordinator struct{ mock.Mock }

func (m *MockCoordinator) AcceptTask(ctx context.Context, taskID, courierID kernel.UUID) error {
	args := m.Called(ctx, taskID, courierID)
	return args.Error(0)
}

func (m *MockCoordinator) RejectTask(ctx context.Context, taskID, courierID kernel.UUID) (commands.AssignmentResult, error) {
	args := m.Called(ctx, taskID, courierID)
	return args.Get(0).(commands.AssignmentResult), args.Error(1)
}

func (m *MockCoordinator) CancelTask(ctx context.Context, taskID kernel.UUID) error {
	args := m.Called(ctx, taskID)
	return args.Error(0)
}

func (m *MockCoordinator) Track(taskID kernel.UUID, result commands.AssignmentResult) {
	m.Called(taskID, result)
}

type MockAssignTaskHandler struct{ mock.Mock }

func (m *MockAssignTaskHandler) Handle(ctx context.Context, cmd commands.AssignTaskCommand) (commands.AssignmentResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(commands.AssignmentResult), args.Error(1)
}

type MockCreateTaskHandler struct{ mock.Mock }

func (m *MockCreateTaskHandler) Handle(ctx context.Context, cmd commands.CreateTaskCommand) (*task.Task, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

type MockUpdateTaskStatusHandler struct{ mock.Mock }

func (m *MockUpdateTaskStatusHandler) Handle(ctx context.Context, cmd commands.UpdateTaskStatusCommand) error {
	args := m.Called(ctx, cmd)
	return args.Error(0)
}

type MockCreateCourierHandler struct{ mock.Mock }

func (m *MockCreateCourierHandler) Handle(ctx context.Context, cmd commands.CreateCourierCommand) error {
	args := m.Called(ctx, cmd)
	return args.Error(0)
}

type MockSetCourierDutyHandler struct{ mock.Mock }

func (m *MockSetCourierDutyHandler) Handle(ctx context.Context, cmd commands.SetCourierDutyCommand) error {
	args := m.Called(ctx, cmd)
	return args.Error(0)
}

type MockActiveTasksQueryHandler struct{ mock.Mock }

func (m *MockActiveTasksQueryHandler) Handle(
	ctx context.Context,
	query queries.GetActiveTasksQuery,
) ([]queries.GetActiveTasksQueryResponse, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]queries.GetActiveTasksQueryResponse), args.Error(1)
}

type MockOnDutyCouriersQueryHandler struct{ mock.Mock }

func (m *MockOnDutyCouriersQueryHandler) Handle(
	ctx context.Context,
	query queries.GetOnDutyCouriersQuery,
) ([]queries.GetOnDutyCouriersQueryResponse, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]queries.GetOnDutyCouriersQueryResponse), args.Error(1)
}
