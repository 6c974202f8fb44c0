package http

import (
	"context"
	"log/slog"
	"net/http"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"

	"github.com/labstack/echo/v4"
)

type (
	// Coordinator is the part of the courier response coordinator the API drives.
	Coordinator interface {
		AcceptTask(ctx context.Context, taskID, courierID kernel.UUID) error
		RejectTask(ctx context.Context, taskID, courierID kernel.UUID) (commands.AssignmentResult, error)
		CancelTask(ctx context.Context, taskID kernel.UUID) error
		Track(taskID kernel.UUID, result commands.AssignmentResult)
	}

	AssignTaskHandler interface {
		Handle(ctx context.Context, cmd commands.AssignTaskCommand) (commands.AssignmentResult, error)
	}
	ReassignTaskHandler interface {
		Handle(ctx context.Context, cmd commands.ReassignTaskCommand) (commands.AssignmentResult, error)
	}
	CreateTaskHandler interface {
		Handle(ctx context.Context, cmd commands.CreateTaskCommand) (*task.Task, error)
	}
	UpdateTaskStatusHandler interface {
		Handle(ctx context.Context, cmd commands.UpdateTaskStatusCommand) error
	}
	ReportIssueHandler interface {
		Handle(ctx context.Context, cmd commands.ReportIssueCommand) error
	}
	CloseTaskHandler interface {
		Handle(ctx context.Context, cmd commands.CloseTaskCommand) error
	}
	CreateCourierHandler interface {
		Handle(ctx context.Context, cmd commands.CreateCourierCommand) error
	}
	SetCourierDutyHandler interface {
		Handle(ctx context.Context, cmd commands.SetCourierDutyCommand) error
	}
	UpdateCourierLocationHandler interface {
		Handle(ctx context.Context, cmd commands.UpdateCourierLocationCommand) error
	}
	RegisterBusinessHandler interface {
		Handle(ctx context.Context, cmd commands.RegisterBusinessCommand) error
	}
	RegisterClientHandler interface {
		Handle(ctx context.Context, cmd commands.RegisterClientCommand) error
	}

	ActiveTasksQueryHandler interface {
		Handle(ctx context.Context, query queries.GetActiveTasksQuery) ([]queries.GetActiveTasksQueryResponse, error)
	}
	OnDutyCouriersQueryHandler interface {
		Handle(ctx context.Context, query queries.GetOnDutyCouriersQuery) ([]queries.GetOnDutyCouriersQueryResponse, error)
	}
)

// Handlers are the use cases exposed over HTTP.
type Handlers struct {
	Coordinator Coordinator

	// Command handlers
	AssignTask            AssignTaskHandler
	ReassignTask          ReassignTaskHandler
	CreateTask            CreateTaskHandler
	UpdateTaskStatus      UpdateTaskStatusHandler
	ReportIssue           ReportIssueHandler
	CloseTask             CloseTaskHandler
	CreateCourier         CreateCourierHandler
	SetCourierDuty        SetCourierDutyHandler
	UpdateCourierLocation UpdateCourierLocationHandler
	RegisterBusiness      RegisterBusinessHandler
	RegisterClient        RegisterClientHandler

	// Query handlers
	ActiveTasks    ActiveTasksQueryHandler
	OnDutyCouriers OnDutyCouriersQueryHandler
}

// Server coordinates between HTTP handlers and application use cases.
type Server struct {
	h      Handlers
	logger *slog.Logger
}

// NewServer creates a new HTTP server with the required command and query handlers.
func NewServer(handlers Handlers, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		h:      handlers,
		logger: logger.With("component", "http_server"),
	}
}

// RegisterRoutes mounts the API under /api/v1.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")

	api.POST("/businesses", s.RegisterBusiness)
	api.POST("/businesses/:businessId/clients", s.RegisterClient)
	api.POST("/businesses/:businessId/tasks", s.CreateTask)
	api.POST("/businesses/:businessId/tasks/:taskId/close", s.CloseTask)

	api.GET("/tasks/active", s.GetActiveTasks)
	api.POST("/tasks/:taskId/assign", s.AssignTask)
	api.POST("/tasks/:taskId/reassign", s.ReassignTask)
	api.POST("/tasks/:taskId/cancel", s.CancelTask)

	api.POST("/couriers", s.CreateCourier)
	api.GET("/couriers/on-duty", s.GetOnDutyCouriers)
	api.PUT("/couriers/:courierId/duty", s.SetCourierDuty)
	api.PUT("/couriers/:courierId/location", s.UpdateCourierLocation)
	api.POST("/couriers/:courierId/tasks/:taskId/accept", s.AcceptTask)
	api.POST("/couriers/:courierId/tasks/:taskId/reject", s.RejectTask)
	api.POST("/couriers/:courierId/tasks/:taskId/status", s.UpdateTaskStatus)
	api.POST("/couriers/:courierId/tasks/:taskId/issue", s.ReportIssue)
}

// RegisterBusiness handles POST /api/v1/businesses.
func (s *Server) RegisterBusiness(ctx echo.Context) error {
	var req NewBusiness
	if err := ctx.Bind(&req); err != nil {
		return s.badRequest(ctx, "Invalid request body")
	}
	companyID, err := kernel.UUIDFromString(req.DeliveryCompanyID)
	if err != nil {
		return s.badRequest(ctx, "Invalid delivery_company_id: "+err.Error())
	}

	cmd, err := commands.NewRegisterBusinessCommand(req.Name, req.City, req.Latitude, req.Longitude, companyID)
	if err != nil {
		return s.badRequest(ctx, "Invalid business data: "+err.Error())
	}
	if err = s.h.RegisterBusiness.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.fail(ctx, err, "Failed to register business")
	}
	return ctx.JSON(http.StatusCreated, Created{ID: cmd.BusinessID().String()})
}

// RegisterClient handles POST /api/v1/businesses/{businessId}/clients.
func (s *Server) RegisterClient(ctx echo.Context) error {
	businessID, err := pathUUID(ctx, "businessId")
	if err != nil {
		return s.badRequest(ctx, err.Error())
	}
	var req NewClient
	if err = ctx.Bind(&req); err != nil {
		return s.badRequest(ctx, "Invalid request body")
	}

	cmd, err := commands.NewRegisterClientCommand(businessID, req.Name, req.Latitude, req.Longitude)
	if err != nil {
		return s.badRequest(ctx, "Invalid client data: "+err.Error())
	}
	if err = s.h.RegisterClient.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.fail(ctx, err, "Failed to register client")
	}
	return ctx.JSON(http.StatusCreated, Created{ID: cmd.ClientID().String()})
}

// CreateTask handles POST /api/v1/businesses/{businessId}/tasks.
func (s *Server) CreateTask(ctx echo.Context) error {
	businessID, err := pathUUID(ctx, "businessId")
	if err != nil {
		return s.badRequest(ctx, err.Error())
	}
	var req NewTask
	if err = ctx.Bind(&req); err != nil {
		return s.badRequest(ctx, "Invalid request body")
	}
	taskReq, err := req.toRequest(businessID)
	if err != nil {
		return s.badRequest(ctx, err.Error())
	}

	cmd, err := commands.NewCreateTaskCommand(kernel.NewUUID(), taskReq)
	if err != nil {
		return s.badRequest(ctx, "Invalid task data: "+err.Error())
	}
	t, err := s.h.CreateTask.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err, "Failed to create task")
	}
	return ctx.JSON(http.StatusCreated, taskFromDomain(t))
}

// CloseTask handles POST /api/v1/businesses/{businessId}/tasks/{taskId}/close.
func (s *Server) CloseTask(ctx echo.Context) error {
	businessID, err := pathUUID(ctx, "businessId")
	if err != nil {
		return s.badRequest(ctx, err.Error())
	}
	taskID, err := pathUUID(ctx, "taskId")
	if err != nil {
		return s.badRequest(ctx, err.Error())
	}

	cmd, err := commands.NewCloseTaskCommand(taskID, businessID)
	if err != nil {
		return s.badRequest(ctx, err.Error())
	}
	if err = s.h.CloseTask.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.fail(ctx, err, "Failed to close task")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// GetActiveTasks handles GET /api/v1/tasks/active.
func (s *Server) GetActiveTasks(ctx echo.Context) error {
	businessID, err := queryUUID(ctx, "business_id")
	if err != nil {
		return s.badRequest(ctx, err.Error())
	}

	tasks, err := s.h.ActiveTasks.Handle(ctx.Request().Context(), queries.NewGetActiveTasksQuery(businessID))
	if err != nil {
		return s.fail(ctx, err, "Failed to retrieve tasks")
	}

	response := make([]ActiveTask, len(tasks))
	for i, t := range tasks {
		response[i] = activeTaskFromQuery(t)
	}
	return ctx.JSON(http.StatusOK, response)
}

// AssignTask handles POST /api/v1/tasks/{taskId}/assign.
func (s *Server) AssignTask(ctx echo.Context) error {
	taskID, err := pathUUID(ctx, "taskId")
	if err != nil {
		return s.badRequest(ctx, err.Error())
	}
	var req AssignRequest
	if err = ctx.Bind(&req); err != nil {
		return s.badRequest(ctx, "Invalid request body")
	}

	cmd, err := commands.NewAssignTaskCommand(taskID, req.BroadcastToAll)
	if err != nil {
		return s.badRequest(ctx, err.Error())
	}
	result, err := s.h.AssignTask.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err, "Failed to assign task")
	}
	s.h.Coordinator.Track(taskID, result)
	return ctx.JSON(http.StatusOK, assignmentFromResult(result))
}

// ReassignTask handles POST /api/v1/tasks/{taskId}/reassign.
func (s *Server) ReassignTask(ctx echo.Context) error {
	taskID, err := pathUUID(ctx, "taskId")
	if err != nil {
		return s.badRequest(ctx, err.Error())
	}

	cmd, err := commands.NewReassignTaskCommand(taskID)
	if err != nil {
		return s.badRequest(ctx, err.Error())
	}
	result, err := s.h.ReassignTask.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err, "Failed to reassign task")
	}
	s.h.Coordinator.Track(taskID, result)
	return ctx.JSON(http.StatusOK, assignmentFromResult(result))
}

// CancelTask handles POST /api/v1/tasks/{taskId}/cancel.
func (s *Server) CancelTask(ctx echo.Context) error {
	taskID, err := pathUUID(ctx, "taskId")
	if err != nil {
		return s.badRequest(ctx, err.Error())
	}
	if err = s.h.Coordinator.CancelTask(ctx.Request().Context(), taskID); err != nil {
		return s.fail(ctx, err, "Failed to cancel task")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// CreateCourier handles POST /api/v1/couriers.
func (s *Server) CreateCourier(ctx echo.Context) error {
	var req NewCourier
	if err := ctx.Bind(&req); err != nil {
		return s.badRequest(ctx, "Invalid request body")
	}

	cmd, err := commands.NewCreateCourierCommand(req.Name, req.Phone)
	if err != nil {
		return s.badRequest(ctx, "Invalid courier data: "+err.Error())
	}
	if err = s.h.CreateCourier.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.fail(ctx, err, "Failed to create courier")
	}
	return ctx.JSON(http.StatusCreated, Created{ID: cmd.CourierID().String()})
}

// GetOnDutyCouriers handles GET /api/v1/couriers/on-duty.
func (s *Server) GetOnDutyCouriers(ctx echo.Context) error {
	couriers, err := s.h.OnDutyCouriers.Handle(ctx.Request().Context(), queries.NewGetOnDutyCouriersQuery())
	if err != nil {
		return s.fail(ctx, err, "Failed to retrieve couriers")
	}

	response := make([]Courier, len(couriers))
	for i, c := range couriers {
		response[i] = courierFromQuery(c)
	}
	return ctx.JSON(http.StatusOK, response)
}

// SetCourierDuty handles PUT /api/v1/couriers/{courierId}/duty.
func (s *Server) SetCourierDuty(ctx echo.Context) error {
	courierID, err := pathUUID(ctx, "courierId")
	if err != nil {
		return s.badRequest(ctx, err.Error())
	}
	var req DutyRequest
	if err = ctx.Bind(&req); err != nil {
		return s.badRequest(ctx, "Invalid request body")
	}

	cmd, err := commands.NewSetCourierDutyCommand(courierID, req.OnDuty)
	if err != nil {
		return s.badRequest(ctx, err.Error())
	}
	if err = s.h.SetCourierDuty.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.fail(ctx, err, "Failed to change duty")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// UpdateCourierLocation handles PUT /api/v1/couriers/{courierId}/location.
func (s *Server) UpdateCourierLocation(ctx echo.Context) error {
	courierID, err := pathUUID(ctx, "courierId")
	if err != nil {
		return s.badRequest(ctx, err.Error())
	}
	var req Location
	if err = ctx.Bind(&req); err != nil {
		return s.badRequest(ctx, "Invalid request body")
	}

	cmd, err := commands.NewUpdateCourierLocationCommand(courierID, req.Latitude, req.Longitude)
	if err != nil {
		return s.badRequest(ctx, "Invalid location: "+err.Error())
	}
	if err = s.h.UpdateCourierLocation.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.fail(ctx, err, "Failed to update location")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// AcceptTask handles POST /api/v1/couriers/{courierId}/tasks/{taskId}/accept.
func (s *Server) AcceptTask(ctx echo.Context) error {
	courierID, taskID, err := courierTaskIDs(ctx)
	if err != nil {
		return s.badRequest(ctx, err.Error())
	}
	if err = s.h.Coordinator.AcceptTask(ctx.Request().Context(), taskID, courierID); err != nil {
		return s.fail(ctx, err, "Failed to accept task")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// RejectTask handles POST /api/v1/couriers/{courierId}/tasks/{taskId}/reject.
func (s *Server) RejectTask(ctx echo.Context) error {
	courierID, taskID, err := courierTaskIDs(ctx)
	if err != nil {
		return s.badRequest(ctx, err.Error())
	}
	result, err := s.h.Coordinator.RejectTask(ctx.Request().Context(), taskID, courierID)
	if err != nil {
		return s.fail(ctx, err, "Failed to reject task")
	}
	return ctx.JSON(http.StatusOK, assignmentFromResult(result))
}

// UpdateTaskStatus handles POST /api/v1/couriers/{courierId}/tasks/{taskId}/status.
// The device position sent with the request is what the geofence checks.
func (s *Server) UpdateTaskStatus(ctx echo.Context) error {
	courierID, taskID, err := courierTaskIDs(ctx)
	if err != nil {
		return s.badRequest(ctx, err.Error())
	}
	var req StatusUpdate
	if err = ctx.Bind(&req); err != nil {
		return s.badRequest(ctx, "Invalid request body")
	}

	cmd, err := commands.NewUpdateTaskStatusCommand(taskID, courierID, task.Status(req.Status))
	if err != nil {
		return s.badRequest(ctx, err.Error())
	}

	reqCtx := ctx.Request().Context()
	if req.Position != nil {
		position, locErr := kernel.NewLocation(req.Position.Latitude, req.Position.Longitude)
		if locErr != nil {
			return s.badRequest(ctx, "Invalid position: "+locErr.Error())
		}
		reqCtx = WithReportedPosition(reqCtx, courierID, position)
	}

	if err = s.h.UpdateTaskStatus.Handle(reqCtx, cmd); err != nil {
		return s.fail(ctx, err, "Failed to update task status")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// ReportIssue handles POST /api/v1/couriers/{courierId}/tasks/{taskId}/issue.
func (s *Server) ReportIssue(ctx echo.Context) error {
	courierID, taskID, err := courierTaskIDs(ctx)
	if err != nil {
		return s.badRequest(ctx, err.Error())
	}
	var req IssueReport
	if err = ctx.Bind(&req); err != nil {
		return s.badRequest(ctx, "Invalid request body")
	}

	cmd, err := commands.NewReportIssueCommand(taskID, courierID, task.IssueType(req.IssueType), req.Comments)
	if err != nil {
		return s.badRequest(ctx, err.Error())
	}
	if err = s.h.ReportIssue.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.fail(ctx, err, "Failed to report issue")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func courierTaskIDs(ctx echo.Context) (kernel.UUID, kernel.UUID, error) {
	courierID, err := pathUUID(ctx, "courierId")
	if err != nil {
		return kernel.UUID{}, kernel.UUID{}, err
	}
	taskID, err := pathUUID(ctx, "taskId")
	if err != nil {
		return kernel.UUID{}, kernel.UUID{}, err
	}
	return courierID, taskID, nil
}
