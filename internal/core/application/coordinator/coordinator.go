package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/pkg/errs"
)

// DefaultResponseTimeout is how long a courier has to answer a directed offer.
const DefaultResponseTimeout = 2 * time.Minute

// expiryBudget bounds the work done when a single timer fires.
const expiryBudget = 30 * time.Second

type (
	AcceptHandler interface {
		Handle(ctx context.Context, cmd commands.AcceptTaskCommand) error
	}

	RejectHandler interface {
		Handle(ctx context.Context, cmd commands.RejectTaskCommand) (commands.AssignmentResult, error)
	}

	ExpireHandler interface {
		Handle(ctx context.Context, cmd commands.ExpireAssignmentCommand) (commands.AssignmentResult, error)
	}

	CancelHandler interface {
		Handle(ctx context.Context, cmd commands.CancelTaskCommand) error
	}
)

// Handlers are the command handlers the coordinator drives.
type Handlers struct {
	Accept AcceptHandler
	Reject RejectHandler
	Expire ExpireHandler
	Cancel CancelHandler
}

// Coordinator bounds the time a courier has to answer a directed offer.
//
// Every directed offer arms a timer. Accepting, rejecting or cancelling the
// task disarms it; a rejection or expiry that results in a new directed offer
// arms a fresh one. When a timer fires the expiry handler re-reads the task
// and acts only if the same offer is still pending, so a late timer never
// races a courier's answer.
//
// Timers are in-memory only. SweepExpired is the durable fallback and must be
// run periodically.
type Coordinator struct {
	timers   TimerRegistry
	handlers Handlers
	tasks    commands.TaskRepoFactory
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a Coordinator. A non-positive timeout selects DefaultResponseTimeout.
func New(
	timers TimerRegistry,
	handlers Handlers,
	tasks commands.TaskRepoFactory,
	timeout time.Duration,
	logger *slog.Logger,
) *Coordinator {
	if timeout <= 0 {
		timeout = DefaultResponseTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		timers:   timers,
		handlers: handlers,
		tasks:    tasks,
		timeout:  timeout,
		logger:   logger.With("component", "courier_response_coordinator"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// StartTimer arms the response timer for the offer of taskID to courierID.
func (c *Coordinator) StartTimer(taskID, courierID kernel.UUID) {
	c.timers.Arm(taskID, c.timeout, func() {
		c.onTimeout(taskID, courierID)
	})
}

// Cancel disarms the timer of taskID. Cancelling twice is a no-op.
func (c *Coordinator) Cancel(taskID kernel.UUID) {
	c.timers.Disarm(taskID)
}

// Track arms a timer when result is a directed offer. Callers of the dispatch
// engine pass every result through it.
func (c *Coordinator) Track(taskID kernel.UUID, result commands.AssignmentResult) {
	if result.IsDirected() {
		c.StartTimer(taskID, *result.CourierID)
	}
}

// AcceptTask records a courier's acceptance and stops the response timer.
func (c *Coordinator) AcceptTask(ctx context.Context, taskID, courierID kernel.UUID) error {
	cmd, err := commands.NewAcceptTaskCommand(taskID, courierID)
	if err != nil {
		return err
	}

	if err = c.handlers.Accept.Handle(ctx, cmd); err != nil {
		return err
	}

	c.Cancel(taskID)
	c.logger.InfoContext(ctx, "task accepted", "taskId", taskID.String(), "courierId", courierID.String())
	return nil
}

// RejectTask records a rejection, stops the timer and escalates the task.
func (c *Coordinator) RejectTask(ctx context.Context, taskID, courierID kernel.UUID) (commands.AssignmentResult, error) {
	cmd, err := commands.NewRejectTaskCommand(taskID, courierID)
	if err != nil {
		return commands.AssignmentResult{}, err
	}

	result, err := c.handlers.Reject.Handle(ctx, cmd)
	if err != nil {
		return commands.AssignmentResult{}, err
	}

	c.Cancel(taskID)
	c.Track(taskID, result)
	c.logger.InfoContext(ctx, "task rejected",
		"taskId", taskID.String(),
		"courierId", courierID.String(),
		"outcome", string(result.Outcome),
	)
	return result, nil
}

// CancelTask cancels the task and stops any pending timer.
func (c *Coordinator) CancelTask(ctx context.Context, taskID kernel.UUID) error {
	cmd, err := commands.NewCancelTaskCommand(taskID)
	if err != nil {
		return err
	}

	if err = c.handlers.Cancel.Handle(ctx, cmd); err != nil {
		return err
	}

	c.Cancel(taskID)
	return nil
}

// SweepExpired applies no-response handling to every pending_acceptance task
// whose offer is older than the response timeout. It returns the number of
// offers that were expired.
func (c *Coordinator) SweepExpired(ctx context.Context) (int, error) {
	pending, err := c.tasks.TaskRepository().FindByStatus(ctx, task.PendingAcceptance)
	if err != nil {
		return 0, err
	}

	cutoff := c.now().Add(-c.timeout)
	var (
		expired int
		errList []error
	)
	for _, t := range pending {
		assignedAt := t.AssignedAt()
		courierID := t.Courier()
		if assignedAt == nil || courierID == nil || assignedAt.After(cutoff) {
			continue
		}

		c.timers.Disarm(t.ID())
		handled, err := c.expire(ctx, t.ID(), *courierID)
		if err != nil {
			errList = append(errList, err)
			continue
		}
		if handled {
			expired++
		}
	}

	return expired, errors.Join(errList...)
}

func (c *Coordinator) onTimeout(taskID, courierID kernel.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), expiryBudget)
	defer cancel()

	if _, err := c.expire(ctx, taskID, courierID); err != nil {
		c.logger.ErrorContext(ctx, "failed to expire assignment",
			"taskId", taskID.String(),
			"courierId", courierID.String(),
			"error", err,
		)
	}
}

// expire runs the expiry handler and arms a timer for any new directed offer.
// It reports whether the offer was still pending.
func (c *Coordinator) expire(ctx context.Context, taskID, courierID kernel.UUID) (bool, error) {
	cmd, err := commands.NewExpireAssignmentCommand(taskID, courierID)
	if err != nil {
		return false, err
	}

	result, err := c.handlers.Expire.Handle(ctx, cmd)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if result.Outcome == commands.OutcomeSkipped {
		return false, nil
	}

	c.Track(taskID, result)
	c.logger.InfoContext(ctx, "assignment expired",
		"taskId", taskID.String(),
		"courierId", courierID.String(),
		"outcome", string(result.Outcome),
	)
	return true, nil
}
