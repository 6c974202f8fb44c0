package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/pkg/errs"

	"github.com/robfig/cron/v3"
)

// DefaultRescanSpec re-offers tasks that are still pending, for example
// because no courier was free when they were created.
const DefaultRescanSpec = "*/15 * * * * *"

type (
	AssignHandler interface {
		Handle(ctx context.Context, cmd commands.AssignTaskCommand) (commands.AssignmentResult, error)
	}

	// OfferTracker arms the response timer of a directed offer.
	OfferTracker interface {
		Track(taskID kernel.UUID, result commands.AssignmentResult)
	}
)

// PendingTaskMonitor dispatches every task that enters the pending status.
//
// It subscribes to pending tasks in the store and also re-scans them on a
// cron schedule, so a task that found no courier is retried. A task is
// handled by at most one goroutine at a time; duplicate events for a task
// that is already being dispatched are dropped.
type PendingTaskMonitor struct {
	tasks      commands.TaskRepoFactory
	assign     AssignHandler
	tracker    OfferTracker
	rescanSpec string
	cron       *cron.Cron
	logger     *slog.Logger

	mu       sync.Mutex
	inFlight map[kernel.UUID]struct{}
	wg       sync.WaitGroup
	cancel   context.CancelFunc
}

// NewPendingTaskMonitor creates the monitor. An empty rescanSpec selects DefaultRescanSpec.
func NewPendingTaskMonitor(
	tasks commands.TaskRepoFactory,
	assign AssignHandler,
	tracker OfferTracker,
	rescanSpec string,
	logger *slog.Logger,
) *PendingTaskMonitor {
	if rescanSpec == "" {
		rescanSpec = DefaultRescanSpec
	}
	return &PendingTaskMonitor{
		tasks:      tasks,
		assign:     assign,
		tracker:    tracker,
		rescanSpec: rescanSpec,
		cron:       cron.New(cron.WithSeconds()),
		logger:     logger.With("component", "pending_task_monitor"),
		inFlight:   make(map[kernel.UUID]struct{}),
	}
}

// Start subscribes to pending tasks and schedules the re-scan.
func (m *PendingTaskMonitor) Start() error {
	ctx, cancel := context.WithCancel(context.Background())

	events, err := m.tasks.TaskRepository().Subscribe(ctx, task.Pending)
	if err != nil {
		cancel()
		return err
	}

	if _, err = m.cron.AddFunc(m.rescanSpec, func() { m.rescan(ctx) }); err != nil {
		cancel()
		return err
	}
	m.cancel = cancel

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for ev := range events {
			m.wg.Add(1)
			go func(id kernel.UUID) {
				defer m.wg.Done()
				m.Observe(ctx, id)
			}(ev.TaskID)
		}
	}()

	m.cron.Start()
	m.logger.InfoContext(ctx, "Pending task monitor started", "rescan", m.rescanSpec)
	return nil
}

// Stop cancels the subscription and waits for running dispatches to finish.
func (m *PendingTaskMonitor) Stop() {
	<-m.cron.Stop().Done()
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	m.logger.InfoContext(context.Background(), "Pending task monitor stopped")
}

// Observe dispatches taskID unless it is already being dispatched or has
// left the pending status. It is the entry point for every source of "task
// is pending" signals, which may repeat long after the task was offered.
func (m *PendingTaskMonitor) Observe(ctx context.Context, taskID kernel.UUID) {
	if !m.mark(taskID) {
		return
	}
	defer m.unmark(taskID)

	current, err := m.tasks.TaskRepository().Get(ctx, taskID)
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		m.logger.WarnContext(ctx, "pending task disappeared", "taskId", taskID.String())
		return
	case errors.Is(err, context.Canceled):
		return
	case err != nil:
		m.logger.ErrorContext(ctx, "failed to load pending task", "taskId", taskID.String(), "error", err)
		return
	}
	if current.Status() != task.Pending {
		m.logger.DebugContext(ctx, "stale pending event", "taskId", taskID.String(), "status", string(current.Status()))
		return
	}

	cmd, err := commands.NewAssignTaskCommand(taskID, false)
	if err != nil {
		m.logger.ErrorContext(ctx, "invalid pending task event", "taskId", taskID.String(), "error", err)
		return
	}

	result, err := m.assign.Handle(ctx, cmd)
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		m.logger.WarnContext(ctx, "pending task disappeared", "taskId", taskID.String())
		return
	case errors.Is(err, context.Canceled):
		return
	case err != nil:
		m.logger.ErrorContext(ctx, "failed to dispatch pending task", "taskId", taskID.String(), "error", err)
		return
	}

	if result.Outcome == commands.OutcomeNone {
		m.logger.InfoContext(ctx, "no couriers available, task stays pending", "taskId", taskID.String())
		return
	}
	m.tracker.Track(taskID, result)
}

// InFlight reports how many tasks are being dispatched right now.
func (m *PendingTaskMonitor) InFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inFlight)
}

func (m *PendingTaskMonitor) rescan(ctx context.Context) {
	pending, err := m.tasks.TaskRepository().FindByStatus(ctx, task.Pending)
	if err != nil {
		m.logger.ErrorContext(ctx, "pending task re-scan failed", "error", err)
		return
	}
	for _, t := range pending {
		m.Observe(ctx, t.ID())
	}
}

func (m *PendingTaskMonitor) mark(taskID kernel.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.inFlight[taskID]; busy {
		return false
	}
	m.inFlight[taskID] = struct{}{}
	return true
}

func (m *PendingTaskMonitor) unmark(taskID kernel.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inFlight, taskID)
}
