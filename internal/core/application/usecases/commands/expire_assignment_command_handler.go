package commands

import (
	"context"
	"errors"
	"log/slog"

	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/pkg/errs"
)

// ExpireAssignmentCommandHandler handles a courier who did not answer in time.
//
// The task is re-read first: if it is no longer pending_acceptance, or the
// offer has moved to another courier, nothing happens and OutcomeSkipped is
// returned. Otherwise the silent courier is released and the task escalated.
type ExpireAssignmentCommandHandler struct {
	store     TaskCourierStore
	escalator Escalator
	observer  DispatchObserver
	logger    *slog.Logger
}

func NewExpireAssignmentCommandHandler(
	store TaskCourierStore,
	escalator Escalator,
	observer DispatchObserver,
	logger *slog.Logger,
) ExpireAssignmentCommandHandler {
	if observer == nil {
		observer = NopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return ExpireAssignmentCommandHandler{
		store:     store,
		escalator: escalator,
		observer:  observer,
		logger:    logger.With("component", "assignment_expiry"),
	}
}

func (h ExpireAssignmentCommandHandler) Handle(ctx context.Context, cmd ExpireAssignmentCommand) (AssignmentResult, error) {
	if err := cmd.Validate(); err != nil {
		return AssignmentResult{}, err
	}

	t, err := h.store.TaskRepository().Get(ctx, cmd.TaskID())
	if err != nil {
		return AssignmentResult{}, err
	}

	if t.Status() != task.PendingAcceptance || !t.IsHeldBy(cmd.CourierID()) {
		return outcome(OutcomeSkipped), nil
	}

	h.observer.ResponseTimedOut()
	h.logger.InfoContext(ctx, "courier did not respond",
		"taskId", t.ID().String(),
		"courierId", cmd.CourierID().String(),
		"attempts", t.AssignmentAttempts(),
	)

	err = releaseCourier(ctx, h.store.CourierRepository(), cmd.CourierID())
	if errors.Is(err, errs.ErrObjectNotFound) {
		h.logger.WarnContext(ctx, "expired courier no longer exists", "courierId", cmd.CourierID().String())
	} else if err != nil {
		return AssignmentResult{}, err
	}

	return h.escalator.Escalate(ctx, t)
}
