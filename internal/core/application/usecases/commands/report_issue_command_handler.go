package commands

import (
	"context"
	"time"
)

// ReportIssueCommandHandler moves a picked task to issue_reported and frees
// the courier for new work.
type ReportIssueCommandHandler struct {
	store    TaskCourierStore
	observer DispatchObserver
	now      func() time.Time
}

func NewReportIssueCommandHandler(store TaskCourierStore, observer DispatchObserver) ReportIssueCommandHandler {
	if observer == nil {
		observer = NopObserver{}
	}
	return ReportIssueCommandHandler{
		store:    store,
		observer: observer,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (h ReportIssueCommandHandler) Handle(ctx context.Context, cmd ReportIssueCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	tasks := h.store.TaskRepository()
	t, err := tasks.Get(ctx, cmd.TaskID())
	if err != nil {
		return err
	}

	patch, err := t.ReportIssue(cmd.CourierID(), cmd.IssueType(), cmd.Comments(), h.now())
	if err != nil {
		return err
	}

	if err = tasks.UpdateFields(ctx, t.ID(), patch); err != nil {
		return err
	}
	h.observer.StatusChanged(t.Status())

	return releaseCourier(ctx, h.store.CourierRepository(), cmd.CourierID())
}
