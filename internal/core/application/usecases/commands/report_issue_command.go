package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/pkg/guard"
)

var ErrReportIssueCommandIsNotConstructed = errors.New(
	"ReportIssueCommand must be created via NewReportIssueCommand constructor",
)

// ReportIssueCommand records a problem the courier hit after pickup.
type ReportIssueCommand struct { //nolint:recvcheck //using for validation
	taskID    kernel.UUID
	courierID kernel.UUID
	issueType task.IssueType
	comments  string

	guard guard.ConstructorGuard
}

func NewReportIssueCommand(taskID, courierID kernel.UUID, issueType task.IssueType, comments string) (ReportIssueCommand, error) {
	if err := errors.Join(taskID.Validate(), courierID.Validate(), issueType.Validate()); err != nil {
		return ReportIssueCommand{}, err
	}

	return ReportIssueCommand{
		taskID:    taskID,
		courierID: courierID,
		issueType: issueType,
		comments:  comments,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c ReportIssueCommand) Validate() error {
	return c.guard.Validate(ErrReportIssueCommandIsNotConstructed)
}

func (c ReportIssueCommand) TaskID() kernel.UUID { return c.taskID }
func (c ReportIssueCommand) CourierID() kernel.UUID { return c.courierID }
func (c ReportIssueCommand) IssueType() task.IssueType { return c.issueType }
func (c ReportIssueCommand) Comments() string { return c.comments }
