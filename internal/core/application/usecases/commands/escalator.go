package commands

import (
	"context"

	"dispatch/internal/core/domain/model/task"
)

// MaxDirectedAttempts is the number of directed offers after which a task that
// is still unanswered gets broadcast.
const MaxDirectedAttempts = 2

type (
	assignHandler interface {
		Handle(ctx context.Context, cmd AssignTaskCommand) (AssignmentResult, error)
	}

	reassignHandler interface {
		Handle(ctx context.Context, cmd ReassignTaskCommand) (AssignmentResult, error)
	}
)

// Escalator decides what happens after a courier rejects a task or lets the
// offer expire: the first refusal moves the task to the next courier, later
// ones open it to everybody.
type Escalator struct {
	assign   assignHandler
	reassign reassignHandler
	observer DispatchObserver
}

func NewEscalator(assign assignHandler, reassign reassignHandler, observer DispatchObserver) Escalator {
	if observer == nil {
		observer = NopObserver{}
	}
	return Escalator{assign: assign, reassign: reassign, observer: observer}
}

// Escalate applies the policy to t, which the caller has just loaded.
func (e Escalator) Escalate(ctx context.Context, t *task.Task) (AssignmentResult, error) {
	var (
		result AssignmentResult
		err    error
	)

	if t.AssignmentAttempts() >= MaxDirectedAttempts {
		cmd, cmdErr := NewAssignTaskCommand(t.ID(), true)
		if cmdErr != nil {
			return AssignmentResult{}, cmdErr
		}
		result, err = e.assign.Handle(ctx, cmd)
	} else {
		cmd, cmdErr := NewReassignTaskCommand(t.ID())
		if cmdErr != nil {
			return AssignmentResult{}, cmdErr
		}
		result, err = e.reassign.Handle(ctx, cmd)
	}
	if err != nil {
		return AssignmentResult{}, err
	}

	e.observer.Escalated(result.Outcome)
	return result, nil
}
