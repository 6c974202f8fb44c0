package jobs

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// DefaultExpirySpec runs the expiry sweep every 30 seconds.
const DefaultExpirySpec = "*/30 * * * * *"

type ExpirySweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// AssignmentExpiryJob periodically expires directed offers whose in-memory
// timer was lost, for example across a restart.
type AssignmentExpiryJob struct {
	sweeper ExpirySweeper
	spec    string
	cron    *cron.Cron
	logger  *slog.Logger
}

// NewAssignmentExpiryJob creates the job. An empty spec selects DefaultExpirySpec.
func NewAssignmentExpiryJob(sweeper ExpirySweeper, spec string, logger *slog.Logger) *AssignmentExpiryJob {
	if spec == "" {
		spec = DefaultExpirySpec
	}
	return &AssignmentExpiryJob{
		sweeper: sweeper,
		spec:    spec,
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger.With("component", "assignment_expiry_job"),
	}
}

func (j *AssignmentExpiryJob) Start() error {
	if _, err := j.cron.AddFunc(j.spec, j.Run); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Assignment expiry job started", "schedule", j.spec)
	return nil
}

// Run performs one sweep.
func (j *AssignmentExpiryJob) Run() {
	ctx := context.Background()
	expired, err := j.sweeper.SweepExpired(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Assignment expiry sweep failed", "expired", expired, "error", err)
		return
	}
	if expired > 0 {
		j.logger.InfoContext(ctx, "Expired unanswered offers", "count", expired)
	}
}

func (j *AssignmentExpiryJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Assignment expiry job stopped")
}
