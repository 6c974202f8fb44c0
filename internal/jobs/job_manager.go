package jobs

import (
	"fmt"
)

// JobManager coordinates all background jobs in the application.
// Provides a unified interface to start and stop them.
type JobManager struct {
	pendingTaskMonitor  *PendingTaskMonitor
	assignmentExpiryJob *AssignmentExpiryJob
}

// NewJobManager takes the already constructed jobs.
func NewJobManager(monitor *PendingTaskMonitor, expiry *AssignmentExpiryJob) *JobManager {
	return &JobManager{
		pendingTaskMonitor:  monitor,
		assignmentExpiryJob: expiry,
	}
}

// StartAll starts all jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.assignmentExpiryJob.Start(); err != nil {
		return fmt.Errorf("failed to start assignment expiry job: %w", err)
	}

	if err := jm.pendingTaskMonitor.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.assignmentExpiryJob.Stop()
		return fmt.Errorf("failed to start pending task monitor: %w", err)
	}

	return nil
}

// StopAll stops all jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.pendingTaskMonitor.Stop()
	jm.assignmentExpiryJob.Stop()
}
