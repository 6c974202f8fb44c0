// Package jobs provides the background work of the dispatch service.
//
// Cron schedules use github.com/robfig/cron/v3 with the seconds field enabled.
//
// # Available Jobs
//
// 1. PendingTaskMonitor - dispatches tasks as they enter the pending status and
// re-scans pending tasks every 15 seconds so tasks that found no courier are retried
// 2. AssignmentExpiryJob - every 30 seconds expires directed offers older than the
// response timeout whose in-memory timer was lost
//
// # Usage
//
//	monitor := jobs.NewPendingTaskMonitor(store, assignHandler, coordinator, "", logger)
//	expiry := jobs.NewAssignmentExpiryJob(coordinator, "", logger)
//	jobManager := jobs.NewJobManager(monitor, expiry)
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// # Error Handling
//
// - Finding no courier is an expected outcome and is logged at info level
// - A task that vanished between the event and the dispatch is logged as a warning
// - Failed job starts stop any already running jobs
package jobs
